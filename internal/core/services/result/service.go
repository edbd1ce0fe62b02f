package result

import (
	"context"

	"github.com/google/uuid"

	"github.com/chartlab/chartlab/internal/domain"
	"github.com/chartlab/chartlab/internal/sandbox"
)

// ResultWithImages bundles a result with its images for API consumers
type ResultWithImages struct {
	Result *domain.Result
	Images []*domain.GeneratedImage
}

// IResultService defines the interface for processing and serving results
type IResultService interface {
	// ProcessRunResult converts a raw sandbox run into a stored Result
	// with its generated images and returns it
	ProcessRunResult(ctx context.Context, execution *domain.Execution, run sandbox.RunResult) (*domain.Result, error)

	// GetSessionResults retrieves results with images for a session
	GetSessionResults(ctx context.Context, sessionID uuid.UUID, limit int) ([]*ResultWithImages, error)

	// GetResultByExecution retrieves the result of one execution with images
	GetResultByExecution(ctx context.Context, executionID uuid.UUID) (*ResultWithImages, error)

	// GetImage retrieves one stored image
	GetImage(ctx context.Context, imageID uuid.UUID) (*domain.GeneratedImage, error)

	// ImproveImageNames re-derives image names with the result summary
	// as analysis context and persists changed names
	ImproveImageNames(ctx context.Context, resultID uuid.UUID) error

	// UpdateSummary replaces the summary of an execution's result
	UpdateSummary(ctx context.Context, executionID uuid.UUID, summary string) error
}
