package secondary

import (
	"context"

	"github.com/google/uuid"

	"github.com/chartlab/chartlab/internal/domain"
)

// ResultRepository defines the interface for storing structured results
// and their generated images
type ResultRepository interface {
	// SaveResult persists a result together with its images
	SaveResult(ctx context.Context, result *domain.Result, images []*domain.GeneratedImage) error

	// GetResult retrieves a result by ID, nil when absent
	GetResult(ctx context.Context, id uuid.UUID) (*domain.Result, error)

	// GetResultByExecution retrieves the result of an execution, nil when absent
	GetResultByExecution(ctx context.Context, executionID uuid.UUID) (*domain.Result, error)

	// ListBySession retrieves results for executions in a session, newest first
	ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]*domain.Result, error)

	// GetImages retrieves the images of a result ordered by position
	GetImages(ctx context.Context, resultID uuid.UUID) ([]*domain.GeneratedImage, error)

	// GetImage retrieves one image by ID, nil when absent
	GetImage(ctx context.Context, imageID uuid.UUID) (*domain.GeneratedImage, error)

	// RenameImage updates only the display name of an image
	RenameImage(ctx context.Context, imageID uuid.UUID, name string) error
}
