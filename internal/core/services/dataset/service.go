package dataset

import (
	"context"

	"github.com/google/uuid"

	"github.com/chartlab/chartlab/internal/domain"
)

// IDatasetService defines the interface for uploaded datasets
type IDatasetService interface {
	// RegisterUpload records a stored upload and enqueues it on the
	// file_processing lane
	RegisterUpload(ctx context.Context, dataset *domain.Dataset) error

	// Get retrieves a dataset by ID, nil when absent
	Get(ctx context.Context, id uuid.UUID) (*domain.Dataset, error)

	// ListBySession retrieves datasets for a session, newest first
	ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]*domain.Dataset, error)

	// Process verifies the stored file and marks the dataset ready.
	// Called by the file_processing lane handler.
	Process(ctx context.Context, datasetID uuid.UUID) error
}
