package secondary

import (
	"context"

	"github.com/google/uuid"

	"github.com/chartlab/chartlab/internal/domain"
)

// DatasetRepository defines the interface for uploaded dataset records
type DatasetRepository interface {
	// SaveDataset inserts or updates a dataset record
	SaveDataset(ctx context.Context, dataset *domain.Dataset) error

	// GetDataset retrieves a dataset by ID, nil when absent
	GetDataset(ctx context.Context, id uuid.UUID) (*domain.Dataset, error)

	// ListBySession retrieves datasets for a session, newest first
	ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]*domain.Dataset, error)

	// UpdateStatus moves a dataset to a new processing status
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.DatasetStatus, checksum string) error
}
