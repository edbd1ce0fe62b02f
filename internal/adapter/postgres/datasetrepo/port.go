// package datasetrepo contains the PostgreSQL implementation of the
// dataset repository
package datasetrepo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/chartlab/chartlab/internal/core/ports/primary"
	"github.com/chartlab/chartlab/internal/core/ports/secondary"
	"github.com/chartlab/chartlab/internal/domain"
)

// DatasetRepository implements the DatasetRepository interface with PostgreSQL
type DatasetRepository struct {
	db     *sqlx.DB
	logger primary.Logger
}

var _ secondary.DatasetRepository = (*DatasetRepository)(nil)

// NewDatasetRepository creates a new PostgreSQL dataset repository
func NewDatasetRepository(db *sqlx.DB, logger primary.Logger) *DatasetRepository {
	return &DatasetRepository{
		db:     db,
		logger: logger,
	}
}

// SaveDataset inserts or updates a dataset record
func (r *DatasetRepository) SaveDataset(ctx context.Context, dataset *domain.Dataset) error {
	query := `
		INSERT INTO datasets (
			id, session_id, filename, content_type, size_bytes, sha256,
			stored_path, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			sha256 = EXCLUDED.sha256,
			status = EXCLUDED.status
	`

	if _, err := r.db.ExecContext(ctx, query,
		dataset.ID, dataset.SessionID, dataset.Filename, dataset.ContentType,
		dataset.SizeBytes, dataset.SHA256, dataset.StoredPath, dataset.Status, dataset.CreatedAt,
	); err != nil {
		r.logger.Error("Failed to save dataset", "error", err)
		return fmt.Errorf("failed to save dataset: %w", err)
	}

	return nil
}

// GetDataset retrieves a dataset by ID
func (r *DatasetRepository) GetDataset(ctx context.Context, id uuid.UUID) (*domain.Dataset, error) {
	query := `
		SELECT id, session_id, filename, content_type, size_bytes, sha256,
			   stored_path, status, created_at
		FROM datasets
		WHERE id = $1
	`

	var dataset domain.Dataset
	if err := r.db.GetContext(ctx, &dataset, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Failed to get dataset", "error", err)
		return nil, fmt.Errorf("failed to get dataset: %w", err)
	}

	return &dataset, nil
}

// ListBySession retrieves datasets for a session, newest first
func (r *DatasetRepository) ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]*domain.Dataset, error) {
	query := `
		SELECT id, session_id, filename, content_type, size_bytes, sha256,
			   stored_path, status, created_at
		FROM datasets
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	datasets := []*domain.Dataset{}
	if err := r.db.SelectContext(ctx, &datasets, query, sessionID, limit); err != nil {
		r.logger.Error("Failed to list datasets", "sessionId", sessionID, "error", err)
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}

	return datasets, nil
}

// UpdateStatus moves a dataset to a new processing status
func (r *DatasetRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.DatasetStatus, checksum string) error {
	query := `
		UPDATE datasets
		SET status = $1,
			sha256 = CASE WHEN $2 <> '' THEN $2 ELSE sha256 END
		WHERE id = $3
	`

	if _, err := r.db.ExecContext(ctx, query, status, checksum, id); err != nil {
		r.logger.Error("Failed to update dataset status", "datasetId", id, "error", err)
		return fmt.Errorf("failed to update dataset status: %w", err)
	}

	return nil
}
