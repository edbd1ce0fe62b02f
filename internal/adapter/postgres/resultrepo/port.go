// package resultrepo contains the PostgreSQL implementation of the
// result repository
package resultrepo

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

// ResultRepository implements the ResultRepository interface with PostgreSQL
type ResultRepository struct {
	db     *sqlx.DB
	logger primary.Logger
}

var _ secondary.ResultRepository = (*ResultRepository)(nil)

// NewResultRepository creates a new PostgreSQL result repository
func NewResultRepository(db *sqlx.DB, logger primary.Logger) *ResultRepository {
	return &ResultRepository{
		db:     db,
		logger: logger,
	}
}

// SaveResult persists a result together with its images in one transaction
func (r *ResultRepository) SaveResult(ctx context.Context, result *domain.Result, images []*domain.GeneratedImage) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	resultQuery := `
		INSERT INTO sandbox_results (id, execution_id, summary, has_images, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (execution_id) DO UPDATE SET
			summary = EXCLUDED.summary,
			has_images = EXCLUDED.has_images
	`

	if _, err := tx.ExecContext(ctx, resultQuery,
		result.ID, result.ExecutionID, result.Summary, result.HasImages, result.CreatedAt,
	); err != nil {
		r.logger.Error("Failed to save result", "executionId", result.ExecutionID, "error", err)
		return fmt.Errorf("failed to save result: %w", err)
	}

	imageQuery := `
		INSERT INTO generated_images (
			id, result_id, name, image_data, image_format, width, height,
			source_type, position, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`

	for _, img := range images {
		if _, err := tx.ExecContext(ctx, imageQuery,
			img.ID, img.ResultID, img.Name, img.ImageData, img.ImageFormat,
			img.Width, img.Height, img.SourceType, img.Position, img.CreatedAt,
		); err != nil {
			r.logger.Error("Failed to save generated image", "resultId", img.ResultID, "error", err)
			return fmt.Errorf("failed to save generated image: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit result: %w", err)
	}

	return nil
}

// GetResult retrieves a result from PostgreSQL by ID
func (r *ResultRepository) GetResult(ctx context.Context, id uuid.UUID) (*domain.Result, error) {
	query := `
		SELECT id, execution_id, summary, has_images, created_at
		FROM sandbox_results
		WHERE id = $1
	`

	var result domain.Result
	if err := r.db.GetContext(ctx, &result, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Failed to get result", "error", err)
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	return &result, nil
}

// GetResultByExecution retrieves the result of an execution
func (r *ResultRepository) GetResultByExecution(ctx context.Context, executionID uuid.UUID) (*domain.Result, error) {
	query := `
		SELECT id, execution_id, summary, has_images, created_at
		FROM sandbox_results
		WHERE execution_id = $1
	`

	var result domain.Result
	if err := r.db.GetContext(ctx, &result, query, executionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Failed to get result by execution", "executionId", executionID, "error", err)
		return nil, fmt.Errorf("failed to get result by execution: %w", err)
	}

	return &result, nil
}

// ListBySession retrieves results for executions in a session, newest first
func (r *ResultRepository) ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]*domain.Result, error) {
	query := `
		SELECT r.id, r.execution_id, r.summary, r.has_images, r.created_at
		FROM sandbox_results r
		JOIN sandbox_executions e ON e.id = r.execution_id
		WHERE e.session_id = $1
		ORDER BY r.created_at DESC
		LIMIT $2
	`

	results := []*domain.Result{}
	if err := r.db.SelectContext(ctx, &results, query, sessionID, limit); err != nil {
		r.logger.Error("Failed to list results by session", "sessionId", sessionID, "error", err)
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	return results, nil
}

// GetImages retrieves the images of a result ordered by position
func (r *ResultRepository) GetImages(ctx context.Context, resultID uuid.UUID) ([]*domain.GeneratedImage, error) {
	query := `
		SELECT id, result_id, name, image_data, image_format, width, height,
			   source_type, position, created_at
		FROM generated_images
		WHERE result_id = $1
		ORDER BY position ASC
	`

	images := []*domain.GeneratedImage{}
	if err := r.db.SelectContext(ctx, &images, query, resultID); err != nil {
		r.logger.Error("Failed to get images", "resultId", resultID, "error", err)
		return nil, fmt.Errorf("failed to get images: %w", err)
	}

	return images, nil
}

// GetImage retrieves one image by ID
func (r *ResultRepository) GetImage(ctx context.Context, imageID uuid.UUID) (*domain.GeneratedImage, error) {
	query := `
		SELECT id, result_id, name, image_data, image_format, width, height,
			   source_type, position, created_at
		FROM generated_images
		WHERE id = $1
	`

	var image domain.GeneratedImage
	if err := r.db.GetContext(ctx, &image, query, imageID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Failed to get image", "imageId", imageID, "error", err)
		return nil, fmt.Errorf("failed to get image: %w", err)
	}

	return &image, nil
}

// RenameImage updates only the display name of an image
func (r *ResultRepository) RenameImage(ctx context.Context, imageID uuid.UUID, name string) error {
	query := `UPDATE generated_images SET name = $1 WHERE id = $2`

	if _, err := r.db.ExecContext(ctx, query, name, imageID); err != nil {
		r.logger.Error("Failed to rename image", "imageId", imageID, "error", err)
		return fmt.Errorf("failed to rename image: %w", err)
	}

	return nil
}
