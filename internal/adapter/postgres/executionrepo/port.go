// package executionrepo contains the PostgreSQL implementation of the
// execution repository
package executionrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/chartlab/chartlab/internal/core/ports/primary"
	"github.com/chartlab/chartlab/internal/core/ports/secondary"
	"github.com/chartlab/chartlab/internal/domain"
)

// ExecutionRepository implements the ExecutionRepository interface with PostgreSQL
type ExecutionRepository struct {
	db     *sqlx.DB
	logger primary.Logger
}

var _ secondary.ExecutionRepository = (*ExecutionRepository)(nil)

// NewExecutionRepository creates a new PostgreSQL execution repository
func NewExecutionRepository(db *sqlx.DB, logger primary.Logger) *ExecutionRepository {
	return &ExecutionRepository{
		db:     db,
		logger: logger,
	}
}

// SaveExecution saves an execution to PostgreSQL
func (r *ExecutionRepository) SaveExecution(ctx context.Context, execution *domain.Execution) error {
	query := `
		INSERT INTO sandbox_executions (
			id, session_id, user_id, code, language, status, output, error_text,
			execution_time_ms, memory_used_mb, worker_id, retry_count, retry_limit,
			timeout_seconds, memory_limit_mb, created_at, started_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			output = EXCLUDED.output,
			error_text = EXCLUDED.error_text,
			execution_time_ms = EXCLUDED.execution_time_ms,
			memory_used_mb = EXCLUDED.memory_used_mb,
			worker_id = EXCLUDED.worker_id,
			retry_count = EXCLUDED.retry_count,
			started_at = EXCLUDED.started_at,
			completed_at = EXCLUDED.completed_at
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		execution.ID,
		execution.SessionID,
		execution.UserID,
		execution.Code,
		execution.Language,
		execution.Status,
		execution.Output,
		execution.ErrorText,
		execution.ExecutionTimeMs,
		execution.MemoryUsedMB,
		execution.WorkerID,
		execution.RetryCount,
		execution.RetryLimit,
		execution.TimeoutSec,
		execution.MemoryLimitMB,
		execution.CreatedAt,
		execution.StartedAt,
		execution.CompletedAt,
	)

	if err != nil {
		r.logger.Error("Failed to save execution", "error", err)
		return fmt.Errorf("failed to save execution: %w", err)
	}

	return nil
}

// GetExecution retrieves an execution from PostgreSQL by ID
func (r *ExecutionRepository) GetExecution(ctx context.Context, id uuid.UUID) (*domain.Execution, error) {
	query := `
		SELECT id, session_id, user_id, code, language, status, output, error_text,
			   execution_time_ms, memory_used_mb, worker_id, retry_count, retry_limit,
			   timeout_seconds, memory_limit_mb, created_at, started_at, completed_at
		FROM sandbox_executions
		WHERE id = $1
	`

	var execution domain.Execution
	err := r.db.GetContext(ctx, &execution, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Failed to get execution", "error", err)
		return nil, fmt.Errorf("failed to get execution: %w", err)
	}

	return &execution, nil
}

// ListBySession retrieves executions for a session, newest first
func (r *ExecutionRepository) ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]*domain.Execution, error) {
	query := `
		SELECT id, session_id, user_id, code, language, status, output, error_text,
			   execution_time_ms, memory_used_mb, worker_id, retry_count, retry_limit,
			   timeout_seconds, memory_limit_mb, created_at, started_at, completed_at
		FROM sandbox_executions
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	executions := []*domain.Execution{}
	if err := r.db.SelectContext(ctx, &executions, query, sessionID, limit); err != nil {
		r.logger.Error("Failed to list executions by session", "sessionId", sessionID, "error", err)
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}

	return executions, nil
}

// TransitionStatus atomically moves an execution between statuses.
// The WHERE clause on the current status makes concurrent writers safe:
// only one transition out of a state can win.
func (r *ExecutionRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to domain.ExecutionStatus) (bool, error) {
	if !from.CanTransitionTo(to) {
		return false, nil
	}

	query := `
		UPDATE sandbox_executions
		SET status = $1,
			started_at = CASE WHEN $1 = 'RUNNING' THEN NOW() ELSE started_at END,
			completed_at = CASE WHEN $1 IN ('SUCCEEDED', 'FAILED', 'CANCELLED') THEN NOW() ELSE completed_at END
		WHERE id = $2 AND status = $3
	`

	res, err := r.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		r.logger.Error("Failed to transition execution status", "executionId", id, "error", err)
		return false, fmt.Errorf("failed to transition execution status: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return rows == 1, nil
}

// GetStuckRunning retrieves running executions whose deadline passed
// before cutoff. The list is a snapshot; callers claim each execution
// with ResetStuckRunning or FailStuckRunning before acting on it.
func (r *ExecutionRepository) GetStuckRunning(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Execution, error) {
	query := `
		SELECT id, session_id, user_id, code, language, status, output, error_text,
			   execution_time_ms, memory_used_mb, worker_id, retry_count, retry_limit,
			   timeout_seconds, memory_limit_mb, created_at, started_at, completed_at
		FROM sandbox_executions
		WHERE status = 'RUNNING'
		  AND started_at + (timeout_seconds * INTERVAL '1 second') < $1
		ORDER BY started_at ASC
		LIMIT $2
	`

	executions := []*domain.Execution{}
	if err := r.db.SelectContext(ctx, &executions, query, cutoff, limit); err != nil {
		r.logger.Error("Failed to get stuck executions", "error", err)
		return nil, fmt.Errorf("failed to get stuck executions: %w", err)
	}

	return executions, nil
}

// ResetStuckRunning returns a stuck execution to PENDING, bumping its
// retry count. The status guard in the WHERE clause makes concurrent
// sweepers safe: only one caller sees an affected row.
func (r *ExecutionRepository) ResetStuckRunning(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE sandbox_executions
		SET status = 'PENDING',
			retry_count = retry_count + 1,
			started_at = NULL,
			worker_id = NULL
		WHERE id = $1 AND status = 'RUNNING'
	`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to reset stuck execution", "executionId", id, "error", err)
		return false, fmt.Errorf("failed to reset stuck execution: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return rows == 1, nil
}

// FailStuckRunning marks a stuck execution FAILED with the given error text
func (r *ExecutionRepository) FailStuckRunning(ctx context.Context, id uuid.UUID, errorText string) (bool, error) {
	query := `
		UPDATE sandbox_executions
		SET status = 'FAILED',
			error_text = $2,
			completed_at = NOW()
		WHERE id = $1 AND status = 'RUNNING'
	`

	res, err := r.db.ExecContext(ctx, query, id, errorText)
	if err != nil {
		r.logger.Error("Failed to fail stuck execution", "executionId", id, "error", err)
		return false, fmt.Errorf("failed to fail stuck execution: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return rows == 1, nil
}

// DeleteCompletedBefore removes terminal executions older than cutoff
func (r *ExecutionRepository) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM sandbox_executions
		WHERE status IN ('SUCCEEDED', 'FAILED', 'CANCELLED')
		  AND completed_at < $1
	`

	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		r.logger.Error("Failed to delete expired executions", "error", err)
		return 0, fmt.Errorf("failed to delete expired executions: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return rows, nil
}
