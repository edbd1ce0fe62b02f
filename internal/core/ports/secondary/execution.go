package secondary

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/chartlab/chartlab/internal/domain"
)

// ExecutionRepository defines the interface for storing sandbox executions
type ExecutionRepository interface {
	// SaveExecution inserts or updates an execution record
	SaveExecution(ctx context.Context, execution *domain.Execution) error

	// GetExecution retrieves an execution by ID, nil when absent
	GetExecution(ctx context.Context, id uuid.UUID) (*domain.Execution, error)

	// ListBySession retrieves executions belonging to a session, newest first
	ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]*domain.Execution, error)

	// TransitionStatus atomically moves an execution between statuses.
	// Returns false when the current status does not allow the transition.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to domain.ExecutionStatus) (bool, error)

	// GetStuckRunning retrieves running executions whose deadline passed before cutoff
	GetStuckRunning(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Execution, error)

	// ResetStuckRunning returns a stuck RUNNING execution to PENDING with
	// an incremented retry count. Reports whether this caller won the
	// reset; a concurrent sweeper or a finishing worker may get there first.
	ResetStuckRunning(ctx context.Context, id uuid.UUID) (bool, error)

	// FailStuckRunning marks a stuck RUNNING execution FAILED with the
	// given error text. Reports whether this caller won the update.
	FailStuckRunning(ctx context.Context, id uuid.UUID, errorText string) (bool, error)

	// DeleteCompletedBefore removes terminal executions older than cutoff
	DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
