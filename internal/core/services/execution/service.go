package execution

import (
	"context"

	"github.com/google/uuid"

	"github.com/chartlab/chartlab/internal/domain"
)

// SubmitRequest carries one code submission into the pipeline
type SubmitRequest struct {
	Code      string
	Language  string
	SessionID *uuid.UUID
	UserID    *string
}

// IExecutionService defines the interface for managing sandbox executions
type IExecutionService interface {
	// Submit validates a submission, persists a pending execution and
	// enqueues it on the sandbox lane
	Submit(ctx context.Context, req SubmitRequest) (*domain.Execution, error)

	// Get retrieves an execution by ID, nil when absent
	Get(ctx context.Context, id uuid.UUID) (*domain.Execution, error)

	// ListBySession retrieves executions of a session, newest first
	ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]*domain.Execution, error)

	// Cancel cancels a pending execution
	Cancel(ctx context.Context, id uuid.UUID) error

	// RequestFollowUp enqueues orchestrated follow-up work for an
	// execution on the agent lane
	RequestFollowUp(ctx context.Context, id uuid.UUID) error
}
