package session

import (
	"context"

	"github.com/google/uuid"

	"github.com/chartlab/chartlab/internal/domain"
)

// ISessionService defines the interface for analysis sessions
type ISessionService interface {
	// Create creates a named session
	Create(ctx context.Context, name string, userID *string) (*domain.AnalysisSession, error)

	// Get retrieves a session by ID, nil when absent
	Get(ctx context.Context, id uuid.UUID) (*domain.AnalysisSession, error)

	// ListByUser retrieves sessions owned by a user, newest first
	ListByUser(ctx context.Context, userID string, limit int) ([]*domain.AnalysisSession, error)

	// RequestReport enqueues a session report job on the reports lane
	RequestReport(ctx context.Context, sessionID uuid.UUID) error
}
