package secondary

import (
	"context"

	"github.com/google/uuid"

	"github.com/chartlab/chartlab/internal/domain"
)

// SessionRepository defines the interface for analysis sessions
type SessionRepository interface {
	// SaveSession persists a session
	SaveSession(ctx context.Context, session *domain.AnalysisSession) error

	// GetSession retrieves a session by ID, nil when absent
	GetSession(ctx context.Context, id uuid.UUID) (*domain.AnalysisSession, error)

	// ListByUser retrieves sessions owned by a user, newest first
	ListByUser(ctx context.Context, userID string, limit int) ([]*domain.AnalysisSession, error)
}
