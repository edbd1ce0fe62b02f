// package sessionrepo contains the PostgreSQL implementation of the
// analysis session repository
package sessionrepo

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

// SessionRepository implements the SessionRepository interface with PostgreSQL
type SessionRepository struct {
	db     *sqlx.DB
	logger primary.Logger
}

var _ secondary.SessionRepository = (*SessionRepository)(nil)

// NewSessionRepository creates a new PostgreSQL session repository
func NewSessionRepository(db *sqlx.DB, logger primary.Logger) *SessionRepository {
	return &SessionRepository{
		db:     db,
		logger: logger,
	}
}

// SaveSession persists a session
func (r *SessionRepository) SaveSession(ctx context.Context, session *domain.AnalysisSession) error {
	query := `
		INSERT INTO analysis_sessions (id, name, user_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
	`

	if _, err := r.db.ExecContext(ctx, query, session.ID, session.Name, session.UserID, session.CreatedAt); err != nil {
		r.logger.Error("Failed to save session", "error", err)
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// GetSession retrieves a session by ID
func (r *SessionRepository) GetSession(ctx context.Context, id uuid.UUID) (*domain.AnalysisSession, error) {
	query := `SELECT id, name, user_id, created_at FROM analysis_sessions WHERE id = $1`

	var session domain.AnalysisSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Failed to get session", "error", err)
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return &session, nil
}

// ListByUser retrieves sessions owned by a user, newest first
func (r *SessionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.AnalysisSession, error) {
	query := `
		SELECT id, name, user_id, created_at
		FROM analysis_sessions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	sessions := []*domain.AnalysisSession{}
	if err := r.db.SelectContext(ctx, &sessions, query, userID, limit); err != nil {
		r.logger.Error("Failed to list sessions", "userId", userID, "error", err)
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	return sessions, nil
}
