package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chartlab/chartlab/internal/core/ports/primary"
	"github.com/chartlab/chartlab/internal/core/ports/secondary"
	"github.com/chartlab/chartlab/internal/domain"
	"github.com/chartlab/chartlab/internal/static/errs"
)

var _ ISessionService = (*SessionService)(nil)

// SessionService implements the ISessionService interface
type SessionService struct {
	sessionRepo secondary.SessionRepository
	dispatcher  secondary.QueueDispatcher
	logger      primary.Logger
}

// NewSessionService creates a new session service
func NewSessionService(
	sessionRepo secondary.SessionRepository,
	dispatcher secondary.QueueDispatcher,
	logger primary.Logger,
) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		dispatcher:  dispatcher,
		logger:      logger,
	}
}

// Create creates a named session
func (s *SessionService) Create(ctx context.Context, name string, userID *string) (*domain.AnalysisSession, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Analysis " + time.Now().Format("2006-01-02 15:04")
	}

	session := domain.NewAnalysisSession(name, userID)
	if err := s.sessionRepo.SaveSession(ctx, session); err != nil {
		s.logger.Error("Failed to save session", "error", err)
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.Info("Session created", "sessionId", session.ID, "name", name)
	return session, nil
}

// Get retrieves a session by ID
func (s *SessionService) Get(ctx context.Context, id uuid.UUID) (*domain.AnalysisSession, error) {
	session, err := s.sessionRepo.GetSession(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get session", "sessionId", id, "error", err)
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// ListByUser retrieves sessions owned by a user, newest first
func (s *SessionService) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.AnalysisSession, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	sessions, err := s.sessionRepo.ListByUser(ctx, userID, limit)
	if err != nil {
		s.logger.Error("Failed to list sessions", "userId", userID, "error", err)
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// RequestReport enqueues a session report job on the reports lane
func (s *SessionService) RequestReport(ctx context.Context, sessionID uuid.UUID) error {
	session, err := s.sessionRepo.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return errs.SessionNotFound
	}

	msg := domain.NewJobMessage(domain.LaneReports, domain.JobKindSessionReport, map[string]interface{}{
		"sessionId": sessionID.String(),
	})
	if err := s.dispatcher.Enqueue(ctx, msg); err != nil {
		return fmt.Errorf("failed to enqueue report job: %w", err)
	}

	return nil
}
