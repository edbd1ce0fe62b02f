package execution

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/chartlab/chartlab/internal/core/ports/primary"
	"github.com/chartlab/chartlab/internal/core/ports/secondary"
	"github.com/chartlab/chartlab/internal/domain"
	"github.com/chartlab/chartlab/internal/sandbox"
	"github.com/chartlab/chartlab/internal/static/errs"
)

var _ IExecutionService = (*ExecutionService)(nil)

// ExecutionService implements the IExecutionService interface
type ExecutionService struct {
	executionRepo secondary.ExecutionRepository
	languageRepo  secondary.LanguageConfigRepository
	dispatcher    secondary.QueueDispatcher
	logger        primary.Logger
}

// NewExecutionService creates a new execution service
func NewExecutionService(
	executionRepo secondary.ExecutionRepository,
	languageRepo secondary.LanguageConfigRepository,
	dispatcher secondary.QueueDispatcher,
	logger primary.Logger,
) *ExecutionService {
	return &ExecutionService{
		executionRepo: executionRepo,
		languageRepo:  languageRepo,
		dispatcher:    dispatcher,
		logger:        logger,
	}
}

// Submit validates a submission, persists a pending execution and
// enqueues it on the sandbox lane
func (s *ExecutionService) Submit(ctx context.Context, req SubmitRequest) (*domain.Execution, error) {
	if strings.TrimSpace(req.Code) == "" {
		return nil, errs.CodeRequired
	}
	if strings.TrimSpace(req.Language) == "" {
		return nil, errs.LanguageRequired
	}

	language := strings.ToLower(strings.TrimSpace(req.Language))
	// No sandbox backend can run an unsupported language; accepting it
	// would only burn the retry budget in the worker
	if !sandbox.SupportedLanguage(language) {
		return nil, errs.LanguageUnsupported
	}

	config, err := s.languageRepo.GetLanguageConfig(ctx, language)
	if err != nil {
		s.logger.Error("Failed to get language config", "language", language, "error", err)
		return nil, fmt.Errorf("failed to get language config: %w", err)
	}
	if config == nil {
		// Unknown languages run with conservative defaults
		config = domain.DefaultLanguageConfig(language)
	}
	if !config.Active {
		return nil, errs.LanguageInactive
	}

	exec := domain.NewExecution(req.Code, language, req.SessionID, req.UserID)
	exec.TimeoutSec = config.TimeoutSeconds
	exec.MemoryLimitMB = config.MemoryLimitMB
	exec.RetryLimit = config.RetryLimit

	if err := s.executionRepo.SaveExecution(ctx, exec); err != nil {
		s.logger.Error("Failed to save execution", "executionId", exec.ID, "error", err)
		return nil, fmt.Errorf("failed to save execution: %w", err)
	}

	msg := domain.NewJobMessage(domain.LaneSandbox, domain.JobKindExecuteCode, map[string]interface{}{
		"executionId": exec.ID.String(),
	})
	if err := s.dispatcher.Enqueue(ctx, msg); err != nil {
		s.logger.Error("Failed to enqueue execution", "executionId", exec.ID, "error", err)
		return nil, fmt.Errorf("failed to enqueue execution: %w", err)
	}

	s.logger.Info("Execution submitted", "executionId", exec.ID, "language", language)
	return exec, nil
}

// Get retrieves an execution by ID
func (s *ExecutionService) Get(ctx context.Context, id uuid.UUID) (*domain.Execution, error) {
	exec, err := s.executionRepo.GetExecution(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get execution", "executionId", id, "error", err)
		return nil, fmt.Errorf("failed to get execution: %w", err)
	}
	return exec, nil
}

// ListBySession retrieves executions of a session, newest first
func (s *ExecutionService) ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]*domain.Execution, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	executions, err := s.executionRepo.ListBySession(ctx, sessionID, limit)
	if err != nil {
		s.logger.Error("Failed to list executions", "sessionId", sessionID, "error", err)
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	return executions, nil
}

// Cancel cancels a pending execution. Running and terminal executions
// cannot be cancelled.
func (s *ExecutionService) Cancel(ctx context.Context, id uuid.UUID) error {
	exec, err := s.executionRepo.GetExecution(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get execution: %w", err)
	}
	if exec == nil {
		return errs.ExecutionNotFound
	}

	ok, err := s.executionRepo.TransitionStatus(ctx, id, domain.ExecutionStatusPending, domain.ExecutionStatusCancelled)
	if err != nil {
		return fmt.Errorf("failed to cancel execution: %w", err)
	}
	if !ok {
		return errs.ExecutionNotPending
	}

	s.logger.Info("Execution cancelled", "executionId", id)
	return nil
}

// RequestFollowUp enqueues an agent-lane job for an execution. The agent
// handler fans out into an analysis pass and, for session executions, a
// session report.
func (s *ExecutionService) RequestFollowUp(ctx context.Context, id uuid.UUID) error {
	exec, err := s.executionRepo.GetExecution(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get execution: %w", err)
	}
	if exec == nil {
		return errs.ExecutionNotFound
	}

	msg := domain.NewJobMessage(domain.LaneAgent, domain.JobKindAgentRun, map[string]interface{}{
		"executionId": id.String(),
	})
	if err := s.dispatcher.Enqueue(ctx, msg); err != nil {
		s.logger.Error("Failed to enqueue follow-up", "executionId", id, "error", err)
		return fmt.Errorf("failed to enqueue follow-up: %w", err)
	}

	s.logger.Info("Follow-up requested", "executionId", id)
	return nil
}
