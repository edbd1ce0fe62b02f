package worker

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/chartlab/chartlab/internal/adapter/llm/openaicompat"
	"github.com/chartlab/chartlab/internal/core/ports/primary"
	"github.com/chartlab/chartlab/internal/core/ports/secondary"
	"github.com/chartlab/chartlab/internal/core/services/dataset"
	"github.com/chartlab/chartlab/internal/core/services/result"
	workersvc "github.com/chartlab/chartlab/internal/core/services/worker"
	"github.com/chartlab/chartlab/internal/domain"
	"github.com/chartlab/chartlab/internal/observability"
	"github.com/chartlab/chartlab/internal/sandbox"
)

// Handlers implements the per-lane job handlers
type Handlers struct {
	executionRepo secondary.ExecutionRepository
	resultService result.IResultService
	datasetSvc    dataset.IDatasetService
	workerService workersvc.IWorkerRegistrationService
	dispatcher    secondary.QueueDispatcher
	runner        sandbox.Runner
	llmClient     *openaicompat.Client
	logger        primary.Logger
	metrics       *observability.Metrics
	retention     time.Duration
}

// NewHandlers wires the lane handlers. llmClient may be nil when no
// provider is configured.
func NewHandlers(
	executionRepo secondary.ExecutionRepository,
	resultService result.IResultService,
	datasetSvc dataset.IDatasetService,
	workerService workersvc.IWorkerRegistrationService,
	dispatcher secondary.QueueDispatcher,
	runner sandbox.Runner,
	llmClient *openaicompat.Client,
	logger primary.Logger,
	metrics *observability.Metrics,
	retention time.Duration,
) *Handlers {
	return &Handlers{
		executionRepo: executionRepo,
		resultService: resultService,
		datasetSvc:    datasetSvc,
		workerService: workerService,
		dispatcher:    dispatcher,
		runner:        runner,
		llmClient:     llmClient,
		logger:        logger,
		metrics:       metrics,
		retention:     retention,
	}
}

// RegisterAll binds every lane to its handler on the worker
func (h *Handlers) RegisterAll(w *Worker) {
	w.Register(domain.LaneSandbox, h.HandleSandbox(w.ID))
	w.Register(domain.LaneImages, h.HandleImages)
	w.Register(domain.LaneAnalysis, h.HandleAnalysis)
	w.Register(domain.LaneLLM, h.HandleLLM)
	w.Register(domain.LaneAgent, h.HandleAgent)
	w.Register(domain.LaneReports, h.HandleReports)
	w.Register(domain.LaneFileProcessing, h.HandleFileProcessing)
	w.Register(domain.LaneMaintenance, h.HandleMaintenance)
}

// HandleSandbox runs one execution through the sandbox and stores the
// structured result. Re-delivery of a job whose execution is already
// terminal is a no-op.
func (h *Handlers) HandleSandbox(workerID string) Handler {
	return func(ctx context.Context, msg *domain.JobMessage) error {
		executionID, ok := msg.ExecutionID()
		if !ok {
			h.logger.Warn("Sandbox job without execution id, dropping", "jobId", msg.JobID)
			return nil
		}

		exec, err := h.executionRepo.GetExecution(ctx, executionID)
		if err != nil {
			return fmt.Errorf("failed to load execution: %w", err)
		}
		if exec == nil {
			h.logger.Warn("Execution not found, dropping job", "executionId", executionID)
			return nil
		}
		if exec.Status.IsTerminal() {
			return nil
		}

		// Claim the execution; a concurrent worker or a cancel loses here
		claimed, err := h.executionRepo.TransitionStatus(ctx, executionID, domain.ExecutionStatusPending, domain.ExecutionStatusRunning)
		if err != nil {
			return fmt.Errorf("failed to claim execution: %w", err)
		}
		if !claimed {
			return nil
		}

		now := time.Now()
		exec.Status = domain.ExecutionStatusRunning
		exec.StartedAt = &now
		exec.WorkerID = &workerID

		run, runErr := h.runner.Run(ctx, sandbox.RunRequest{
			Code:       exec.Code,
			Language:   exec.Language,
			TimeoutSec: exec.TimeoutSec,
			MemoryMB:   exec.MemoryLimitMB,
			CPULimit:   1.0,
		})
		if runErr != nil {
			return h.handleRunnerFailure(ctx, exec, msg, runErr)
		}

		return h.finishRun(ctx, exec, run)
	}
}

// handleRunnerFailure deals with infrastructure errors from the sandbox
// itself, as opposed to failures of the submitted code. These retry up
// to the execution's retry budget.
func (h *Handlers) handleRunnerFailure(ctx context.Context, exec *domain.Execution, msg *domain.JobMessage, runErr error) error {
	h.logger.Error("Sandbox runner failed", "executionId", exec.ID, "attempt", exec.RetryCount, "error", runErr)

	if exec.RetryCount < exec.RetryLimit {
		exec.RetryCount++
		exec.Status = domain.ExecutionStatusPending
		exec.StartedAt = nil
		if err := h.executionRepo.SaveExecution(ctx, exec); err != nil {
			return fmt.Errorf("failed to reset execution for retry: %w", err)
		}

		retry := domain.NewJobMessage(domain.LaneSandbox, domain.JobKindExecuteCode, msg.Payload)
		retry.Attempt = exec.RetryCount
		if err := h.dispatcher.Enqueue(ctx, retry); err != nil {
			return fmt.Errorf("failed to re-enqueue execution: %w", err)
		}
		return nil
	}

	exec.Status = domain.ExecutionStatusFailed
	exec.ErrorText = fmt.Sprintf("sandbox unavailable: %v", runErr)
	completed := time.Now()
	exec.CompletedAt = &completed
	if err := h.executionRepo.SaveExecution(ctx, exec); err != nil {
		return fmt.Errorf("failed to save failed execution: %w", err)
	}

	h.recordExecution(exec, 0)
	return nil
}

// finishRun persists the outcome of a completed sandbox run. A failure
// of the submitted code is data, not an error, and is never retried.
func (h *Handlers) finishRun(ctx context.Context, exec *domain.Execution, run sandbox.RunResult) error {
	completed := time.Now()
	exec.CompletedAt = &completed
	exec.Output = run.Stdout
	exec.ExecutionTimeMs = run.Duration.Milliseconds()
	exec.MemoryUsedMB = run.PeakMemoryMB

	if run.Failed() {
		exec.Status = domain.ExecutionStatusFailed
		exec.ErrorText = failureText(run)
	} else {
		exec.Status = domain.ExecutionStatusSucceeded
	}

	if err := h.executionRepo.SaveExecution(ctx, exec); err != nil {
		return fmt.Errorf("failed to save execution outcome: %w", err)
	}

	h.recordExecution(exec, run.Duration)

	if exec.Status != domain.ExecutionStatusSucceeded {
		return nil
	}

	res, err := h.resultService.ProcessRunResult(ctx, exec, run)
	if err != nil {
		return err
	}

	if res.HasImages {
		improve := domain.NewJobMessage(domain.LaneImages, domain.JobKindImproveNames, map[string]interface{}{
			"resultId": res.ID.String(),
		})
		if err := h.dispatcher.Enqueue(ctx, improve); err != nil {
			h.logger.Error("Failed to enqueue naming pass", "resultId", res.ID, "error", err)
		}
	}

	analyze := domain.NewJobMessage(domain.LaneAnalysis, domain.JobKindAnalyzeResult, map[string]interface{}{
		"executionId": exec.ID.String(),
	})
	if err := h.dispatcher.Enqueue(ctx, analyze); err != nil {
		h.logger.Error("Failed to enqueue analysis", "executionId", exec.ID, "error", err)
	}

	return nil
}

func failureText(run sandbox.RunResult) string {
	switch {
	case run.TimedOut:
		return "execution timed out"
	case run.OOMKilled:
		return "execution exceeded its memory limit"
	case strings.TrimSpace(run.Stderr) != "":
		return strings.TrimSpace(run.Stderr)
	default:
		return fmt.Sprintf("execution exited with code %d", run.ExitCode)
	}
}

func (h *Handlers) recordExecution(exec *domain.Execution, duration time.Duration) {
	if h.metrics == nil {
		return
	}
	h.metrics.ExecutionsTotal.WithLabelValues(exec.Language, string(exec.Status)).Inc()
	if duration > 0 {
		h.metrics.ExecutionDuration.WithLabelValues(exec.Language).Observe(duration.Seconds())
	}
}

// HandleImages runs the naming-improvement pass for a result's images
func (h *Handlers) HandleImages(ctx context.Context, msg *domain.JobMessage) error {
	resultID, ok := payloadUUID(msg, "resultId")
	if !ok {
		h.logger.Warn("Images job without result id, dropping", "jobId", msg.JobID)
		return nil
	}
	return h.resultService.ImproveImageNames(ctx, resultID)
}

// HandleAnalysis computes a structured summary for an execution's result
// and hands off to the llm lane when a provider is configured
func (h *Handlers) HandleAnalysis(ctx context.Context, msg *domain.JobMessage) error {
	executionID, ok := msg.ExecutionID()
	if !ok {
		h.logger.Warn("Analysis job without execution id, dropping", "jobId", msg.JobID)
		return nil
	}

	exec, err := h.executionRepo.GetExecution(ctx, executionID)
	if err != nil {
		return fmt.Errorf("failed to load execution: %w", err)
	}
	if exec == nil || exec.Status != domain.ExecutionStatusSucceeded {
		return nil
	}

	res, err := h.resultService.GetResultByExecution(ctx, executionID)
	if err != nil {
		return err
	}

	summary := analysisSummary(exec, len(res.Images))
	if err := h.resultService.UpdateSummary(ctx, executionID, summary); err != nil {
		return err
	}

	if h.llmClient != nil {
		followup := domain.NewJobMessage(domain.LaneLLM, domain.JobKindSummarizeLLM, map[string]interface{}{
			"executionId": executionID.String(),
		})
		if err := h.dispatcher.Enqueue(ctx, followup); err != nil {
			h.logger.Error("Failed to enqueue llm summary", "executionId", executionID, "error", err)
		}
	}

	return nil
}

func analysisSummary(exec *domain.Execution, imageCount int) string {
	lines := 0
	for _, line := range strings.Split(exec.Output, "\n") {
		if strings.TrimSpace(line) != "" {
			lines++
		}
	}

	parts := []string{fmt.Sprintf("Analysis produced %d output line(s)", lines)}
	if imageCount > 0 {
		parts = append(parts, fmt.Sprintf("%d chart(s)", imageCount))
	}
	parts = append(parts, fmt.Sprintf("completed in %dms", exec.ExecutionTimeMs))

	return strings.Join(parts, ", ")
}

// HandleLLM asks the configured provider for a narrative summary of an
// execution's result. Without a provider the job is dropped with a log.
func (h *Handlers) HandleLLM(ctx context.Context, msg *domain.JobMessage) error {
	if h.llmClient == nil {
		h.logger.Warn("LLM lane job received but no provider configured, dropping", "jobId", msg.JobID)
		return nil
	}

	executionID, ok := msg.ExecutionID()
	if !ok {
		h.logger.Warn("LLM job without execution id, dropping", "jobId", msg.JobID)
		return nil
	}

	exec, err := h.executionRepo.GetExecution(ctx, executionID)
	if err != nil {
		return fmt.Errorf("failed to load execution: %w", err)
	}
	if exec == nil || exec.Status != domain.ExecutionStatusSucceeded {
		return nil
	}

	summary, err := h.llmClient.Complete(ctx,
		"You summarize data analysis output in one short sentence.",
		truncate(exec.Output, 4000),
	)
	if err != nil {
		return fmt.Errorf("llm summary failed: %w", err)
	}

	return h.resultService.UpdateSummary(ctx, executionID, summary)
}

// HandleAgent orchestrates follow-up work for an execution: an analysis
// pass plus a session report when the execution belongs to a session
func (h *Handlers) HandleAgent(ctx context.Context, msg *domain.JobMessage) error {
	executionID, ok := msg.ExecutionID()
	if !ok {
		h.logger.Warn("Agent job without execution id, dropping", "jobId", msg.JobID)
		return nil
	}

	exec, err := h.executionRepo.GetExecution(ctx, executionID)
	if err != nil {
		return fmt.Errorf("failed to load execution: %w", err)
	}
	if exec == nil {
		return nil
	}

	analyze := domain.NewJobMessage(domain.LaneAnalysis, domain.JobKindAnalyzeResult, map[string]interface{}{
		"executionId": executionID.String(),
	})
	if err := h.dispatcher.Enqueue(ctx, analyze); err != nil {
		return fmt.Errorf("failed to enqueue analysis: %w", err)
	}

	if exec.SessionID != nil {
		report := domain.NewJobMessage(domain.LaneReports, domain.JobKindSessionReport, map[string]interface{}{
			"sessionId": exec.SessionID.String(),
		})
		if err := h.dispatcher.Enqueue(ctx, report); err != nil {
			return fmt.Errorf("failed to enqueue report: %w", err)
		}
	}

	return nil
}

// HandleReports assembles a per-session report and stores it as a
// synthetic execution with its own result
func (h *Handlers) HandleReports(ctx context.Context, msg *domain.JobMessage) error {
	sessionID, ok := payloadUUID(msg, "sessionId")
	if !ok {
		h.logger.Warn("Report job without session id, dropping", "jobId", msg.JobID)
		return nil
	}

	executions, err := h.executionRepo.ListBySession(ctx, sessionID, 200)
	if err != nil {
		return fmt.Errorf("failed to list session executions: %w", err)
	}

	var succeeded, failed int
	var totalMs int64
	for _, exec := range executions {
		// Skip earlier reports so they don't count themselves
		if exec.Language == "report" {
			continue
		}
		switch exec.Status {
		case domain.ExecutionStatusSucceeded:
			succeeded++
		case domain.ExecutionStatusFailed:
			failed++
		}
		totalMs += exec.ExecutionTimeMs
	}

	report := fmt.Sprintf(
		"Session report: %d execution(s), %d succeeded, %d failed, %dms total runtime",
		succeeded+failed, succeeded, failed, totalMs,
	)

	reportExec := domain.NewExecution(report, "report", &sessionID, nil)
	reportExec.Status = domain.ExecutionStatusSucceeded
	reportExec.Output = report
	now := time.Now()
	reportExec.CompletedAt = &now
	if err := h.executionRepo.SaveExecution(ctx, reportExec); err != nil {
		return fmt.Errorf("failed to save report execution: %w", err)
	}

	if _, err := h.resultService.ProcessRunResult(ctx, reportExec, sandbox.RunResult{Stdout: report}); err != nil {
		return err
	}

	h.logger.Info("Session report stored", "sessionId", sessionID)
	return nil
}

// HandleFileProcessing verifies an uploaded dataset
func (h *Handlers) HandleFileProcessing(ctx context.Context, msg *domain.JobMessage) error {
	datasetID, ok := payloadUUID(msg, "datasetId")
	if !ok {
		h.logger.Warn("File processing job without dataset id, dropping", "jobId", msg.JobID)
		return nil
	}
	return h.datasetSvc.Process(ctx, datasetID)
}

// HandleMaintenance prunes inactive workers and expired executions
func (h *Handlers) HandleMaintenance(ctx context.Context, msg *domain.JobMessage) error {
	if err := h.workerService.CleanupInactiveWorkers(ctx); err != nil {
		return err
	}

	cutoff := time.Now().Add(-h.retention)
	deleted, err := h.executionRepo.DeleteCompletedBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 {
		h.logger.Info("Expired executions removed", "count", deleted)
	}

	return nil
}

func payloadUUID(msg *domain.JobMessage, key string) (uuid.UUID, bool) {
	raw, ok := msg.Payload[key].(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Back up to a rune boundary so the cut never splits a multibyte rune
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
