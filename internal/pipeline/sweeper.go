// Package pipeline runs the server-side background loops that keep the
// execution pipeline healthy.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/chartlab/chartlab/internal/config"
	"github.com/chartlab/chartlab/internal/core/ports/primary"
	"github.com/chartlab/chartlab/internal/core/ports/secondary"
	"github.com/chartlab/chartlab/internal/domain"
)

// Sweeper recovers stuck executions and schedules maintenance sweeps
type Sweeper struct {
	cfg           *config.SweeperConfig
	executionRepo secondary.ExecutionRepository
	dispatcher    secondary.QueueDispatcher
	logger        primary.Logger
}

// NewSweeper creates a sweeper
func NewSweeper(
	cfg *config.SweeperConfig,
	executionRepo secondary.ExecutionRepository,
	dispatcher secondary.QueueDispatcher,
	logger primary.Logger,
) *Sweeper {
	return &Sweeper{
		cfg:           cfg,
		executionRepo: executionRepo,
		dispatcher:    dispatcher,
		logger:        logger,
	}
}

// Start launches the sweep loops and blocks until ctx is cancelled
func (s *Sweeper) Start(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(s.cfg.StuckRunningInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweepStuckExecutions(ctx)
			}
		}
	}()

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(s.cfg.MaintenanceInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.enqueueMaintenance(ctx)
			}
		}
	}()

	s.logger.Info("Sweeper started",
		"stuckInterval", s.cfg.StuckRunningInterval,
		"maintenanceInterval", s.cfg.MaintenanceInterval)
	wg.Wait()
	s.logger.Info("Sweeper stopped")
}

// sweepStuckExecutions finds RUNNING executions whose deadline has long
// passed, which happens when a worker dies mid-run. Those with retry
// budget left go back to the sandbox lane; the rest are failed.
func (s *Sweeper) sweepStuckExecutions(ctx context.Context) {
	// Grace period on top of the per-execution timeout so a run that is
	// just finishing is not swept out from under its worker
	cutoff := time.Now().Add(-30 * time.Second)

	stuck, err := s.executionRepo.GetStuckRunning(ctx, cutoff, 100)
	if err != nil {
		s.logger.Error("Failed to get stuck executions", "error", err)
		return
	}

	for _, exec := range stuck {
		if exec.RetryCount < exec.RetryLimit {
			s.requeue(ctx, exec)
			continue
		}
		s.fail(ctx, exec)
	}

	if len(stuck) > 0 {
		s.logger.Info("Swept stuck executions", "count", len(stuck))
	}
}

func (s *Sweeper) requeue(ctx context.Context, exec *domain.Execution) {
	won, err := s.executionRepo.ResetStuckRunning(ctx, exec.ID)
	if err != nil {
		s.logger.Error("Failed to reset stuck execution", "executionId", exec.ID, "error", err)
		return
	}
	// A concurrent sweeper or a worker that finished after the snapshot
	// got there first
	if !won {
		return
	}

	msg := domain.NewJobMessage(domain.LaneSandbox, domain.JobKindExecuteCode, map[string]interface{}{
		"executionId": exec.ID.String(),
	})
	msg.Attempt = exec.RetryCount + 1
	if err := s.dispatcher.Enqueue(ctx, msg); err != nil {
		s.logger.Error("Failed to re-enqueue stuck execution", "executionId", exec.ID, "error", err)
		return
	}

	s.logger.Info("Stuck execution re-enqueued", "executionId", exec.ID, "attempt", msg.Attempt)
}

func (s *Sweeper) fail(ctx context.Context, exec *domain.Execution) {
	won, err := s.executionRepo.FailStuckRunning(ctx, exec.ID, "worker lost during execution")
	if err != nil {
		s.logger.Error("Failed to fail stuck execution", "executionId", exec.ID, "error", err)
		return
	}
	if won {
		s.logger.Warn("Stuck execution failed", "executionId", exec.ID)
	}
}

func (s *Sweeper) enqueueMaintenance(ctx context.Context) {
	msg := domain.NewJobMessage(domain.LaneMaintenance, domain.JobKindMaintenance, map[string]interface{}{})
	if err := s.dispatcher.Enqueue(ctx, msg); err != nil {
		s.logger.Error("Failed to enqueue maintenance sweep", "error", err)
		return
	}
	s.logger.Debug("Maintenance sweep enqueued")
}
