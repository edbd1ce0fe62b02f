package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/chartlab/chartlab/internal/core/ports/primary"
	"github.com/chartlab/chartlab/internal/core/ports/secondary"
	"github.com/chartlab/chartlab/internal/domain"
)

const (
	heartbeatThreshold = 2 * time.Minute
	inactiveCutoff     = 5 * time.Minute
)

var _ IWorkerRegistrationService = (*WorkerRegistrationService)(nil)

// WorkerRegistrationService implements the IWorkerRegistrationService interface
type WorkerRegistrationService struct {
	registry secondary.WorkerRegistry
	logger   primary.Logger
}

// NewWorkerRegistrationService creates a new worker registration service
func NewWorkerRegistrationService(registry secondary.WorkerRegistry, logger primary.Logger) *WorkerRegistrationService {
	return &WorkerRegistrationService{
		registry: registry,
		logger:   logger,
	}
}

// RegisterWorker registers a worker as available for lane jobs
func (s *WorkerRegistrationService) RegisterWorker(ctx context.Context, workerInfo *domain.WorkerInfo) error {
	s.logger.Info("Registering worker", "workerId", workerInfo.ID, "lanes", workerInfo.Lanes)

	workerInfo.LastHeartbeat = time.Now()

	if err := s.registry.SaveWorker(ctx, workerInfo); err != nil {
		s.logger.Error("Failed to save worker", "error", err)
		return fmt.Errorf("failed to register worker: %w", err)
	}

	return nil
}

// Heartbeat updates the worker's status and load
func (s *WorkerRegistrationService) Heartbeat(ctx context.Context, workerID string, load int) error {
	s.logger.Debug("Received worker heartbeat", "workerId", workerID, "load", load)

	if err := s.registry.UpdateWorkerHeartbeat(ctx, workerID, load, time.Now()); err != nil {
		s.logger.Error("Failed to update worker heartbeat", "workerId", workerID, "error", err)
		return fmt.Errorf("failed to update worker heartbeat: %w", err)
	}

	return nil
}

// GetWorkersByLane gets active workers consuming a lane
func (s *WorkerRegistrationService) GetWorkersByLane(ctx context.Context, lane domain.Lane) ([]*domain.WorkerInfo, error) {
	workers, err := s.registry.GetWorkersByLane(ctx, lane)
	if err != nil {
		s.logger.Error("Failed to get workers by lane", "lane", lane, "error", err)
		return nil, fmt.Errorf("failed to get workers by lane: %w", err)
	}

	active := make([]*domain.WorkerInfo, 0, len(workers))
	threshold := time.Now().Add(-heartbeatThreshold)
	for _, w := range workers {
		if w.LastHeartbeat.After(threshold) {
			w.IsActive = true
			active = append(active, w)
		}
	}

	return active, nil
}

// GetAllWorkers gets all registered workers annotated with active status
func (s *WorkerRegistrationService) GetAllWorkers(ctx context.Context) ([]*domain.WorkerInfo, error) {
	workers, err := s.registry.GetAllWorkers(ctx)
	if err != nil {
		s.logger.Error("Failed to get all workers", "error", err)
		return nil, fmt.Errorf("failed to get all workers: %w", err)
	}

	threshold := time.Now().Add(-heartbeatThreshold)
	for _, w := range workers {
		w.IsActive = w.LastHeartbeat.After(threshold)
	}

	return workers, nil
}

// CleanupInactiveWorkers removes workers that stopped heartbeating
func (s *WorkerRegistrationService) CleanupInactiveWorkers(ctx context.Context) error {
	s.logger.Info("Cleaning up inactive workers")

	cutoff := time.Now().Add(-inactiveCutoff)
	if err := s.registry.RemoveInactiveWorkers(ctx, cutoff); err != nil {
		s.logger.Error("Failed to remove inactive workers", "error", err)
		return fmt.Errorf("failed to remove inactive workers: %w", err)
	}

	return nil
}
