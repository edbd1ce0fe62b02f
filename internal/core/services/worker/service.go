package worker

import (
	"context"

	"github.com/chartlab/chartlab/internal/domain"
)

// IWorkerRegistrationService defines the interface for worker registration
type IWorkerRegistrationService interface {
	// RegisterWorker registers a worker as available for lane jobs
	RegisterWorker(ctx context.Context, workerInfo *domain.WorkerInfo) error

	// Heartbeat updates the worker's status and load
	Heartbeat(ctx context.Context, workerID string, load int) error

	// GetWorkersByLane gets active workers consuming a lane
	GetWorkersByLane(ctx context.Context, lane domain.Lane) ([]*domain.WorkerInfo, error)

	// GetAllWorkers gets all registered workers
	GetAllWorkers(ctx context.Context) ([]*domain.WorkerInfo, error)

	// CleanupInactiveWorkers removes workers that stopped heartbeating
	CleanupInactiveWorkers(ctx context.Context) error
}
