package secondary

import (
	"context"
	"time"

	"github.com/chartlab/chartlab/internal/domain"
)

// WorkerRegistry defines the interface for tracking worker processes
type WorkerRegistry interface {
	// SaveWorker saves worker information
	SaveWorker(ctx context.Context, worker *domain.WorkerInfo) error

	// GetWorker retrieves worker information by ID, nil when absent
	GetWorker(ctx context.Context, workerID string) (*domain.WorkerInfo, error)

	// GetWorkersByLane retrieves workers consuming a given lane
	GetWorkersByLane(ctx context.Context, lane domain.Lane) ([]*domain.WorkerInfo, error)

	// GetAllWorkers retrieves all registered workers
	GetAllWorkers(ctx context.Context) ([]*domain.WorkerInfo, error)

	// UpdateWorkerHeartbeat updates a worker's heartbeat and load
	UpdateWorkerHeartbeat(ctx context.Context, workerID string, load int, at time.Time) error

	// RemoveInactiveWorkers removes workers whose heartbeat predates cutoff
	RemoveInactiveWorkers(ctx context.Context, cutoff time.Time) error
}
