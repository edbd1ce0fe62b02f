package workerport

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/chartlab/chartlab/internal/core/ports/primary"
	"github.com/chartlab/chartlab/internal/core/ports/secondary"
	"github.com/chartlab/chartlab/internal/domain"
)

const (
	workerKeyPrefix  = "worker:"
	workerLanePrefix = "worker:lane:"
	workerExpiration = 5 * time.Minute
)

// WorkerRegistry implements the WorkerRegistry interface with Redis.
// Worker records expire on their own when heartbeats stop; the lane
// index sets are cleaned up by RemoveInactiveWorkers.
type WorkerRegistry struct {
	redisClient *redis.Client
	logger      primary.Logger
}

var _ secondary.WorkerRegistry = (*WorkerRegistry)(nil)

// NewWorkerRegistry creates a new Redis worker registry
func NewWorkerRegistry(redisClient *redis.Client, logger primary.Logger) *WorkerRegistry {
	return &WorkerRegistry{
		redisClient: redisClient,
		logger:      logger,
	}
}

// SaveWorker saves worker information to Redis with a TTL
func (r *WorkerRegistry) SaveWorker(ctx context.Context, worker *domain.WorkerInfo) error {
	workerJSON, err := json.Marshal(worker)
	if err != nil {
		r.logger.Error("Failed to marshal worker info", "error", err)
		return fmt.Errorf("failed to marshal worker info: %w", err)
	}

	workerKey := workerKeyPrefix + worker.ID
	if err := r.redisClient.Set(ctx, workerKey, workerJSON, workerExpiration).Err(); err != nil {
		r.logger.Error("Failed to save worker info", "error", err)
		return fmt.Errorf("failed to save worker info: %w", err)
	}

	// Index the worker under every lane it consumes
	for _, lane := range worker.Lanes {
		laneKey := workerLanePrefix + lane
		if err := r.redisClient.SAdd(ctx, laneKey, worker.ID).Err(); err != nil {
			r.logger.Error("Failed to add worker to lane index", "lane", lane, "error", err)
			return fmt.Errorf("failed to add worker to lane index: %w", err)
		}
	}

	return nil
}

// GetWorker retrieves worker information from Redis by ID
func (r *WorkerRegistry) GetWorker(ctx context.Context, workerID string) (*domain.WorkerInfo, error) {
	workerJSON, err := r.redisClient.Get(ctx, workerKeyPrefix+workerID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		r.logger.Error("Failed to get worker info", "error", err)
		return nil, fmt.Errorf("failed to get worker info: %w", err)
	}

	var worker domain.WorkerInfo
	if err := json.Unmarshal(workerJSON, &worker); err != nil {
		r.logger.Error("Failed to unmarshal worker info", "error", err)
		return nil, fmt.Errorf("failed to unmarshal worker info: %w", err)
	}

	return &worker, nil
}

// GetWorkersByLane retrieves workers consuming a given lane
func (r *WorkerRegistry) GetWorkersByLane(ctx context.Context, lane domain.Lane) ([]*domain.WorkerInfo, error) {
	workerIDs, err := r.redisClient.SMembers(ctx, workerLanePrefix+string(lane)).Result()
	if err != nil {
		r.logger.Error("Failed to get worker IDs for lane", "lane", lane, "error", err)
		return nil, fmt.Errorf("failed to get worker IDs: %w", err)
	}

	workers := make([]*domain.WorkerInfo, 0, len(workerIDs))
	for _, workerID := range workerIDs {
		worker, err := r.GetWorker(ctx, workerID)
		if err != nil {
			r.logger.Error("Failed to get worker", "workerId", workerID, "error", err)
			continue
		}
		if worker != nil {
			workers = append(workers, worker)
		}
	}

	return workers, nil
}

// GetAllWorkers retrieves all worker information from Redis
func (r *WorkerRegistry) GetAllWorkers(ctx context.Context) ([]*domain.WorkerInfo, error) {
	var cursor uint64
	var workerKeys []string
	var err error

	for {
		var keys []string
		keys, cursor, err = r.redisClient.Scan(ctx, cursor, workerKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan worker keys: %w", err)
		}
		for _, key := range keys {
			// Skip lane index sets picked up by the prefix scan
			if len(key) >= len(workerLanePrefix) && key[:len(workerLanePrefix)] == workerLanePrefix {
				continue
			}
			workerKeys = append(workerKeys, key)
		}
		if cursor == 0 {
			break
		}
	}

	var workers []*domain.WorkerInfo
	if len(workerKeys) == 0 {
		return workers, nil
	}

	workerData, err := r.redisClient.MGet(ctx, workerKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve worker data: %w", err)
	}

	for _, data := range workerData {
		if data == nil {
			continue
		}
		var worker domain.WorkerInfo
		if err := json.Unmarshal([]byte(data.(string)), &worker); err != nil {
			return nil, fmt.Errorf("failed to unmarshal worker data: %w", err)
		}
		workers = append(workers, &worker)
	}

	return workers, nil
}

// UpdateWorkerHeartbeat updates a worker's heartbeat and load in Redis
func (r *WorkerRegistry) UpdateWorkerHeartbeat(ctx context.Context, workerID string, load int, at time.Time) error {
	worker, err := r.GetWorker(ctx, workerID)
	if err != nil {
		return err
	}
	if worker == nil {
		return fmt.Errorf("worker not found: %s", workerID)
	}

	worker.CurrentLoad = load
	worker.LastHeartbeat = at

	// Re-saving refreshes the TTL as well
	return r.SaveWorker(ctx, worker)
}

// RemoveInactiveWorkers removes expired workers from the lane indexes.
// The worker records themselves expire via their Redis TTL.
func (r *WorkerRegistry) RemoveInactiveWorkers(ctx context.Context, cutoff time.Time) error {
	laneKeys, err := r.redisClient.Keys(ctx, workerLanePrefix+"*").Result()
	if err != nil {
		r.logger.Error("Failed to get worker lane keys", "error", err)
		return fmt.Errorf("failed to get worker lane keys: %w", err)
	}

	for _, laneKey := range laneKeys {
		workerIDs, err := r.redisClient.SMembers(ctx, laneKey).Result()
		if err != nil {
			r.logger.Error("Failed to get worker IDs", "laneKey", laneKey, "error", err)
			continue
		}

		for _, workerID := range workerIDs {
			exists, err := r.redisClient.Exists(ctx, workerKeyPrefix+workerID).Result()
			if err != nil {
				r.logger.Error("Failed to check if worker exists", "workerId", workerID, "error", err)
				continue
			}
			if exists == 0 {
				if err := r.redisClient.SRem(ctx, laneKey, workerID).Err(); err != nil {
					r.logger.Error("Failed to remove worker from lane index", "workerId", workerID, "error", err)
				}
			}
		}
	}

	return nil
}
