package secondary

import (
	"context"
	"time"

	"github.com/chartlab/chartlab/internal/domain"
)

// QueueDispatcher routes job messages onto named lanes and lets worker
// pools consume them. Delivery within a lane is at-least-once; there is
// no ordering guarantee across lanes.
type QueueDispatcher interface {
	// Enqueue pushes a job message onto its lane
	Enqueue(ctx context.Context, msg *domain.JobMessage) error

	// Dequeue blocks up to timeout for the next message on a lane.
	// ok is false when the wait timed out with no message.
	Dequeue(ctx context.Context, lane domain.Lane, timeout time.Duration) (msg *domain.JobMessage, ok bool, err error)

	// Depth returns the number of messages waiting on a lane
	Depth(ctx context.Context, lane domain.Lane) (int64, error)
}
