// Package worker consumes queue lanes and dispatches jobs to handlers.
package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/chartlab/chartlab/internal/core/ports/primary"
	"github.com/chartlab/chartlab/internal/core/ports/secondary"
	"github.com/chartlab/chartlab/internal/domain"
	"github.com/chartlab/chartlab/internal/observability"
)

// Handler processes one job message. Returning an error counts the job
// as failed; handlers own their retry decisions.
type Handler func(ctx context.Context, msg *domain.JobMessage) error

// Worker consumes a set of lanes with a goroutine pool per lane
type Worker struct {
	ID             string
	lanes          []domain.Lane
	concurrency    int
	dequeueTimeout time.Duration

	dispatcher secondary.QueueDispatcher
	handlers   map[domain.Lane]Handler
	logger     primary.Logger
	metrics    *observability.Metrics

	load atomic.Int64
}

// Option configures a Worker
type Option func(*Worker)

// WithMetrics attaches prometheus collectors to the worker
func WithMetrics(metrics *observability.Metrics) Option {
	return func(w *Worker) {
		w.metrics = metrics
	}
}

// WithDequeueTimeout sets the BRPOP wait per poll
func WithDequeueTimeout(timeout time.Duration) Option {
	return func(w *Worker) {
		w.dequeueTimeout = timeout
	}
}

// New creates a worker consuming the given lanes. Empty lanes means all.
func New(dispatcher secondary.QueueDispatcher, lanes []domain.Lane, concurrency int, logger primary.Logger, opts ...Option) *Worker {
	if len(lanes) == 0 {
		lanes = domain.AllLanes()
	}
	if concurrency < 1 {
		concurrency = 1
	}

	w := &Worker{
		ID:             uuid.New().String(),
		lanes:          lanes,
		concurrency:    concurrency,
		dequeueTimeout: 5 * time.Second,
		dispatcher:     dispatcher,
		handlers:       make(map[domain.Lane]Handler),
		logger:         logger,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Register binds a handler to a lane
func (w *Worker) Register(lane domain.Lane, handler Handler) {
	w.handlers[lane] = handler
}

// Lanes returns the lanes this worker consumes
func (w *Worker) Lanes() []domain.Lane {
	return w.lanes
}

// Load returns the number of jobs currently in flight
func (w *Worker) Load() int {
	return int(w.load.Load())
}

// Run starts the lane consumer pools and blocks until ctx is cancelled
func (w *Worker) Run(ctx context.Context) {
	var wg sync.WaitGroup

	for _, lane := range w.lanes {
		handler, ok := w.handlers[lane]
		if !ok {
			w.logger.Warn("No handler registered for lane, skipping", "lane", lane)
			continue
		}

		for i := 0; i < w.concurrency; i++ {
			wg.Add(1)
			go func(lane domain.Lane, handler Handler) {
				defer wg.Done()
				w.consume(ctx, lane, handler)
			}(lane, handler)
		}
	}

	w.logger.Info("Worker started", "workerId", w.ID, "lanes", len(w.lanes), "concurrency", w.concurrency)
	wg.Wait()
	w.logger.Info("Worker stopped", "workerId", w.ID)
}

func (w *Worker) consume(ctx context.Context, lane domain.Lane, handler Handler) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msg, ok, err := w.dispatcher.Dequeue(ctx, lane, w.dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("Failed to dequeue", "lane", lane, "error", err)
			time.Sleep(time.Second)
			continue
		}
		if !ok {
			continue
		}

		w.load.Add(1)
		w.handle(ctx, lane, handler, msg)
		w.load.Add(-1)
	}
}

func (w *Worker) handle(ctx context.Context, lane domain.Lane, handler Handler, msg *domain.JobMessage) {
	w.logger.Debug("Handling job", "jobId", msg.JobID, "lane", lane, "kind", msg.Kind)

	outcome := "ok"
	if err := handler(ctx, msg); err != nil {
		outcome = "error"
		w.logger.Error("Job failed", "jobId", msg.JobID, "lane", lane, "kind", msg.Kind, "error", err)
	}

	if w.metrics != nil {
		w.metrics.JobsProcessed.WithLabelValues(string(lane), outcome).Inc()
	}
}

// ReportQueueDepths publishes per-lane queue depths until ctx is
// cancelled. Meant to run alongside Run on one goroutine.
func (w *Worker) ReportQueueDepths(ctx context.Context, interval time.Duration) {
	if w.metrics == nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, lane := range w.lanes {
				depth, err := w.dispatcher.Depth(ctx, lane)
				if err != nil {
					continue
				}
				w.metrics.QueueDepth.WithLabelValues(string(lane)).Set(float64(depth))
			}
		}
	}
}
