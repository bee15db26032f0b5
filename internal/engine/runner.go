package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/roach88/variantforge/internal/logger"
)

// Generator serves a single request. *Orchestrator implements it.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}

// Runner drains queued requests one at a time, so at most one request is
// in flight against the shared cursor.
//
// Thread-safety model:
//   - Submit, Pending, Stop: safe from any goroutine
//   - Run: must be called from exactly one goroutine
type Runner struct {
	gen   Generator
	queue *requestQueue
	log   *zap.Logger
}

// NewRunner creates a runner over gen.
func NewRunner(gen Generator, log *zap.Logger) *Runner {
	return &Runner{gen: gen, queue: newRequestQueue(), log: logger.OrNop(log)}
}

// Submit queues a request. Returns false after Stop.
func (r *Runner) Submit(req Request) bool {
	return r.queue.Enqueue(req)
}

// Pending returns the number of requests not yet started.
func (r *Runner) Pending() int {
	return r.queue.Len()
}

// Run serves requests until ctx is cancelled or Stop is called and the queue
// is drained. A request that has started is always finished before Run
// observes cancellation; requests still queued at that point are not started.
func (r *Runner) Run(ctx context.Context) error {
	r.log.Debug("runner starting")

	for {
		if err := ctx.Err(); err != nil {
			r.log.Debug("runner stopping: context cancelled")
			r.queue.Close()
			return err
		}

		if req, ok := r.queue.TryDequeue(); ok {
			// Errors were already reported through the notifier.
			if _, err := r.gen.Generate(ctx, req); err != nil {
				r.log.Debug("request failed",
					zap.String(logger.FieldComponent, string(req.ComponentID)),
					zap.Error(err))
			}
			continue
		}

		select {
		case <-ctx.Done():
			r.log.Debug("runner stopping: context cancelled")
			r.queue.Close()
			return ctx.Err()

		case <-r.queue.Wait():
			// A closed queue keeps signalling; stop once it is empty.
			if r.closedAndEmpty() {
				r.log.Debug("runner stopping: queue closed")
				return nil
			}
		}
	}
}

func (r *Runner) closedAndEmpty() bool {
	r.queue.mu.Lock()
	defer r.queue.mu.Unlock()
	return r.queue.closed && len(r.queue.requests) == 0
}

// Stop closes the queue. Run returns after the remaining requests are served.
func (r *Runner) Stop() {
	r.queue.Close()
}
