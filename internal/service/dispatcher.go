package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/pkordes/detour/internal/domain"
)

// ErrShuttingDown is returned by Dispatch once Shutdown has been called.
var ErrShuttingDown = errors.New("dispatcher is shutting down")

// Processor runs one travel request. *Pipeline satisfies it.
type Processor interface {
	Process(ctx context.Context, req domain.TravelRequest) (domain.RecommendationResult, error)
}

// Dispatcher runs travel requests in the background, at most concurrency at a
// time. Runs are detached from the caller's context: a webhook returns as soon
// as its request is queued.
type Dispatcher struct {
	processor Processor
	sem       *semaphore.Weighted
	timeout   time.Duration

	base   context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher returns a Dispatcher. Each run is bounded by timeout.
func NewDispatcher(p Processor, concurrency int, timeout time.Duration) *Dispatcher {
	if concurrency < 1 {
		concurrency = 1
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	base, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		processor: p,
		sem:       semaphore.NewWeighted(int64(concurrency)),
		timeout:   timeout,
		base:      base,
		cancel:    cancel,
	}
}

// Dispatch queues req. Values from ctx (request id, logger attributes) are
// kept; its cancellation is not.
func (d *Dispatcher) Dispatch(ctx context.Context, req domain.TravelRequest) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrShuttingDown
	}
	d.wg.Add(1)
	d.mu.Unlock()

	runCtx := context.WithoutCancel(ctx)
	go func() {
		defer d.wg.Done()
		err := d.sem.Acquire(d.base, 1)
		if err == nil {
			defer d.sem.Release(1)
			err = d.base.Err()
		}
		if err != nil {
			// Shut down while queued: run against a cancelled context so the
			// pipeline still records an error status.
			slog.WarnContext(runCtx, "dispatch cancelled before start", "response_id", req.ResponseID, "error", err)
			ctx, cancel := context.WithCancelCause(runCtx)
			cancel(ErrShuttingDown)
			_, _ = d.processor.Process(ctx, req)
			return
		}

		ctx, cancel := context.WithTimeout(runCtx, d.timeout)
		defer cancel()
		stop := context.AfterFunc(d.base, cancel)
		defer stop()

		// Process records the failure in the status store and logs it.
		_, _ = d.processor.Process(ctx, req)
	}()
	return nil
}

// Shutdown stops accepting work and waits for queued and running pipelines to
// finish. When ctx expires first, running pipelines are cancelled, queued ones
// are processed against a cancelled context, and ctx.Err is returned.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}
