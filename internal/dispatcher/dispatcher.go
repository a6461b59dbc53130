package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"StockLens/internal/clock"
	"StockLens/internal/logger"
	"StockLens/internal/model"

	"github.com/google/uuid"
)

// DefaultMinInterval spaces provider calls to 5 per minute.
const DefaultMinInterval = 12 * time.Second

// Job is a deferred provider call.
type Job func(ctx context.Context) (any, error)

// Future resolves with exactly the outcome of its own job.
type Future struct {
	done  chan struct{}
	value any
	err   error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) resolve(v any, err error) {
	f.value, f.err = v, err
	close(f.done)
}

// Wait blocks until the job has run or ctx is done. Abandoning the wait
// does not remove the job from the queue; it still runs once.
func (f *Future) Wait(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type queuedJob struct {
	id     string
	ctx    context.Context
	job    Job
	future *Future
}

// Options configures a Dispatcher.
type Options struct {
	MinInterval time.Duration
	JobTimeout  time.Duration // zero disables the per-job timeout
	Clock       clock.Clock
}

// Dispatcher serializes provider calls through one FIFO queue. A job never
// starts earlier than MinInterval after the previous job finished.
type Dispatcher struct {
	interval time.Duration
	timeout  time.Duration
	clock    clock.Clock
	log      *logger.Entry

	mu         sync.Mutex
	queue      []*queuedJob
	draining   bool
	lastFinish time.Time
}

// New creates a Dispatcher. One instance should be shared by every caller of
// the same provider.
func New(opts Options) *Dispatcher {
	if opts.MinInterval <= 0 {
		opts.MinInterval = DefaultMinInterval
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	return &Dispatcher{
		interval: opts.MinInterval,
		timeout:  opts.JobTimeout,
		clock:    opts.Clock,
		log:      logger.GetLogger().WithComponent("dispatcher"),
	}
}

// Submit enqueues job and starts a drain loop if none is running.
func (d *Dispatcher) Submit(ctx context.Context, job Job) *Future {
	qj := &queuedJob{
		id:     uuid.NewString(),
		ctx:    ctx,
		job:    job,
		future: newFuture(),
	}

	d.mu.Lock()
	d.queue = append(d.queue, qj)
	depth := len(d.queue)
	start := !d.draining
	if start {
		d.draining = true
	}
	d.mu.Unlock()

	d.log.WithFields(logger.Fields{"job_id": qj.id, "queue_depth": depth}).Debug("job enqueued")
	if start {
		go d.drain()
	}
	return qj.future
}

// Pending reports the number of jobs waiting to run.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Interval returns the configured minimum spacing.
func (d *Dispatcher) Interval() time.Duration {
	return d.interval
}

func (d *Dispatcher) drain() {
	for {
		d.mu.Lock()
		if len(d.queue) == 0 {
			d.draining = false
			d.mu.Unlock()
			return
		}
		qj := d.queue[0]
		d.queue[0] = nil
		d.queue = d.queue[1:]
		last := d.lastFinish
		d.mu.Unlock()

		if !last.IsZero() {
			if wait := last.Add(d.interval).Sub(d.clock.Now()); wait > 0 {
				d.log.WithFields(logger.Fields{"job_id": qj.id, "wait": wait.String()}).Debug("throttling")
				<-d.clock.After(wait)
			}
		}

		out := d.run(qj)

		// lastFinish must be visible before the caller is released
		d.mu.Lock()
		d.lastFinish = d.clock.Now()
		d.mu.Unlock()

		qj.future.resolve(out.value, out.err)
	}
}

type outcome struct {
	value any
	err   error
}

// run executes the job without its caller's cancellation. Values on the
// caller's context are kept; only the per-job timeout bounds the call.
func (d *Dispatcher) run(qj *queuedJob) outcome {
	ctx := context.WithoutCancel(qj.ctx)
	var out outcome
	if d.timeout > 0 {
		out = d.runWithTimeout(ctx, qj)
	} else {
		out.value, out.err = d.call(ctx, qj)
	}

	entry := d.log.WithFields(logger.Fields{"job_id": qj.id})
	if out.err != nil {
		entry.WithError(out.err).Warn("job failed")
	} else {
		entry.Debug("job done")
	}
	return out
}

// runWithTimeout resolves a job that ignores its context once the deadline
// passes. The abandoned call keeps running in its own goroutine.
func (d *Dispatcher) runWithTimeout(parent context.Context, qj *queuedJob) outcome {
	ctx, cancel := context.WithTimeout(parent, d.timeout)
	defer cancel()

	ch := make(chan outcome, 1)
	go func() {
		v, err := d.call(ctx, qj)
		ch <- outcome{value: v, err: err}
	}()

	var out outcome
	select {
	case out = <-ch:
	case <-ctx.Done():
		out.err = ctx.Err()
	}
	if out.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		out = outcome{err: fmt.Errorf("%w after %s: %v", model.ErrJobTimeout, d.timeout, out.err)}
	}
	return out
}

// call recovers a panicking job into an error.
func (d *Dispatcher) call(ctx context.Context, qj *queuedJob) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", qj.id, r)
		}
	}()
	return qj.job(ctx)
}

// Do submits fn and waits for its typed result.
func Do[T any](ctx context.Context, d *Dispatcher, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	f := d.Submit(ctx, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	v, err := f.Wait(ctx)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("dispatcher: unexpected result type %T", v)
	}
	return t, nil
}
