package prioritypool

import (
	"context"
	"fmt"
	"sync"

	lg "github.com/Andrej220/go-utils/zlog"
	"github.com/google/uuid"
)

// poolState is observed and changed only under Pool.mu. stopped never
// goes back to false.
type poolState struct {
	stopped bool
	paused  bool
	running int
}

// Pool is a fixed-size group of workers fed from a priority queue.
//
// The zero value is not usable; create pools with NewPool or
// NewPoolFromOptions.
type Pool struct {
	opts    Options
	metrics MetricsPolicy

	mu sync.Mutex
	// workCond wakes workers on new work, resume and stop.
	workCond *sync.Cond
	// idleCond wakes Wait callers when the pool may have become idle.
	idleCond *sync.Cond
	queue    *taskQueue
	state    poolState
	threads  map[int64]int // worker thread id -> worker index
	cpus     []int         // CPUs workers are pinned to, empty when unpinned

	wg        sync.WaitGroup
	joinOnce  sync.Once
	joined    chan struct{}
	abort     chan struct{} // closed by an immediate shutdown
	abortOnce sync.Once
}

// Stats is a point-in-time snapshot of the pool.
type Stats struct {
	Workers int
	Queued  int
	Running int
	Paused  bool
	Stopped bool
}

// NewPool creates a pool with the given number of workers and default options.
func NewPool(workers int) *Pool {
	return NewPoolFromOptions(Options{Workers: workers})
}

// NewPoolFromOptions creates a pool and starts its workers.
func NewPoolFromOptions(opts Options) *Pool {
	opts.FillDefaults()

	p := &Pool{
		opts:    opts,
		metrics: opts.Metrics,
		queue:   newTaskQueue(),
		threads: make(map[int64]int, opts.Workers),
		joined:  make(chan struct{}),
		abort:   make(chan struct{}),
	}
	p.workCond = sync.NewCond(&p.mu)
	p.idleCond = sync.NewCond(&p.mu)

	// Read once here: threads created later by the runtime may inherit a
	// pinned worker's single-CPU mask.
	if opts.PinWorkers {
		cpus, err := allowedCPUs()
		if err != nil {
			p.reportInternalError(fmt.Errorf("read cpu affinity: %w", err))
		} else {
			p.cpus = cpus
		}
	}

	for i := range opts.Workers {
		p.wg.Add(1)
		go p.worker(i)
	}

	lg.FromContext(opts.LogContext).Info("pool started",
		lg.Int("workers", opts.Workers),
		lg.Int("retry_attempts", opts.Retry.Attempts),
	)
	return p
}

// Submit queues fn at the given priority and returns its future.
//
// Higher priorities run first; equal priorities run in submission order.
// Submit fails with ErrPoolStopped once Shutdown has been called.
func Submit[T any](p *Pool, priority int, fn TaskFunc[T], opts ...TaskOption) (*Future[T], error) {
	if fn == nil {
		return nil, ErrNilFunc
	}
	meta := taskMeta{ctx: p.opts.LogContext}
	for _, opt := range opts {
		opt(&meta)
	}
	if meta.ctx == nil {
		meta.ctx = p.opts.LogContext
	}

	fut := newFuture[T](uuid.NewString())
	it := workItem{
		priority: priority,
		id:       fut.id,
		run:      func() { runTask(p, fut, fn, &meta, priority) },
		cancel:   fut.cancel,
		cleanup:  meta.cleanup,
	}
	if err := p.push(it); err != nil {
		return nil, err
	}
	return fut, nil
}

// Enqueue queues a task without a result value.
func (p *Pool) Enqueue(priority int, fn func() error, opts ...TaskOption) (*Future[struct{}], error) {
	if fn == nil {
		return nil, ErrNilFunc
	}
	return Submit(p, priority, func() (struct{}, error) {
		return struct{}{}, fn()
	}, opts...)
}

func (p *Pool) push(it workItem) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.stopped {
		return ErrPoolStopped
	}
	p.queue.push(it)
	p.metrics.IncSubmitted()
	p.metrics.SetQueued(p.queue.Len())
	if !p.state.paused {
		p.workCond.Signal()
	}
	return nil
}

// Pause stops workers from taking new tasks. Running tasks are not
// interrupted. Pause has no effect on a stopped pool.
func (p *Pool) Pause() {
	p.mu.Lock()
	if p.state.stopped || p.state.paused {
		p.mu.Unlock()
		return
	}
	p.state.paused = true
	queued := p.queue.Len()
	// let blocked Wait calls notice they can no longer finish
	p.idleCond.Broadcast()
	p.mu.Unlock()

	lg.FromContext(p.opts.LogContext).Info("pool paused", lg.Int("queued", queued))
}

// Resume lets workers take tasks again after Pause.
func (p *Pool) Resume() {
	p.mu.Lock()
	if p.state.stopped || !p.state.paused {
		p.mu.Unlock()
		return
	}
	p.state.paused = false
	queued := p.queue.Len()
	p.workCond.Broadcast()
	p.mu.Unlock()

	lg.FromContext(p.opts.LogContext).Info("pool resumed", lg.Int("queued", queued))
}

// Wait blocks until the queue is empty and no task is running.
//
// If the pool is paused while tasks are still queued, Wait returns
// ErrPausedWithPendingWork instead of blocking forever. Called from inside
// a task it returns ErrSelfJoinDeadlock.
func (p *Pool) Wait() error {
	if err := p.checkSelfJoin("wait"); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for p.queue.Len() > 0 || p.state.running > 0 {
		if p.state.paused && p.queue.Len() > 0 {
			return ErrPausedWithPendingWork
		}
		p.idleCond.Wait()
	}
	return nil
}

// ClearQueue discards every queued task and returns how many were dropped.
// Their futures resolve to Cancelled; running tasks are unaffected.
func (p *Pool) ClearQueue() int {
	p.mu.Lock()
	cleanups, n := p.cancelQueuedLocked()
	if p.state.running == 0 {
		p.idleCond.Broadcast()
	}
	p.mu.Unlock()

	runCleanups(p, cleanups)
	if n > 0 {
		lg.FromContext(p.opts.LogContext).Info("queue cleared", lg.Int("cancelled", n))
	}
	return n
}

// cancelQueuedLocked drains the queue and resolves every drained future to
// Cancelled, so waiters observe the state as soon as the lock is released.
// Cleanup callbacks are returned to be run without the lock.
func (p *Pool) cancelQueuedLocked() ([]func(), int) {
	items := p.queue.drain()
	if len(items) == 0 {
		return nil, 0
	}
	var cleanups []func()
	for _, it := range items {
		if it.cancel() && it.cleanup != nil {
			cleanups = append(cleanups, it.cleanup)
		}
	}
	p.metrics.AddCancelled(len(items))
	p.metrics.SetQueued(0)
	return cleanups, len(items)
}

// Shutdown stops the pool and joins its workers.
//
// A graceful shutdown lets queued and running tasks finish. An immediate one
// cancels queued tasks and aborts pending retry backoff; running payloads
// still finish. Submissions fail with ErrPoolStopped afterwards.
//
// ctx bounds how long the caller waits for the workers; on timeout ctx.Err()
// is returned and the workers keep draining. Shutdown may be called again;
// workers are joined only once, and an immediate call after a graceful one
// still cancels what is left in the queue. Called from inside a task it
// returns ErrSelfJoinDeadlock.
func (p *Pool) Shutdown(ctx context.Context, graceful bool) error {
	if err := p.checkSelfJoin("shutdown"); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	p.mu.Lock()
	first := !p.state.stopped
	p.state.stopped = true
	p.state.paused = false
	var (
		cleanups  []func()
		cancelled int
	)
	if !graceful {
		cleanups, cancelled = p.cancelQueuedLocked()
	}
	queued := p.queue.Len()
	p.workCond.Broadcast()
	p.idleCond.Broadcast()
	p.mu.Unlock()

	if !graceful {
		p.abortOnce.Do(func() { close(p.abort) })
	}
	runCleanups(p, cleanups)

	if first || cancelled > 0 {
		lg.FromContext(p.opts.LogContext).Info("pool shutting down",
			lg.Any("graceful", graceful),
			lg.Int("queued", queued),
			lg.Int("cancelled", cancelled),
		)
	}

	p.joinOnce.Do(func() {
		go func() {
			p.wg.Wait()
			close(p.joined)
			lg.FromContext(p.opts.LogContext).Info("pool stopped")
		}()
	})

	// a joined pool succeeds even with a done ctx
	select {
	case <-p.joined:
		return nil
	default:
	}
	select {
	case <-p.joined:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop shuts the pool down gracefully and blocks until every worker exits.
func (p *Pool) Stop() error { return p.Shutdown(context.Background(), true) }

// checkSelfJoin fails when the caller runs on one of the pool's workers,
// which could never see its own task finish.
func (p *Pool) checkSelfJoin(op string) error {
	tid := currentThreadID()
	if tid < 0 {
		return nil
	}
	p.mu.Lock()
	idx, ok := p.threads[tid]
	p.mu.Unlock()
	if !ok {
		return nil
	}

	err := fmt.Errorf("%s from worker %d: %w", op, idx, ErrSelfJoinDeadlock)
	lg.FromContext(p.opts.LogContext).Error("self-join detected", lg.String("op", op), lg.Int("worker", idx))
	if abortOnMisuse {
		panic(err)
	}
	return err
}

// QueueSize returns the number of queued tasks. The value may be stale as
// soon as it is returned.
func (p *Pool) QueueSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.Len()
}

// Workers returns the number of worker threads.
func (p *Pool) Workers() int { return p.opts.Workers }

// Running returns the number of tasks currently executing.
func (p *Pool) Running() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.running
}

// IsPaused reports whether workers are held from taking new tasks.
func (p *Pool) IsPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.paused
}

// IsStopped reports whether Shutdown has been called.
func (p *Pool) IsStopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.stopped
}

// Stats returns a consistent snapshot of the pool state.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Workers: p.opts.Workers,
		Queued:  p.queue.Len(),
		Running: p.state.running,
		Paused:  p.state.paused,
		Stopped: p.state.stopped,
	}
}
