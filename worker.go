package prioritypool

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"time"

	boff "github.com/Andrej220/go-utils/backoff"
	lg "github.com/Andrej220/go-utils/zlog"
	"go.uber.org/multierr"
)

// worker is the loop of one long-lived worker.
//
// The goroutine is locked to its OS thread for its whole life and never
// unlocks it, so the runtime retires the thread when the worker returns and
// a registered thread id can never belong to another goroutine.
func (p *Pool) worker(idx int) {
	defer p.wg.Done()
	runtime.LockOSThread()

	if len(p.cpus) > 0 {
		cpu := p.cpus[idx%len(p.cpus)]
		if err := PinToCPU(cpu); err != nil {
			p.reportInternalError(fmt.Errorf("pin worker %d to cpu %d: %w", idx, cpu, err))
		}
	}

	tid := currentThreadID()
	p.mu.Lock()
	if tid >= 0 {
		p.threads[tid] = idx
	}

	for {
		for (p.queue.Len() == 0 || p.state.paused) && !p.state.stopped {
			p.workCond.Wait()
		}
		if p.state.stopped && p.queue.Len() == 0 {
			delete(p.threads, tid)
			p.mu.Unlock()
			return
		}
		if p.state.paused {
			continue
		}

		it, ok := p.queue.popHighest()
		if !ok {
			continue
		}
		p.state.running++
		p.metrics.SetQueued(p.queue.Len())
		p.metrics.SetRunning(p.state.running)
		p.mu.Unlock()

		p.runItem(idx, tid, it)

		p.mu.Lock()
		p.state.running--
		p.metrics.SetRunning(p.state.running)
		if p.state.running == 0 && (p.queue.Len() == 0 || p.state.paused) {
			p.idleCond.Broadcast()
		}
	}
}

// runItem runs one dequeued item outside the lock.
//
// A payload that calls runtime.Goexit takes the worker goroutine and its
// thread with it. runTask has already failed the future by then; the
// deferred block settles the running count, unregisters the thread and
// starts a replacement worker with the same index.
func (p *Pool) runItem(idx int, tid int64, it workItem) {
	returned := false
	defer func() {
		if returned {
			return
		}
		p.mu.Lock()
		p.state.running--
		p.metrics.SetRunning(p.state.running)
		delete(p.threads, tid)
		if p.state.running == 0 && (p.queue.Len() == 0 || p.state.paused) {
			p.idleCond.Broadcast()
		}
		// Add before this goroutine's deferred Done, so the join cannot
		// finish in between.
		p.wg.Add(1)
		p.mu.Unlock()

		p.reportInternalError(fmt.Errorf("worker %d: task %s exited its goroutine, replacing worker", idx, it.id))
		go p.worker(idx)
	}()

	it.run()
	returned = true
}

// runTask executes one task with its retry policy and resolves its future.
// It never panics: payload panics become *PanicError.
func runTask[T any](p *Pool, fut *Future[T], fn TaskFunc[T], meta *taskMeta, priority int) {
	logger := lg.FromContext(meta.ctx).With(
		lg.String("task", fut.id),
		lg.String("tag", meta.tag),
		lg.Int("priority", priority),
	)
	defer runCleanup(p, meta.cleanup)

	pol := meta.retry.merge(p.opts.Retry)
	start := time.Now()

	// settled stays false only when the payload ends the goroutine with
	// runtime.Goexit; recover cannot stop that, so the future is failed here.
	settled := false
	attempts := 0
	defer func() {
		if settled {
			return
		}
		terr := &TaskError{TaskID: fut.id, Tag: meta.tag, Attempts: attempts, Err: ErrGoexit}
		fut.fail(terr)
		p.metrics.IncFailed()
		p.metrics.ObserveDuration(time.Since(start))
		logger.Error("task exited its goroutine", lg.Int("attempts", attempts))
		p.reportTaskError(terr)
	}()

	var (
		errs      error
		nextDelay func() time.Duration
	)
	for attempt := 1; attempt <= pol.Attempts; attempt++ {
		attempts = attempt
		v, err := callSafely(fn)
		if err == nil {
			settled = true
			fut.complete(v)
			p.metrics.IncExecuted()
			p.metrics.ObserveDuration(time.Since(start))
			return
		}

		errs = multierr.Append(errs, err)
		if pe, ok := err.(*PanicError); ok {
			logger.Error("task panicked", lg.Int("attempt", attempt), lg.Any("panic", pe.Value))
		}
		if attempt == pol.Attempts {
			break
		}

		if nextDelay == nil {
			bo := boff.New(pol.Initial, pol.Max, time.Now().UnixNano())
			nextDelay = bo.Next
		}
		delay := nextDelay()
		logger.Warn("task attempt failed; backing off",
			lg.Int("attempt", attempt),
			lg.String("sleep", delay.String()),
			lg.Any("error", err),
		)
		if reason := p.backoffWait(meta.ctx, delay); reason != nil {
			logger.Info("task retry aborted", lg.Any("reason", reason))
			break
		}
	}

	settled = true
	terr := &TaskError{TaskID: fut.id, Tag: meta.tag, Attempts: attempts, Err: errs}
	fut.fail(terr)
	p.metrics.IncFailed()
	p.metrics.ObserveDuration(time.Since(start))
	logger.Error("task failed", lg.Int("attempts", attempts), lg.Any("error", errs))
	p.reportTaskError(terr)
}

// backoffWait sleeps for d. It returns early with the reason when the task
// context ends or the pool is shut down immediately.
func (p *Pool) backoffWait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.abort:
		return ErrPoolStopped
	}
}

func callSafely[T any](fn TaskFunc[T]) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

func runCleanup(p *Pool, fn func()) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.reportInternalError(fmt.Errorf("task cleanup panicked: %v", r))
		}
	}()
	fn()
}

func runCleanups(p *Pool, fns []func()) {
	for _, fn := range fns {
		runCleanup(p, fn)
	}
}
