package prioritypool

import (
	"context"
	"sync"
)

// State is the lifecycle state of a Future.
type State int32

const (
	Pending State = iota
	Ready
	Failed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Ready:
		return "Ready"
	case Failed:
		return "Failed"
	case Cancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Future is the result handle returned for every submission.
//
// A Future is written exactly once, by the worker that runs its task or by
// the pool when the task is discarded, and may be read by any number of
// goroutines. It has its own lock, so a long task never blocks readers of
// unrelated futures. Callers may drop a Future without reading it.
type Future[T any] struct {
	id string

	mu    sync.Mutex
	state State
	value T
	err   error
	done  chan struct{}
}

func newFuture[T any](id string) *Future[T] {
	return &Future[T]{id: id, done: make(chan struct{})}
}

// ID returns the identifier assigned to the task at submission.
func (f *Future[T]) ID() string { return f.id }

// Get blocks until the task reaches a terminal state.
//
// It returns the task's value, a *TaskError if the task failed, or
// ErrCancelled if the pool discarded the task before it started.
func (f *Future[T]) Get() (T, error) {
	<-f.done
	return f.result()
}

// GetContext is like Get but gives up when ctx is done, returning ctx.Err().
// The future itself is unaffected.
func (f *Future[T]) GetContext(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.result()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// IsReady reports whether the future reached a terminal state. It never blocks.
func (f *Future[T]) IsReady() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// State returns a snapshot of the current state.
func (f *Future[T]) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Done returns a channel closed when the future reaches a terminal state.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

func (f *Future[T]) result() (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err
}

// resolve moves the future to a terminal state. Only the first call wins;
// it reports whether this call did the transition.
func (f *Future[T]) resolve(state State, v T, err error) bool {
	f.mu.Lock()
	if f.state != Pending {
		f.mu.Unlock()
		return false
	}
	f.state = state
	f.value = v
	f.err = err
	f.mu.Unlock()
	close(f.done)
	return true
}

func (f *Future[T]) complete(v T) bool { return f.resolve(Ready, v, nil) }

func (f *Future[T]) fail(err error) bool {
	var zero T
	return f.resolve(Failed, zero, err)
}

func (f *Future[T]) cancel() bool {
	var zero T
	return f.resolve(Cancelled, zero, ErrCancelled)
}
