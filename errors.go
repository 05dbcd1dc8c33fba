package prioritypool

import (
	"errors"
	"fmt"
)

var (
	// ErrPoolStopped is returned when submitting to a pool after Shutdown.
	ErrPoolStopped = errors.New("prioritypool: pool stopped")

	// ErrPausedWithPendingWork is returned by Wait when the pool is paused
	// and the queue still holds work, so it could never become idle.
	ErrPausedWithPendingWork = errors.New("prioritypool: paused with pending work")

	// ErrSelfJoinDeadlock is returned when Wait or Shutdown is called from
	// one of the pool's own workers.
	ErrSelfJoinDeadlock = errors.New("prioritypool: wait or shutdown called from a pool worker")

	// ErrTaskFailed matches every *TaskError.
	ErrTaskFailed = errors.New("prioritypool: task failed")

	// ErrCancelled is reported by futures whose task was discarded by
	// ClearQueue or an immediate Shutdown before it started.
	ErrCancelled = errors.New("prioritypool: task cancelled")

	// ErrGoexit is the cause of a TaskError whose payload called
	// runtime.Goexit instead of returning.
	ErrGoexit = errors.New("prioritypool: task called runtime.Goexit")

	// ErrNilFunc is returned when a submitted task has a nil function.
	ErrNilFunc = errors.New("prioritypool: task func is nil")
)

// TaskError carries the error produced by a task payload.
type TaskError struct {
	TaskID   string
	Tag      string
	Attempts int
	Err      error
}

func (e *TaskError) Error() string {
	if e.Tag != "" {
		return fmt.Sprintf("prioritypool: task %s (%s) failed after %d attempt(s): %v", e.TaskID, e.Tag, e.Attempts, e.Err)
	}
	return fmt.Sprintf("prioritypool: task %s failed after %d attempt(s): %v", e.TaskID, e.Attempts, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

// Is reports ErrTaskFailed so callers can tell task failures from
// cancellation without a type assertion.
func (e *TaskError) Is(target error) bool { return target == ErrTaskFailed }

// PanicError wraps a value recovered from a panicking task.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}
