// Package prioritypool provides a fixed-size, priority-ordered,
// pausable worker pool with future-returning task submission.
//
// Architecture overview
//
// The pool is composed of four parts sharing a single mutex:
//
//  1. Queue (taskQueue)
//     An array-backed binary max-heap of work items. Higher priority
//     is dequeued first; equal priorities keep submission order.
//
//  2. Workers
//     N long-lived goroutines, each locked to its own OS thread. N is
//     fixed at construction and clamped to [1, runtime.NumCPU()].
//     Payloads execute outside the pool lock.
//
//  3. Controller (Pool)
//     A running/paused/stopped state machine with two condition
//     variables: one wakes workers on new work or a state change,
//     the other wakes Wait callers when the pool becomes idle.
//
//  4. Futures
//     Every submission returns a Future that is resolved exactly once,
//     with the task's value, its error, or ErrCancelled.
//
// Lifecycle
//
// Pause takes effect at the next dequeue; running tasks finish. Wait
// blocks until the queue is empty and no task runs, and fails with
// ErrPausedWithPendingWork rather than blocking on a paused, non-empty
// queue. ClearQueue cancels queued tasks only. Shutdown is one-way:
// graceful shutdown drains the queue, immediate shutdown cancels it.
// Either way every future reaches a terminal state.
//
// Wait and Shutdown called from inside a task fail with
// ErrSelfJoinDeadlock. Built with the debug tag they panic instead.
//
// Error handling
//
// Task errors and recovered panics are attached to the task's Future
// as a *TaskError and reported to Options.OnTaskError. They never stop
// a worker. A payload that calls runtime.Goexit fails with ErrGoexit and
// its worker is replaced. Internal errors go to Options.OnInternalError.
//
// Failing tasks may be retried with jittered exponential backoff, see
// RetryPolicy. The default is a single attempt.
package prioritypool
