package prioritypool

import (
	"context"
)

// Task priorities. Higher values run first; any int is accepted.
const (
	PriorityLow     = -10
	DefaultPriority = 0
	PriorityHigh    = 10
)

// TaskFunc is the payload of a typed submission.
type TaskFunc[T any] func() (T, error)

// TaskOption configures a single submission.
type TaskOption func(*taskMeta)

// taskMeta holds the optional per-task settings.
//
// ctx is used for logging and to abort retry backoff; it does not stop a
// payload that is already running.
type taskMeta struct {
	ctx     context.Context
	retry   *RetryPolicy
	tag     string
	cleanup func()
}

// WithContext sets the task context. Its logger is used for the task's log
// lines and its cancellation cuts retry backoff short.
func WithContext(ctx context.Context) TaskOption {
	return func(m *taskMeta) {
		m.ctx = ctx
	}
}

// WithRetry overrides the non-zero fields of the pool's retry policy.
func WithRetry(rp RetryPolicy) TaskOption {
	return func(m *taskMeta) {
		m.retry = &rp
	}
}

// WithTag labels a task in logs and errors.
func WithTag(tag string) TaskOption {
	return func(m *taskMeta) {
		m.tag = tag
	}
}

// WithCleanup registers fn to run after the task finishes or is cancelled.
func WithCleanup(fn func()) TaskOption {
	return func(m *taskMeta) {
		m.cleanup = fn
	}
}
