package prioritypool

import (
	"time"
)

const (
	defaultAttempts     = 1
	defaultInitialRetry = 200 * time.Millisecond
	defaultMaxRetry     = 5 * time.Second
)

// RetryPolicy describes how many times and how often a failing task is
// retried before its future is resolved with the error.
// Zero values are treated as "use pool defaults".
type RetryPolicy struct {
	// Attempts is the maximum number of tries for a task. One means no retry.
	Attempts int

	// Initial is the first backoff duration.
	Initial time.Duration

	// Max is the cap for backoff duration.
	Max time.Duration
}

// DefaultRetryPolicy returns the policy used when none is configured:
// a single attempt.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: defaultAttempts,
		Initial:  defaultInitialRetry,
		Max:      defaultMaxRetry,
	}
}

func (rp *RetryPolicy) fillDefaults() {
	if rp.Attempts <= 0 {
		rp.Attempts = defaultAttempts
	}
	if rp.Initial <= 0 {
		rp.Initial = defaultInitialRetry
	}
	if rp.Max <= 0 {
		rp.Max = defaultMaxRetry
	}
	if rp.Max < rp.Initial {
		rp.Max = rp.Initial
	}
}

// merge overrides the non-zero fields of base with those of rp.
func (rp *RetryPolicy) merge(base RetryPolicy) RetryPolicy {
	if rp == nil {
		return base
	}
	if rp.Attempts > 0 {
		base.Attempts = rp.Attempts
	}
	if rp.Initial > 0 {
		base.Initial = rp.Initial
	}
	if rp.Max > 0 {
		base.Max = rp.Max
	}
	if base.Max < base.Initial {
		base.Max = base.Initial
	}
	return base
}
