package prioritypool

import (
	"context"
	"runtime"
)

// Options configure a Pool.
//
// All zero values are replaced with sensible defaults in FillDefaults.
type Options struct {
	// Workers is the number of worker threads. Values below one or above
	// the number of CPUs are clamped to runtime.NumCPU().
	Workers int

	// PinWorkers locks worker i to the i-th CPU (modulo count) of the
	// process affinity mask read at construction. Linux only; elsewhere the
	// failure is reported through OnInternalError and workers run unpinned.
	PinWorkers bool

	// Retry is the default retry policy for tasks that do not set their own.
	Retry RetryPolicy

	// Metrics receives queueing and execution events. Defaults to NoopMetrics.
	Metrics MetricsPolicy

	// LogContext carries the logger used for pool lifecycle events and is
	// the default context of submitted tasks.
	LogContext context.Context

	OnTaskError     func(error)
	OnInternalError func(error)
}

// FillDefaults replaces zero values with defaults and clamps Workers.
func (o *Options) FillDefaults() {
	hw := runtime.NumCPU()
	if o.Workers <= 0 || o.Workers > hw {
		o.Workers = hw
	}
	if o.Workers < 1 {
		o.Workers = 1
	}
	o.Retry.fillDefaults()
	if o.Metrics == nil {
		o.Metrics = &NoopMetrics{}
	}
	if o.LogContext == nil {
		o.LogContext = context.Background()
	}
}
