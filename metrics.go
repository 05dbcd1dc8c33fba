package prioritypool

import (
	"sync/atomic"
	"time"
)

// MetricsPolicy defines hooks used by the pool to report queueing and
// execution activity.
//
// Implementations must be safe for concurrent use.
// All methods are expected to be lightweight and non-blocking.
// SetQueued and SetRunning are called while the pool lock is held.
type MetricsPolicy interface {
	// IncSubmitted counts an accepted submission.
	IncSubmitted()

	// IncExecuted counts a task that finished successfully.
	IncExecuted()

	// IncFailed counts a task whose future was resolved with an error.
	IncFailed()

	// AddCancelled counts n queued tasks discarded before they started.
	AddCancelled(n int)

	// SetQueued reports the current queue length.
	SetQueued(n int)

	// SetRunning reports the number of tasks currently executing.
	SetRunning(n int)

	// ObserveDuration records the wall time of one task, retries included.
	ObserveDuration(d time.Duration)
}

// AtomicMetrics is a lock-free metrics implementation backed by atomics.
//
// Writes are optimized for hot paths.
// Reads are intended for cold-path observation.
type AtomicMetrics struct {
	submitted atomic.Uint64
	executed  atomic.Uint64
	failed    atomic.Uint64
	cancelled atomic.Uint64

	_ [32]byte // padding to avoid false sharing

	queued  atomic.Int64
	running atomic.Int64
	busy    atomic.Int64 // accumulated task time in nanoseconds
}

func (m *AtomicMetrics) Submitted() uint64 { return m.submitted.Load() }
func (m *AtomicMetrics) Executed() uint64  { return m.executed.Load() }
func (m *AtomicMetrics) Failed() uint64    { return m.failed.Load() }
func (m *AtomicMetrics) Cancelled() uint64 { return m.cancelled.Load() }
func (m *AtomicMetrics) Queued() int64     { return m.queued.Load() }
func (m *AtomicMetrics) Running() int64    { return m.running.Load() }

// Busy returns the accumulated execution time of all finished tasks.
func (m *AtomicMetrics) Busy() time.Duration { return time.Duration(m.busy.Load()) }

func (m *AtomicMetrics) IncSubmitted()      { m.submitted.Add(1) }
func (m *AtomicMetrics) IncExecuted()       { m.executed.Add(1) }
func (m *AtomicMetrics) IncFailed()         { m.failed.Add(1) }
func (m *AtomicMetrics) AddCancelled(n int) { m.cancelled.Add(uint64(n)) }
func (m *AtomicMetrics) SetQueued(n int)    { m.queued.Store(int64(n)) }
func (m *AtomicMetrics) SetRunning(n int)   { m.running.Store(int64(n)) }

func (m *AtomicMetrics) ObserveDuration(d time.Duration) { m.busy.Add(int64(d)) }

//------------- NoopMetrics ----------------------------------

// NoopMetrics is a MetricsPolicy implementation that discards
// all metric updates.
type NoopMetrics struct{}

func (m *NoopMetrics) IncSubmitted()                 {}
func (m *NoopMetrics) IncExecuted()                  {}
func (m *NoopMetrics) IncFailed()                    {}
func (m *NoopMetrics) AddCancelled(int)              {}
func (m *NoopMetrics) SetQueued(int)                 {}
func (m *NoopMetrics) SetRunning(int)                {}
func (m *NoopMetrics) ObserveDuration(time.Duration) {}
