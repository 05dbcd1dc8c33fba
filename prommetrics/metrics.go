// Package prommetrics exports pool activity as Prometheus metrics.
package prommetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	pp "github.com/azargarov/prioritypool"
)

const defaultNamespace = "prioritypool"

// Metrics is a pp.MetricsPolicy backed by Prometheus collectors.
type Metrics struct {
	TasksSubmitted prometheus.Counter
	TasksExecuted  prometheus.Counter
	TasksFailed    prometheus.Counter
	TasksCancelled prometheus.Counter
	QueueLength    prometheus.Gauge
	RunningTasks   prometheus.Gauge
	TaskDuration   prometheus.Histogram
}

var _ pp.MetricsPolicy = (*Metrics)(nil)

// New creates the collectors and registers them with registerer.
// An empty namespace defaults to "prioritypool"; a nil registerer to
// prometheus.DefaultRegisterer. Registering twice on the same registerer
// with the same namespace and pool name panics, as with promauto.
func New(registerer prometheus.Registerer, namespace, pool string) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = defaultNamespace
	}
	labels := prometheus.Labels{"pool": pool}
	f := promauto.With(registerer)

	return &Metrics{
		TasksSubmitted: f.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "tasks_submitted_total",
			Help:        "Total number of tasks accepted by the pool",
			ConstLabels: labels,
		}),
		TasksExecuted: f.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "tasks_executed_total",
			Help:        "Total number of tasks that completed successfully",
			ConstLabels: labels,
		}),
		TasksFailed: f.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "tasks_failed_total",
			Help:        "Total number of tasks that failed after all attempts",
			ConstLabels: labels,
		}),
		TasksCancelled: f.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "tasks_cancelled_total",
			Help:        "Total number of queued tasks discarded before they started",
			ConstLabels: labels,
		}),
		QueueLength: f.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "queue_length",
			Help:        "Current number of queued tasks",
			ConstLabels: labels,
		}),
		RunningTasks: f.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "running_tasks",
			Help:        "Current number of executing tasks",
			ConstLabels: labels,
		}),
		TaskDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "task_duration_seconds",
			Help:        "Task execution time in seconds, retries included",
			Buckets:     prometheus.ExponentialBuckets(0.0001, 4, 10), // 100µs to ~26s
			ConstLabels: labels,
		}),
	}
}

func (m *Metrics) IncSubmitted()      { m.TasksSubmitted.Inc() }
func (m *Metrics) IncExecuted()       { m.TasksExecuted.Inc() }
func (m *Metrics) IncFailed()         { m.TasksFailed.Inc() }
func (m *Metrics) AddCancelled(n int) { m.TasksCancelled.Add(float64(n)) }
func (m *Metrics) SetQueued(n int)    { m.QueueLength.Set(float64(n)) }
func (m *Metrics) SetRunning(n int)   { m.RunningTasks.Set(float64(n)) }

func (m *Metrics) ObserveDuration(d time.Duration) {
	m.TaskDuration.Observe(d.Seconds())
}
