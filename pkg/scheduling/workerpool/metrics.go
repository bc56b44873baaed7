package workerpool

import (
	"context"
	"time"

	"github.com/vnykmshr/goasync/pkg/metrics"
)

// MetricsPool wraps a worker Pool with Prometheus metrics collection.
type MetricsPool struct {
	pool     Pool
	name     string
	registry *metrics.Registry
}

// NewWithConfigAndMetrics creates a new worker pool with custom config and
// metrics. When metricsConfig is disabled the plain pool is returned.
func NewWithConfigAndMetrics(config Config, name string, metricsConfig metrics.Config) (Pool, error) {
	basePool, err := NewWithConfig(config)
	if err != nil {
		return nil, err
	}

	if !metricsConfig.Enabled {
		return basePool, nil
	}

	mp := &MetricsPool{
		pool:     basePool,
		name:     name,
		registry: metrics.NewRegistryFromConfig(metricsConfig),
	}
	mp.updateMetrics()

	return mp, nil
}

// updateMetrics updates the current state gauges.
func (mp *MetricsPool) updateMetrics() {
	mp.registry.WorkerPoolSize.WithLabelValues(mp.name).Set(float64(mp.pool.Size()))
	mp.registry.WorkerPoolActive.WithLabelValues(mp.name).Set(float64(mp.pool.ActiveWorkers()))
	mp.registry.WorkerPoolQueued.WithLabelValues(mp.name).Set(float64(mp.pool.QueueSize()))
}

// Submit adds a task to the pool for execution.
func (mp *MetricsPool) Submit(task Task) error {
	return mp.SubmitWithContext(context.Background(), task)
}

// SubmitWithContext submits a task with a context.
func (mp *MetricsPool) SubmitWithContext(ctx context.Context, task Task) error {
	if task == nil {
		return mp.pool.SubmitWithContext(ctx, nil)
	}

	err := mp.pool.SubmitWithContext(ctx, &metricsTask{original: task, pool: mp})
	mp.updateMetrics()
	return err
}

// TrySubmit adds a task without waiting for queue space.
func (mp *MetricsPool) TrySubmit(task Task) error {
	if task == nil {
		return mp.pool.TrySubmit(nil)
	}

	err := mp.pool.TrySubmit(&metricsTask{original: task, pool: mp})
	mp.updateMetrics()
	return err
}

// metricsTask wraps a Task to collect execution metrics.
type metricsTask struct {
	original Task
	pool     *MetricsPool
}

// Execute runs the original task and records metrics. Panics propagate to
// the worker after the failure is counted.
func (mt *metricsTask) Execute(ctx context.Context) (err error) {
	start := time.Now()
	r := mt.pool.registry
	name := mt.pool.name

	defer func() {
		rec := recover()

		r.TaskExecutionDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		r.TasksExecuted.WithLabelValues(name).Inc()
		if err != nil || rec != nil {
			r.TasksFailed.WithLabelValues(name).Inc()
		} else {
			r.TasksCompleted.WithLabelValues(name).Inc()
		}

		if rec != nil {
			panic(rec)
		}
	}()

	return mt.original.Execute(ctx)
}

// Shutdown initiates graceful shutdown of the pool.
func (mp *MetricsPool) Shutdown() <-chan struct{} {
	return mp.pool.Shutdown()
}

// ShutdownWithTimeout shuts down the pool with a timeout.
func (mp *MetricsPool) ShutdownWithTimeout(timeout time.Duration) <-chan struct{} {
	return mp.pool.ShutdownWithTimeout(timeout)
}

// Size returns the current number of workers.
func (mp *MetricsPool) Size() int {
	return mp.pool.Size()
}

// QueueSize returns the current number of queued tasks.
func (mp *MetricsPool) QueueSize() int {
	queueSize := mp.pool.QueueSize()
	mp.registry.WorkerPoolQueued.WithLabelValues(mp.name).Set(float64(queueSize))
	return queueSize
}

// ActiveWorkers returns the number of workers currently executing tasks.
func (mp *MetricsPool) ActiveWorkers() int {
	activeWorkers := mp.pool.ActiveWorkers()
	mp.registry.WorkerPoolActive.WithLabelValues(mp.name).Set(float64(activeWorkers))
	return activeWorkers
}

// TotalSubmitted returns the total number of tasks submitted.
func (mp *MetricsPool) TotalSubmitted() int64 {
	return mp.pool.TotalSubmitted()
}

// TotalCompleted returns the total number of tasks completed.
func (mp *MetricsPool) TotalCompleted() int64 {
	return mp.pool.TotalCompleted()
}
