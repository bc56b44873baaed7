// Package metrics provides Prometheus instrumentation for goasync components.
package metrics

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for goasync components.
type Registry struct {
	// Async scheduler metrics
	AsyncScheduled   *prometheus.CounterVec
	AsyncInline      *prometheus.CounterVec
	AsyncCompleted   *prometheus.CounterVec
	AsyncOutstanding *prometheus.GaugeVec
	AsyncQueueDelay  *prometheus.HistogramVec
	AsyncRunDuration *prometheus.HistogramVec
	AsyncSyncWait    *prometheus.HistogramVec

	// Worker pool metrics
	TasksExecuted         *prometheus.CounterVec
	TasksCompleted        *prometheus.CounterVec
	TasksFailed           *prometheus.CounterVec
	TaskExecutionDuration *prometheus.HistogramVec
	WorkerPoolSize        *prometheus.GaugeVec
	WorkerPoolActive      *prometheus.GaugeVec
	WorkerPoolQueued      *prometheus.GaugeVec

	// Trigger metrics
	TriggerFired *prometheus.CounterVec
	TriggerJobs  *prometheus.GaugeVec
}

// DefaultRegistry is the default metrics registry used by goasync components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus
// registerer, under the default namespace.
func NewRegistry(reg prometheus.Registerer) *Registry {
	return newRegistry(reg, DefaultNamespace)
}

type registryKey struct {
	reg    prometheus.Registerer
	ns     string
	labels string
}

var (
	registriesMu sync.Mutex
	registries   = make(map[registryKey]*Registry)
)

// NewRegistryFromConfig returns the registry for cfg.Registry, cfg.Namespace
// and cfg.Labels, creating it on first use so that several components can
// share one Prometheus registerer. A nil cfg.Registry yields DefaultRegistry.
func NewRegistryFromConfig(cfg Config) *Registry {
	if cfg.Registry == nil {
		return DefaultRegistry
	}
	ns := cfg.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}

	// fmt prints maps with sorted keys.
	key := registryKey{reg: cfg.Registry, ns: ns, labels: fmt.Sprint(cfg.Labels)}

	registriesMu.Lock()
	defer registriesMu.Unlock()

	if r, ok := registries[key]; ok {
		return r
	}
	r := newRegistry(prometheus.WrapRegistererWith(cfg.Labels, cfg.Registry), ns)
	registries[key] = r
	return r
}

func newRegistry(reg prometheus.Registerer, ns string) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		AsyncScheduled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "async",
				Name:      "scheduled_total",
				Help:      "Total number of cookies issued by the async scheduler",
			},
			[]string{"scheduler_name", "domain"},
		),

		AsyncInline: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "async",
				Name:      "inline_total",
				Help:      "Total number of calls executed synchronously instead of being deferred",
			},
			[]string{"scheduler_name", "reason"},
		),

		AsyncCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "async",
				Name:      "completed_total",
				Help:      "Total number of deferred calls that finished on a worker",
			},
			[]string{"scheduler_name", "domain"},
		),

		AsyncOutstanding: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "async",
				Name:      "outstanding",
				Help:      "Number of pending plus running deferred calls",
			},
			[]string{"scheduler_name"},
		),

		AsyncQueueDelay: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Subsystem: "async",
				Name:      "queue_delay_seconds",
				Help:      "Time between scheduling a call and a worker starting it",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"scheduler_name"},
		),

		AsyncRunDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Subsystem: "async",
				Name:      "run_duration_seconds",
				Help:      "Time spent executing deferred calls",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"scheduler_name", "domain"},
		),

		AsyncSyncWait: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Subsystem: "async",
				Name:      "synchronize_wait_seconds",
				Help:      "Time callers spent blocked in synchronize calls",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"scheduler_name", "kind"},
		),

		TasksExecuted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "workerpool",
				Name:      "tasks_executed_total",
				Help:      "Total number of tasks executed",
			},
			[]string{"pool_name"},
		),

		TasksCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "workerpool",
				Name:      "tasks_completed_total",
				Help:      "Total number of tasks completed successfully",
			},
			[]string{"pool_name"},
		),

		TasksFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "workerpool",
				Name:      "tasks_failed_total",
				Help:      "Total number of tasks that failed",
			},
			[]string{"pool_name"},
		),

		TaskExecutionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Subsystem: "workerpool",
				Name:      "task_duration_seconds",
				Help:      "Time spent executing tasks",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"pool_name"},
		),

		WorkerPoolSize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "workerpool",
				Name:      "size",
				Help:      "Current worker pool size",
			},
			[]string{"pool_name"},
		),

		WorkerPoolActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "workerpool",
				Name:      "active_workers",
				Help:      "Number of active workers",
			},
			[]string{"pool_name"},
		),

		WorkerPoolQueued: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "workerpool",
				Name:      "queued_tasks",
				Help:      "Number of queued tasks",
			},
			[]string{"pool_name"},
		),

		TriggerFired: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "trigger",
				Name:      "fired_total",
				Help:      "Total number of timed jobs handed to the async scheduler",
			},
			[]string{"trigger_name", "kind"},
		),

		TriggerJobs: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "trigger",
				Name:      "jobs",
				Help:      "Number of timed jobs currently registered",
			},
			[]string{"trigger_name"},
		),
	}
}
