// Package metrics provides Prometheus instrumentation for goasync components.
//
// Components take a Config; when Enabled is set they record into a Registry.
// A nil Config.Registry shares DefaultRegistry, which is registered with
// prometheus.DefaultRegisterer at init. Tests and embedders that create more
// than one instrumented component should pass their own registerer to avoid
// duplicate registration:
//
//	reg := prometheus.NewRegistry()
//	s, err := async.New(async.Config{
//		Name:    "boot",
//		Metrics: metrics.Config{Enabled: true, Registry: reg},
//	})
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// # Available Metrics
//
// Async scheduler (labels: scheduler_name, plus domain or reason or kind):
//
//   - goasync_async_scheduled_total: cookies issued
//   - goasync_async_inline_total: calls run synchronously on the caller (reason: ceiling, submit)
//   - goasync_async_completed_total: deferred calls finished on a worker
//   - goasync_async_outstanding: pending plus running calls
//   - goasync_async_queue_delay_seconds: schedule-to-start latency
//   - goasync_async_run_duration_seconds: callback duration
//   - goasync_async_synchronize_wait_seconds: time blocked in synchronize calls (kind: cookie, before, full, domain)
//
// Worker pool (label: pool_name):
//
//   - goasync_workerpool_tasks_executed_total
//   - goasync_workerpool_tasks_completed_total
//   - goasync_workerpool_tasks_failed_total
//   - goasync_workerpool_task_duration_seconds
//   - goasync_workerpool_size
//   - goasync_workerpool_active_workers
//   - goasync_workerpool_queued_tasks
//
// Trigger (label: trigger_name):
//
//   - goasync_trigger_fired_total (kind: once, interval, cron)
//   - goasync_trigger_jobs
package metrics
