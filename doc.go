/*
Package goasync provides an asynchronous deferred-call scheduler for running
independent initialisation work in parallel while keeping a well-defined
completion order.

Every scheduled call receives a strictly increasing cookie. Callers wait for
"everything up to cookie c" or for a whole domain to drain, and a call may
wait for everything scheduled before itself. When too many calls are
outstanding, new ones run synchronously on the caller instead of queueing.

Task Scheduling (pkg/scheduling):
  - async: Cookies, domains, synchronisation and inline fallback
  - workerpool: Background task processing
  - scheduler: Timed and cron triggers into async domains

Supporting packages:
  - metrics: Prometheus instrumentation
  - common/errors: Structured error types
  - common/validation: Configuration validation

Example usage:

	import (
		"github.com/vnykmshr/goasync/pkg/scheduling/async"
		"github.com/vnykmshr/goasync/pkg/scheduling/workerpool"
	)

	pool := workerpool.NewUnbound(4)
	defer func() { <-pool.Shutdown() }()

	s, _ := async.New(async.Config{Pool: pool})
	defer s.Close()

	for _, dev := range devices {
		s.Schedule(probe, dev)
	}
	s.SynchronizeFull()

See individual package documentation for detailed usage and examples.
*/
package goasync
