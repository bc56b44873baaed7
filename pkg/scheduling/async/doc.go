/*
Package async runs independent initialization routines in parallel while
keeping a well-defined completion order that callers can wait on.

Every call handed to a Scheduler receives a Cookie, a sequence number that
strictly increases in submission order. Calls run concurrently on a worker
pool in no particular order, but callers can block until all calls up to a
cookie have finished, or until everything in a domain has drained:

	for _, dev := range devices {
		async.Schedule(probe, dev)
	}
	async.SynchronizeFull() // every probe has returned

The package-level functions use a process-wide scheduler. Tests and
embedders that want isolation create their own:

	s, err := async.New(async.Config{Name: "boot", MaxOutstanding: 1024})
	if err != nil {
		return err
	}
	defer s.Close()

Funcs receive the data they were scheduled with and their own cookie:

	func probe(ctx context.Context, data any, cookie async.Cookie) {
		dev := data.(*Device)
		dev.Reset()
		// register in submission order, after all earlier probes
		async.SynchronizeBefore(cookie)
		dev.Register()
	}

Domains:

A Domain is an independent ordering namespace. Waiting on one domain ignores
work in every other domain:

	disks := s.NewDomain("disks")
	s.ScheduleDomain(spinUp, disk, disks)
	s.SynchronizeFullDomain(disks)

Registered domains, the default, also take part in SynchronizeFull.
Domains created WithExclusive are only waited on explicitly. RemoveDomain
panics if the domain still has calls in flight.

Waiting:

	SynchronizeCookie(c)        calls with cookie <= c, default domain
	SynchronizeCookieDomain     the same, for one domain
	SynchronizeBefore(c)        calls with cookie < c; safe inside call c
	SynchronizeFull             every registered domain drains
	SynchronizeFullDomain(d)    d drains

SynchronizeCookie is inclusive: it returns only after call c itself has
finished. Call sites that expect a checkpoint for everything before c,
waiting until the lowest in-progress cookie is at least c, want
SynchronizeBefore instead; it is the only form safe inside call c.

Full waits keep waiting while the calls being waited on schedule more work
into the same selection. The Context variants return ctx.Err() when the
context ends first; the others have no timeout.

Backpressure:

At most Config.MaxOutstanding calls are pending or running at once. A call
scheduled beyond that runs synchronously on the scheduling goroutine before
Schedule returns, as does a call the pool refuses. Pools are asked through
TrySubmit when they offer it, so a bounded workerpool with a full queue
degrades to inline execution instead of blocking a worker that schedules
more work. Scheduling never fails; exhaustion only costs latency. IsAsync
tells a Func which way it was run.

Panics:

The scheduler does not recover panics from Funcs. On a pool worker the
pool's panic policy applies; the call is still retired so waiters are not
stranded.

Debugging:

With Config.Debug set, every call logs "calling" and "returned" with its
duration, and every wait logs "waiting" and "continuing", through the
configured zerolog logger at debug level.
*/
package async
