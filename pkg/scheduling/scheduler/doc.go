/*
Package scheduler fires deferred calls into an async scheduler on a timetable.

A job is registered under a unique ID with an async.Func and a data value.
When it comes due, the job is handed to async.Scheduler.ScheduleDomain on
the configured domain, so it receives a cookie and can be waited on like
any other deferred call.

Basic Usage:

	a, _ := async.New(async.Config{})
	defer a.Close()

	timers := a.NewDomain("timers")
	s, _ := scheduler.NewWithConfig(scheduler.Config{Async: a, Domain: timers})
	s.Start()
	defer func() { <-s.Stop() }()

	s.ScheduleAfter("warm-cache", warmCache, nil, 5*time.Second)
	s.ScheduleRepeating("flush", flush, buf, time.Minute)
	s.ScheduleCron("nightly", "0 0 3 * * *", compact, nil)

	// Later: wait for everything the timers have fired so far.
	a.SynchronizeFullDomain(timers)

Schedules:

  - Schedule fires once at a point in time, ScheduleAfter once after a delay.
  - ScheduleRepeating fires on the next tick and then every interval.
  - ScheduleCron takes a six-field expression with a leading seconds field,
    or a descriptor such as "@daily" or "@every 30s". Config.Location sets
    the time zone the expression is evaluated in.

Jobs that come due on the same tick are fired in due order, so an earlier
job always receives the lower cookie.

Job Management:

List returns a snapshot of every registered job ordered by next run time,
including how many times it has fired and the cookie of its latest firing.
Cancel removes one job and CancelAll removes every job; calls already handed
to the async scheduler are not affected.

If the target domain is removed from the async scheduler, the next firing
of each job bound to it is dropped and the job is cancelled.

Lifecycle:

Start launches the tick loop, which checks for due jobs every TickInterval
(50ms by default). Stop returns a channel that closes once the loop has
exited. A stopped scheduler can be started again.
*/
package scheduler
