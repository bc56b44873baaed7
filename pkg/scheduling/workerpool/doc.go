/*
Package workerpool provides the fire-and-forget executor that runs deferred
calls for the async scheduler.

A pool manages a fixed number of worker goroutines draining a FIFO queue.
With QueueSize 0 the queue is unbounded and Submit never blocks, which is
what the async scheduler needs from its "unbound work queue": submission
order carries no execution-order promise, and flow control lives in the
scheduler, not here.

Basic usage:

	pool := workerpool.NewUnbound(4)
	defer func() { <-pool.Shutdown() }()

	err := pool.Submit(workerpool.TaskFunc(func(ctx context.Context) error {
		// Do work
		return nil
	}))

There is no results channel. Task outcomes are reported through
Config.OnTaskComplete, and failures are logged through Config.Logger:

	pool, err := workerpool.NewWithConfig(workerpool.Config{
		WorkerCount: 8,
		TaskTimeout: 30 * time.Second,
		OnTaskComplete: func(workerID int, r workerpool.Result) {
			if r.Error != nil {
				log.Printf("worker %d: %v", workerID, r.Error)
			}
		},
	})

Panics:

A panicking task never kills its worker. The panic is recovered and either
handed to Config.PanicHandler or turned into the task's error, stack trace
included.

Bounded queues:

With QueueSize > 0, SubmitWithContext waits for space until the context is
done, returning ctx.Err() in that case. TrySubmit never waits and returns an error
wrapping ErrCapacityExceeded when the queue is full.

Shutdown:

Shutdown stops accepting tasks and lets queued tasks finish.
ShutdownWithTimeout additionally cancels the contexts of running and queued
tasks once the timeout elapses. Every accepted task is still executed, so
callers tracking submitted work are never left waiting on a dropped task.

Metrics:

NewWithConfigAndMetrics wraps the pool in a MetricsPool that records task
counts, durations and queue gauges into a metrics.Registry.
*/
package workerpool
