package workerpool

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	gferrors "github.com/vnykmshr/goasync/pkg/common/errors"
)

// Submit adds a task to the pool for execution.
// The task will be executed with context.Background().
// Use SubmitWithContext to provide a custom context.
func (p *workerPool) Submit(task Task) error {
	return p.SubmitWithContext(context.Background(), task)
}

// SubmitWithContext adds a task to the pool for execution with the given context.
// The context is passed to the task's Execute method. If the pool has a
// TaskTimeout configured, the effective timeout is the minimum of the context
// deadline and TaskTimeout.
func (p *workerPool) SubmitWithContext(ctx context.Context, task Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	// Pre-canceled contexts are rejected before touching the queue
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.config.QueueSize > 0 {
		stop := context.AfterFunc(ctx, func() {
			p.mu.Lock()
			p.notFull.Broadcast()
			p.mu.Unlock()
		})
		defer stop()

		for !p.isShutdown && len(p.queue) >= p.config.QueueSize {
			if err := ctx.Err(); err != nil {
				return err
			}
			p.notFull.Wait()
		}
	}

	if p.isShutdown {
		return gferrors.NewOperationError("workerpool", "Submit", gferrors.ErrClosed).
			WithContext("worker pool has been shut down")
	}

	p.queue = append(p.queue, taskWithContext{task: task, ctx: ctx})
	p.totalSubmitted++
	p.notEmpty.Signal()
	return nil
}

// TrySubmit adds a task without waiting for queue space.
func (p *workerPool) TrySubmit(task Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isShutdown {
		return gferrors.NewOperationError("workerpool", "TrySubmit", gferrors.ErrClosed).
			WithContext("worker pool has been shut down")
	}
	if p.config.QueueSize > 0 && len(p.queue) >= p.config.QueueSize {
		return gferrors.NewOperationError("workerpool", "TrySubmit", gferrors.ErrCapacityExceeded).
			WithContext(fmt.Sprintf("queue full (%d tasks)", p.config.QueueSize))
	}

	p.queue = append(p.queue, taskWithContext{task: task, ctx: context.Background()})
	p.totalSubmitted++
	p.notEmpty.Signal()
	return nil
}

// Shutdown initiates a graceful shutdown of the pool.
func (p *workerPool) Shutdown() <-chan struct{} {
	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		p.isShutdown = true
		p.notEmpty.Broadcast()
		p.notFull.Broadcast()
		p.mu.Unlock()

		go func() {
			p.workerWg.Wait()
			p.cancelBase()
			close(p.done)
		}()
	})

	return p.done
}

// ShutdownWithTimeout shuts down the pool and, once timeout elapses, cancels
// the context of every running and still queued task. Accepted tasks are
// never dropped; queued ones run with an already canceled context.
func (p *workerPool) ShutdownWithTimeout(timeout time.Duration) <-chan struct{} {
	done := p.Shutdown()

	go func() {
		timer := time.NewTimer(timeout)
		defer timer.Stop()

		select {
		case <-done:
		case <-timer.C:
			p.mu.Lock()
			queued := len(p.queue)
			p.mu.Unlock()
			p.cancelBase()
			p.logger.Warn().Int("queued", queued).Dur("timeout", timeout).Msg("shutdown timed out, canceling tasks")
		}
	}()

	return done
}

// Size returns the number of workers in the pool.
func (p *workerPool) Size() int {
	return p.config.WorkerCount
}

// QueueSize returns the current number of queued tasks waiting for execution.
func (p *workerPool) QueueSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// ActiveWorkers returns the number of workers currently executing tasks.
func (p *workerPool) ActiveWorkers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.activeWorkers
}

// TotalSubmitted returns the total number of tasks accepted by the pool.
func (p *workerPool) TotalSubmitted() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalSubmitted
}

// TotalCompleted returns the total number of tasks that finished.
func (p *workerPool) TotalCompleted() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalCompleted
}

// next blocks until a task is available. It returns false once the pool is
// shut down and the queue has drained.
func (p *workerPool) next() (taskWithContext, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.queue) == 0 {
		if p.isShutdown {
			return taskWithContext{}, false
		}
		p.notEmpty.Wait()
	}

	twc := p.queue[0]
	p.queue[0] = taskWithContext{}
	p.queue = p.queue[1:]
	p.activeWorkers++
	p.notFull.Signal()
	return twc, true
}

// run is the main loop for a worker.
func (w *worker) run() {
	defer w.pool.workerWg.Done()

	if w.pool.config.OnWorkerStart != nil {
		w.pool.config.OnWorkerStart(w.id)
	}
	defer func() {
		if w.pool.config.OnWorkerStop != nil {
			w.pool.config.OnWorkerStop(w.id)
		}
	}()

	for {
		twc, ok := w.pool.next()
		if !ok {
			return
		}
		w.executeTask(twc)
	}
}

// executeTask executes a single task with the provided context.
func (w *worker) executeTask(twc taskWithContext) {
	start := time.Now()
	var err error

	if w.pool.config.OnTaskStart != nil {
		w.pool.config.OnTaskStart(w.id, twc.task)
	}

	// Handle panics during task execution
	defer func() {
		if r := recover(); r != nil {
			if w.pool.config.PanicHandler != nil {
				w.pool.config.PanicHandler(twc.task, r)
			} else {
				err = fmt.Errorf("task panicked: %v\nStack trace:\n%s", r, debug.Stack())
			}
		}

		result := Result{
			Task:     twc.task,
			Error:    err,
			Duration: time.Since(start),
			WorkerID: w.id,
		}

		if err != nil {
			w.pool.logger.Warn().Err(err).Int("worker", w.id).Dur("duration", result.Duration).Msg("task failed")
		}

		w.pool.mu.Lock()
		w.pool.activeWorkers--
		w.pool.totalCompleted++
		w.pool.mu.Unlock()

		if w.pool.config.OnTaskComplete != nil {
			w.pool.config.OnTaskComplete(w.id, result)
		}
	}()

	ctx := twc.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	// A timed-out shutdown cancels every running task
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(w.pool.baseCtx, cancel)
	defer stop()

	if w.pool.config.TaskTimeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, w.pool.config.TaskTimeout)
		defer cancelTimeout()
	}

	err = twc.task.Execute(ctx)
}
