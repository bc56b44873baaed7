package workerpool

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vnykmshr/goasync/pkg/common/validation"
)

// Task represents a unit of work that can be executed by a worker.
type Task interface {
	// Execute runs the task with the given context.
	// It should respect context cancellation and return any error encountered.
	Execute(ctx context.Context) error
}

// TaskFunc is a function type that implements the Task interface.
type TaskFunc func(ctx context.Context) error

// Execute implements the Task interface for TaskFunc.
func (f TaskFunc) Execute(ctx context.Context) error {
	return f(ctx)
}

// Result describes one finished task. It is delivered to Config.OnTaskComplete.
type Result struct {
	// Task is the original task that was executed
	Task Task

	// Error is any error returned by the task, or a wrapped panic
	Error error

	// Duration is how long the task took to execute
	Duration time.Duration

	// WorkerID identifies which worker executed the task
	WorkerID int
}

// Pool is a fire-and-forget executor: tasks are handed over with Submit and
// run on any worker at an unspecified future time, with no ordering
// guarantee between submissions.
type Pool interface {
	// Submit adds a task to the pool for execution.
	// Returns an error if the pool is shut down or the task is nil.
	Submit(task Task) error

	// SubmitWithContext submits a task with a context. On a bounded pool the
	// context bounds the wait for queue space; it is also passed to the task.
	SubmitWithContext(ctx context.Context, task Task) error

	// TrySubmit is Submit without waiting: on a bounded pool whose queue is
	// full it returns an error wrapping ErrCapacityExceeded.
	TrySubmit(task Task) error

	// Shutdown stops accepting tasks, lets queued tasks finish, and returns a
	// channel that closes once every worker has exited.
	Shutdown() <-chan struct{}

	// ShutdownWithTimeout behaves like Shutdown, but once timeout elapses
	// every running and queued task sees its context canceled. Queued tasks
	// still run.
	ShutdownWithTimeout(timeout time.Duration) <-chan struct{}

	// Size returns the number of workers in the pool.
	Size() int

	// QueueSize returns the current number of queued tasks waiting for execution.
	QueueSize() int

	// ActiveWorkers returns the number of workers currently executing tasks.
	ActiveWorkers() int

	// TotalSubmitted returns the total number of tasks accepted by the pool.
	TotalSubmitted() int64

	// TotalCompleted returns the total number of tasks that finished, successfully or not.
	TotalCompleted() int64
}

// Config holds configuration options for creating a worker pool.
type Config struct {
	// WorkerCount is the number of workers in the pool.
	// Must be greater than 0.
	WorkerCount int

	// QueueSize is the maximum number of tasks that can be queued.
	// If 0, the queue is unbounded and Submit never blocks.
	QueueSize int

	// TaskTimeout is the default timeout for individual task execution.
	// Zero means no timeout.
	TaskTimeout time.Duration

	// PanicHandler is called when a task panics. The panic is always
	// recovered; without a handler it is reported as the task's error.
	PanicHandler func(task Task, recovered interface{})

	// OnWorkerStart is called when a worker starts.
	OnWorkerStart func(workerID int)

	// OnWorkerStop is called when a worker stops.
	OnWorkerStop func(workerID int)

	// OnTaskStart is called before a task begins execution.
	OnTaskStart func(workerID int, task Task)

	// OnTaskComplete is called after a task completes (success or failure).
	OnTaskComplete func(workerID int, result Result)

	// Logger receives task failures and lifecycle events. Defaults to a no-op logger.
	Logger *zerolog.Logger
}

type taskWithContext struct {
	task Task
	ctx  context.Context
}

// workerPool implements the Pool interface.
type workerPool struct {
	config Config
	logger zerolog.Logger

	// baseCtx is canceled when a timed shutdown expires.
	baseCtx    context.Context
	cancelBase context.CancelFunc

	mu             sync.Mutex
	notEmpty       *sync.Cond
	notFull        *sync.Cond
	queue          []taskWithContext
	isShutdown     bool
	activeWorkers  int
	totalSubmitted int64
	totalCompleted int64

	shutdownOnce sync.Once
	done         chan struct{}
	workerWg     sync.WaitGroup
}

// worker represents a single worker in the pool.
type worker struct {
	id   int
	pool *workerPool
}

// New creates a new worker pool with the specified number of workers and
// queue size. It panics on invalid arguments.
func New(workerCount, queueSize int) Pool {
	pool, err := NewWithConfig(Config{
		WorkerCount: workerCount,
		QueueSize:   queueSize,
	})
	if err != nil {
		panic(err)
	}
	return pool
}

// NewUnbound creates a pool with an unbounded queue, so Submit never blocks.
// It panics if workerCount is not positive.
func NewUnbound(workerCount int) Pool {
	return New(workerCount, 0)
}

// NewWithConfig creates a new worker pool with the specified configuration.
func NewWithConfig(config Config) (Pool, error) {
	if err := validation.ValidatePositive("workerpool", "WorkerCount", config.WorkerCount); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegative("workerpool", "QueueSize", config.QueueSize); err != nil {
		return nil, err
	}

	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	pool := &workerPool{
		config:     config,
		logger:     logger.With().Str("component", "workerpool").Logger(),
		baseCtx:    baseCtx,
		cancelBase: cancel,
		done:       make(chan struct{}),
	}
	pool.notEmpty = sync.NewCond(&pool.mu)
	pool.notFull = sync.NewCond(&pool.mu)

	for i := 0; i < config.WorkerCount; i++ {
		w := &worker{id: i, pool: pool}
		pool.workerWg.Add(1)
		go w.run()
	}

	return pool, nil
}
