package async

import (
	"container/list"
	"context"
	"math"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vnykmshr/goasync/pkg/common/validation"
	"github.com/vnykmshr/goasync/pkg/metrics"
	"github.com/vnykmshr/goasync/pkg/scheduling/workerpool"
)

// Cookie is the sequence number assigned to every scheduled call. Cookies
// strictly increase in submission order and are never reused; the first
// cookie issued is 1.
type Cookie uint64

// CookieMax sorts after every cookie that will ever be issued. Passing it to
// SynchronizeCookieDomain waits for the domain to drain completely.
const CookieMax Cookie = math.MaxUint64

// DefaultMaxOutstanding is the ceiling on pending plus running calls used
// when Config.MaxOutstanding is zero.
const DefaultMaxOutstanding = 32768

// Func is a deferred call. It receives the data passed to Schedule and the
// cookie assigned to the call. ctx reports, through IsAsync and
// CookieFromContext, whether the call runs on a pool worker.
type Func func(ctx context.Context, data any, cookie Cookie)

// Submitter is the executor deferred calls are handed to. It gives no
// ordering guarantee between tasks. Submit must not block: calls may
// schedule more calls from a worker, and a Submit waiting for a worker to
// free up can then deadlock. A Submitter that also implements TrySubmitter
// is always used through TrySubmit. workerpool.Pool satisfies both.
type Submitter interface {
	Submit(task workerpool.Task) error
}

// TrySubmitter is a Submitter that can refuse a task instead of waiting
// for capacity. A refused call runs synchronously on the scheduling
// goroutine.
type TrySubmitter interface {
	TrySubmit(task workerpool.Task) error
}

// Config configures a Scheduler.
type Config struct {
	// Name labels log lines and metrics. Defaults to "async".
	Name string

	// MaxOutstanding caps pending plus running calls. Calls scheduled while
	// the cap is reached run synchronously on the caller's goroutine.
	// Zero selects DefaultMaxOutstanding.
	MaxOutstanding int

	// Pool executes deferred calls. If nil, the scheduler creates an
	// unbounded workerpool with GOMAXPROCS workers and shuts it down on Close.
	Pool Submitter

	// Logger receives scheduler events. Defaults to a no-op logger.
	Logger *zerolog.Logger

	// Debug logs every call before and after it runs, and every
	// synchronize wait, with timings.
	Debug bool

	// Metrics enables Prometheus instrumentation.
	Metrics metrics.Config
}

// Scheduler runs deferred calls on a worker pool and lets callers wait for
// them by cookie or by domain.
//
// One mutex guards the cookie counter, every pending and running list and
// the counters; a condition variable on that mutex is broadcast on every
// completion. Calls themselves run with the mutex released.
type Scheduler struct {
	name           string
	maxOutstanding int
	pool           Submitter
	ownPool        workerpool.Pool
	logger         zerolog.Logger
	debug          bool
	registry       *metrics.Registry

	mu   sync.Mutex
	cond *sync.Cond

	nextCookie Cookie
	// Calls of registered domains, sorted by cookie.
	globalPending *list.List
	globalRunning *list.List

	outstanding int
	pending     int
	running     int
	inline      uint64
	completed   uint64
	closed      bool

	dfl *Domain
}

// Stats is a point-in-time view of a Scheduler.
type Stats struct {
	// NextCookie is the cookie the next Schedule call will receive.
	NextCookie Cookie
	// Outstanding is Pending plus Running.
	Outstanding int
	Pending     int
	Running     int
	// Inline counts calls that ran synchronously on the scheduling goroutine.
	Inline uint64
	// Completed counts calls that finished on a pool worker.
	Completed uint64
}

// New creates a Scheduler.
func New(cfg Config) (*Scheduler, error) {
	if err := validation.ValidateNonNegative("async", "MaxOutstanding", cfg.MaxOutstanding); err != nil {
		return nil, err
	}

	s := &Scheduler{
		name:           cfg.Name,
		maxOutstanding: cfg.MaxOutstanding,
		pool:           cfg.Pool,
		debug:          cfg.Debug,
		nextCookie:     1,
		globalPending:  list.New(),
		globalRunning:  list.New(),
	}
	s.cond = sync.NewCond(&s.mu)

	if s.name == "" {
		s.name = "async"
	}
	if s.maxOutstanding == 0 {
		s.maxOutstanding = DefaultMaxOutstanding
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	s.logger = logger.With().Str("scheduler", s.name).Logger()

	if s.pool == nil {
		pool, err := workerpool.NewWithConfig(workerpool.Config{
			WorkerCount: runtime.GOMAXPROCS(0),
			Logger:      &s.logger,
		})
		if err != nil {
			return nil, err
		}
		s.pool = pool
		s.ownPool = pool
	}

	if cfg.Metrics.Enabled {
		s.registry = metrics.NewRegistryFromConfig(cfg.Metrics)
	}

	s.dfl = s.NewDomain("default")
	return s, nil
}

// Name returns the name the scheduler was configured with.
func (s *Scheduler) Name() string {
	return s.name
}

// Stats returns current counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		NextCookie:  s.nextCookie,
		Outstanding: s.outstanding,
		Pending:     s.pending,
		Running:     s.running,
		Inline:      s.inline,
		Completed:   s.completed,
	}
}

// Close stops deferring: calls scheduled after Close run synchronously. It
// then waits for every outstanding call, in any domain, and shuts down the
// pool if the scheduler created it.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	s.closed = true
	for s.outstanding > 0 {
		s.cond.Wait()
	}
	s.mu.Unlock()

	if s.ownPool != nil {
		<-s.ownPool.Shutdown()
	}
	return nil
}
