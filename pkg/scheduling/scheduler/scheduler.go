package scheduler

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	gferrors "github.com/vnykmshr/goasync/pkg/common/errors"
	"github.com/vnykmshr/goasync/pkg/common/validation"
	"github.com/vnykmshr/goasync/pkg/metrics"
	"github.com/vnykmshr/goasync/pkg/scheduling/async"
)

const (
	defaultTickInterval = 50 * time.Millisecond
	defaultMaxJobs      = 10000
	maxIDLength         = 255
)

// Job describes a registered timed job.
type Job struct {
	ID string
	// RunAt is the next time the job fires.
	RunAt time.Time
	// Interval is zero for one-shot and cron jobs.
	Interval time.Duration
	// Cron is the expression the job was registered with, if any.
	Cron    string
	Created time.Time
	// Fired counts how many times the job was handed to the async scheduler.
	Fired uint64
	// LastCookie is the cookie of the most recent firing, zero before the
	// first one.
	LastCookie async.Cookie
}

// Scheduler fires deferred calls into an async domain at a point in time,
// after a delay, on a fixed interval or on a cron schedule.
type Scheduler interface {
	Schedule(id string, fn async.Func, data any, runAt time.Time) error
	ScheduleAfter(id string, fn async.Func, data any, delay time.Duration) error
	ScheduleRepeating(id string, fn async.Func, data any, interval time.Duration) error

	// ScheduleCron accepts six-field expressions (seconds first) and
	// descriptors such as "@hourly" or "@every 5s".
	ScheduleCron(id string, cronExpr string, fn async.Func, data any) error

	Cancel(id string) bool
	CancelAll()
	List() []Job

	Start() error
	// Stop halts the tick loop. The returned channel closes once the loop
	// has exited; calls already handed to the async scheduler keep running.
	Stop() <-chan struct{}
}

// Config holds scheduler configuration.
type Config struct {
	// Async receives fired jobs. Required.
	Async *async.Scheduler
	// Domain fired jobs are scheduled into. Defaults to the async
	// scheduler's default domain.
	Domain *async.Domain

	Name         string
	Location     *time.Location // For cron scheduling
	TickInterval time.Duration  // How often to check for due jobs (default: 50ms)
	MaxJobs      int            // Maximum number of registered jobs (default: 10000)

	// Now replaces time.Now, mainly for tests.
	Now func() time.Time

	Logger  *zerolog.Logger
	Metrics metrics.Config
}

type job struct {
	id           string
	fn           async.Func
	data         any
	runAt        time.Time
	interval     time.Duration
	cronExpr     string
	cronSchedule cron.Schedule
	created      time.Time
	fired        uint64
	lastCookie   async.Cookie
}

type scheduler struct {
	async        *async.Scheduler
	domain       *async.Domain
	name         string
	location     *time.Location
	tickInterval time.Duration
	maxJobs      int
	now          func() time.Time
	cronParser   cron.Parser
	logger       zerolog.Logger
	registry     *metrics.Registry

	mu      sync.RWMutex
	jobs    map[string]*job
	done    chan struct{}
	stopped chan struct{}
	running bool
}

// New creates a scheduler that fires into the default domain of a.
func New(a *async.Scheduler) (Scheduler, error) {
	return NewWithConfig(Config{Async: a})
}

// NewWithConfig creates a scheduler with custom configuration.
func NewWithConfig(cfg Config) (Scheduler, error) {
	if cfg.Async == nil {
		return nil, validation.ValidateNotNil("scheduler", "Async", nil)
	}
	if err := validation.ValidateNonNegative("scheduler", "MaxJobs", cfg.MaxJobs); err != nil {
		return nil, err
	}
	if cfg.TickInterval < 0 {
		return nil, gferrors.NewValidationError("scheduler", "TickInterval", cfg.TickInterval, "cannot be negative")
	}

	s := &scheduler{
		async:        cfg.Async,
		domain:       cfg.Domain,
		name:         cfg.Name,
		location:     cfg.Location,
		tickInterval: cfg.TickInterval,
		maxJobs:      cfg.MaxJobs,
		now:          cfg.Now,
		cronParser:   cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		jobs:         make(map[string]*job),
	}

	if s.domain == nil {
		s.domain = cfg.Async.DefaultDomain()
	}
	if s.name == "" {
		s.name = "scheduler"
	}
	if s.location == nil {
		s.location = time.Local
	}
	if s.tickInterval == 0 {
		s.tickInterval = defaultTickInterval
	}
	if s.maxJobs == 0 {
		s.maxJobs = defaultMaxJobs
	}
	if s.now == nil {
		s.now = time.Now
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	s.logger = logger.With().Str("trigger", s.name).Str("domain", s.domain.Name()).Logger()

	if cfg.Metrics.Enabled {
		s.registry = metrics.NewRegistryFromConfig(cfg.Metrics)
	}

	return s, nil
}

func validateJob(id string, fn async.Func) error {
	if err := validation.ValidateNotEmpty("scheduler", "id", id); err != nil {
		return err
	}
	if err := validation.ValidateMaxLen("scheduler", "id", id, maxIDLength); err != nil {
		return err
	}
	if fn == nil {
		return validation.ValidateNotNil("scheduler", "fn", nil)
	}
	return nil
}

// addLocked registers j. s.mu must be held.
func (s *scheduler) addLocked(j *job) error {
	if _, exists := s.jobs[j.id]; exists {
		return gferrors.NewOperationError("scheduler", "Schedule", gferrors.ErrInvalidConfiguration).
			WithContext(fmt.Sprintf("job %q already exists, cancel it first", j.id))
	}
	if len(s.jobs) >= s.maxJobs {
		return gferrors.NewOperationError("scheduler", "Schedule", gferrors.ErrCapacityExceeded).
			WithContext(fmt.Sprintf("maximum number of jobs (%d) reached", s.maxJobs))
	}

	s.jobs[j.id] = j
	s.recordJobs()
	return nil
}

func (s *scheduler) Schedule(id string, fn async.Func, data any, runAt time.Time) error {
	if err := validateJob(id, fn); err != nil {
		return err
	}
	if runAt.IsZero() {
		return gferrors.NewValidationError("scheduler", "runAt", runAt, "cannot be zero")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.addLocked(&job{
		id:      id,
		fn:      fn,
		data:    data,
		runAt:   runAt,
		created: s.now(),
	})
}

func (s *scheduler) ScheduleAfter(id string, fn async.Func, data any, delay time.Duration) error {
	return s.Schedule(id, fn, data, s.now().Add(delay))
}

// ScheduleRepeating fires on the next tick and then every interval.
func (s *scheduler) ScheduleRepeating(id string, fn async.Func, data any, interval time.Duration) error {
	if err := validateJob(id, fn); err != nil {
		return err
	}
	if interval <= 0 {
		return gferrors.NewValidationError("scheduler", "interval", interval, "must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	return s.addLocked(&job{
		id:       id,
		fn:       fn,
		data:     data,
		runAt:    now,
		interval: interval,
		created:  now,
	})
}

func (s *scheduler) ScheduleCron(id string, cronExpr string, fn async.Func, data any) error {
	if err := validateJob(id, fn); err != nil {
		return err
	}
	if err := validation.ValidateNotEmpty("scheduler", "cronExpr", cronExpr); err != nil {
		return err
	}

	schedule, err := s.cronParser.Parse(cronExpr)
	if err != nil {
		return gferrors.NewValidationError("scheduler", "cronExpr", cronExpr, err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	return s.addLocked(&job{
		id:           id,
		fn:           fn,
		data:         data,
		runAt:        schedule.Next(now.In(s.location)),
		cronExpr:     cronExpr,
		cronSchedule: schedule,
		created:      now,
	})
}

func (s *scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[id]; exists {
		delete(s.jobs, id)
		s.recordJobs()
		return true
	}
	return false
}

func (s *scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs = make(map[string]*job)
	s.recordJobs()
}

// List returns the registered jobs ordered by next run time.
func (s *scheduler) List() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, Job{
			ID:         j.id,
			RunAt:      j.runAt,
			Interval:   j.interval,
			Cron:       j.cronExpr,
			Created:    j.created,
			Fired:      j.fired,
			LastCookie: j.lastCookie,
		})
	}

	sort.Slice(jobs, func(i, k int) bool {
		if jobs[i].RunAt.Equal(jobs[k].RunAt) {
			return jobs[i].ID < jobs[k].ID
		}
		return jobs[i].RunAt.Before(jobs[k].RunAt)
	})

	return jobs
}

func (s *scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return gferrors.NewOperationError("scheduler", "Start", gferrors.ErrInvalidConfiguration).
			WithContext("already running, call Stop first")
	}

	s.running = true
	s.done = make(chan struct{})
	s.stopped = make(chan struct{})

	go s.run(time.NewTicker(s.tickInterval), s.done, s.stopped)
	s.logger.Debug().Dur("tick", s.tickInterval).Msg("started")
	return nil
}

func (s *scheduler) Stop() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		stopped := make(chan struct{})
		close(stopped)
		return stopped
	}

	s.running = false
	close(s.done)
	s.logger.Debug().Msg("stopping")
	return s.stopped
}

func (s *scheduler) run(ticker *time.Ticker, done <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.processReadyJobs()
		}
	}
}

type firing struct {
	job   *job
	runAt time.Time
	fn    async.Func
	data  any
}

func (s *scheduler) processReadyJobs() {
	now := s.now()

	s.mu.Lock()
	if len(s.jobs) == 0 {
		s.mu.Unlock()
		return
	}

	ready := make([]firing, 0, len(s.jobs))
	removed := false
	for id, j := range s.jobs {
		if now.Before(j.runAt) {
			continue
		}
		ready = append(ready, firing{job: j, runAt: j.runAt, fn: j.fn, data: j.data})

		switch {
		case j.interval > 0:
			j.runAt = now.Add(j.interval)
		case j.cronSchedule != nil:
			j.runAt = j.cronSchedule.Next(now.In(s.location))
		default:
			delete(s.jobs, id)
			removed = true
		}
	}
	if removed {
		s.recordJobs()
	}
	s.mu.Unlock()

	// Fire in due order so earlier jobs get lower cookies.
	sort.Slice(ready, func(i, k int) bool {
		if ready[i].runAt.Equal(ready[k].runAt) {
			return ready[i].job.id < ready[k].job.id
		}
		return ready[i].runAt.Before(ready[k].runAt)
	})

	for _, f := range ready {
		s.fire(f, now)
	}
}

func (s *scheduler) fire(f firing, now time.Time) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		// Only a domain the async scheduler no longer accepts cancels the
		// job. Panics from the job itself, run inline, propagate.
		err, ok := r.(error)
		if !ok || !isDomainRejection(err) {
			panic(r)
		}

		s.logger.Error().Err(err).Str("job", f.job.id).Msg("domain rejected job, cancelled")
		s.mu.Lock()
		if s.jobs[f.job.id] == f.job {
			delete(s.jobs, f.job.id)
			s.recordJobs()
		}
		s.mu.Unlock()
	}()

	cookie := s.async.ScheduleDomain(f.fn, f.data, s.domain)

	s.mu.Lock()
	f.job.fired++
	f.job.lastCookie = cookie
	s.mu.Unlock()

	s.logger.Debug().Str("job", f.job.id).Uint64("cookie", uint64(cookie)).
		Dur("late", now.Sub(f.runAt)).Msg("fired")
	s.recordFired(f.job)
}

// isDomainRejection reports whether err is the misuse panic ScheduleDomain
// raises for a removed or foreign domain.
func isDomainRejection(err error) bool {
	var opErr *gferrors.OperationError
	if !errors.As(err, &opErr) || opErr.Module != "async" || opErr.Operation != "ScheduleDomain" {
		return false
	}
	return errors.Is(err, gferrors.ErrClosed) ||
		errors.Is(err, gferrors.ErrInvalidConfiguration) ||
		gferrors.IsMisuse(err)
}

func (s *scheduler) recordFired(j *job) {
	if s.registry == nil {
		return
	}
	kind := "once"
	switch {
	case j.interval > 0:
		kind = "interval"
	case j.cronSchedule != nil:
		kind = "cron"
	}
	s.registry.TriggerFired.WithLabelValues(s.name, kind).Inc()
}

// recordJobs must be called with s.mu held.
func (s *scheduler) recordJobs() {
	if s.registry == nil {
		return
	}
	s.registry.TriggerJobs.WithLabelValues(s.name).Set(float64(len(s.jobs)))
}
