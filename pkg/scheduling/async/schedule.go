package async

import (
	"container/list"
	"context"
	"errors"
	"reflect"
	"runtime"
	"time"

	gferrors "github.com/vnykmshr/goasync/pkg/common/errors"
	"github.com/vnykmshr/goasync/pkg/scheduling/workerpool"
)

// entry is one scheduled call. It lives on its domain's pending list, then
// its running list, and, for registered domains, on the matching global
// list as well. All fields besides the list elements are immutable.
type entry struct {
	cookie Cookie
	fn     Func
	data   any
	domain *Domain
	queued time.Time

	domainElem *list.Element
	globalElem *list.Element
}

const (
	inlineCeiling  = "ceiling"
	inlineSubmit   = "submit"
	inlinePoolFull = "pool_full"
	inlineClosed   = "closed"
)

// Schedule defers fn(ctx, data, cookie) into the default domain and returns
// the assigned cookie. See ScheduleDomain.
func (s *Scheduler) Schedule(fn Func, data any) Cookie {
	return s.ScheduleDomain(fn, data, nil)
}

// ScheduleDomain defers fn(ctx, data, cookie) into domain d (nil selects the
// default domain) and returns the assigned cookie without waiting for fn.
//
// If MaxOutstanding calls are already pending or running, the scheduler has
// been closed, or the pool refuses the task, fn runs on the calling
// goroutine before ScheduleDomain returns. ScheduleDomain never fails.
func (s *Scheduler) ScheduleDomain(fn Func, data any, d *Domain) Cookie {
	if fn == nil {
		panic("async: ScheduleDomain called with nil Func")
	}
	d = s.resolve(d)

	s.mu.Lock()
	if err := s.domainErrLocked("ScheduleDomain", d); err != nil {
		s.mu.Unlock()
		panic(err)
	}

	cookie := s.nextCookie
	s.nextCookie++

	if s.closed || s.outstanding >= s.maxOutstanding {
		reason := inlineCeiling
		if s.closed {
			reason = inlineClosed
		}
		s.inline++
		s.mu.Unlock()

		s.recordScheduled(d)
		s.recordInline(reason)
		s.logger.Debug().Uint64("cookie", uint64(cookie)).Str("domain", d.name).Str("reason", reason).
			Msg("running synchronously")
		s.invoke(context.Background(), fn, data, cookie, d, false)
		return cookie
	}

	e := &entry{
		cookie: cookie,
		fn:     fn,
		data:   data,
		domain: d,
		queued: time.Now(),
	}
	e.domainElem = d.pending.PushBack(e)
	if d.registered {
		e.globalElem = s.globalPending.PushBack(e)
	}
	s.outstanding++
	s.pending++
	s.recordOutstanding(s.outstanding)
	s.mu.Unlock()

	s.recordScheduled(d)

	if err := s.submit(e); err != nil {
		// The entry stays visible to waiters while it runs here.
		s.mu.Lock()
		s.inline++
		s.mu.Unlock()

		if errors.Is(err, gferrors.ErrCapacityExceeded) {
			s.recordInline(inlinePoolFull)
			s.logger.Debug().Uint64("cookie", uint64(cookie)).Msg("pool full, running synchronously")
		} else {
			s.recordInline(inlineSubmit)
			s.logger.Warn().Err(err).Uint64("cookie", uint64(cookie)).Msg("pool rejected call, running synchronously")
		}
		s.runEntry(context.Background(), e, false)
	}

	return cookie
}

// submit hands e to the pool without waiting for capacity when the pool
// supports it.
func (s *Scheduler) submit(e *entry) error {
	task := workerpool.TaskFunc(func(ctx context.Context) error {
		s.runEntry(ctx, e, true)
		return nil
	})
	if tp, ok := s.pool.(TrySubmitter); ok {
		return tp.TrySubmit(task)
	}
	return s.pool.Submit(task)
}

// runEntry moves e from pending to running, calls it with the lock released,
// then retires it and wakes every waiter. Retirement is deferred so that a
// panicking call does not strand waiters; the panic itself is left to the
// goroutine running the call.
func (s *Scheduler) runEntry(ctx context.Context, e *entry, async bool) {
	d := e.domain

	s.mu.Lock()
	d.pending.Remove(e.domainElem)
	e.domainElem = insertSorted(d.running, e)
	if e.globalElem != nil {
		s.globalPending.Remove(e.globalElem)
		e.globalElem = insertSorted(s.globalRunning, e)
	}
	s.pending--
	s.running++
	s.mu.Unlock()

	s.recordQueueDelay(time.Since(e.queued))

	defer func() {
		s.mu.Lock()
		d.running.Remove(e.domainElem)
		if e.globalElem != nil {
			s.globalRunning.Remove(e.globalElem)
		}
		e.domainElem, e.globalElem = nil, nil
		s.running--
		s.outstanding--
		if async {
			s.completed++
		}
		s.recordOutstanding(s.outstanding)
		s.cond.Broadcast()
		s.mu.Unlock()

		if async {
			s.recordCompleted(d)
		}
	}()

	s.invoke(ctx, e.fn, e.data, e.cookie, d, async)
}

// invoke calls fn with the call information attached to ctx.
func (s *Scheduler) invoke(ctx context.Context, fn Func, data any, cookie Cookie, d *Domain, async bool) {
	ctx = withCall(ctx, call{cookie: cookie, domain: d, async: async})

	if !s.debug {
		start := time.Now()
		fn(ctx, data, cookie)
		s.recordRunDuration(d, time.Since(start))
		return
	}

	name := funcName(fn)
	s.logger.Debug().Uint64("cookie", uint64(cookie)).Str("domain", d.name).Str("func", name).
		Bool("async", async).Msg("calling")

	start := time.Now()
	fn(ctx, data, cookie)
	elapsed := time.Since(start)

	s.recordRunDuration(d, elapsed)
	s.logger.Debug().Uint64("cookie", uint64(cookie)).Str("domain", d.name).Str("func", name).
		Dur("duration", elapsed).Msg("returned")
}

// insertSorted places e on l in cookie order. Calls usually start in
// roughly submission order, so the walk from the back is short.
func insertSorted(l *list.List, e *entry) *list.Element {
	for el := l.Back(); el != nil; el = el.Prev() {
		if el.Value.(*entry).cookie < e.cookie {
			return l.InsertAfter(e, el)
		}
	}
	return l.PushFront(e)
}

func funcName(fn Func) string {
	if f := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()); f != nil {
		return f.Name()
	}
	return "unknown"
}
