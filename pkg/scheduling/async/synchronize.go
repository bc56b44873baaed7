package async

import (
	"container/list"
	"context"
	"time"
)

// LowestInProgress returns the lowest cookie among d's pending and running
// calls, or the next cookie to be issued when d has none. A nil d spans
// every registered domain. The value never decreases for a fixed d.
func (s *Scheduler) LowestInProgress(d *Domain) Cookie {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d != nil {
		if err := s.domainErrLocked("LowestInProgress", d); err != nil {
			panic(err)
		}
	}
	return s.lowestLocked(d)
}

// SynchronizeCookie waits until every call in the default domain with a
// cookie up to and including cookie has finished.
func (s *Scheduler) SynchronizeCookie(cookie Cookie) {
	_ = s.wait(context.Background(), "cookie", s.dfl, cookie, true)
}

// SynchronizeCookieDomain waits until every call in d with a cookie up to
// and including cookie has finished. Calling it from inside the call that
// owns cookie deadlocks; use SynchronizeBeforeDomain there.
func (s *Scheduler) SynchronizeCookieDomain(cookie Cookie, d *Domain) {
	_ = s.wait(context.Background(), "cookie", s.resolve(d), cookie, true)
}

// SynchronizeCookieContext is SynchronizeCookieDomain bounded by ctx. It
// returns ctx.Err() if ctx ends first.
func (s *Scheduler) SynchronizeCookieContext(ctx context.Context, cookie Cookie, d *Domain) error {
	return s.wait(ctx, "cookie", s.resolve(d), cookie, true)
}

// SynchronizeBefore waits until every call in the default domain scheduled
// before cookie has finished. A call may pass its own cookie to wait for
// its predecessors.
func (s *Scheduler) SynchronizeBefore(cookie Cookie) {
	_ = s.wait(context.Background(), "before", s.dfl, cookie, false)
}

// SynchronizeBeforeDomain waits until every call in d scheduled before
// cookie has finished.
func (s *Scheduler) SynchronizeBeforeDomain(cookie Cookie, d *Domain) {
	_ = s.wait(context.Background(), "before", s.resolve(d), cookie, false)
}

// SynchronizeFull waits until no call of any registered domain is pending
// or running, including calls scheduled by the calls being waited for.
func (s *Scheduler) SynchronizeFull() {
	_ = s.wait(context.Background(), "full", nil, CookieMax, true)
}

// SynchronizeFullContext is SynchronizeFull bounded by ctx.
func (s *Scheduler) SynchronizeFullContext(ctx context.Context) error {
	return s.wait(ctx, "full", nil, CookieMax, true)
}

// SynchronizeFullDomain waits until d has no pending or running calls,
// including calls scheduled by the calls being waited for.
func (s *Scheduler) SynchronizeFullDomain(d *Domain) {
	_ = s.wait(context.Background(), "domain", s.resolve(d), CookieMax, true)
}

// SynchronizeFullDomainContext is SynchronizeFullDomain bounded by ctx.
func (s *Scheduler) SynchronizeFullDomainContext(ctx context.Context, d *Domain) error {
	return s.wait(ctx, "domain", s.resolve(d), CookieMax, true)
}

// wait blocks until the calls selected by d and cookie have finished. d nil
// selects every registered domain. inclusive waits for cookie itself too.
func (s *Scheduler) wait(ctx context.Context, kind string, d *Domain, cookie Cookie, inclusive bool) error {
	start := time.Now()
	if s.debug {
		s.logEvent("waiting", kind, d, cookie, 0)
	}

	s.mu.Lock()
	if d != nil {
		if err := s.domainErrLocked("Synchronize", d); err != nil {
			s.mu.Unlock()
			panic(err)
		}
	}

	if ctx.Done() != nil {
		stop := context.AfterFunc(ctx, func() {
			s.mu.Lock()
			s.cond.Broadcast()
			s.mu.Unlock()
		})
		defer stop()
	}

	var err error
	for !s.doneLocked(d, cookie, inclusive) {
		if err = ctx.Err(); err != nil {
			break
		}
		s.cond.Wait()
	}
	s.mu.Unlock()

	elapsed := time.Since(start)
	s.recordSyncWait(kind, elapsed)
	if s.debug {
		s.logEvent("continuing", kind, d, cookie, elapsed)
	}
	return err
}

func (s *Scheduler) logEvent(msg, kind string, d *Domain, cookie Cookie, elapsed time.Duration) {
	ev := s.logger.Debug().Str("kind", kind)
	if d != nil {
		ev = ev.Str("domain", d.name)
	}
	if cookie != CookieMax {
		ev = ev.Uint64("cookie", uint64(cookie))
	}
	if elapsed > 0 {
		ev = ev.Dur("waited", elapsed)
	}
	ev.Msg(msg)
}

// lists returns the pending and running lists for d, or the global lists
// when d is nil.
func (s *Scheduler) lists(d *Domain) (pending, running *list.List) {
	if d == nil {
		return s.globalPending, s.globalRunning
	}
	return d.pending, d.running
}

func (s *Scheduler) lowestLocked(d *Domain) Cookie {
	pending, running := s.lists(d)

	lowest := s.nextCookie
	if el := pending.Front(); el != nil {
		lowest = min(lowest, el.Value.(*entry).cookie)
	}
	if el := running.Front(); el != nil {
		lowest = min(lowest, el.Value.(*entry).cookie)
	}
	return lowest
}

// doneLocked reports whether every call selected by d with a cookie below
// cookie (or up to it, when inclusive) has finished. A selection with
// nothing in flight is always done, so waits never depend on cookies that
// have not been issued yet.
func (s *Scheduler) doneLocked(d *Domain, cookie Cookie, inclusive bool) bool {
	pending, running := s.lists(d)
	if pending.Len() == 0 && running.Len() == 0 {
		return true
	}

	lowest := s.lowestLocked(d)
	if inclusive {
		return lowest > cookie
	}
	return lowest >= cookie
}
