package async

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vnykmshr/goasync/internal/testutil"
)

func TestSynchronizeCookieWaitsForCall(t *testing.T) {
	s := newTestScheduler(t, Config{})

	var done atomic.Bool
	c := s.Schedule(func(context.Context, any, Cookie) {
		time.Sleep(30 * time.Millisecond)
		done.Store(true)
	}, nil)

	s.SynchronizeCookie(c)
	testutil.AssertEqual(t, done.Load(), true)
}

func TestSynchronizeCookieBlocksUntilRelease(t *testing.T) {
	s := newTestScheduler(t, Config{})
	d := s.NewDomain("d")

	gate := testutil.NewGate()
	defer gate.Open()
	c := s.ScheduleDomain(func(context.Context, any, Cookie) { gate.Wait() }, nil, d)

	returned := testutil.Blocks(t, 30*time.Millisecond, func() { s.SynchronizeCookieDomain(c, d) })
	gate.Open()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("SynchronizeCookieDomain did not return after the call finished")
	}
}

func TestSynchronizeCookieIgnoresLaterCalls(t *testing.T) {
	s := newTestScheduler(t, Config{})

	c := s.Schedule(noop, nil)

	gate := testutil.NewGate()
	defer gate.Open()
	s.Schedule(func(context.Context, any, Cookie) { gate.Wait() }, nil)

	testutil.Returns(t, time.Second, func() { s.SynchronizeCookie(c) })
}

func TestSynchronizeCookieInclusiveBeforeExclusive(t *testing.T) {
	s := newTestScheduler(t, Config{})

	gate := testutil.NewGate()
	defer gate.Open()
	c := s.Schedule(func(context.Context, any, Cookie) { gate.Wait() }, nil)

	testutil.Returns(t, time.Second, func() { s.SynchronizeBefore(c) })
	returned := testutil.Blocks(t, 30*time.Millisecond, func() { s.SynchronizeCookie(c) })

	gate.Open()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("SynchronizeCookie did not return after call c finished")
	}
}

func TestSynchronizeBeforeFromInsideCall(t *testing.T) {
	s := newTestScheduler(t, Config{})

	gate := testutil.NewGate()
	defer gate.Open()

	var mu sync.Mutex
	var order []int

	s.Schedule(func(context.Context, any, Cookie) {
		gate.Wait()
		mu.Lock()
		order = append(order, 1)
		mu.Unlock()
	}, nil)

	second := s.Schedule(func(_ context.Context, _ any, cookie Cookie) {
		// Waits for the first call only, not for itself.
		s.SynchronizeBefore(cookie)
		mu.Lock()
		order = append(order, 2)
		mu.Unlock()
	}, nil)

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	testutil.AssertEqual(t, len(order), 0)
	mu.Unlock()

	gate.Open()
	testutil.Returns(t, time.Second, func() { s.SynchronizeCookie(second) })

	mu.Lock()
	defer mu.Unlock()
	testutil.AssertEqual(t, len(order), 2)
	testutil.AssertEqual(t, order[0], 1)
	testutil.AssertEqual(t, order[1], 2)
}

func TestSynchronizeFullDomainFollowsRecursiveScheduling(t *testing.T) {
	s := newTestScheduler(t, Config{})
	d := s.NewDomain("recursive")

	var childDone atomic.Bool
	s.ScheduleDomain(func(context.Context, any, Cookie) {
		time.Sleep(10 * time.Millisecond)
		s.ScheduleDomain(func(context.Context, any, Cookie) {
			time.Sleep(30 * time.Millisecond)
			childDone.Store(true)
		}, nil, d)
	}, nil, d)

	s.SynchronizeFullDomain(d)
	testutil.AssertEqual(t, childDone.Load(), true)

	stats := s.DomainStats(d)
	testutil.AssertEqual(t, stats.Pending, 0)
	testutil.AssertEqual(t, stats.Running, 0)
}

func TestSynchronizeFullFollowsRecursiveScheduling(t *testing.T) {
	s := newTestScheduler(t, Config{})
	other := s.NewDomain("other")

	var childDone atomic.Bool
	s.Schedule(func(context.Context, any, Cookie) {
		s.ScheduleDomain(func(context.Context, any, Cookie) {
			time.Sleep(20 * time.Millisecond)
			childDone.Store(true)
		}, nil, other)
	}, nil)

	s.SynchronizeFull()
	testutil.AssertEqual(t, childDone.Load(), true)
}

func TestDomainIsolation(t *testing.T) {
	s := newTestScheduler(t, Config{})
	d1 := s.NewDomain("d1")
	d2 := s.NewDomain("d2")

	gate := testutil.NewGate()
	defer gate.Open()
	blocked := s.ScheduleDomain(func(context.Context, any, Cookie) { gate.Wait() }, nil, d1)

	var ran atomic.Bool
	c := s.ScheduleDomain(func(context.Context, any, Cookie) { ran.Store(true) }, nil, d2)

	testutil.Returns(t, time.Second, func() { s.SynchronizeFullDomain(d2) })
	testutil.Returns(t, time.Second, func() { s.SynchronizeCookieDomain(c, d2) })
	testutil.AssertEqual(t, ran.Load(), true)

	// d1's stuck call does not hold back d2's lowest cookie.
	testutil.AssertEqual(t, s.LowestInProgress(d2), s.Stats().NextCookie)
	testutil.AssertEqual(t, s.LowestInProgress(d1), blocked)
	testutil.AssertEqual(t, s.LowestInProgress(nil), blocked)
}

func TestExclusiveDomainOutsideFullSync(t *testing.T) {
	s := newTestScheduler(t, Config{})
	ex := s.NewDomain("exclusive", WithExclusive())
	testutil.AssertEqual(t, ex.Registered(), false)

	gate := testutil.NewGate()
	defer gate.Open()
	s.ScheduleDomain(func(context.Context, any, Cookie) { gate.Wait() }, nil, ex)
	s.Schedule(noop, nil)

	testutil.Returns(t, time.Second, s.SynchronizeFull)
	testutil.AssertEqual(t, s.LowestInProgress(nil), s.Stats().NextCookie)
	testutil.AssertEqual(t, s.DomainStats(ex).Pending+s.DomainStats(ex).Running, 1)

	gate.Open()
	testutil.Returns(t, time.Second, func() { s.SynchronizeFullDomain(ex) })
}

func TestLowestInProgress(t *testing.T) {
	s := newTestScheduler(t, Config{})
	d := s.NewDomain("d")

	testutil.AssertEqual(t, s.LowestInProgress(d), Cookie(1))

	gate := testutil.NewGate()
	defer gate.Open()
	first := s.ScheduleDomain(func(context.Context, any, Cookie) { gate.Wait() }, nil, d)
	s.ScheduleDomain(noop, nil, d)

	testutil.Eventually(t, func() bool { return s.DomainStats(d).Pending+s.DomainStats(d).Running == 1 }, time.Second, time.Millisecond)
	testutil.AssertEqual(t, s.LowestInProgress(d), first)

	gate.Open()
	s.SynchronizeFullDomain(d)
	testutil.AssertEqual(t, s.LowestInProgress(d), Cookie(3))
}

func TestLowestInProgressNeverDecreases(t *testing.T) {
	s := newTestScheduler(t, Config{})
	d := s.NewDomain("d")

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			s.ScheduleDomain(func(context.Context, any, Cookie) {
				time.Sleep(time.Duration(i%3) * time.Millisecond)
			}, nil, d)
		}
	}()

	var last Cookie
	deadline := time.Now().Add(100 * time.Millisecond)
	for time.Now().Before(deadline) {
		low := s.LowestInProgress(d)
		if low < last {
			close(stop)
			wg.Wait()
			t.Fatalf("lowest in progress went from %d to %d", last, low)
		}
		last = low
	}
	close(stop)
	wg.Wait()
	s.SynchronizeFullDomain(d)
}

func TestSynchronizeContextVariants(t *testing.T) {
	s := newTestScheduler(t, Config{})
	d := s.NewDomain("d")

	gate := testutil.NewGate()
	defer gate.Open()
	c := s.ScheduleDomain(func(context.Context, any, Cookie) { gate.Wait() }, nil, d)

	tests := []struct {
		name string
		wait func(ctx context.Context) error
	}{
		{"cookie", func(ctx context.Context) error { return s.SynchronizeCookieContext(ctx, c, d) }},
		{"full", s.SynchronizeFullContext},
		{"domain", func(ctx context.Context) error { return s.SynchronizeFullDomainContext(ctx, d) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()

			err := tt.wait(ctx)
			testutil.AssertEqual(t, errors.Is(err, context.DeadlineExceeded), true)
		})
	}

	gate.Open()
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()
	testutil.AssertNoError(t, s.SynchronizeFullDomainContext(ctx, d))
}

func TestSynchronizeOnIdleSchedulerReturns(t *testing.T) {
	s := newTestScheduler(t, Config{})

	testutil.Returns(t, time.Second, func() {
		s.SynchronizeFull()
		s.SynchronizeFullDomain(nil)
		s.SynchronizeCookie(CookieMax)
		s.SynchronizeBefore(100)
	})
}
