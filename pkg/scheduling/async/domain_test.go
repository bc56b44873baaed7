package async

import (
	"context"
	"errors"
	"testing"

	"github.com/vnykmshr/goasync/internal/testutil"
	gferrors "github.com/vnykmshr/goasync/pkg/common/errors"
)

// expectPanic runs fn and returns the error it panicked with.
func expectPanic(t *testing.T, fn func()) (err error) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		var ok bool
		if err, ok = r.(error); !ok {
			t.Fatalf("panic value %v is not an error", r)
		}
	}()
	fn()
	return nil
}

func TestNewDomain(t *testing.T) {
	s := newTestScheduler(t, Config{})

	d := s.NewDomain("disks")
	testutil.AssertEqual(t, d.Name(), "disks")
	testutil.AssertEqual(t, d.Registered(), true)

	stats := s.DomainStats(d)
	testutil.AssertEqual(t, stats.Name, "disks")
	testutil.AssertEqual(t, stats.Registered, true)
	testutil.AssertEqual(t, stats.Lowest, Cookie(1))

	testutil.AssertEqual(t, s.DomainStats(nil).Name, "default")
}

func TestRemoveIdleDomain(t *testing.T) {
	s := newTestScheduler(t, Config{})
	d := s.NewDomain("temp")

	s.ScheduleDomain(noop, nil, d)
	s.SynchronizeFullDomain(d)
	s.RemoveDomain(d)

	err := expectPanic(t, func() { s.ScheduleDomain(noop, nil, d) })
	testutil.AssertEqual(t, errors.Is(err, gferrors.ErrClosed), true)

	// The rejected call did not consume a cookie.
	testutil.AssertEqual(t, s.Stats().NextCookie, Cookie(2))
}

func TestRemoveBusyDomainPanics(t *testing.T) {
	s := newTestScheduler(t, Config{})
	d := s.NewDomain("busy")

	gate := testutil.NewGate()
	defer gate.Open()
	s.ScheduleDomain(func(context.Context, any, Cookie) { gate.Wait() }, nil, d)

	err := expectPanic(t, func() { s.RemoveDomain(d) })
	testutil.AssertEqual(t, errors.Is(err, gferrors.ErrDomainBusy), true)
	testutil.AssertEqual(t, gferrors.IsMisuse(err), true)

	// The scheduler is still usable after the misuse panic.
	gate.Open()
	s.SynchronizeFullDomain(d)
	s.RemoveDomain(d)
}

func TestRemoveDefaultDomainPanics(t *testing.T) {
	s := newTestScheduler(t, Config{})

	err := expectPanic(t, func() { s.RemoveDomain(s.DefaultDomain()) })
	testutil.AssertEqual(t, errors.Is(err, gferrors.ErrDefaultDomain), true)
}

func TestForeignDomainPanics(t *testing.T) {
	a := newTestScheduler(t, Config{Name: "a"})
	b := newTestScheduler(t, Config{Name: "b"})
	d := b.NewDomain("b-only")

	err := expectPanic(t, func() { a.ScheduleDomain(noop, nil, d) })
	testutil.AssertEqual(t, errors.Is(err, gferrors.ErrInvalidConfiguration), true)

	expectPanic(t, func() { a.SynchronizeFullDomain(d) })
}
