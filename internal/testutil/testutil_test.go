package testutil

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestEventually(t *testing.T) {
	t.Run("condition met immediately", func(t *testing.T) {
		called := false
		Eventually(t, func() bool {
			called = true
			return true
		}, 100*time.Millisecond, 10*time.Millisecond)

		if !called {
			t.Error("condition function should be called")
		}
	})

	t.Run("condition met after delay", func(t *testing.T) {
		var flag atomic.Bool
		go func() {
			time.Sleep(30 * time.Millisecond)
			flag.Store(true)
		}()

		Eventually(t, flag.Load, 500*time.Millisecond, 5*time.Millisecond)
	})
}

func TestWaitForInt64(t *testing.T) {
	var value atomic.Int64

	go func() {
		time.Sleep(20 * time.Millisecond)
		value.Store(100)
	}()

	WaitForInt64(t, &value, 100, 500*time.Millisecond)
}

func TestReturnsAndBlocks(t *testing.T) {
	Returns(t, time.Second, func() {})

	g := NewGate()
	done := Blocks(t, 20*time.Millisecond, g.Wait)
	g.Open()
	g.Open()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Open")
	}
}

func TestWithTimeout(t *testing.T) {
	ctx, cancel := WithTimeout(t)
	defer cancel()

	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("context should have a deadline")
	}
	if time.Until(deadline) > TestTimeout {
		t.Errorf("deadline too far in the future: %v", deadline)
	}
}

func TestAsserts(t *testing.T) {
	AssertNoError(t, nil)
	AssertError(t, context.Canceled)
	AssertEqual(t, 42, 42)
	AssertEqual(t, "hello", "hello")
	AssertNotEqual(t, 1, 2)
	AssertNotEqual(t, true, false)
}

func TestClock(t *testing.T) {
	start := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewClock(start)
	AssertEqual(t, c.Now(), start)

	c.Advance(90 * time.Second)
	AssertEqual(t, c.Now(), start.Add(90*time.Second))

	if NewClock(time.Time{}).Now().IsZero() {
		t.Error("zero start should pick a fixed date")
	}
}
