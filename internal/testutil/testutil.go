package testutil

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// TestTimeout is the default timeout for tests
const TestTimeout = 5 * time.Second

// WithTimeout creates a context with the default test timeout
func WithTimeout(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), TestTimeout)
}

// AssertNoError fails the test if err is not nil
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertEqual fails the test if got != want
func AssertEqual[T comparable](t *testing.T, got, want T) {
	t.Helper()
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

// AssertNotEqual fails the test if got == want
func AssertNotEqual[T comparable](t *testing.T, got, want T) {
	t.Helper()
	if got == want {
		t.Fatalf("got %v, want anything else", got)
	}
}

// Eventually polls cond every tick until it returns true or timeout elapses.
func Eventually(t *testing.T, cond func() bool, timeout, tick time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %v", timeout)
		}
		time.Sleep(tick)
	}
}

// WaitForInt64 waits until the atomic value equals want.
func WaitForInt64(t *testing.T, v *atomic.Int64, want int64, timeout time.Duration) {
	t.Helper()
	Eventually(t, func() bool { return v.Load() == want }, timeout, time.Millisecond)
}

// Returns runs fn in a goroutine and fails the test if it has not returned
// within timeout.
func Returns(t *testing.T, timeout time.Duration, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatalf("call did not return within %v", timeout)
	}
}

// Blocks runs fn in a goroutine and fails the test if it returns within
// d. The returned channel closes once fn finally returns.
func Blocks(t *testing.T, d time.Duration, fn func()) <-chan struct{} {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
		t.Fatalf("call returned within %v, expected it to block", d)
	case <-time.After(d):
	}
	return done
}

// Gate is a one-shot barrier used to hold callbacks until a test releases them.
type Gate struct {
	ch   chan struct{}
	once sync.Once
}

// NewGate returns a Gate in the held state.
func NewGate() *Gate {
	return &Gate{ch: make(chan struct{})}
}

// Wait blocks until Open is called.
func (g *Gate) Wait() {
	<-g.ch
}

// Open releases every current and future Wait. Safe to call more than once.
func (g *Gate) Open() {
	g.once.Do(func() { close(g.ch) })
}
