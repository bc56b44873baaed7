package async

import (
	"context"
	"sync"
	"testing"

	gferrors "github.com/vnykmshr/goasync/pkg/common/errors"
	"github.com/vnykmshr/goasync/pkg/scheduling/workerpool"
)

// newTestScheduler returns a scheduler on its own 8-worker pool so tests do
// not depend on GOMAXPROCS. Both are torn down with the test.
func newTestScheduler(t *testing.T, cfg Config) *Scheduler {
	t.Helper()

	pool := workerpool.NewUnbound(8)
	cfg.Pool = pool
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
		<-pool.Shutdown()
	})
	return s
}

// rejectPool refuses every task, as a shut-down pool would.
type rejectPool struct{}

func (rejectPool) Submit(workerpool.Task) error {
	return gferrors.NewOperationError("workerpool", "Submit", gferrors.ErrClosed)
}

// recorder collects the data values of the calls it runs.
type recorder struct {
	mu   sync.Mutex
	seen []any
}

func (r *recorder) fn(_ context.Context, data any, _ Cookie) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, data)
}

func (r *recorder) values() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.seen...)
}

func noop(context.Context, any, Cookie) {}
