package async

import "sync"

var (
	stdMu sync.Mutex
	std   *Scheduler
)

// Default returns the process-wide scheduler, creating it on first use with
// a zero Config. It is never closed.
func Default() *Scheduler {
	stdMu.Lock()
	defer stdMu.Unlock()

	if std == nil {
		s, err := New(Config{Name: "default"})
		if err != nil {
			panic(err)
		}
		std = s
	}
	return std
}

// Schedule defers fn into the default domain of the default scheduler.
func Schedule(fn Func, data any) Cookie {
	return Default().Schedule(fn, data)
}

// ScheduleDomain defers fn into d on the default scheduler.
func ScheduleDomain(fn Func, data any, d *Domain) Cookie {
	return Default().ScheduleDomain(fn, data, d)
}

// NewDomain creates a domain on the default scheduler.
func NewDomain(name string, opts ...DomainOption) *Domain {
	return Default().NewDomain(name, opts...)
}

// SynchronizeCookie waits on the default scheduler's default domain.
func SynchronizeCookie(cookie Cookie) {
	Default().SynchronizeCookie(cookie)
}

// SynchronizeCookieDomain waits on d of the default scheduler.
func SynchronizeCookieDomain(cookie Cookie, d *Domain) {
	Default().SynchronizeCookieDomain(cookie, d)
}

// SynchronizeBefore waits for the predecessors of cookie in the default domain.
func SynchronizeBefore(cookie Cookie) {
	Default().SynchronizeBefore(cookie)
}

// SynchronizeFull waits for every registered domain of the default scheduler.
func SynchronizeFull() {
	Default().SynchronizeFull()
}

// SynchronizeFullDomain waits for d of the default scheduler to drain.
func SynchronizeFullDomain(d *Domain) {
	Default().SynchronizeFullDomain(d)
}
