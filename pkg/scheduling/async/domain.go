package async

import (
	"container/list"
	"fmt"

	gferrors "github.com/vnykmshr/goasync/pkg/common/errors"
)

// Domain is an independent completion-ordering namespace. Synchronizing on
// a domain ignores calls scheduled into any other domain.
//
// A registered domain (the default) also takes part in SynchronizeFull and
// in the domain-less LowestInProgress. An exclusive domain, created with
// WithExclusive, is only ever waited on explicitly.
type Domain struct {
	name       string
	registered bool
	owner      *Scheduler

	// Guarded by owner.mu. Both lists hold *entry values sorted by cookie.
	pending *list.List
	running *list.List
	removed bool
}

// DomainOption configures a Domain.
type DomainOption func(*Domain)

// WithExclusive keeps the domain out of SynchronizeFull and the global
// lowest-in-progress computation.
func WithExclusive() DomainOption {
	return func(d *Domain) {
		d.registered = false
	}
}

// DomainStats is a point-in-time view of one domain.
type DomainStats struct {
	Name       string
	Registered bool
	Pending    int
	Running    int
	// Lowest is the domain's lowest cookie in progress, see LowestInProgress.
	Lowest Cookie
}

// NewDomain creates an empty domain owned by s.
func (s *Scheduler) NewDomain(name string, opts ...DomainOption) *Domain {
	d := &Domain{
		name:       name,
		registered: true,
		owner:      s,
		pending:    list.New(),
		running:    list.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DefaultDomain returns the domain used by Schedule and SynchronizeCookie.
func (s *Scheduler) DefaultDomain() *Domain {
	return s.dfl
}

// RemoveDomain tears d down. Removing a domain that still has pending or
// running calls, or removing the default domain, is a programming error and
// panics with an *errors.OperationError. Scheduling into a removed domain
// panics as well.
func (s *Scheduler) RemoveDomain(d *Domain) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.domainErrLocked("RemoveDomain", d); err != nil {
		panic(err)
	}
	if d == s.dfl {
		panic(gferrors.NewOperationError("async", "RemoveDomain", gferrors.ErrDefaultDomain))
	}
	if n := d.pending.Len() + d.running.Len(); n > 0 {
		panic(gferrors.NewOperationError("async", "RemoveDomain", gferrors.ErrDomainBusy).
			WithContext(fmt.Sprintf("domain %q has %d entries", d.name, n)))
	}
	d.removed = true
}

// DomainStats returns counters for d; a nil d reports the default domain.
func (s *Scheduler) DomainStats(d *Domain) DomainStats {
	d = s.resolve(d)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.domainErrLocked("DomainStats", d); err != nil {
		panic(err)
	}
	return DomainStats{
		Name:       d.name,
		Registered: d.registered,
		Pending:    d.pending.Len(),
		Running:    d.running.Len(),
		Lowest:     s.lowestLocked(d),
	}
}

// Name returns the domain's name.
func (d *Domain) Name() string {
	return d.name
}

// Registered reports whether the domain takes part in SynchronizeFull.
func (d *Domain) Registered() bool {
	return d.registered
}

func (s *Scheduler) resolve(d *Domain) *Domain {
	if d == nil {
		return s.dfl
	}
	return d
}

// domainErrLocked reports misuse of d: a domain of another scheduler, or
// one that was removed. Callers panic with the result after releasing s.mu.
func (s *Scheduler) domainErrLocked(op string, d *Domain) error {
	if d.owner != s {
		return gferrors.NewOperationError("async", op, gferrors.ErrInvalidConfiguration).
			WithContext(fmt.Sprintf("domain %q belongs to another scheduler", d.name))
	}
	if d.removed {
		return gferrors.NewOperationError("async", op, gferrors.ErrClosed).
			WithContext(fmt.Sprintf("domain %q was removed", d.name))
	}
	return nil
}
