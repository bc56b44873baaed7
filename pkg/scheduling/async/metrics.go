package async

import "time"

// The record helpers are no-ops unless Config.Metrics.Enabled was set.

func (s *Scheduler) recordScheduled(d *Domain) {
	if s.registry == nil {
		return
	}
	s.registry.AsyncScheduled.WithLabelValues(s.name, d.name).Inc()
}

func (s *Scheduler) recordInline(reason string) {
	if s.registry == nil {
		return
	}
	s.registry.AsyncInline.WithLabelValues(s.name, reason).Inc()
}

func (s *Scheduler) recordCompleted(d *Domain) {
	if s.registry == nil {
		return
	}
	s.registry.AsyncCompleted.WithLabelValues(s.name, d.name).Inc()
}

// recordOutstanding must be called with s.mu held so gauge updates are
// applied in the order the counter changed.
func (s *Scheduler) recordOutstanding(n int) {
	if s.registry == nil {
		return
	}
	s.registry.AsyncOutstanding.WithLabelValues(s.name).Set(float64(n))
}

func (s *Scheduler) recordQueueDelay(d time.Duration) {
	if s.registry == nil {
		return
	}
	s.registry.AsyncQueueDelay.WithLabelValues(s.name).Observe(d.Seconds())
}

func (s *Scheduler) recordRunDuration(d *Domain, elapsed time.Duration) {
	if s.registry == nil {
		return
	}
	s.registry.AsyncRunDuration.WithLabelValues(s.name, d.name).Observe(elapsed.Seconds())
}

func (s *Scheduler) recordSyncWait(kind string, elapsed time.Duration) {
	if s.registry == nil {
		return
	}
	s.registry.AsyncSyncWait.WithLabelValues(s.name, kind).Observe(elapsed.Seconds())
}
