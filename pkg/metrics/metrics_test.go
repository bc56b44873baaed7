package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistryFromConfigNilRegistry(t *testing.T) {
	if got := NewRegistryFromConfig(Config{Enabled: true}); got != DefaultRegistry {
		t.Error("nil registerer should yield DefaultRegistry")
	}
	if got := NewRegistryFromConfig(DefaultConfig()); got != DefaultRegistry {
		t.Error("DefaultConfig should yield DefaultRegistry")
	}
}

func TestRegistriesAreIsolated(t *testing.T) {
	a := NewRegistry(prometheus.NewRegistry())
	b := NewRegistry(prometheus.NewRegistry())

	a.AsyncCompleted.WithLabelValues("s", "d").Add(5)

	if got := testutil.ToFloat64(b.AsyncCompleted.WithLabelValues("s", "d")); got != 0 {
		t.Errorf("registry b saw %v completions, want 0", got)
	}
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewRegistry(reg)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	NewRegistry(reg)
}

func TestMetricNames(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(reg)

	r.AsyncScheduled.WithLabelValues("s", "d").Inc()
	r.WorkerPoolSize.WithLabelValues("p").Set(4)
	r.TriggerFired.WithLabelValues("t", "cron").Inc()

	if n, err := testutil.GatherAndCount(reg,
		"goasync_async_scheduled_total",
		"goasync_workerpool_size",
		"goasync_trigger_fired_total",
	); err != nil || n != 3 {
		t.Errorf("GatherAndCount = %d, %v; want 3, nil", n, err)
	}
}

func TestNewRegistryFromConfigShared(t *testing.T) {
	reg := prometheus.NewRegistry()
	cfg := Config{Enabled: true, Registry: reg}

	a := NewRegistryFromConfig(cfg)
	if b := NewRegistryFromConfig(cfg); a != b {
		t.Error("same registerer and namespace should share a registry")
	}

	labelled := NewRegistryFromConfig(Config{Enabled: true, Registry: reg, Namespace: "boot", Labels: prometheus.Labels{"env": "test"}})
	if labelled == a {
		t.Error("different namespace should get its own registry")
	}
	if again := NewRegistryFromConfig(Config{Enabled: true, Registry: reg, Namespace: "boot", Labels: prometheus.Labels{"env": "test"}}); again != labelled {
		t.Error("equal labels should share a registry")
	}
}
