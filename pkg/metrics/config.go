package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace prefixes every goasync metric name.
const DefaultNamespace = "goasync"

// Config holds configuration for metrics collection.
type Config struct {
	// Enabled controls whether metrics collection is active.
	Enabled bool

	// Registry is the Prometheus registerer to use. If nil, DefaultRegistry
	// (backed by prometheus.DefaultRegisterer) is used.
	Registry prometheus.Registerer

	// Namespace overrides the default "goasync" namespace for metrics.
	// Ignored when Registry is nil.
	Namespace string

	// Labels are constant labels added to all metrics. Ignored when Registry is nil.
	Labels prometheus.Labels
}

// DefaultConfig returns a default metrics configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:   true,
		Namespace: DefaultNamespace,
	}
}
