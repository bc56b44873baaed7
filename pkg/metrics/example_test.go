package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// Example_basicUsage demonstrates creating an isolated registry.
func Example_basicUsage() {
	registry := NewRegistry(prometheus.NewRegistry())

	registry.AsyncScheduled.WithLabelValues("boot", "default").Add(3)
	registry.AsyncInline.WithLabelValues("boot", "ceiling").Inc()

	fmt.Println(testutil.ToFloat64(registry.AsyncScheduled.WithLabelValues("boot", "default")))
	fmt.Println(testutil.ToFloat64(registry.AsyncInline.WithLabelValues("boot", "ceiling")))

	// Output:
	// 3
	// 1
}

// Example_customNamespace demonstrates namespace and constant labels.
func Example_customNamespace() {
	reg := prometheus.NewRegistry()
	registry := NewRegistryFromConfig(Config{
		Enabled:   true,
		Registry:  reg,
		Namespace: "initd",
		Labels:    prometheus.Labels{"host": "node-1"},
	})

	registry.AsyncOutstanding.WithLabelValues("boot").Set(2)

	families, _ := reg.Gather()
	for _, mf := range families {
		fmt.Println(mf.GetName())
	}

	// Output:
	// initd_async_outstanding
}
