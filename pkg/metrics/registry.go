package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// NewRegistry creates the registry served on /metrics: the snapshot
// collector plus, when enableRuntime is set, process and Go runtime metrics.
func NewRegistry(store *Store, enableRuntime bool) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewSnapshotCollector(store))
	if enableRuntime {
		reg.MustRegister(
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewGoCollector(),
		)
	}
	return reg
}
