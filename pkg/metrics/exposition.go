package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SnapshotCollector exposes the store's current snapshot as const metrics.
// It is an unchecked collector: the set of families changes between
// snapshots, so Describe sends nothing.
type SnapshotCollector struct {
	store *Store
}

func NewSnapshotCollector(store *Store) *SnapshotCollector {
	return &SnapshotCollector{store: store}
}

// Describe implements prometheus.Collector.
func (c *SnapshotCollector) Describe(chan<- *prometheus.Desc) {}

// Collect implements prometheus.Collector. The snapshot pointer is loaded
// once so a scrape never mixes two cycles.
func (c *SnapshotCollector) Collect(ch chan<- prometheus.Metric) {
	snap := c.store.Load()
	if snap == nil {
		return
	}
	for _, f := range snap.families {
		for _, s := range f.samples {
			m, err := prometheus.NewConstMetric(f.desc, f.promValueType(), s.Value, s.labelValues(f.labelNames)...)
			if err != nil {
				ch <- prometheus.NewInvalidMetric(f.desc, err)
				continue
			}
			ch <- m
		}
	}
}
