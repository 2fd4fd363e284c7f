package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mfs_exporter"

// MetricFactory creates the exporter's own metrics on one registerer.
type MetricFactory struct {
	reg prometheus.Registerer
}

func NewMetricFactory(reg prometheus.Registerer) *MetricFactory {
	return &MetricFactory{reg: reg}
}

// AgentMetrics describes the health of the collection loop.
type AgentMetrics struct {
	Up              prometheus.Gauge
	LastSuccess     prometheus.Gauge
	SnapshotSamples prometheus.Gauge
	CollectErrors   *prometheus.CounterVec
	CollectDuration *prometheus.HistogramVec
}

// NewAgentMetrics registers every collection-loop metric.
func (f *MetricFactory) NewAgentMetrics() *AgentMetrics {
	return &AgentMetrics{
		Up:              f.NewUp(),
		LastSuccess:     f.NewLastSuccessTimestamp(),
		SnapshotSamples: f.NewSnapshotSamples(),
		CollectErrors:   f.NewCollectErrorsTotal(),
		CollectDuration: f.NewCollectDurationSeconds(),
	}
}

// NewUp is 1 when the last collection cycle succeeded.
func (f *MetricFactory) NewUp() prometheus.Gauge {
	return promauto.With(f.reg).NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "up",
		Help:      "Whether the last MooseFS collection cycle succeeded (1) or failed (0).",
	})
}

func (f *MetricFactory) NewLastSuccessTimestamp() prometheus.Gauge {
	return promauto.With(f.reg).NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last successful collection cycle.",
	})
}

func (f *MetricFactory) NewSnapshotSamples() prometheus.Gauge {
	return promauto.With(f.reg).NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "snapshot_samples",
		Help:      "Number of series in the snapshot currently served.",
	})
}

// NewCollectErrorsTotal counts failed collections per collector.
func (f *MetricFactory) NewCollectErrorsTotal() *prometheus.CounterVec {
	return promauto.With(f.reg).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "collect_errors_total",
		Help:      "Total number of failed collections per collector.",
	}, []string{"collector"})
}

// NewCollectDurationSeconds observes collection time per collector,
// from 10ms to about 40s.
func (f *MetricFactory) NewCollectDurationSeconds() *prometheus.HistogramVec {
	return promauto.With(f.reg).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "collect_duration_seconds",
		Help:      "Duration of a collection per collector.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"collector"})
}
