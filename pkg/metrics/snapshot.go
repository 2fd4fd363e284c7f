package metrics

import (
	"fmt"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/model"
)

// family groups the samples sharing a metric name.
type family struct {
	name       string
	help       string
	valueType  ValueType
	labelNames []string
	desc       *prometheus.Desc
	samples    []Sample
}

func (f *family) promValueType() prometheus.ValueType {
	if f.valueType == Counter {
		return prometheus.CounterValue
	}
	return prometheus.GaugeValue
}

// Snapshot is an immutable, ordered set of samples produced by one
// collection cycle.
type Snapshot struct {
	collectedAt time.Time
	families    []family
	size        int
}

// NewSnapshot validates and freezes samples. Families keep first-seen
// order; a repeated series (same name and labels) keeps its first position
// and the last value. Samples of one name must agree on type and label names,
// and every name and label value must be valid in the exposition format, so
// a snapshot that is built can always be scraped.
func NewSnapshot(samples []Sample, collectedAt time.Time) (*Snapshot, error) {
	var families []family
	familyIdx := make(map[string]int)
	seriesIdx := make(map[string][2]int)

	for _, s := range samples {
		if s.Name == "" {
			return nil, fmt.Errorf("sample without a name")
		}
		if s.Type != Gauge && s.Type != Counter {
			return nil, fmt.Errorf("metric %s: unsupported type %q", s.Name, s.Type)
		}
		if !model.LegacyValidation.IsValidMetricName(s.Name) {
			return nil, fmt.Errorf("invalid metric name %q", s.Name)
		}
		s = s.clone()
		names := s.labelNames()
		for _, n := range names {
			if !model.LegacyValidation.IsValidLabelName(n) {
				return nil, fmt.Errorf("metric %s: invalid label name %q", s.Name, n)
			}
		}

		fi, ok := familyIdx[s.Name]
		if !ok {
			fi = len(families)
			familyIdx[s.Name] = fi
			families = append(families, family{
				name:       s.Name,
				help:       s.Help,
				valueType:  s.Type,
				labelNames: names,
				desc:       prometheus.NewDesc(s.Name, s.Help, names, nil),
			})
		}
		f := &families[fi]
		if f.valueType != s.Type {
			return nil, fmt.Errorf("metric %s: type %s conflicts with %s", s.Name, s.Type, f.valueType)
		}
		if !slices.Equal(f.labelNames, names) {
			return nil, fmt.Errorf("metric %s: labels %v conflict with %v", s.Name, names, f.labelNames)
		}

		if _, err := prometheus.NewConstMetric(f.desc, f.promValueType(), s.Value, s.labelValues(names)...); err != nil {
			return nil, fmt.Errorf("metric %s: %w", s.Name, err)
		}

		key := s.key()
		if pos, dup := seriesIdx[key]; dup {
			families[pos[0]].samples[pos[1]] = s
			continue
		}
		seriesIdx[key] = [2]int{fi, len(f.samples)}
		f.samples = append(f.samples, s)
	}

	return &Snapshot{collectedAt: collectedAt, families: families, size: len(seriesIdx)}, nil
}

// CollectedAt is the time the cycle that produced the snapshot finished.
func (s *Snapshot) CollectedAt() time.Time { return s.collectedAt }

// Len is the number of distinct series.
func (s *Snapshot) Len() int { return s.size }

// Samples returns a copy of the samples in snapshot order.
func (s *Snapshot) Samples() []Sample {
	out := make([]Sample, 0, s.size)
	for _, f := range s.families {
		for _, smp := range f.samples {
			out = append(out, smp.clone())
		}
	}
	return out
}
