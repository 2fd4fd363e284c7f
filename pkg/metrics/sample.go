package metrics

import (
	"fmt"
	"sort"
)

// ValueType is the exposition type of a sample.
type ValueType string

const (
	Gauge   ValueType = "gauge"
	Counter ValueType = "counter"
)

// Sample is one metric value with its label set.
type Sample struct {
	Name   string
	Help   string
	Labels map[string]string
	Value  float64
	Type   ValueType
}

// labelNames returns the sorted label keys of s.
func (s Sample) labelNames() []string {
	names := make([]string, 0, len(s.Labels))
	for k := range s.Labels {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// labelValues returns the label values in the order of names.
func (s Sample) labelValues(names []string) []string {
	values := make([]string, len(names))
	for i, n := range names {
		values[i] = s.Labels[n]
	}
	return values
}

// key identifies a series: name plus sorted label pairs.
func (s Sample) key() string {
	names := s.labelNames()
	k := s.Name
	for _, n := range names {
		k += fmt.Sprintf("\xff%s\xfe%s", n, s.Labels[n])
	}
	return k
}

func (s Sample) clone() Sample {
	labels := make(map[string]string, len(s.Labels))
	for k, v := range s.Labels {
		labels[k] = v
	}
	s.Labels = labels
	return s
}

// NewGauge is a shorthand for a gauge sample; labels are given as key/value pairs.
func NewGauge(name, help string, value float64, labelPairs ...string) Sample {
	return newSample(Gauge, name, help, value, labelPairs)
}

// NewCounter is a shorthand for a counter sample; labels are given as key/value pairs.
func NewCounter(name, help string, value float64, labelPairs ...string) Sample {
	return newSample(Counter, name, help, value, labelPairs)
}

func newSample(t ValueType, name, help string, value float64, labelPairs []string) Sample {
	if len(labelPairs)%2 != 0 {
		panic(fmt.Sprintf("metrics: odd number of label arguments for %s", name))
	}
	labels := make(map[string]string, len(labelPairs)/2)
	for i := 0; i < len(labelPairs); i += 2 {
		labels[labelPairs[i]] = labelPairs[i+1]
	}
	return Sample{Name: name, Help: help, Labels: labels, Value: value, Type: t}
}
