package collector

import (
	"context"

	"github.com/mfs-exporter/pkg/metrics"
)

// Collector produces one batch of samples per collection cycle.
// New collectors only need to implement this interface and be registered
// with the agent.
type Collector interface {
	Name() string                                          // unique, used as the collector label
	Init() error                                           // pre-checks before the first cycle
	Collect(ctx context.Context) ([]metrics.Sample, error) // one cycle
	Close() error                                          // release resources
}
