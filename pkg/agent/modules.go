package agent

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mfs-exporter/pkg/collector"
	"github.com/mfs-exporter/pkg/config"
	"github.com/mfs-exporter/pkg/logger"
	"github.com/mfs-exporter/pkg/metrics"
	"github.com/mfs-exporter/pkg/moosefs"
)

// Module is one entry of the collector table.
type Module struct {
	Enabled  bool
	Required bool
	Name     string
	NewFunc  func() collector.Collector
}

// Modules lists every collector the exporter knows. Adding a collector
// only needs a new entry here.
func Modules(cfg *config.Config) []Module {
	return []Module{
		{
			Enabled:  true,
			Required: true,
			Name:     "moosefs",
			NewFunc: func() collector.Collector {
				runner := moosefs.NewCLIRunner(cfg.MooseFS.CLIPath, cfg.MooseFS.Timeout)
				client := moosefs.NewClient(runner, cfg.MooseFS.Host, cfg.MooseFS.Port)
				return collector.NewMooseFSCollector(client, cfg.MooseFS.CLIPath)
			},
		},
		{
			Enabled:  cfg.Collectors.Host.Enable,
			Required: false,
			Name:     "host",
			NewFunc: func() collector.Collector {
				return collector.NewHostCollector(cfg.Collectors.Host)
			},
		},
	}
}

// RegisterCollectors registers the enabled modules with a.
func RegisterCollectors(a *Agent, modules []Module) ([]collector.Collector, error) {
	var out []collector.Collector
	for _, m := range modules {
		if !m.Enabled {
			logger.Debug("collector disabled", zap.String("name", m.Name))
			continue
		}
		c := m.NewFunc()
		if c == nil {
			return nil, fmt.Errorf("collector %s: constructor returned nil", m.Name)
		}
		a.Register(c, m.Required)
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no collector enabled")
	}
	return out, nil
}

// InitPromRegistry builds the /metrics registry, the snapshot store and a
// started agent with every enabled collector.
//
//	promReg  registry to serve on /metrics, also usable in tests
//	store    latest snapshot, read by the server to detect the first success
//	agent    background collection loop; call Shutdown on exit
func InitPromRegistry(ctx context.Context, enableRuntime bool, cfg *config.Config) (*prometheus.Registry, *metrics.Store, *Agent, error) {
	store := metrics.NewStore()
	promReg := metrics.NewRegistry(store, enableRuntime)
	factory := metrics.NewMetricFactory(promReg)

	a := New(store, factory.NewAgentMetrics(), cfg.MooseFS.Interval)
	registered, err := RegisterCollectors(a, Modules(cfg))
	if err != nil {
		logger.Error("failed to register collectors", zap.Error(err))
		return nil, nil, nil, err
	}
	logger.Debug("collector enable status",
		zap.Bool("moosefs_enable", true),
		zap.Bool("host_enable", cfg.Collectors.Host.Enable),
		zap.Int("registered", len(registered)))

	if err := a.Start(ctx); err != nil {
		return nil, nil, nil, err
	}
	return promReg, store, a, nil
}
