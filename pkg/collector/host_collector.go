package collector

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/load"
	"go.uber.org/zap"

	"github.com/mfs-exporter/pkg/config"
	"github.com/mfs-exporter/pkg/logger"
	"github.com/mfs-exporter/pkg/metrics"
)

const (
	HostLoad         = "mfs_exporter_host_load"
	HostCPUUsage     = "mfs_exporter_host_cpu_usage_percent"
	hostLoadHelp     = "Load average of the exporter host."
	hostCPUUsageHelp = "CPU usage of the exporter host."
)

// HostCollector reports load averages and CPU usage of the host the
// exporter runs on, usually the MooseFS master itself.
type HostCollector struct {
	name    string
	cfg     config.HostCollectorConfig
	percent func(ctx context.Context, perCPU bool) ([]float64, error)
	avg     func(ctx context.Context) (*load.AvgStat, error)
}

func NewHostCollector(cfg config.HostCollectorConfig) *HostCollector {
	return &HostCollector{
		name: "host",
		cfg:  cfg,
		percent: func(ctx context.Context, perCPU bool) ([]float64, error) {
			return cpu.PercentWithContext(ctx, 0, perCPU)
		},
		avg: load.AvgWithContext,
	}
}

func (c *HostCollector) Name() string { return c.name }

// Init checks that CPU statistics are readable and primes the CPU usage
// baseline so the first cycle reports usage since Init.
func (c *HostCollector) Init() error {
	if _, err := cpu.Counts(false); err != nil {
		logger.Error("failed to get CPU counts", zap.Error(err))
		return err
	}
	_, _ = c.percent(context.Background(), c.cfg.PerCore)
	return nil
}

func (c *HostCollector) Collect(ctx context.Context) ([]metrics.Sample, error) {
	usage, err := c.percent(ctx, c.cfg.PerCore)
	if err != nil {
		return nil, fmt.Errorf("get cpu usage failed: %w", err)
	}
	if len(usage) == 0 {
		return nil, fmt.Errorf("get cpu usage failed: no cpu reported")
	}

	avg, err := c.avg(ctx)
	if err != nil {
		return nil, fmt.Errorf("get load average failed: %w", err)
	}

	samples := []metrics.Sample{
		metrics.NewGauge(HostLoad, hostLoadHelp, avg.Load1, "period", "1m"),
		metrics.NewGauge(HostLoad, hostLoadHelp, avg.Load5, "period", "5m"),
		metrics.NewGauge(HostLoad, hostLoadHelp, avg.Load15, "period", "15m"),
	}
	if c.cfg.PerCore {
		for i, u := range usage {
			samples = append(samples, metrics.NewGauge(HostCPUUsage, hostCPUUsageHelp, u, "cpu", fmt.Sprintf("cpu%d", i)))
		}
	} else {
		samples = append(samples, metrics.NewGauge(HostCPUUsage, hostCPUUsageHelp, usage[0], "cpu", "total"))
	}

	logger.Debug("collected host metrics", zap.String("name", c.name), zap.Float64("load1", avg.Load1))
	return samples, nil
}

func (c *HostCollector) Close() error { return nil }
