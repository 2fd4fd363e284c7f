package collector

import (
	"context"
	"fmt"
	"os/exec"

	"go.uber.org/zap"

	"github.com/mfs-exporter/pkg/logger"
	"github.com/mfs-exporter/pkg/metrics"
	"github.com/mfs-exporter/pkg/moosefs"
)

// MooseFS metric families.
const (
	MasterInfo    = "moosefs_master_info"
	MasterVersion = "moosefs_master_version"

	ChunkServerChunks       = "moosefs_chunkserver_chunks"
	ChunkServerUsedBytes    = "moosefs_chunkserver_disk_used_bytes"
	ChunkServerTotalBytes   = "moosefs_chunkserver_disk_total_bytes"
	ChunkServerUsagePercent = "moosefs_chunkserver_disk_usage_percent"
	ChunkServerLoad         = "moosefs_chunkserver_load"
	ChunkServerMaintenance  = "moosefs_chunkserver_maintenance"
	ChunkServerInfo         = "moosefs_chunkserver_info"
	ChunkServerReadSpeed    = "moosefs_chunkserver_read_speed_bytes_per_second"
	ChunkServerWriteSpeed   = "moosefs_chunkserver_write_speed_bytes_per_second"

	DiskReadSpeed  = "moosefs_disk_read_speed_bytes_per_second"
	DiskWriteSpeed = "moosefs_disk_write_speed_bytes_per_second"
)

type masterStat struct {
	stat moosefs.Stat
	name string
	help string
}

// masterStats fixes the exposition order of the master gauges.
var masterStats = []masterStat{
	{moosefs.StatRAMUsed, "moosefs_ram_used_bytes", "RAM used by the MooseFS master."},
	{moosefs.StatCPUTotal, "moosefs_cpu_usage_percent", "Total CPU usage of the MooseFS master."},
	{moosefs.StatCPUSystem, "moosefs_cpu_system_percent", "System CPU usage of the MooseFS master."},
	{moosefs.StatCPUUser, "moosefs_cpu_user_percent", "User CPU usage of the MooseFS master."},
	{moosefs.StatTotalSpace, "moosefs_total_space_bytes", "Total storage space."},
	{moosefs.StatFreeSpace, "moosefs_free_space_bytes", "Free storage space."},
	{moosefs.StatTrashSpace, "moosefs_trash_space_bytes", "Space used by trash."},
	{moosefs.StatObjects, "moosefs_total_objects", "Total filesystem objects."},
	{moosefs.StatDirectories, "moosefs_directories", "Number of directories."},
	{moosefs.StatFiles, "moosefs_files", "Number of files."},
	{moosefs.StatChunks, "moosefs_chunks", "Number of chunks."},
}

// MooseFSCollector queries the master info, chunk server and disk sections
// and turns them into samples. Any failing section fails the whole cycle.
type MooseFSCollector struct {
	name    string
	client  *moosefs.Client
	cliPath string
}

// NewMooseFSCollector creates the collector. cliPath is only used by Init
// to warn early when mfscli cannot be found.
func NewMooseFSCollector(client *moosefs.Client, cliPath string) *MooseFSCollector {
	return &MooseFSCollector{
		name:    "moosefs",
		client:  client,
		cliPath: cliPath,
	}
}

func (c *MooseFSCollector) Name() string { return c.name }

// Init never fails: a missing mfscli or master shows up as failed cycles.
func (c *MooseFSCollector) Init() error {
	if c.cliPath == "" {
		return nil
	}
	if _, err := exec.LookPath(c.cliPath); err != nil {
		logger.Warn("mfscli not found, collections will fail until it is installed",
			zap.String("name", c.name), zap.String("mfscli", c.cliPath), zap.Error(err))
	}
	return nil
}

func (c *MooseFSCollector) Collect(ctx context.Context) ([]metrics.Sample, error) {
	logger.Debug("collect moosefs status", zap.String("name", c.name), zap.String("master", c.client.Host()))

	info, err := c.client.MasterInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect master info: %w", err)
	}
	servers, err := c.client.ChunkServers(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect chunk servers: %w", err)
	}
	disks, err := c.client.Disks(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect disks: %w", err)
	}

	samples := masterSamples(info)
	samples = append(samples, chunkServerSamples(servers)...)
	samples = append(samples, diskSamples(disks)...)

	logger.Debug("collected moosefs status", zap.String("name", c.name),
		zap.Int("chunkservers", len(servers)),
		zap.Int("disks", len(disks)),
		zap.Int("samples", len(samples)))
	return samples, nil
}

func (c *MooseFSCollector) Close() error { return nil }

func masterSamples(info *moosefs.MasterInfo) []metrics.Sample {
	var samples []metrics.Sample

	if info.Version != "" {
		samples = append(samples, metrics.NewGauge(MasterInfo, "MooseFS master version string.", 1, "version", info.Version))
		if n, ok := info.VersionNumber(); ok {
			samples = append(samples, metrics.NewGauge(MasterVersion, "MooseFS master version as major*1e6+minor*1e3+patch.", n))
		} else {
			logger.Warn("unparseable master version", zap.String("version", info.Version))
		}
	}

	for _, s := range masterStats {
		if v, ok := info.Stats[s.stat]; ok {
			samples = append(samples, metrics.NewGauge(s.name, s.help, v))
		}
	}
	for stat, err := range info.Skipped {
		logger.Warn("skipped master statistic", zap.String("stat", string(stat)), zap.Error(err))
	}
	return samples
}

func chunkServerSamples(servers []moosefs.ChunkServer) []metrics.Sample {
	samples := make([]metrics.Sample, 0, len(servers)*7)
	for _, cs := range servers {
		labels := []string{"ip", cs.IP, "server_id", cs.ID}
		maintenance := 0.0
		if cs.InMaintenance() {
			maintenance = 1
		}
		samples = append(samples,
			metrics.NewGauge(ChunkServerChunks, "Number of chunks per chunkserver.", cs.Chunks, labels...),
			metrics.NewGauge(ChunkServerUsedBytes, "Used disk space per chunkserver.", cs.UsedBytes, labels...),
			metrics.NewGauge(ChunkServerTotalBytes, "Total disk space per chunkserver.", cs.TotalBytes, labels...),
			metrics.NewGauge(ChunkServerUsagePercent, "Disk usage percentage per chunkserver.", cs.UsedPercent, labels...),
			metrics.NewGauge(ChunkServerLoad, "Current load reported by the chunkserver.", cs.Load, labels...),
			metrics.NewGauge(ChunkServerMaintenance, "Whether the chunkserver is in maintenance mode.", maintenance, labels...),
			metrics.NewGauge(ChunkServerInfo, "Chunkserver version and labels.", 1, append(labels, "version", cs.Version, "labels", cs.Labels)...),
		)
	}
	return samples
}

func diskSamples(disks []moosefs.Disk) []metrics.Sample {
	type server struct{ ip, port string }
	type rates struct{ read, write float64 }
	var servers []server
	perServer := make(map[server]*rates)

	samples := make([]metrics.Sample, 0, len(disks)*2)
	for _, d := range disks {
		labels := []string{"ip", d.IP, "port", d.Port, "path", d.Path}
		samples = append(samples,
			metrics.NewGauge(DiskReadSpeed, "Read speed per disk.", d.ReadBytes, labels...),
			metrics.NewGauge(DiskWriteSpeed, "Write speed per disk.", d.WriteBytes, labels...),
		)

		key := server{ip: d.IP, port: d.Port}
		r, ok := perServer[key]
		if !ok {
			r = &rates{}
			perServer[key] = r
			servers = append(servers, key)
		}
		r.read += d.ReadBytes
		r.write += d.WriteBytes
	}

	// one sample per chunk server process, even with several on one host
	for _, cs := range servers {
		r := perServer[cs]
		samples = append(samples,
			metrics.NewGauge(ChunkServerReadSpeed, "Read speed per chunkserver, summed over its disks.", r.read, "ip", cs.ip, "port", cs.port),
			metrics.NewGauge(ChunkServerWriteSpeed, "Write speed per chunkserver, summed over its disks.", r.write, "ip", cs.ip, "port", cs.port),
		)
	}
	return samples
}
