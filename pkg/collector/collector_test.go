package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/load"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfs-exporter/pkg/config"
	"github.com/mfs-exporter/pkg/metrics"
	"github.com/mfs-exporter/pkg/moosefs"
)

var _ Collector = (*MooseFSCollector)(nil)
var _ Collector = (*HostCollector)(nil)

const (
	infoOut = `master version : 3.0.116
RAM used : 1 GiB
CPU used : 5.00%
total space : 2 TiB
free space : 1 TiB
files : 42
`
	chunkServersOut = `192.168.1.10 9422 1 - 3.0.116 4 off - 100 10 GiB 100 GiB 10.00%
192.168.1.11 9422 2 hdd 3.0.116 8 on - 200 20 GiB 100 GiB 20.00%
`
	disksOut = `192.168.1.10:9422:/mnt/a/ 0 50 - ok 1 MiB/s 2 MiB/s
192.168.1.10:9422:/mnt/b/ 0 50 - ok 3 MiB/s 4 MiB/s
192.168.1.11:9422:/mnt/a/ 0 200 - ok 0 B/s 1 KiB/s
`
)

type stubRunner struct {
	outputs map[string]string
	fail    string
}

func (s stubRunner) Run(_ context.Context, args ...string) ([]byte, error) {
	section := args[len(args)-1]
	if section == s.fail {
		return nil, errors.New("connection refused")
	}
	return []byte(s.outputs[section]), nil
}

func newStubCollector(fail string) *MooseFSCollector {
	r := stubRunner{
		outputs: map[string]string{"-SIG": infoOut, "-SCS": chunkServersOut, "-SHD": disksOut},
		fail:    fail,
	}
	return NewMooseFSCollector(moosefs.NewClient(r, "master", 9421), "")
}

func find(t *testing.T, samples []metrics.Sample, name string, labels map[string]string) metrics.Sample {
	t.Helper()
	for _, s := range samples {
		if s.Name != name {
			continue
		}
		match := true
		for k, v := range labels {
			if s.Labels[k] != v {
				match = false
				break
			}
		}
		if match {
			return s
		}
	}
	t.Fatalf("sample %s%v not found", name, labels)
	return metrics.Sample{}
}

func count(samples []metrics.Sample, name string) int {
	n := 0
	for _, s := range samples {
		if s.Name == name {
			n++
		}
	}
	return n
}

func TestMooseFSCollector(t *testing.T) {
	c := newStubCollector("")
	require.NoError(t, c.Init())
	assert.Equal(t, "moosefs", c.Name())

	samples, err := c.Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, float64(3000116), find(t, samples, MasterVersion, nil).Value)
	assert.Equal(t, float64(1), find(t, samples, MasterInfo, map[string]string{"version": "3.0.116"}).Value)
	assert.Equal(t, float64(1<<30), find(t, samples, "moosefs_ram_used_bytes", nil).Value)
	assert.Equal(t, 5.0, find(t, samples, "moosefs_cpu_usage_percent", nil).Value)
	assert.Equal(t, float64(42), find(t, samples, "moosefs_files", nil).Value)
	assert.Zero(t, count(samples, "moosefs_trash_space_bytes"), "absent statistics are not reported")

	cs1 := map[string]string{"ip": "192.168.1.10", "server_id": "1"}
	assert.Equal(t, float64(100), find(t, samples, ChunkServerChunks, cs1).Value)
	assert.Equal(t, float64(10<<30), find(t, samples, ChunkServerUsedBytes, cs1).Value)
	assert.Equal(t, float64(100<<30), find(t, samples, ChunkServerTotalBytes, cs1).Value)
	assert.Equal(t, 10.0, find(t, samples, ChunkServerUsagePercent, cs1).Value)
	assert.Equal(t, float64(4), find(t, samples, ChunkServerLoad, cs1).Value)
	assert.Equal(t, float64(0), find(t, samples, ChunkServerMaintenance, cs1).Value)
	assert.Equal(t, float64(1), find(t, samples, ChunkServerMaintenance, map[string]string{"server_id": "2"}).Value)
	assert.Equal(t, "hdd", find(t, samples, ChunkServerInfo, map[string]string{"server_id": "2"}).Labels["labels"])

	assert.Equal(t, 2, count(samples, ChunkServerChunks), "one sample per chunk server")

	assert.Equal(t, float64(4<<20), find(t, samples, ChunkServerReadSpeed, map[string]string{"ip": "192.168.1.10"}).Value)
	assert.Equal(t, float64(6<<20), find(t, samples, ChunkServerWriteSpeed, map[string]string{"ip": "192.168.1.10"}).Value)
	assert.Equal(t, float64(1<<10), find(t, samples, ChunkServerWriteSpeed, map[string]string{"ip": "192.168.1.11"}).Value)
	assert.Equal(t, 2, count(samples, ChunkServerReadSpeed))

	assert.Equal(t, float64(3<<20), find(t, samples, DiskReadSpeed, map[string]string{"ip": "192.168.1.10", "path": "/mnt/b/"}).Value)
	assert.Equal(t, 3, count(samples, DiskWriteSpeed))

	snap, err := metrics.NewSnapshot(samples, time.Now())
	require.NoError(t, err, "samples must form a consistent snapshot")
	assert.Equal(t, len(samples), snap.Len())

	require.NoError(t, c.Close())
}

func TestDiskRatesPerChunkServerProcess(t *testing.T) {
	samples := diskSamples([]moosefs.Disk{
		{IP: "10.0.0.1", Port: "9422", Path: "/mnt/a/", ReadBytes: 1, WriteBytes: 2},
		{IP: "10.0.0.1", Port: "9522", Path: "/mnt/a/", ReadBytes: 10, WriteBytes: 20},
		{IP: "10.0.0.1", Port: "9422", Path: "/mnt/b/", ReadBytes: 3, WriteBytes: 4},
	})

	assert.Equal(t, 2, count(samples, ChunkServerReadSpeed))
	assert.Equal(t, 4.0, find(t, samples, ChunkServerReadSpeed, map[string]string{"ip": "10.0.0.1", "port": "9422"}).Value)
	assert.Equal(t, 20.0, find(t, samples, ChunkServerWriteSpeed, map[string]string{"ip": "10.0.0.1", "port": "9522"}).Value)
	assert.Equal(t, 3, count(samples, DiskReadSpeed))

	_, err := metrics.NewSnapshot(samples, time.Now())
	require.NoError(t, err)
}

func TestMooseFSCollectorFailsWholeCycle(t *testing.T) {
	for _, section := range []string{"-SIG", "-SCS", "-SHD"} {
		t.Run(section, func(t *testing.T) {
			samples, err := newStubCollector(section).Collect(context.Background())
			require.Error(t, err)
			assert.Nil(t, samples)
			assert.ErrorIs(t, err, moosefs.ErrUnreachable)
		})
	}
}

func TestHostCollector(t *testing.T) {
	c := NewHostCollector(config.HostCollectorConfig{Enable: true, PerCore: true})
	c.percent = func(context.Context, bool) ([]float64, error) { return []float64{10, 30}, nil }
	c.avg = func(context.Context) (*load.AvgStat, error) {
		return &load.AvgStat{Load1: 1, Load5: 0.5, Load15: 0.25}, nil
	}

	samples, err := c.Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0.5, find(t, samples, HostLoad, map[string]string{"period": "5m"}).Value)
	assert.Equal(t, 30.0, find(t, samples, HostCPUUsage, map[string]string{"cpu": "cpu1"}).Value)
	assert.Len(t, samples, 5)
}

func TestHostCollectorTotal(t *testing.T) {
	c := NewHostCollector(config.HostCollectorConfig{Enable: true})
	c.percent = func(_ context.Context, perCPU bool) ([]float64, error) {
		assert.False(t, perCPU)
		return []float64{12.5}, nil
	}
	c.avg = func(context.Context) (*load.AvgStat, error) { return &load.AvgStat{}, nil }

	samples, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12.5, find(t, samples, HostCPUUsage, map[string]string{"cpu": "total"}).Value)
}

func TestHostCollectorError(t *testing.T) {
	c := NewHostCollector(config.HostCollectorConfig{Enable: true})
	c.percent = func(context.Context, bool) ([]float64, error) { return []float64{1}, nil }
	c.avg = func(context.Context) (*load.AvgStat, error) { return nil, errors.New("not supported") }

	_, err := c.Collect(context.Background())
	assert.ErrorContains(t, err, "load average")
}
