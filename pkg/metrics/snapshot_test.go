package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSnapshotOrderAndDedup(t *testing.T) {
	samples := []Sample{
		NewGauge("moosefs_chunkserver_chunks", "chunks", 10, "ip", "10.0.0.1", "server_id", "1"),
		NewGauge("moosefs_files", "files", 5),
		NewGauge("moosefs_chunkserver_chunks", "chunks", 20, "ip", "10.0.0.2", "server_id", "2"),
		NewGauge("moosefs_chunkserver_chunks", "chunks", 11, "server_id", "1", "ip", "10.0.0.1"),
	}

	snap, err := NewSnapshot(samples, time.Unix(100, 0))
	require.NoError(t, err)

	assert.Equal(t, 3, snap.Len())
	assert.Equal(t, time.Unix(100, 0), snap.CollectedAt())

	got := snap.Samples()
	require.Len(t, got, 3)
	assert.Equal(t, "moosefs_chunkserver_chunks", got[0].Name)
	assert.Equal(t, 11.0, got[0].Value, "repeated series keeps the last value")
	assert.Equal(t, "10.0.0.2", got[1].Labels["ip"], "family samples stay together")
	assert.Equal(t, "moosefs_files", got[2].Name)
}

func TestNewSnapshotRejectsInconsistentFamilies(t *testing.T) {
	cases := map[string][]Sample{
		"type conflict": {
			NewGauge("m", "h", 1),
			NewCounter("m", "h", 1),
		},
		"label conflict": {
			NewGauge("m", "h", 1, "ip", "a"),
			NewGauge("m", "h", 1, "host", "a"),
		},
		"missing name": {
			{Type: Gauge},
		},
		"unknown type": {
			{Name: "m", Type: "histogram"},
		},
	}

	for name, samples := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewSnapshot(samples, time.Now())
			assert.Error(t, err)
		})
	}
}

func TestNewSnapshotRejectsInvalidNamesAndValues(t *testing.T) {
	cases := map[string]Sample{
		"metric name":  NewGauge("moosefs-files", "h", 1),
		"label name":   NewGauge("moosefs_disk_used_bytes", "h", 1, "bad-label", "a"),
		"label value":  NewGauge("moosefs_disk_used_bytes", "h", 1, "path", "/mnt/\xff"),
		"reserved key": NewGauge("moosefs_disk_used_bytes", "h", 1, "__name__", "x"),
	}

	for name, bad := range cases {
		t.Run(name, func(t *testing.T) {
			samples := []Sample{NewGauge("moosefs_files", "files", 5), bad}
			snap, err := NewSnapshot(samples, time.Now())
			assert.Error(t, err)
			assert.Nil(t, snap)
		})
	}

	_, err := NewSnapshot([]Sample{NewGauge("moosefs_disk_used_bytes", "h", 1, "path", "/mnt/hd1 ü")}, time.Now())
	assert.NoError(t, err)
}

func TestSnapshotIsImmutable(t *testing.T) {
	in := []Sample{NewGauge("m", "h", 1, "ip", "a")}
	snap, err := NewSnapshot(in, time.Now())
	require.NoError(t, err)

	in[0].Labels["ip"] = "changed"
	out := snap.Samples()
	out[0].Labels["ip"] = "changed again"

	assert.Equal(t, "a", snap.Samples()[0].Labels["ip"])
}

func TestNewSampleOddLabels(t *testing.T) {
	assert.Panics(t, func() { NewGauge("m", "h", 1, "ip") })
}

func TestStoreReplace(t *testing.T) {
	s := NewStore()
	assert.Nil(t, s.Load())

	first, err := NewSnapshot([]Sample{NewGauge("m", "h", 1)}, time.Now())
	require.NoError(t, err)
	s.Replace(first)
	assert.Same(t, first, s.Load())

	s.Replace(nil)
	assert.Same(t, first, s.Load(), "nil never clears a published snapshot")
}
