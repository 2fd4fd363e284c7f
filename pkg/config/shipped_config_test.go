package config

import (
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShippedConfigFile(t *testing.T) {
	_, self, _, ok := runtime.Caller(0)
	require.True(t, ok)
	file := filepath.Join(filepath.Dir(self), "..", "..", "configs", "config.yaml")

	cfg, _, err := LoadConfigWithCli(testCommand(t, "-c", file))
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.MooseFS.Interval)
	assert.Equal(t, "0.0.0.0:9841", cfg.Server.Addr())
}
