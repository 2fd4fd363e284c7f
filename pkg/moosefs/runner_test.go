package moosefs

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	path := filepath.Join(t.TempDir(), "mfscli")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestCLIRunnerPassesArguments(t *testing.T) {
	r := NewCLIRunner(writeScript(t, `echo "$@"`), time.Second)

	out, err := r.Run(context.Background(), "-H", "master", "-P", "9421", "-SIG")
	require.NoError(t, err)
	assert.Equal(t, "-H master -P 9421 -SIG\n", string(out))
}

func TestCLIRunnerReportsStderr(t *testing.T) {
	r := NewCLIRunner(writeScript(t, `echo "can't connect to master" >&2; exit 1`), time.Second)

	_, err := r.Run(context.Background(), "-SCS")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "can't connect to master")
}

func TestCLIRunnerTimeout(t *testing.T) {
	r := NewCLIRunner(writeScript(t, `exec sleep 5`), 50*time.Millisecond)

	start := time.Now()
	_, err := r.Run(context.Background(), "-SHD")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestCLIRunnerMissingBinary(t *testing.T) {
	r := NewCLIRunner(filepath.Join(t.TempDir(), "does-not-exist"), time.Second)

	_, err := r.Run(context.Background(), "-SIG")
	assert.Error(t, err)
}
