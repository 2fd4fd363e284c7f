package moosefs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Runner executes one mfscli invocation and returns its standard output.
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

// CLIRunner runs the mfscli binary found at Path.
type CLIRunner struct {
	Path    string
	Timeout time.Duration
}

func NewCLIRunner(path string, timeout time.Duration) *CLIRunner {
	return &CLIRunner{Path: path, Timeout: timeout}
}

// Run executes mfscli with a per-call timeout. A non-zero exit status is an
// error carrying the trimmed stderr.
func (r *CLIRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.Path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s %s timed out after %s", r.Path, strings.Join(args, " "), r.Timeout)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s %s: %w: %s", r.Path, strings.Join(args, " "), err, msg)
		}
		return nil, fmt.Errorf("%s %s: %w", r.Path, strings.Join(args, " "), err)
	}
	return stdout.Bytes(), nil
}
