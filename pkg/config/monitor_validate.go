package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

const (
	minInterval = time.Second
	maxInterval = time.Hour
)

// Validate HTTP listener configuration.
func (s *ServerConfig) Validate() error {
	if err := valid.Struct(s); err != nil {
		return err
	}
	if _, err := net.ResolveTCPAddr("tcp", s.Addr()); err != nil {
		return fmt.Errorf("server address invalid (expected host:port), got %s: %w", s.Addr(), err)
	}
	return nil
}

// Validate MooseFS master connection settings.
func (m *MooseFSConfig) Validate() error {
	if err := valid.Struct(m); err != nil {
		return err
	}
	if strings.TrimSpace(m.Host) == "" {
		return errors.New("moosefs.host cannot be empty")
	}
	if m.Interval < minInterval || m.Interval > maxInterval {
		return fmt.Errorf("moosefs.interval must be between %s and %s, got %s", minInterval, maxInterval, m.Interval)
	}
	if strings.ContainsAny(m.CLIPath, "\t\r\n") {
		return fmt.Errorf("moosefs.mfscli %q contains whitespace control characters", m.CLIPath)
	}
	return nil
}
