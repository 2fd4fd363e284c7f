package util

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "mfs", "cyan")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Greater(t, len(lines), 1)
	for _, l := range lines {
		assert.True(t, strings.HasPrefix(l, ColorCyan))
		assert.True(t, strings.HasSuffix(l, ColorReset))
	}
}

func TestColorCodeFallback(t *testing.T) {
	assert.Equal(t, ColorReset, colorCode("purple"))
}
