package moosefs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// parseBytes parses sizes as printed by mfscli ("1.5 GiB", "300MiB", "0 B").
func parseBytes(s string) (float64, error) {
	v, err := humanize.ParseBigBytes(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	f, _ := v.Float64()
	return f, nil
}

// parseRate parses throughput such as "12.5 MiB/s" into bytes per second.
func parseRate(s string) (float64, error) {
	return parseBytes(strings.TrimSuffix(strings.TrimSpace(s), "/s"))
}

func parsePercent(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
}

// versionNumber encodes "major.minor.patch" as major*1e6 + minor*1e3 + patch.
func versionNumber(version string) (float64, error) {
	core, _, _ := strings.Cut(version, "-")
	parts := strings.Split(core, ".")
	if len(parts) != 3 {
		return 0, fmt.Errorf("version %q is not major.minor.patch", version)
	}
	var n float64
	for _, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 || v > 999 {
			return 0, fmt.Errorf("version %q: bad component %q", version, p)
		}
		n = n*1000 + float64(v)
	}
	return n, nil
}
