package moosefs

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"
)

// Disk is one row of the disk section with its current throughput.
type Disk struct {
	IP         string
	Port       string
	Path       string
	ReadBytes  float64
	WriteBytes float64
}

var (
	diskEndpoint = regexp.MustCompile(`^\s*(\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}):(\d+):(\S+)`)
	rateToken    = regexp.MustCompile(`([\d.]+)\s*([kKMGTPE]?i?B)/s`)
)

// ParseDisks parses the disk section. The last two rate columns of a row
// are its read and write throughput; rows without them are skipped.
func ParseDisks(out []byte) ([]Disk, error) {
	var disks []Disk

	scanner := bufio.NewScanner(bytes.NewReader(out))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.ReplaceAll(strings.Trim(scanner.Text(), " \t|"), "|", " ")
		m := diskEndpoint.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		rates := rateToken.FindAllStringSubmatch(line[len(m[0]):], -1)
		if len(rates) < 2 {
			continue
		}
		read, err := parseRate(rates[len(rates)-2][0])
		if err != nil {
			return nil, malformed(SectionDisks, "line %d: read rate: %w", lineNo, err)
		}
		write, err := parseRate(rates[len(rates)-1][0])
		if err != nil {
			return nil, malformed(SectionDisks, "line %d: write rate: %w", lineNo, err)
		}
		disks = append(disks, Disk{
			IP:         m[1],
			Port:       m[2],
			Path:       strings.TrimRight(m[3], ":"),
			ReadBytes:  read,
			WriteBytes: write,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, malformed(SectionDisks, "read output: %w", err)
	}
	return disks, nil
}
