package moosefs

import (
	"bufio"
	"bytes"
	"regexp"
	"strconv"
	"strings"
)

// ChunkServer is one row of the chunk server section.
type ChunkServer struct {
	IP          string
	Port        int
	ID          string
	Labels      string
	Version     string
	Load        float64
	Maintenance string
	State       string
	Chunks      float64
	UsedBytes   float64
	TotalBytes  float64
	UsedPercent float64
}

// InMaintenance reports whether the server is not in normal operation.
func (cs ChunkServer) InMaintenance() bool {
	return cs.Maintenance != "" && !strings.EqualFold(cs.Maintenance, "off") && cs.Maintenance != "-"
}

var (
	ipv4Prefix = regexp.MustCompile(`^\s*\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)

	// ip port id labels version load maintenance state chunks used total used%
	chunkServerRow = regexp.MustCompile(`^\s*(\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})\s+(\d+)\s+(\d+)\s+(\S+)\s+(\d+\.\d+\.\d+)\S*\s+(\d+)\s+(\S+)\s+(\S+)\s+(\d+)\s+([\d.]+\s*[kKMGTPE]?i?B)\s+([\d.]+\s*[kKMGTPE]?i?B)\s+([\d.]+)%`)
)

// ParseChunkServers parses the chunk server section. Header and separator
// lines are ignored; a row that starts with an IPv4 address but does not
// match the expected columns is malformed. An empty table is valid.
func ParseChunkServers(out []byte) ([]ChunkServer, error) {
	var servers []ChunkServer

	scanner := bufio.NewScanner(bytes.NewReader(out))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.ReplaceAll(strings.Trim(scanner.Text(), " \t|"), "|", " ")
		if !ipv4Prefix.MatchString(line) {
			continue
		}
		m := chunkServerRow.FindStringSubmatch(line)
		if m == nil {
			return nil, malformed(SectionChunkServers, "line %d: unexpected row %q", lineNo, line)
		}
		cs, err := chunkServerFromMatch(m)
		if err != nil {
			return nil, malformed(SectionChunkServers, "line %d: %w", lineNo, err)
		}
		servers = append(servers, cs)
	}
	if err := scanner.Err(); err != nil {
		return nil, malformed(SectionChunkServers, "read output: %w", err)
	}
	return servers, nil
}

func chunkServerFromMatch(m []string) (ChunkServer, error) {
	cs := ChunkServer{
		IP:          m[1],
		ID:          m[3],
		Labels:      m[4],
		Version:     m[5],
		Maintenance: m[7],
		State:       m[8],
	}
	var err error
	if cs.Port, err = strconv.Atoi(m[2]); err != nil {
		return cs, err
	}
	if cs.Load, err = strconv.ParseFloat(m[6], 64); err != nil {
		return cs, err
	}
	if cs.Chunks, err = strconv.ParseFloat(m[9], 64); err != nil {
		return cs, err
	}
	if cs.UsedBytes, err = parseBytes(m[10]); err != nil {
		return cs, err
	}
	if cs.TotalBytes, err = parseBytes(m[11]); err != nil {
		return cs, err
	}
	if cs.UsedPercent, err = parsePercent(m[12]); err != nil {
		return cs, err
	}
	return cs, nil
}
