package moosefs

import (
	"bufio"
	"bytes"
	"strings"
)

// Stat is a numeric master statistic from the info section.
type Stat string

const (
	StatRAMUsed     Stat = "ram used"
	StatCPUTotal    Stat = "cpu used"
	StatCPUSystem   Stat = "cpu used (system)"
	StatCPUUser     Stat = "cpu used (user)"
	StatTotalSpace  Stat = "total space"
	StatFreeSpace   Stat = "free space"
	StatTrashSpace  Stat = "trash space"
	StatObjects     Stat = "all fs objects"
	StatDirectories Stat = "directories"
	StatFiles       Stat = "files"
	StatChunks      Stat = "chunks"
)

type statKind int

const (
	kindBytes statKind = iota
	kindPercent
	kindCount
)

// statAliases maps alternative mfscli labels onto a Stat.
var statAliases = map[string]Stat{
	"avail space": StatFreeSpace,
}

var statKinds = map[Stat]statKind{
	StatRAMUsed:     kindBytes,
	StatCPUTotal:    kindPercent,
	StatCPUSystem:   kindPercent,
	StatCPUUser:     kindPercent,
	StatTotalSpace:  kindBytes,
	StatFreeSpace:   kindBytes,
	StatTrashSpace:  kindBytes,
	StatObjects:     kindCount,
	StatDirectories: kindCount,
	StatFiles:       kindCount,
	StatChunks:      kindCount,
}

// MasterInfo is the parsed info section. Stats holds only the values
// present and parseable in the output; Skipped lists the others.
type MasterInfo struct {
	Version string
	Stats   map[Stat]float64
	Skipped map[Stat]error
}

// VersionNumber returns Version as major*1e6 + minor*1e3 + patch.
func (m *MasterInfo) VersionNumber() (float64, bool) {
	n, err := versionNumber(m.Version)
	return n, err == nil
}

// ParseMasterInfo reads "key : value" lines. Output without a single
// recognised key is malformed.
func ParseMasterInfo(out []byte) (*MasterInfo, error) {
	info := &MasterInfo{
		Stats:   make(map[Stat]float64),
		Skipped: make(map[Stat]error),
	}

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.Trim(scanner.Text(), " \t|"), ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.Join(strings.Fields(key), " "))
		value = strings.Trim(value, " \t|")

		if key == "master version" {
			if fields := strings.Fields(value); len(fields) > 0 {
				info.Version = fields[0]
			}
			continue
		}
		stat := Stat(key)
		if alias, ok := statAliases[key]; ok {
			stat = alias
		}
		kind, known := statKinds[stat]
		if !known {
			continue
		}
		v, err := parseStat(kind, value)
		if err != nil {
			info.Skipped[stat] = err
			continue
		}
		info.Stats[stat] = v
	}
	if err := scanner.Err(); err != nil {
		return nil, malformed(SectionInfo, "read output: %w", err)
	}
	if info.Version == "" && len(info.Stats) == 0 {
		return nil, malformed(SectionInfo, "no master statistics found")
	}
	return info, nil
}

func parseStat(kind statKind, value string) (float64, error) {
	switch kind {
	case kindPercent:
		return parsePercent(value)
	case kindBytes:
		return parseBytes(value)
	default:
		return parseBytes(value) // plain counts parse as a unitless byte size
	}
}
