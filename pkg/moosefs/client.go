package moosefs

import (
	"bytes"
	"context"
	"errors"
	"strconv"
)

// Section is an mfscli status section, passed as -S<section>.
type Section string

const (
	SectionInfo         Section = "IG"
	SectionChunkServers Section = "CS"
	SectionDisks        Section = "HD"
)

var sectionNames = map[Section]string{
	SectionInfo:         "info",
	SectionChunkServers: "chunkservers",
	SectionDisks:        "disks",
}

func (s Section) String() string {
	if name, ok := sectionNames[s]; ok {
		return name
	}
	return string(s)
}

// Client queries one MooseFS master through a Runner.
type Client struct {
	runner Runner
	host   string
	port   int
}

func NewClient(runner Runner, host string, port int) *Client {
	return &Client{runner: runner, host: host, port: port}
}

// Host returns the master address the client queries.
func (c *Client) Host() string { return c.host }

func (c *Client) query(ctx context.Context, section Section) ([]byte, error) {
	out, err := c.runner.Run(ctx, "-H", c.host, "-P", strconv.Itoa(c.port), "-S"+string(section))
	if err != nil {
		return nil, unreachable(section, err)
	}
	if len(bytes.TrimSpace(out)) == 0 {
		return nil, malformed(section, "empty output")
	}
	return out, nil
}

// MasterInfo runs the info section and parses it.
func (c *Client) MasterInfo(ctx context.Context) (*MasterInfo, error) {
	out, err := c.query(ctx, SectionInfo)
	if err != nil {
		return nil, err
	}
	return ParseMasterInfo(out)
}

// ChunkServers runs the chunk server section and parses it.
func (c *Client) ChunkServers(ctx context.Context) ([]ChunkServer, error) {
	out, err := c.query(ctx, SectionChunkServers)
	if err != nil {
		return nil, err
	}
	return ParseChunkServers(out)
}

// Disks runs the disk section and parses it.
func (c *Client) Disks(ctx context.Context) ([]Disk, error) {
	out, err := c.query(ctx, SectionDisks)
	if err != nil {
		return nil, err
	}
	return ParseDisks(out)
}

// IsCollectionError reports whether err carries a *CollectionError.
func IsCollectionError(err error) bool {
	var ce *CollectionError
	return errors.As(err, &ce)
}
