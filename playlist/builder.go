package playlist

import (
	"fmt"

	"github.com/brettbedarf/vostfs/config"
	"github.com/brettbedarf/vostfs/filesystem"
	"github.com/brettbedarf/vostfs/internal/sanitize"
	"github.com/brettbedarf/vostfs/internal/util"
	"github.com/dustin/go-humanize"
)

// Builder turns a sorted episode list into playlist nodes
type Builder struct {
	Group  config.GroupPolicy
	Limit  int // episodes per chunk
	Purity config.Purity
}

// NewBuilder returns a Builder following cfg
func NewBuilder(cfg *config.Config) Builder {
	return Builder{Group: cfg.Group, Limit: cfg.Limit, Purity: cfg.Purity}
}

// Chunked reports whether total episodes are split into chunks of Limit.
// Splitting starts once total exceeds Limit by more than a fifth, so a series
// just over the limit stays in one listing.
func (b Builder) Chunked(total int) bool {
	return b.Limit > 0 && total*5 > b.Limit*6
}

// Build returns the nodes listed in a title directory for episodes, which
// must already be sorted.
func (b Builder) Build(episodes []Episode) []filesystem.Node {
	logger := util.GetLogger("Playlist.Build")

	total := len(episodes)
	if !b.Chunked(total) {
		nodes := b.playlists(episodes, 0)
		logger.Trace().Int("episodes", total).Int("nodes", len(nodes)).Msg("Built flat listing")
		return nodes
	}

	nodes := make([]filesystem.Node, 0, (total+b.Limit-1)/b.Limit)
	var size uint64
	for start := 0; start < total; start += b.Limit {
		end := min(start+b.Limit, total)
		chunk := episodes[start:end]
		name := rangeName(start, end)
		if b.Group == config.GroupAll {
			p := New(name, chunk)
			size += p.Attr().Size
			nodes = append(nodes, p)
			continue
		}
		nodes = append(nodes, filesystem.NewDir(name, b.playlists(chunk, start)...))
	}
	logger.Trace().
		Int("episodes", total).
		Int("chunks", len(nodes)).
		Str("size", humanize.Bytes(size)).
		Msg("Built chunked listing")
	return nodes
}

// playlists applies the grouping policy to one run of episodes. offset is the
// index of the run's first episode within the whole title.
func (b Builder) playlists(episodes []Episode, offset int) []filesystem.Node {
	if len(episodes) == 0 {
		return []filesystem.Node{}
	}
	switch b.Group {
	case config.GroupAll:
		return []filesystem.Node{New(rangeName(offset, offset+len(episodes)), episodes)}
	case config.GroupSingle:
		nodes := make([]filesystem.Node, len(episodes))
		for i, e := range episodes {
			nodes[i] = New(b.purify(label(e, offset+i)), episodes[i:i+1])
		}
		return nodes
	default:
		lastIdx := len(episodes) - 1
		last := label(episodes[lastIdx], offset+lastIdx)
		nodes := make([]filesystem.Node, len(episodes))
		for i, e := range episodes {
			nodes[i] = New(b.purify(fmt.Sprintf("%s - %s", label(e, offset+i), last)), episodes[i:])
		}
		return nodes
	}
}

func (b Builder) purify(name string) string {
	return sanitize.Name(b.Purity, name)
}

// label names an episode in file names, falling back to its 1-based position
// when the catalog sent no title
func label(e Episode, idx int) string {
	if e.Title == "" {
		return fmt.Sprintf("%03d", idx+1)
	}
	return e.Title
}

// rangeName names the run of episodes [start, end) by 1-based bounds
func rangeName(start, end int) string {
	return fmt.Sprintf("%03d-%03d", start+1, end)
}
