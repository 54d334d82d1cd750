package playlist

import (
	"strings"
	"time"

	"github.com/brettbedarf/vostfs/filesystem"
)

const (
	Extension = ".m3u8"
	header    = "#EXTM3U\n"
)

// Playlist is a Leaf rendering an ordered run of episodes
type Playlist struct {
	name     string
	episodes []Episode
	content  []byte
	created  time.Time
}

// New renders episodes into a playlist file called name + [Extension]. The
// name is used as given and must already be purified.
func New(name string, episodes []Episode) *Playlist {
	return &Playlist{
		name:     name + Extension,
		episodes: episodes,
		content:  Render(episodes),
		created:  time.Now(),
	}
}

func (p *Playlist) Name() string { return p.name }

func (p *Playlist) Attr() filesystem.Attributes {
	return filesystem.FileAttributes(len(p.content), p.created)
}

func (p *Playlist) Content() []byte { return p.content }

// Episodes returns the episodes in playback order
func (p *Playlist) Episodes() []Episode { return p.episodes }

// Render returns the m3u8 document for episodes
func Render(episodes []Episode) []byte {
	entries := make([]string, len(episodes))
	for i, e := range episodes {
		entries[i] = e.entry()
	}
	return []byte(header + strings.Join(entries, "\n"))
}
