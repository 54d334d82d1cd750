package playlist

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/brettbedarf/vostfs/config"
	"github.com/brettbedarf/vostfs/filesystem"
	"github.com/grafov/m3u8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeEpisodes(n int) []Episode {
	eps := make([]Episode, n)
	for i := range eps {
		eps[i] = NewEpisode(fmt.Sprintf("%d серия", i+1), fmt.Sprintf("http://cdn.example/%d.mp4", i+1))
	}
	return eps
}

func names(nodes []filesystem.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name()
	}
	return out
}

func episodesOf(t *testing.T, n filesystem.Node) []Episode {
	t.Helper()
	p, ok := n.(*Playlist)
	require.True(t, ok, "%s is not a playlist", n.Name())
	return p.Episodes()
}

func childrenOf(t *testing.T, n filesystem.Node) []filesystem.Node {
	t.Helper()
	b, ok := n.(filesystem.Branch)
	require.True(t, ok, "%s is not a directory", n.Name())
	children, err := b.Children(context.Background())
	require.NoError(t, err)
	return children
}

func TestBuilder_Chunked(t *testing.T) {
	t.Parallel()

	b := Builder{Limit: 100}
	assert.False(t, b.Chunked(100))
	assert.False(t, b.Chunked(120), "exactly limit*1.2 stays flat")
	assert.True(t, b.Chunked(121))
	assert.True(t, b.Chunked(250))

	b = Builder{Limit: 40}
	assert.False(t, b.Chunked(48))
	assert.True(t, b.Chunked(49))
}

func TestBuilder_AllChunked(t *testing.T) {
	t.Parallel()

	b := Builder{Group: config.GroupAll, Limit: 100, Purity: config.PuritySimple}
	nodes := b.Build(makeEpisodes(250))

	require.Len(t, nodes, 3)
	assert.Equal(t, []string{"001-100.m3u8", "101-200.m3u8", "201-250.m3u8"}, names(nodes))
	assert.Len(t, episodesOf(t, nodes[0]), 100)
	assert.Len(t, episodesOf(t, nodes[1]), 100)
	assert.Len(t, episodesOf(t, nodes[2]), 50)
	assert.Equal(t, "101 серия", episodesOf(t, nodes[1])[0].Title)
}

func TestBuilder_AllFlat(t *testing.T) {
	t.Parallel()

	b := Builder{Group: config.GroupAll, Limit: 100}
	nodes := b.Build(makeEpisodes(12))

	require.Len(t, nodes, 1)
	assert.Equal(t, "001-012.m3u8", nodes[0].Name())
	assert.Len(t, episodesOf(t, nodes[0]), 12)
}

func TestBuilder_EachToLastFlat(t *testing.T) {
	t.Parallel()

	b := Builder{Group: config.GroupEachToLast, Limit: 40}
	nodes := b.Build(makeEpisodes(5))

	require.Len(t, nodes, 5)
	assert.Equal(t, "1 серия - 5 серия.m3u8", nodes[0].Name())
	assert.Equal(t, "5 серия - 5 серия.m3u8", nodes[4].Name())
	assert.Len(t, episodesOf(t, nodes[0]), 5)
	assert.Len(t, episodesOf(t, nodes[2]), 3)

	last := episodesOf(t, nodes[4])
	require.Len(t, last, 1)
	assert.Equal(t, "5 серия", last[0].Title)
}

func TestBuilder_SingleFlat(t *testing.T) {
	t.Parallel()

	b := Builder{Group: config.GroupSingle, Limit: 40}
	nodes := b.Build(makeEpisodes(3))

	assert.Equal(t, []string{"1 серия.m3u8", "2 серия.m3u8", "3 серия.m3u8"}, names(nodes))
	for _, n := range nodes {
		assert.Len(t, episodesOf(t, n), 1)
	}
}

func TestBuilder_UntitledEpisodes(t *testing.T) {
	t.Parallel()

	eps := makeEpisodes(3)
	eps[1].Title = ""
	eps[2].Title = ""

	single := Builder{Group: config.GroupSingle, Limit: 40}.Build(eps)
	assert.Equal(t, []string{"1 серия.m3u8", "002.m3u8", "003.m3u8"}, names(single))

	toLast := Builder{Group: config.GroupEachToLast, Limit: 40}.Build(eps)
	assert.Equal(t, []string{"1 серия - 003.m3u8", "002 - 003.m3u8", "003 - 003.m3u8"}, names(toLast))
}

func TestBuilder_ChunkDirectories(t *testing.T) {
	t.Parallel()

	tests := []struct {
		group     config.GroupPolicy
		firstLeaf string
	}{
		{config.GroupSingle, "1 серия.m3u8"},
		{config.GroupEachToLast, "1 серия - 10 серия.m3u8"},
	}

	for _, tt := range tests {
		t.Run(string(tt.group), func(t *testing.T) {
			t.Parallel()
			b := Builder{Group: tt.group, Limit: 10}
			nodes := b.Build(makeEpisodes(25))

			assert.Equal(t, []string{"001-010", "011-020", "021-025"}, names(nodes))
			assert.True(t, nodes[0].Attr().IsDir())

			first := childrenOf(t, nodes[0])
			require.Len(t, first, 10)
			assert.Equal(t, tt.firstLeaf, first[0].Name())

			// each-to-last queues stop at the end of their chunk
			tail := childrenOf(t, nodes[2])
			require.Len(t, tail, 5)
			assert.Equal(t, "21 серия", episodesOf(t, tail[0])[0].Title)
			if tt.group == config.GroupEachToLast {
				assert.Equal(t, "21 серия - 25 серия.m3u8", tail[0].Name())
				assert.Len(t, episodesOf(t, tail[0]), 5)
			}
		})
	}
}

func TestBuilder_Empty(t *testing.T) {
	t.Parallel()

	for _, g := range config.GroupPolicies {
		assert.Empty(t, Builder{Group: g, Limit: 10}.Build(nil), "group %s", g)
	}
}

func TestBuilder_PurifiesNames(t *testing.T) {
	t.Parallel()

	eps := []Episode{NewEpisode("1 Кто/Что?", "http://x/1")}

	simple := Builder{Group: config.GroupSingle, Limit: 10, Purity: config.PuritySimple}.Build(eps)
	assert.Equal(t, "1 Кто╱Что?.m3u8", simple[0].Name())

	extra := Builder{Group: config.GroupSingle, Limit: 10, Purity: config.PurityExtra}.Build(eps)
	assert.Equal(t, "1 Kto╱Cto_.m3u8", extra[0].Name())

	// content keeps the raw title
	assert.Contains(t, string(extra[0].(*Playlist).Content()), "#EXTINF:-1, 1 Кто/Что?\n")
}

func TestRender(t *testing.T) {
	t.Parallel()

	eps := []Episode{
		NewEpisode("1 серия", "http://x/1.mp4"),
		NewEpisode("2 серия", ""),
		NewEpisode("3 серия", "http://x/3.mp4"),
	}
	want := "#EXTM3U\n" +
		"#EXTINF:-1, 1 серия\nhttp://x/1.mp4\n" + "\n" +
		"\n" + "\n" +
		"#EXTINF:-1, 3 серия\nhttp://x/3.mp4\n"
	assert.Equal(t, want, string(Render(eps)))
	assert.Equal(t, "#EXTM3U\n", string(Render(nil)))
}

func TestPlaylist_ParsesAsMediaPlaylist(t *testing.T) {
	t.Parallel()

	eps := makeEpisodes(4)
	eps[2].URL = ""
	p := New("001-004", eps)

	assert.Equal(t, "001-004.m3u8", p.Name())
	assert.Equal(t, uint64(len(p.Content())), p.Attr().Size)

	decoded, listType, err := m3u8.DecodeFrom(bytes.NewReader(p.Content()), false)
	require.NoError(t, err)
	require.Equal(t, m3u8.MEDIA, listType)
	media, ok := decoded.(*m3u8.MediaPlaylist)
	require.True(t, ok)
	assert.Equal(t, uint(3), media.Count(), "episodes without a URL are skipped by players")
	assert.Equal(t, "http://cdn.example/1.mp4", media.Segments[0].URI)
}
