package catalog

import (
	"context"
	"fmt"

	"github.com/brettbedarf/vostfs"
	"github.com/brettbedarf/vostfs/config"
	"github.com/brettbedarf/vostfs/filesystem"
	"github.com/brettbedarf/vostfs/internal/cache"
	"github.com/brettbedarf/vostfs/internal/util"
	"github.com/brettbedarf/vostfs/playlist"
	"golang.org/x/sync/errgroup"
)

// Title lists the playlists of one catalog title
type Title struct {
	filesystem.DirBase
	deps *Deps
	id   int
	cell *cache.Cell[[]filesystem.Node]
}

func NewTitle(d *Deps, name string, id int) *Title {
	return &Title{
		DirBase: filesystem.NewDirBase(name),
		deps:    d,
		id:      id,
		cell:    newCell[[]filesystem.Node](d, d.Cfg.ListingTTL),
	}
}

func (t *Title) ID() int { return t.id }

func (t *Title) Children(ctx context.Context) ([]filesystem.Node, error) {
	return t.cell.Get(ctx, t.fetch)
}

func (t *Title) fetch(ctx context.Context) ([]filesystem.Node, error) {
	logger := util.GetLogger("Catalog.Title")

	records, err := t.deps.Catalog.Playlist(ctx, t.id)
	if err != nil {
		return nil, fmt.Errorf("title %d: %w", t.id, err)
	}
	episodes, err := t.episodes(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("title %d: %w", t.id, err)
	}
	playlist.Sort(episodes)

	missing := 0
	for _, e := range episodes {
		if e.URL == "" {
			missing++
		}
	}
	if missing > 0 {
		logger.Warn().Int("id", t.id).Int("missing", missing).Msg("Episodes without a reachable stream")
	}
	logger.Debug().Int("id", t.id).Int("episodes", len(episodes)).Msg("Fetched title")
	return playlist.NewBuilder(t.deps.Cfg).Build(episodes), nil
}

// episodes resolves a stream URL for every record, probing records concurrently
func (t *Title) episodes(ctx context.Context, records []vostfs.EpisodeRecord) ([]playlist.Episode, error) {
	episodes := make([]playlist.Episode, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.deps.Cfg.ProbeConcurrency)
	for i, rec := range records {
		g.Go(func() error {
			episodes[i] = playlist.NewEpisode(rec.Name, StreamURL(gctx, t.deps.Prober, t.deps.Cfg.Quality, rec))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// a cancelled probe reads as unreachable; do not cache that
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return episodes, nil
}

// QualityOrder returns preferred followed by the remaining known qualities
func QualityOrder(preferred config.Quality) []config.Quality {
	order := []config.Quality{preferred}
	for _, q := range config.KnownQualities {
		if q != preferred {
			order = append(order, q)
		}
	}
	return order
}

// StreamURL returns the first reachable URL of rec in [QualityOrder], or ""
// when none answers
func StreamURL(ctx context.Context, prober vostfs.Prober, preferred config.Quality, rec vostfs.EpisodeRecord) string {
	for _, q := range QualityOrder(preferred) {
		url, ok := rec.URLs[string(q)]
		if !ok || url == "" {
			continue
		}
		if prober.Reachable(ctx, url) {
			return url
		}
	}
	return ""
}
