package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/brettbedarf/vostfs"
	"github.com/brettbedarf/vostfs/filesystem"
	"github.com/brettbedarf/vostfs/internal/cache"
)

// Genres lists the catalog genres. Each genre is a search over its titles,
// created on first use and kept for the life of the mount.
type Genres struct {
	filesystem.DirBase
	deps  *Deps
	cell  *cache.Cell[[]string]
	mu    sync.Mutex
	items map[string]*Finder // keyed by raw genre name
}

func NewGenres(d *Deps, name string) *Genres {
	return &Genres{
		DirBase: filesystem.NewDirBase(name),
		deps:    d,
		cell:    newCell[[]string](d, d.Cfg.ListingTTL),
		items:   make(map[string]*Finder),
	}
}

func (g *Genres) names(ctx context.Context) ([]string, error) {
	return g.cell.Get(ctx, func(ctx context.Context) ([]string, error) {
		names, err := g.deps.Catalog.Genres(ctx)
		if err != nil {
			return nil, fmt.Errorf("genres: %w", err)
		}
		return names, nil
	})
}

func (g *Genres) Children(ctx context.Context) ([]filesystem.Node, error) {
	names, err := g.names(ctx)
	if err != nil {
		return nil, err
	}
	nodes := make([]filesystem.Node, len(names))
	for i, genre := range names {
		nodes[i] = g.finder(genre)
	}
	return nodes, nil
}

// Lookup returns the search for the genre displayed as name. Genres missing
// from the current list are not found and create nothing.
func (g *Genres) Lookup(ctx context.Context, name string) (filesystem.Node, error) {
	names, err := g.names(ctx)
	if err != nil {
		return nil, err
	}
	for _, genre := range names {
		if g.deps.purify(genre) == name {
			return g.finder(genre), nil
		}
	}
	return nil, fmt.Errorf("genre %q: %w", name, filesystem.ErrNotFound)
}

func (g *Genres) finder(genre string) *Finder {
	g.mu.Lock()
	defer g.mu.Unlock()
	if f, ok := g.items[genre]; ok {
		return f
	}
	f := NewFinder(g.deps, g.deps.purify(genre), vostfs.FieldGenre, genre)
	g.items[genre] = f
	return f
}
