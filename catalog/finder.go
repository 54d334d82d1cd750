package catalog

import (
	"context"
	"fmt"

	"github.com/brettbedarf/vostfs"
	"github.com/brettbedarf/vostfs/filesystem"
	"github.com/brettbedarf/vostfs/internal/cache"
	"github.com/brettbedarf/vostfs/internal/util"
)

// Finder lists the titles matching one field/value search. The result is
// kept for the life of the mount; only a failed search is retried.
type Finder struct {
	filesystem.DirBase
	deps  *Deps
	field vostfs.SearchField
	value string
	cell  *cache.Cell[[]filesystem.Node]
}

func NewFinder(d *Deps, name string, field vostfs.SearchField, value string) *Finder {
	return &Finder{
		DirBase: filesystem.NewDirBase(name),
		deps:    d,
		field:   field,
		value:   value,
		cell:    newCell[[]filesystem.Node](d, cache.Forever),
	}
}

func (f *Finder) Query() (vostfs.SearchField, string) { return f.field, f.value }

func (f *Finder) Children(ctx context.Context) ([]filesystem.Node, error) {
	return f.cell.Get(ctx, f.fetch)
}

func (f *Finder) fetch(ctx context.Context) ([]filesystem.Node, error) {
	logger := util.GetLogger("Catalog.Finder")

	refs, err := f.deps.Catalog.Search(ctx, f.field, f.value)
	if err != nil {
		return nil, fmt.Errorf("search %s=%q: %w", f.field, f.value, err)
	}
	logger.Debug().Str("field", string(f.field)).Str("value", f.value).Int("titles", len(refs)).Msg("Searched")
	return f.deps.titles(refs), nil
}
