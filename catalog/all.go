package catalog

import (
	"context"
	"fmt"

	"github.com/brettbedarf/vostfs/filesystem"
	"github.com/brettbedarf/vostfs/internal/cache"
	"github.com/brettbedarf/vostfs/internal/util"
)

type pageKey struct {
	number int
	limit  int
}

// All lists every page of the latest titles
type All struct {
	filesystem.DirBase
	deps *Deps
	cell *cache.Cell[[]filesystem.Node]
	// Pages outlive refreshes so their own cells persist. Only touched from
	// within cell refreshes, which the cell serializes.
	pages map[pageKey]*Page
}

func NewAll(d *Deps, name string) *All {
	return &All{
		DirBase: filesystem.NewDirBase(name),
		deps:    d,
		cell:    newCell[[]filesystem.Node](d, d.Cfg.ListingTTL),
		pages:   make(map[pageKey]*Page),
	}
}

func (a *All) Children(ctx context.Context) ([]filesystem.Node, error) {
	return a.cell.Get(ctx, a.fetch)
}

func (a *All) fetch(ctx context.Context) ([]filesystem.Node, error) {
	logger := util.GetLogger("Catalog.All")

	first, err := a.deps.Catalog.Latest(ctx, 1, a.deps.Cfg.PageSize)
	if err != nil {
		return nil, fmt.Errorf("first page: %w", err)
	}
	// the server may cap the page size below what was asked for
	limit := min(a.deps.Cfg.PageSize, len(first.Titles))
	if limit == 0 {
		logger.Debug().Msg("Catalog is empty")
		return []filesystem.Node{}, nil
	}

	total := first.Total/limit + 1
	nodes := make([]filesystem.Node, total)
	for n := 1; n <= total; n++ {
		nodes[n-1] = a.page(n, limit)
	}
	logger.Debug().Int("titles", first.Total).Int("limit", limit).Int("pages", total).Msg("Enumerated pages")
	return nodes, nil
}

func (a *All) page(number, limit int) *Page {
	key := pageKey{number: number, limit: limit}
	if p, ok := a.pages[key]; ok {
		return p
	}
	p := NewPage(a.deps, fmt.Sprintf("%03d", number), number, limit)
	a.pages[key] = p
	return p
}
