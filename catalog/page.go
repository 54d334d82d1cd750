package catalog

import (
	"context"
	"fmt"

	"github.com/brettbedarf/vostfs/filesystem"
	"github.com/brettbedarf/vostfs/internal/cache"
	"github.com/brettbedarf/vostfs/internal/util"
)

// Page lists one page of the latest titles
type Page struct {
	filesystem.DirBase
	deps   *Deps
	number int
	limit  int
	cell   *cache.Cell[[]filesystem.Node]
}

func NewPage(d *Deps, name string, number, limit int) *Page {
	return &Page{
		DirBase: filesystem.NewDirBase(name),
		deps:    d,
		number:  number,
		limit:   limit,
		cell:    newCell[[]filesystem.Node](d, d.Cfg.ListingTTL),
	}
}

func (p *Page) Number() int { return p.number }

func (p *Page) Limit() int { return p.limit }

func (p *Page) Children(ctx context.Context) ([]filesystem.Node, error) {
	return p.cell.Get(ctx, p.fetch)
}

func (p *Page) fetch(ctx context.Context) ([]filesystem.Node, error) {
	logger := util.GetLogger("Catalog.Page")

	page, err := p.deps.Catalog.Latest(ctx, p.number, p.limit)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", p.number, err)
	}
	logger.Debug().Int("page", p.number).Int("titles", len(page.Titles)).Msg("Fetched page")
	return p.deps.titles(page.Titles), nil
}
