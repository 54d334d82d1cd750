// Package catalog maps catalog concepts onto directory branches. Every branch
// answers its listing from one cache cell over one remote call.
package catalog

import (
	"fmt"
	"time"

	"github.com/brettbedarf/vostfs"
	"github.com/brettbedarf/vostfs/config"
	"github.com/brettbedarf/vostfs/filesystem"
	"github.com/brettbedarf/vostfs/internal/cache"
	"github.com/brettbedarf/vostfs/internal/sanitize"
)

// Deps is shared by every branch of one namespace
type Deps struct {
	Cfg     *config.Config
	Catalog vostfs.Catalog
	Prober  vostfs.Prober
	Tokens  TokenSource
	Clock   cache.Clock // nil means time.Now
}

// NewDeps wires cfg and the remote collaborators together with a [TokenCache]
func NewDeps(cfg *config.Config, catalog vostfs.Catalog, prober vostfs.Prober) *Deps {
	d := &Deps{Cfg: cfg, Catalog: catalog, Prober: prober}
	d.Tokens = NewTokenCache(d)
	return d
}

func (d *Deps) now() time.Time {
	if d.Clock == nil {
		return time.Now()
	}
	return d.Clock()
}

func newCell[T any](d *Deps, ttl time.Duration) *cache.Cell[T] {
	return cache.NewWithClock[T](ttl, d.now)
}

func (d *Deps) purify(name string) string {
	return sanitize.Name(d.Cfg.Purity, name)
}

// titles maps a title listing to Title branches named by 1-based position
func (d *Deps) titles(refs []vostfs.TitleRef) []filesystem.Node {
	nodes := make([]filesystem.Node, len(refs))
	for i, ref := range refs {
		nodes[i] = NewTitle(d, d.purify(fmt.Sprintf("%02d %s", i+1, ref.Title)), ref.ID)
	}
	return nodes
}
