package catalog

import (
	"context"
	"sync"

	"github.com/brettbedarf/vostfs"
	"github.com/brettbedarf/vostfs/filesystem"
	"github.com/brettbedarf/vostfs/internal/util"
)

// Search remembers every query looked up beneath it. Looking up a new
// directory name runs that search; the listing shows past queries.
//
// The history lives as long as the mount and is never evicted.
type Search struct {
	filesystem.DirBase
	deps    *Deps
	field   vostfs.SearchField
	mu      sync.Mutex
	history map[string]*Finder
	order   []string
}

func NewSearch(d *Deps, name string, field vostfs.SearchField) *Search {
	return &Search{
		DirBase: filesystem.NewDirBase(name),
		deps:    d,
		field:   field,
		history: make(map[string]*Finder),
	}
}

func (s *Search) Children(context.Context) ([]filesystem.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nodes := make([]filesystem.Node, len(s.order))
	for i, q := range s.order {
		nodes[i] = s.history[q]
	}
	return nodes, nil
}

// Lookup returns the remembered search for query, creating it on first use.
// The query is the raw path segment.
func (s *Search) Lookup(_ context.Context, query string) (filesystem.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.history[query]; ok {
		return f, nil
	}
	util.GetLogger("Catalog.Search").Debug().
		Str("field", string(s.field)).
		Str("query", query).
		Int("history", len(s.order)+1).
		Msg("New search")
	f := NewFinder(s.deps, query, s.field, query)
	s.history[query] = f
	s.order = append(s.order, query)
	return f, nil
}
