package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/brettbedarf/vostfs"
	"github.com/brettbedarf/vostfs/filesystem"
	"github.com/brettbedarf/vostfs/internal/cache"
	"github.com/brettbedarf/vostfs/internal/util"
)

// ErrorFileName is the diagnostic leaf shown when favorites cannot be listed
const ErrorFileName = "error.txt"

// Favorites lists the titles marked as favorite by the configured user
type Favorites struct {
	filesystem.DirBase
	deps *Deps
	cell *cache.Cell[[]filesystem.Node]
}

func NewFavorites(d *Deps, name string) *Favorites {
	return &Favorites{
		DirBase: filesystem.NewDirBase(name),
		deps:    d,
		cell:    newCell[[]filesystem.Node](d, d.Cfg.ListingTTL),
	}
}

// Children lists the favorites. Failing to obtain a token yields a single
// error file carrying the reason instead of an error. A cached token refused
// by the service is dropped and requested again once.
func (f *Favorites) Children(ctx context.Context) ([]filesystem.Node, error) {
	logger := util.GetLogger("Catalog.Favorites")

	children, tokenErr, err := f.fetch(ctx)
	if errors.Is(err, vostfs.ErrAuthUnavailable) {
		logger.Info().Err(err).Msg("Token refused, requesting a new one")
		f.deps.Tokens.Invalidate()
		children, tokenErr, err = f.fetch(ctx)
		if errors.Is(err, vostfs.ErrAuthUnavailable) {
			tokenErr = err
		}
	}
	if tokenErr != nil {
		logger.Warn().Err(tokenErr).Msg("No token for favorites")
		return []filesystem.Node{filesystem.NewFile(ErrorFileName, []byte(tokenErr.Error()))}, nil
	}
	return children, err
}

// fetch lists favorites with the current token, reporting a failure to get
// the token apart from a failed listing
func (f *Favorites) fetch(ctx context.Context) (children []filesystem.Node, tokenErr, err error) {
	token, tokenErr := f.deps.Tokens.Token(ctx)
	if tokenErr != nil {
		return nil, tokenErr, nil
	}
	children, err = f.cell.Get(ctx, func(ctx context.Context) ([]filesystem.Node, error) {
		refs, err := f.deps.Catalog.Favorites(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("favorites: %w", err)
		}
		return f.deps.titles(refs), nil
	})
	return children, nil, err
}
