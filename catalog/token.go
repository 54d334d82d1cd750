package catalog

import (
	"context"
	"fmt"

	"github.com/brettbedarf/vostfs"
	"github.com/brettbedarf/vostfs/internal/cache"
	"github.com/brettbedarf/vostfs/internal/util"
)

// TokenSource supplies the access token favorites are listed with
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	// Invalidate drops a token the service refused so the next call asks again
	Invalidate()
}

// TokenCache holds one access token for the configured credentials
type TokenCache struct {
	deps *Deps
	cell *cache.Cell[string]
}

func NewTokenCache(d *Deps) *TokenCache {
	return &TokenCache{deps: d, cell: newCell[string](d, d.Cfg.TokenTTL)}
}

// Token returns the cached token, requesting a new one once it expires.
// Missing credentials fail with [vostfs.ErrAuthUnavailable] without a remote call.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	cfg := c.deps.Cfg
	if !cfg.HasCredentials() {
		return "", fmt.Errorf("%w: username or password is not configured", vostfs.ErrAuthUnavailable)
	}
	return c.cell.Get(ctx, func(ctx context.Context) (string, error) {
		token, err := c.deps.Catalog.Token(ctx, cfg.Username, cfg.Password)
		if err != nil {
			return "", err
		}
		util.GetLogger("Catalog.Token").Debug().Str("username", cfg.Username).Msg("Issued token")
		return token, nil
	})
}

// Invalidate forgets the cached token
func (c *TokenCache) Invalidate() {
	c.cell.Invalidate()
}
