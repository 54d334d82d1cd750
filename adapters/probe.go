package adapters

import (
	"context"
	"time"

	"github.com/brettbedarf/vostfs"
	"github.com/brettbedarf/vostfs/config"
	"github.com/brettbedarf/vostfs/internal/util"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// HTTPProber implements [vostfs.Prober] with HEAD requests. Reachable URLs are
// remembered for the probe TTL; failures are always probed again.
type HTTPProber struct {
	client  *retryablehttp.Client
	timeout time.Duration
	known   *expirable.LRU[string, struct{}]
	flights singleflight.Group
}

func NewHTTPProber(cfg *config.Config) *HTTPProber {
	// one attempt; an unreachable quality falls back to the next one
	return &HTTPProber{
		client:  newRetryClient(0, cfg.RequestTimeout, "HTTPProber"),
		timeout: cfg.RequestTimeout,
		known:   expirable.NewLRU[string, struct{}](cfg.ProbeCacheSize, nil, cfg.ProbeTTL),
	}
}

// Reachable reports whether url answers a HEAD request with a status below
// 400. Concurrent probes of one URL share a single request.
func (p *HTTPProber) Reachable(ctx context.Context, url string) bool {
	if _, ok := p.known.Get(url); ok {
		return true
	}
	v, _, _ := p.flights.Do(url, func() (interface{}, error) {
		ok := p.probe(ctx, url)
		if ok {
			p.known.Add(url, struct{}{})
		}
		return ok, nil
	})
	return v.(bool)
}

func (p *HTTPProber) probe(ctx context.Context, url string) bool {
	logger := util.GetLogger("HTTPProber")

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	req, err := retryablehttp.NewRequestWithContext(ctx, HTTPMethodHead, url, nil)
	if err != nil {
		logger.Debug().Err(err).Str("url", url).Msg("Bad stream URL")
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		logger.Debug().Err(err).Str("url", url).Msg("Stream unreachable")
		return false
	}
	defer resp.Body.Close()

	logger.Trace().Str("url", url).Int("status", resp.StatusCode).Msg("Probed stream")
	return resp.StatusCode < 400
}

// Remembered returns the number of URLs currently known to be reachable
func (p *HTTPProber) Remembered() int {
	return p.known.Len()
}

var _ vostfs.Prober = (*HTTPProber)(nil)
