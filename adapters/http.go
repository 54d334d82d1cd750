// Package adapters talks to the remote catalog service over HTTP.
package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/brettbedarf/vostfs"
	"github.com/brettbedarf/vostfs/config"
	"github.com/brettbedarf/vostfs/internal/util"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

type HTTPMethod = string

const (
	HTTPMethodGet  HTTPMethod = "GET"
	HTTPMethodHead HTTPMethod = "HEAD"
	HTTPMethodPost HTTPMethod = "POST"
)

const (
	retryWaitMin = 250 * time.Millisecond
	retryWaitMax = 3 * time.Second
)

// HTTPCatalog implements [vostfs.Catalog] against the catalog's JSON API.
// Every call is rate limited, retried on transport and 5xx failures, and
// bounded by the configured request timeout.
type HTTPCatalog struct {
	api     string
	client  *retryablehttp.Client
	limiter *rate.Limiter
	timeout time.Duration
}

func NewHTTPCatalog(cfg *config.Config) *HTTPCatalog {
	return &HTTPCatalog{
		api:     cfg.API,
		client:  newRetryClient(cfg.MaxRetries, cfg.RequestTimeout, "HTTPCatalog"),
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		timeout: cfg.RequestTimeout,
	}
}

func newRetryClient(retries int, timeout time.Duration, component string) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = retries
	client.RetryWaitMin = retryWaitMin
	client.RetryWaitMax = retryWaitMax
	client.HTTPClient.Timeout = timeout
	client.Logger = newRetryLogger(component)
	return client
}

// titleList is the shape shared by listing, search and favorites responses
type titleList struct {
	State struct {
		Count int `json:"count"`
	} `json:"state"`
	Data []vostfs.TitleRef `json:"data"`
}

func (c *HTTPCatalog) Latest(ctx context.Context, page, quantity int) (*vostfs.TitlePage, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("quantity", strconv.Itoa(quantity))

	var out titleList
	if err := c.getJSON(ctx, "last", query, &out); err != nil {
		return nil, err
	}
	return &vostfs.TitlePage{Titles: nonNil(out.Data), Total: out.State.Count}, nil
}

func (c *HTTPCatalog) Playlist(ctx context.Context, titleID int) ([]vostfs.EpisodeRecord, error) {
	form := url.Values{}
	form.Set("id", strconv.Itoa(titleID))

	var raw []map[string]json.RawMessage
	if err := c.postJSON(ctx, "playlist", form, &raw); err != nil {
		return nil, err
	}
	records := make([]vostfs.EpisodeRecord, 0, len(raw))
	for _, fields := range raw {
		var rec vostfs.EpisodeRecord
		// a record without a name keeps an empty title
		if name, ok := fields["name"]; ok {
			if err := json.Unmarshal(name, &rec.Name); err != nil {
				return nil, fmt.Errorf("playlist %d: episode name: %w", titleID, err)
			}
		}
		rec.URLs = make(map[string]string, len(config.KnownQualities))
		for _, q := range config.KnownQualities {
			var u string
			if json.Unmarshal(fields[string(q)], &u) == nil && u != "" {
				rec.URLs[string(q)] = u
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func (c *HTTPCatalog) Search(ctx context.Context, field vostfs.SearchField, value string) ([]vostfs.TitleRef, error) {
	form := url.Values{}
	form.Set(string(field), value)

	var out titleList
	if err := c.postJSON(ctx, "search", form, &out); err != nil {
		return nil, err
	}
	return nonNil(out.Data), nil
}

// Genres returns the genre names in the order the service lists them
func (c *HTTPCatalog) Genres(ctx context.Context) ([]string, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, "genres", nil, &raw); err != nil {
		return nil, err
	}
	return decodeOrderedValues(raw)
}

// decodeOrderedValues returns the string values of a JSON object in document order
func decodeOrderedValues(raw []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("genres: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("genres: expected object, got %v", tok)
	}
	values := []string{}
	for dec.More() {
		// key
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("genres: %w", err)
		}
		var name string
		if err := dec.Decode(&name); err != nil {
			return nil, fmt.Errorf("genres: %w", err)
		}
		values = append(values, name)
	}
	return values, nil
}

type tokenResponse struct {
	Status string `json:"status"`
	Token  string `json:"token"`
	Error  string `json:"error"`
}

func (c *HTTPCatalog) Token(ctx context.Context, username, password string) (string, error) {
	form := url.Values{}
	form.Set("user", username)
	form.Set("pass", password)

	var out tokenResponse
	if err := c.postJSON(ctx, "gettoken", form, &out); err != nil {
		return "", err
	}
	if out.Status != "ok" {
		msg := out.Error
		if msg == "" {
			msg = "token request refused with status " + strconv.Quote(out.Status)
		}
		return "", fmt.Errorf("%w: %s", vostfs.ErrAuthUnavailable, msg)
	}
	return out.Token, nil
}

func (c *HTTPCatalog) Favorites(ctx context.Context, token string) ([]vostfs.TitleRef, error) {
	form := url.Values{}
	form.Set("token", token)

	var out titleList
	err := c.postJSON(ctx, "favorites", form, &out)
	if IsStatus(err, http.StatusUnauthorized) || IsStatus(err, http.StatusForbidden) {
		return nil, fmt.Errorf("%w: %w", vostfs.ErrAuthUnavailable, err)
	}
	if err != nil {
		return nil, err
	}
	return nonNil(out.Data), nil
}

func (c *HTTPCatalog) getJSON(ctx context.Context, endpoint string, query url.Values, out any) error {
	return c.do(ctx, HTTPMethodGet, endpoint, query, nil, out)
}

func (c *HTTPCatalog) postJSON(ctx context.Context, endpoint string, form url.Values, out any) error {
	return c.do(ctx, HTTPMethodPost, endpoint, nil, form, out)
}

func (c *HTTPCatalog) do(ctx context.Context, method HTTPMethod, endpoint string, query, form url.Values, out any) error {
	logger := util.GetLogger("HTTPCatalog." + endpoint)
	reqID := uuid.New().String()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limit: %w", endpoint, err)
	}

	target := c.api + "/" + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	var body interface{}
	if form != nil {
		body = []byte(form.Encode())
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		logger.Warn().Err(err).Str("request", reqID).Msg("Request failed")
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read body: %w", endpoint, err)
	}
	logger.Debug().
		Str("request", reqID).
		Str("method", method).
		Int("status", resp.StatusCode).
		Str("size", humanize.Bytes(uint64(len(data)))).
		Dur("elapsed", time.Since(start)).
		Msg("Request done")

	if resp.StatusCode >= 400 {
		return &StatusError{Endpoint: endpoint, Code: resp.StatusCode}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode: %w", endpoint, err)
	}
	return nil
}

// StatusError reports a catalog response with a failure status
type StatusError struct {
	Endpoint string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Endpoint, e.Code)
}

// IsStatus reports whether err is a [StatusError] with the given code
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

var _ vostfs.Catalog = (*HTTPCatalog)(nil)
