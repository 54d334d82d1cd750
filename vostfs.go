// Package vostfs contains core domain types and interfaces for the vostfs filesystem
package vostfs

import (
	"context"
	"errors"
)

// ErrAuthUnavailable is returned when credentials are missing or rejected by the
// token endpoint
var ErrAuthUnavailable = errors.New("authentication unavailable")

// Catalog defines the remote operations the namespace is built from.
// Implementations own transport, request construction and response decoding.
type Catalog interface {
	// Latest returns one page of the most recently updated titles
	Latest(ctx context.Context, page, quantity int) (*TitlePage, error)

	// Playlist returns the episode records of a single title
	Playlist(ctx context.Context, titleID int) ([]EpisodeRecord, error)

	// Search returns titles whose field matches value. Missing data is an empty result
	Search(ctx context.Context, field SearchField, value string) ([]TitleRef, error)

	// Genres returns genre display names in catalog order
	Genres(ctx context.Context) ([]string, error)

	// Token exchanges credentials for an access token.
	// A refusal by the service wraps [ErrAuthUnavailable]
	Token(ctx context.Context, username, password string) (string, error)

	// Favorites returns the titles marked as favorite by the token's owner.
	// A token the service no longer accepts wraps [ErrAuthUnavailable]
	Favorites(ctx context.Context, token string) ([]TitleRef, error)
}

// Prober checks whether a stream URL currently answers
type Prober interface {
	Reachable(ctx context.Context, url string) bool
}

// SearchField names a searchable title attribute
type SearchField string

const (
	FieldGenre    SearchField = "gen"
	FieldName     SearchField = "name"
	FieldCategory SearchField = "cat"
	FieldYear     SearchField = "year"
)

// TitleRef identifies one catalog title
type TitleRef struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// TitlePage is one page of a paginated title listing
type TitlePage struct {
	Titles []TitleRef
	Total  int // Total number of titles across all pages
}

// EpisodeRecord is a single episode as reported by the catalog
type EpisodeRecord struct {
	Name string
	URLs map[string]string // Stream URL keyed by quality name
}
