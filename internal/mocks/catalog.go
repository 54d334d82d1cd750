package mocks

import (
	"context"

	"github.com/brettbedarf/vostfs"
	"github.com/stretchr/testify/mock"
)

// MockCatalog implements vostfs.Catalog for testing across packages
type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) Latest(ctx context.Context, page, quantity int) (*vostfs.TitlePage, error) {
	args := m.Called(ctx, page, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vostfs.TitlePage), args.Error(1)
}

func (m *MockCatalog) Playlist(ctx context.Context, titleID int) ([]vostfs.EpisodeRecord, error) {
	args := m.Called(ctx, titleID)

	// Handle function return types (for complex tests)
	if fn, ok := args.Get(0).(func(context.Context, int) []vostfs.EpisodeRecord); ok {
		return fn(ctx, titleID), args.Error(1)
	}

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]vostfs.EpisodeRecord), args.Error(1)
}

func (m *MockCatalog) Search(ctx context.Context, field vostfs.SearchField, value string) ([]vostfs.TitleRef, error) {
	args := m.Called(ctx, field, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]vostfs.TitleRef), args.Error(1)
}

func (m *MockCatalog) Genres(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockCatalog) Token(ctx context.Context, username, password string) (string, error) {
	args := m.Called(ctx, username, password)
	return args.String(0), args.Error(1)
}

func (m *MockCatalog) Favorites(ctx context.Context, token string) ([]vostfs.TitleRef, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]vostfs.TitleRef), args.Error(1)
}

var _ vostfs.Catalog = (*MockCatalog)(nil)

// MockProber implements vostfs.Prober for testing across packages
type MockProber struct {
	mock.Mock
}

func (m *MockProber) Reachable(ctx context.Context, url string) bool {
	args := m.Called(ctx, url)
	return args.Bool(0)
}

var _ vostfs.Prober = (*MockProber)(nil)
