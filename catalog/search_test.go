package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/brettbedarf/vostfs"
	"github.com/brettbedarf/vostfs/config"
	"github.com/brettbedarf/vostfs/filesystem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSearch_MemoizesQueries(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.catalog.On("Search", mock.Anything, vostfs.FieldName, "naruto").Return(refs("Naruto", "Naruto Shippuden"), nil)
	env.catalog.On("Search", mock.Anything, vostfs.FieldName, "bleach").Return(refs("Bleach"), nil)
	search := NewSearch(env.deps, "by-name", vostfs.FieldName)
	ctx := context.Background()

	empty, err := search.Children(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	n1, err := search.Lookup(ctx, "naruto")
	require.NoError(t, err)
	_, err = search.Lookup(ctx, "bleach")
	require.NoError(t, err)
	n2, err := search.Lookup(ctx, "naruto")
	require.NoError(t, err)
	assert.Same(t, n1, n2)

	history, err := search.Children(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"naruto", "bleach"}, nodeNames(history), "history keeps first-seen order")

	finder := n1.(*Finder)
	field, value := finder.Query()
	assert.Equal(t, vostfs.FieldName, field)
	assert.Equal(t, "naruto", value)

	titles, err := finder.Children(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"01 Naruto", "02 Naruto Shippuden"}, nodeNames(titles))

	// a memoized search outlives the listing TTL without searching again
	env.clock.Advance(env.deps.Cfg.ListingTTL * 10)
	n3, err := search.Lookup(ctx, "naruto")
	require.NoError(t, err)
	assert.Same(t, n1, n3)
	again, err := n3.(*Finder).Children(ctx)
	require.NoError(t, err)
	assert.Equal(t, titles, again)
	env.catalog.AssertNumberOfCalls(t, "Search", 1)
}

func TestSearch_ConcurrentLookups(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	search := NewSearch(env.deps, "by-year", vostfs.FieldYear)

	nodes := make([]filesystem.Node, 16)
	var wg sync.WaitGroup
	for i := range nodes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := search.Lookup(context.Background(), "2020")
			assert.NoError(t, err)
			nodes[i] = n
		}()
	}
	wg.Wait()

	for _, n := range nodes {
		assert.Same(t, nodes[0], n)
	}
	history, err := search.Children(context.Background())
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestFinder_EmptyResult(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.catalog.On("Search", mock.Anything, vostfs.FieldCategory, "movie").Return([]vostfs.TitleRef{}, nil)

	children, err := NewFinder(env.deps, "movie", vostfs.FieldCategory, "movie").Children(context.Background())
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestGenres(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.catalog.On("Genres", mock.Anything).Return([]string{"комедия", "драма"}, nil)
	env.catalog.On("Search", mock.Anything, vostfs.FieldGenre, "комедия").Return(refs("Gintama"), nil)
	genres := NewGenres(env.deps, "genres")
	ctx := context.Background()

	children, err := genres.Children(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"комедия", "драма"}, nodeNames(children))

	_, err = genres.Lookup(ctx, "хоррор")
	require.ErrorIs(t, err, filesystem.ErrNotFound)

	g1, err := genres.Lookup(ctx, "комедия")
	require.NoError(t, err)
	g2, err := genres.Lookup(ctx, "комедия")
	require.NoError(t, err)
	assert.Same(t, g1, g2)
	assert.Same(t, children[0], g1, "listing and lookup share the memoized search")

	for _, g := range []filesystem.Node{g1, g2} {
		titles, err := g.(filesystem.Branch).Children(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"01 Gintama"}, nodeNames(titles))
	}
	env.catalog.AssertNumberOfCalls(t, "Search", 1)
	env.catalog.AssertNumberOfCalls(t, "Genres", 1)

	// past the listing TTL the genre list refreshes but the genre search does not
	env.clock.Advance(env.deps.Cfg.ListingTTL)
	g3, err := genres.Lookup(ctx, "комедия")
	require.NoError(t, err)
	assert.Same(t, g1, g3)
	titles, err := g3.(filesystem.Branch).Children(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"01 Gintama"}, nodeNames(titles))
	env.catalog.AssertNumberOfCalls(t, "Search", 1)
	env.catalog.AssertNumberOfCalls(t, "Genres", 2)
}

func TestFinder_RetriesFailedSearch(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.catalog.On("Search", mock.Anything, vostfs.FieldYear, "2005").Return(nil, errors.New("timeout")).Once()
	env.catalog.On("Search", mock.Anything, vostfs.FieldYear, "2005").Return(refs("Mushishi"), nil).Once()
	finder := NewFinder(env.deps, "2005", vostfs.FieldYear, "2005")
	ctx := context.Background()

	_, err := finder.Children(ctx)
	require.Error(t, err)

	for range 2 {
		titles, err := finder.Children(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"01 Mushishi"}, nodeNames(titles))
	}
	env.catalog.AssertNumberOfCalls(t, "Search", 2)
}

func TestGenres_PurifiedNames(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, func(cfg *config.Config) { cfg.Purity = config.PurityLatin })
	env.catalog.On("Genres", mock.Anything).Return([]string{"Комедия"}, nil)
	env.catalog.On("Search", mock.Anything, vostfs.FieldGenre, "Комедия").Return(refs("Gintama"), nil)
	genres := NewGenres(env.deps, "genres")
	ctx := context.Background()

	_, err := genres.Lookup(ctx, "Комедия")
	require.ErrorIs(t, err, filesystem.ErrNotFound, "lookup matches the displayed name")

	g, err := genres.Lookup(ctx, "Komedia")
	require.NoError(t, err)
	_, err = g.(filesystem.Branch).Children(ctx)
	require.NoError(t, err)
	env.catalog.AssertExpectations(t)
}

func TestGenres_FetchFailure(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.catalog.On("Genres", mock.Anything).Return(nil, errors.New("down"))

	genres := NewGenres(env.deps, "genres")
	_, err := genres.Lookup(context.Background(), "драма")
	require.Error(t, err)
	assert.NotErrorIs(t, err, filesystem.ErrNotFound)

	_, err = filesystem.Resolve(context.Background(), genres, "драма")
	assert.ErrorIs(t, err, filesystem.ErrTransient)
}
