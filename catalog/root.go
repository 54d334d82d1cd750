package catalog

import (
	"github.com/brettbedarf/vostfs"
	"github.com/brettbedarf/vostfs/filesystem"
)

// NewRoot builds the top of the namespace:
//
//	latest/     newest titles
//	all/        every page of titles
//	genres/     titles by genre
//	search/     by-name, by-category and by-year searches
//	favorites/  the configured user's favorites
func NewRoot(d *Deps) *filesystem.Dir {
	return filesystem.NewDir("",
		NewPage(d, "latest", 1, d.Cfg.PageSize),
		NewAll(d, "all"),
		NewGenres(d, "genres"),
		filesystem.NewDir("search",
			NewSearch(d, "by-name", vostfs.FieldName),
			NewSearch(d, "by-category", vostfs.FieldCategory),
			NewSearch(d, "by-year", vostfs.FieldYear),
		),
		NewFavorites(d, "favorites"),
	)
}
