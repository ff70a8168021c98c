// Copyright (C) 2026 The Reel Authors.
//
// This file is part of Reel.
//
// Reel is free software: you can redistribute it and/or modify it under the
// terms of the GNU Affero General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.
//
// Reel is distributed in the hope that it will be useful, but WITHOUT ANY
// WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS
// FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License for
// more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with Reel.  If not, see <https://www.gnu.org/licenses/>.

package server

import (
	"github.com/defsub/reel/auth"
	"github.com/defsub/reel/catalog"
	"github.com/defsub/reel/engagement"
)

const (
	FilterWatched = "watched"
	FilterLiked   = "liked"

	searchPageLimit = 100
)

type HomeView struct {
	Filter string
	Movies []catalog.Movie
}

type MovieView struct {
	Movie        catalog.Movie
	Category     *catalog.Category
	Franchise    *catalog.Franchise
	Role         catalog.Role
	Siblings     []catalog.Movie
	Episodes     []catalog.Movie
	Next         *catalog.Movie
	Suggested    []catalog.Movie
	IsFavorite   bool
	LastPosition int
}

type CategoryView struct {
	Category catalog.Category
	Movies   []catalog.Movie
}

type FranchiseView struct {
	Franchise catalog.Franchise
	Movies    []catalog.Movie
}

type SearchView struct {
	Query  string
	Movies []catalog.Movie
	Hits   int
}

type ProfileView struct {
	History []engagement.HistoryEntry
	Liked   []catalog.Movie
}

type FavoritesView struct {
	Movies []catalog.Movie
}

type AccountView struct {
	Next     string
	Username string
	Email    string
}

type DashboardView struct {
	Movies   int64
	Users    int64
	Views    int64
	Comments int64
	Watches  int64
	Live     int
	Recent   []catalog.Movie
}

type AdminMoviesView struct {
	Movies     []catalog.Movie
	Categories []catalog.Category
	Names      map[uint]catalog.Category
}

type MovieFormView struct {
	Movie      *catalog.Movie
	Fields     catalog.MovieFields
	Categories []catalog.Category
	Franchises []catalog.Franchise
	Series     []catalog.Movie
	Action     string
}

type AdminCategoriesView struct {
	Categories []catalog.Category
}

type AdminFranchisesView struct {
	Franchises []catalog.Franchise
}

type FranchiseFormView struct {
	Franchise catalog.Franchise
	Action    string
}

type AdminUsersView struct {
	Users []auth.User
}

func homeView(ctx Context, filter string) (*HomeView, error) {
	view := &HomeView{Filter: filter}
	c := ctx.Catalog()
	e := ctx.Engagement()
	limit := ctx.Config().Catalog.HistoryLimit
	var err error
	switch {
	case filter == FilterWatched && ctx.User() != nil:
		view.Movies, err = e.WatchedList(ctx.User(), limit)
	case filter == FilterLiked && ctx.User() != nil:
		view.Movies, err = e.LikedList(ctx.User(), limit)
	case filter == catalog.FilterPopular, filter == catalog.FilterNewest:
		view.Movies = c.Movies(filter)
	default:
		view.Filter = catalog.FilterAll
		view.Movies = c.Movies(catalog.FilterAll)
	}
	return view, err
}

func movieView(ctx Context, m catalog.Movie) (*MovieView, error) {
	c := ctx.Catalog()
	e := ctx.Engagement()
	view := &MovieView{Movie: m}
	view.Category = c.CategoryOf(m)
	view.Franchise = c.FranchiseOf(m)
	view.Siblings = c.FranchiseSiblings(m)
	view.Role = c.RoleOf(m)
	switch view.Role.Kind {
	case catalog.SeriesContainer:
		view.Episodes = c.EpisodesOf(m)
	case catalog.Episode:
		if view.Role.Series != nil {
			view.Episodes = c.EpisodesOf(*view.Role.Series)
		}
		view.Next = c.NextEpisode(m)
	}
	suggested, err := c.SuggestedFor(m, 0)
	if err != nil {
		return nil, err
	}
	view.Suggested = suggested
	view.IsFavorite = e.IsFavorite(ctx.User(), m.ID)
	view.LastPosition = e.LastPosition(ctx.User(), m.ID)
	return view, nil
}

func categoryView(ctx Context, cat catalog.Category) *CategoryView {
	return &CategoryView{
		Category: cat,
		Movies:   ctx.Catalog().MoviesInCategory(cat.ID),
	}
}

func franchiseView(ctx Context, f catalog.Franchise) *FranchiseView {
	return &FranchiseView{
		Franchise: f,
		Movies:    ctx.Catalog().MoviesInFranchise(f.ID),
	}
}

func searchView(ctx Context, query string) *SearchView {
	view := &SearchView{Query: query}
	if query != "" {
		view.Movies = ctx.Catalog().Search(query, searchPageLimit)
	}
	view.Hits = len(view.Movies)
	return view
}

func profileView(ctx Context) (*ProfileView, error) {
	e := ctx.Engagement()
	view := &ProfileView{}
	var err error
	view.History, err = e.History(ctx.User(), ctx.Config().Catalog.ProfileHistoryLimit)
	if err != nil {
		return nil, err
	}
	view.Liked, err = e.LikedList(ctx.User(), 0)
	if err != nil {
		return nil, err
	}
	return view, nil
}

func favoritesView(ctx Context) (*FavoritesView, error) {
	movies, err := ctx.Engagement().LikedList(ctx.User(), 0)
	if err != nil {
		return nil, err
	}
	return &FavoritesView{Movies: movies}, nil
}

func dashboardView(ctx Context) *DashboardView {
	c := ctx.Catalog()
	return &DashboardView{
		Movies:   c.MovieCount(),
		Users:    ctx.Auth().UserCount(),
		Views:    c.TotalViews(),
		Comments: ctx.Comments().Count(),
		Watches:  ctx.Engagement().WatchCount(),
		Live:     ctx.Hub().Clients(),
		Recent:   c.RecentMovies(ctx.Config().Catalog.RecentLimit),
	}
}

func adminMoviesView(ctx Context) *AdminMoviesView {
	c := ctx.Catalog()
	return &AdminMoviesView{
		Movies:     c.AllMovies(),
		Categories: c.Categories(),
		Names:      c.CategoryMap(),
	}
}

func movieFormView(ctx Context, m *catalog.Movie, f catalog.MovieFields, action string) *MovieFormView {
	c := ctx.Catalog()
	return &MovieFormView{
		Movie:      m,
		Fields:     f,
		Categories: c.Categories(),
		Franchises: c.Franchises(),
		Series:     c.SeriesList(),
		Action:     action,
	}
}
