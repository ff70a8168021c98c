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

package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/defsub/reel/auth"
	"github.com/defsub/reel/lib/fail"
	g "github.com/defsub/reel/lib/gorm"
	"gorm.io/gorm"
)

var admin = &auth.User{Username: "admin", IsAdmin: true}

func testCatalog(t *testing.T) *Catalog {
	cfg, db := g.OpenTest(t)
	c := NewCatalog(cfg, db)
	if err := c.Open(); err != nil {
		t.Fatalf("Open %s\n", err)
	}
	return c
}

func addMovie(t *testing.T, c *Catalog, f MovieFields) Movie {
	t.Helper()
	if f.VideoURL == "" && !f.IsSeries {
		f.VideoURL = "https://cdn.example.com/" + strings.ToLower(f.Title) + ".mp4"
	}
	m, err := c.AddMovie(admin, f)
	if err != nil {
		t.Fatalf("AddMovie %q %s\n", f.Title, err)
	}
	return m
}

func addCategory(t *testing.T, c *Catalog, name string) *uint {
	t.Helper()
	cat, err := c.AddCategory(admin, name)
	if err != nil {
		t.Fatalf("AddCategory %s\n", err)
	}
	return &cat.ID
}

func addFranchise(t *testing.T, c *Catalog, name string) *uint {
	t.Helper()
	f, err := c.AddFranchise(admin, Franchise{Name: name})
	if err != nil {
		t.Fatalf("AddFranchise %s\n", err)
	}
	return &f.ID
}

func intp(n int) *int {
	return &n
}

func setViews(t *testing.T, c *Catalog, m Movie, views int) {
	t.Helper()
	err := c.db.Model(&Movie{}).Where("id = ?", m.ID).Update("views", views).Error
	if err != nil {
		t.Fatal(err)
	}
}

func ids(movies []Movie) []uint {
	var list []uint
	for _, m := range movies {
		list = append(list, m.ID)
	}
	return list
}

func TestAddMovie(t *testing.T) {
	c := testCatalog(t)
	a := addMovie(t, c, MovieFields{Title: "Test"})
	b := addMovie(t, c, MovieFields{Title: "Test"})
	if *a.Slug != "test" || *b.Slug != "test-1" {
		t.Errorf("slugs %s %s\n", *a.Slug, *b.Slug)
	}
	if !a.HasURLKey() || !b.HasURLKey() || *a.URLKey == *b.URLKey {
		t.Errorf("url keys %v %v\n", a.URLKey, b.URLKey)
	}
	if a.PosterURL != c.config.Catalog.DefaultPoster {
		t.Errorf("poster %q\n", a.PosterURL)
	}

	_, err := c.AddMovie(admin, MovieFields{Title: "  ", VideoURL: "x"})
	if err != ErrTitleRequired {
		t.Errorf("expected title required, got %v\n", err)
	}
	_, err = c.AddMovie(admin, MovieFields{Title: "No Video"})
	if err != ErrVideoRequired {
		t.Errorf("expected video required, got %v\n", err)
	}
	missing := uint(999)
	_, err = c.AddMovie(admin, MovieFields{Title: "X", VideoURL: "x", CategoryID: &missing})
	if err != ErrUnknownCategory {
		t.Errorf("expected unknown category, got %v\n", err)
	}
	_, err = c.AddMovie(&auth.User{Username: "user"}, MovieFields{Title: "X", VideoURL: "x"})
	if !fail.IsForbidden(err) {
		t.Errorf("expected forbidden, got %v\n", err)
	}
	_, err = c.AddMovie(nil, MovieFields{Title: "X", VideoURL: "x"})
	if !fail.IsForbidden(err) {
		t.Errorf("expected forbidden for anonymous, got %v\n", err)
	}
	if c.MovieCount() != 2 {
		t.Errorf("count %d\n", c.MovieCount())
	}
}

func TestEditKeepsKeys(t *testing.T) {
	c := testCatalog(t)
	m := addMovie(t, c, MovieFields{Title: "Original"})
	f := m.Fields()
	f.Title = "Renamed"
	edited, err := c.EditMovie(admin, m.ID, f)
	if err != nil {
		t.Fatal(err)
	}
	if edited.Title != "Renamed" || *edited.URLKey != *m.URLKey || *edited.Slug != *m.Slug {
		t.Errorf("edit changed keys %+v\n", edited)
	}
	_, err = c.EditMovie(admin, 12345, f)
	if !errors.Is(err, ErrMovieNotFound) {
		t.Errorf("expected not found, got %v\n", err)
	}
}

func TestResolveURLKey(t *testing.T) {
	c := testCatalog(t)
	for i := 0; i < 5; i++ {
		m := addMovie(t, c, MovieFields{Title: fmt.Sprintf("Movie %d", i)})
		r, err := c.Resolve(*m.URLKey)
		if err != nil {
			t.Fatal(err)
		}
		if r.Redirect || r.Movie.ID != m.ID {
			t.Errorf("url key %s resolved to %+v\n", *m.URLKey, r)
		}
	}
}

func TestResolveLegacy(t *testing.T) {
	c := testCatalog(t)
	slug := "old-movie"
	legacy := Movie{Title: "Old Movie", Slug: &slug, VideoURL: "old.mp4"}
	if err := c.db.Create(&legacy).Error; err != nil {
		t.Fatal(err)
	}

	r, err := c.Resolve(slug)
	if err != nil {
		t.Fatal(err)
	}
	if r.Redirect || r.Movie.ID != legacy.ID || r.Key != slug {
		t.Errorf("slug resolved to %+v\n", r)
	}
	id := strconv.Itoa(int(legacy.ID))
	r, err = c.Resolve(id)
	if err != nil {
		t.Fatal(err)
	}
	if r.Redirect || r.Movie.ID != legacy.ID {
		t.Errorf("id resolved to %+v\n", r)
	}
	m, _ := c.LookupMovie(legacy.ID)
	if m.Views != 2 {
		t.Errorf("expected 2 views, got %d\n", m.Views)
	}

	n, err := c.BackfillURLKeys()
	if err != nil || n != 1 {
		t.Fatalf("backfill %d %v\n", n, err)
	}
	m, _ = c.LookupMovie(legacy.ID)
	if !m.HasURLKey() {
		t.Fatal("expected url key")
	}
	for _, key := range []string{slug, id} {
		r, err = c.Resolve(key)
		if err != nil {
			t.Fatal(err)
		}
		if !r.Redirect || r.Key != *m.URLKey {
			t.Errorf("%s resolved to %+v\n", key, r)
		}
	}
	m, _ = c.LookupMovie(legacy.ID)
	if m.Views != 2 {
		t.Errorf("redirects counted views %d\n", m.Views)
	}
}

func TestResolveNotFound(t *testing.T) {
	c := testCatalog(t)
	addMovie(t, c, MovieFields{Title: "Something"})
	for _, key := range []string{"999999999", "nope", "", "-1", "0"} {
		_, err := c.Resolve(key)
		if !errors.Is(err, ErrMovieNotFound) || !fail.IsNotFound(err) {
			t.Errorf("%q: expected not found, got %v\n", key, err)
		}
	}
}

func TestBackfillIdempotent(t *testing.T) {
	c := testCatalog(t)
	c.config.Catalog.BackfillBatch = 2
	for i := 0; i < 5; i++ {
		if err := c.db.Create(&Movie{Title: "Legacy", VideoURL: "v"}).Error; err != nil {
			t.Fatal(err)
		}
	}
	n, err := c.BackfillURLKeys()
	if err != nil || n != 5 {
		t.Fatalf("backfill %d %v\n", n, err)
	}
	n, err = c.BackfillURLKeys()
	if err != nil || n != 0 {
		t.Errorf("second backfill %d %v\n", n, err)
	}
	seen := make(map[string]bool)
	for _, m := range c.AllMovies() {
		if !m.HasURLKey() || seen[*m.URLKey] {
			t.Errorf("bad key for %d\n", m.ID)
			continue
		}
		seen[*m.URLKey] = true
	}
}

func TestSeriesNormalization(t *testing.T) {
	c := testCatalog(t)
	series := addMovie(t, c, MovieFields{Title: "Show", IsSeries: true})
	if series.VideoURL != "" || !series.IsSeries {
		t.Errorf("series %+v\n", series)
	}

	// is_series wins over a parent
	m := addMovie(t, c, MovieFields{Title: "Both", IsSeries: true,
		SeriesParentID: &series.ID, EpisodeNumber: intp(1)})
	if m.SeriesParentID != nil || m.EpisodeNumber != nil {
		t.Errorf("series kept parent %+v\n", m)
	}

	// episode number without a parent is dropped
	m = addMovie(t, c, MovieFields{Title: "Loose", EpisodeNumber: intp(3)})
	if m.EpisodeNumber != nil {
		t.Errorf("kept episode number %+v\n", m)
	}

	_, err := c.AddMovie(admin, MovieFields{Title: "Ep", VideoURL: "e", SeriesParentID: &series.ID})
	if err != ErrEpisodeNumber {
		t.Errorf("expected episode number error, got %v\n", err)
	}
	_, err = c.AddMovie(admin, MovieFields{Title: "Ep", VideoURL: "e",
		SeriesParentID: &m.ID, EpisodeNumber: intp(1)})
	if err != ErrSeriesParent {
		t.Errorf("expected parent error, got %v\n", err)
	}

	ep := addMovie(t, c, MovieFields{Title: "Ep 1", SeriesParentID: &series.ID, EpisodeNumber: intp(1)})
	if ep.IsSeries || !ep.IsEpisode() {
		t.Errorf("episode %+v\n", ep)
	}
	f := series.Fields()
	f.IsSeries = false
	_, err = c.EditMovie(admin, series.ID, f)
	if err != ErrHasEpisodes {
		t.Errorf("expected has episodes, got %v\n", err)
	}
	f = ep.Fields()
	f.SeriesParentID = &ep.ID
	_, err = c.EditMovie(admin, ep.ID, f)
	if err != ErrSeriesParent {
		t.Errorf("expected self parent error, got %v\n", err)
	}
}

func TestEpisodesOrder(t *testing.T) {
	c := testCatalog(t)
	series := addMovie(t, c, MovieFields{Title: "Show", IsSeries: true})
	for _, n := range []int{3, 1, 4, 2} {
		addMovie(t, c, MovieFields{Title: fmt.Sprintf("Ep %d", n),
			SeriesParentID: &series.ID, EpisodeNumber: intp(n)})
	}
	episodes := c.EpisodesOf(series)
	if len(episodes) != 4 {
		t.Fatalf("episodes %d\n", len(episodes))
	}
	for i, ep := range episodes {
		if ep.Episode() != i+1 {
			t.Errorf("episode %d at %d\n", ep.Episode(), i)
		}
	}

	role := c.RoleOf(episodes[1])
	if role.Kind != Episode || role.Number != 2 || role.Series == nil || role.Series.ID != series.ID {
		t.Errorf("role %+v\n", role)
	}
	if c.RoleOf(series).Kind != SeriesContainer {
		t.Error("expected series container")
	}
	next := c.NextEpisode(episodes[1])
	if next == nil || next.Episode() != 3 {
		t.Errorf("next %+v\n", next)
	}
	if c.NextEpisode(episodes[3]) != nil {
		t.Error("expected no next episode")
	}
	for _, m := range c.Movies(FilterAll) {
		if m.IsEpisode() {
			t.Errorf("episode %d listed on home\n", m.ID)
		}
	}
}

func TestFranchiseSiblings(t *testing.T) {
	c := testCatalog(t)
	fid := addFranchise(t, c, "Saga")
	a := addMovie(t, c, MovieFields{Title: "Part 1", FranchiseID: fid})
	b := addMovie(t, c, MovieFields{Title: "Part 2", FranchiseID: fid})
	d := addMovie(t, c, MovieFields{Title: "Part 3", FranchiseID: fid})
	lone := addMovie(t, c, MovieFields{Title: "Lone"})

	siblings := ids(c.FranchiseSiblings(b))
	if fmt.Sprint(siblings) != fmt.Sprint([]uint{a.ID, d.ID}) {
		t.Errorf("siblings %v\n", siblings)
	}
	if len(c.FranchiseSiblings(lone)) != 0 {
		t.Error("expected no siblings")
	}
	if c.FranchiseOf(a) == nil || c.FranchiseOf(lone) != nil {
		t.Error("franchise of")
	}

	if err := c.DeleteFranchise(admin, *fid); err != nil {
		t.Fatal(err)
	}
	m, err := c.LookupMovie(a.ID)
	if err != nil || m.FranchiseID != nil {
		t.Errorf("franchise kept %+v %v\n", m, err)
	}
}

func TestSuggestedFor(t *testing.T) {
	c := testCatalog(t)
	action := addCategory(t, c, "Action")
	drama := addCategory(t, c, "Drama")
	saga := addFranchise(t, c, "Saga")

	movie := addMovie(t, c, MovieFields{Title: "Main", CategoryID: action, FranchiseID: saga})
	sequel := addMovie(t, c, MovieFields{Title: "Sequel", CategoryID: action, FranchiseID: saga})
	series := addMovie(t, c, MovieFields{Title: "Show", CategoryID: action, IsSeries: true})
	episode := addMovie(t, c, MovieFields{Title: "Ep", CategoryID: action,
		SeriesParentID: &series.ID, EpisodeNumber: intp(1)})
	other := addMovie(t, c, MovieFields{Title: "Other", CategoryID: drama})
	var popular []Movie
	for i := 0; i < 12; i++ {
		m := addMovie(t, c, MovieFields{Title: fmt.Sprintf("Action %d", i), CategoryID: action})
		setViews(t, c, m, i*10)
		popular = append(popular, m)
	}
	setViews(t, c, series, 55)

	list, err := c.SuggestedFor(movie, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 10 {
		t.Errorf("expected 10 suggestions, got %d\n", len(list))
	}
	for i, m := range list {
		switch m.ID {
		case movie.ID, sequel.ID, episode.ID, other.ID:
			t.Errorf("unexpected suggestion %s\n", m.Title)
		}
		if i > 0 && list[i-1].Views < m.Views {
			t.Errorf("not ordered by views at %d\n", i)
		}
	}
	if list[0].ID != popular[11].ID {
		t.Errorf("expected most viewed first, got %s\n", list[0].Title)
	}

	// without a franchise the sequel is a candidate
	list, _ = c.SuggestedFor(Movie{Model: movie.Model, CategoryID: action}, 100)
	found := false
	for _, m := range list {
		found = found || m.ID == sequel.ID
		if m.ID == movie.ID || m.ID == episode.ID {
			t.Errorf("unexpected suggestion %s\n", m.Title)
		}
	}
	if !found {
		t.Error("expected sequel without franchise")
	}

	list, _ = c.SuggestedFor(addMovie(t, c, MovieFields{Title: "Nowhere"}), 10)
	if len(list) != 0 {
		t.Errorf("expected no suggestions, got %d\n", len(list))
	}
}

func TestDeleteCategory(t *testing.T) {
	c := testCatalog(t)
	cat := addCategory(t, c, "Horror")
	a := addMovie(t, c, MovieFields{Title: "Scary", CategoryID: cat})
	b := addMovie(t, c, MovieFields{Title: "Scarier", CategoryID: cat})

	if _, err := c.AddCategory(admin, "horror"); err != ErrCategoryExists {
		t.Errorf("expected exists, got %v\n", err)
	}
	if err := c.DeleteCategory(admin, *cat); err != nil {
		t.Fatal(err)
	}
	for _, id := range []uint{a.ID, b.ID} {
		m, err := c.LookupMovie(id)
		if err != nil {
			t.Fatalf("movie %d deleted\n", id)
		}
		if m.CategoryID != nil {
			t.Errorf("category kept on %d\n", id)
		}
	}
	if len(c.Categories()) != 0 {
		t.Error("category not deleted")
	}
	if err := c.DeleteCategory(admin, *cat); !fail.IsNotFound(err) {
		t.Errorf("expected not found, got %v\n", err)
	}
}

func TestRenameCategory(t *testing.T) {
	c := testCatalog(t)
	a := addCategory(t, c, "Comedy")
	addCategory(t, c, "Drama")
	cat, err := c.RenameCategory(admin, *a, "Comedies")
	if err != nil || cat.Name != "Comedies" {
		t.Errorf("rename %+v %v\n", cat, err)
	}
	if _, err = c.RenameCategory(admin, *a, "Drama"); err != ErrCategoryExists {
		t.Errorf("expected exists, got %v\n", err)
	}
}

func TestDeleteMovie(t *testing.T) {
	c := testCatalog(t)
	series := addMovie(t, c, MovieFields{Title: "Show", IsSeries: true})
	ep := addMovie(t, c, MovieFields{Title: "Ep", SeriesParentID: &series.ID, EpisodeNumber: intp(1)})

	var cleaned []uint
	c.OnDelete(func(tx *gorm.DB, id uint) error {
		cleaned = append(cleaned, id)
		return nil
	})
	if err := c.DeleteMovie(admin, series.ID); err != nil {
		t.Fatal(err)
	}
	if len(cleaned) != 1 || cleaned[0] != series.ID {
		t.Errorf("cleanups %v\n", cleaned)
	}
	m, err := c.LookupMovie(ep.ID)
	if err != nil {
		t.Fatal(err)
	}
	if m.SeriesParentID != nil || m.EpisodeNumber != nil {
		t.Errorf("episode kept parent %+v\n", m)
	}
	if _, err := c.LookupMovie(series.ID); !errors.Is(err, ErrMovieNotFound) {
		t.Errorf("expected not found, got %v\n", err)
	}
}

func TestDeleteRollback(t *testing.T) {
	c := testCatalog(t)
	a := addMovie(t, c, MovieFields{Title: "A"})
	b := addMovie(t, c, MovieFields{Title: "B"})
	boom := errors.New("boom")
	c.OnDelete(func(tx *gorm.DB, id uint) error {
		if id == b.ID {
			return boom
		}
		return nil
	})
	err := c.DeleteMovies(admin, []uint{a.ID, b.ID})
	if !errors.Is(err, fail.ErrStore) {
		t.Errorf("expected store error, got %v\n", err)
	}
	if c.MovieCount() != 2 {
		t.Errorf("partial delete, %d left\n", c.MovieCount())
	}
	if err := c.DeleteMovies(admin, nil); err != ErrNoSelection {
		t.Errorf("expected no selection, got %v\n", err)
	}
}

func TestPatchMovie(t *testing.T) {
	c := testCatalog(t)
	series := addMovie(t, c, MovieFields{Title: "Show", IsSeries: true})
	m := addMovie(t, c, MovieFields{Title: "Before", Description: "keep"})

	m, err := c.PatchMovie(admin, m.ID, []byte(`{"title":"After","display_order":3}`))
	if err != nil {
		t.Fatal(err)
	}
	if m.Title != "After" || m.DisplayOrder != 3 || m.Description != "keep" {
		t.Errorf("patched %+v\n", m)
	}
	patch := fmt.Sprintf(`{"series_parent_id":%d,"episode_number":2}`, series.ID)
	m, err = c.PatchMovie(admin, m.ID, []byte(patch))
	if err != nil {
		t.Fatal(err)
	}
	if !m.IsEpisode() || m.Episode() != 2 {
		t.Errorf("expected episode %+v\n", m)
	}
	m, err = c.PatchMovie(admin, m.ID, []byte(`{"series_parent_id":null,"episode_number":null}`))
	if err != nil || m.IsEpisode() {
		t.Errorf("expected standalone %+v %v\n", m, err)
	}
	if _, err = c.PatchMovie(admin, m.ID, []byte(`[1,2]`)); err != ErrBadPatch {
		t.Errorf("expected bad patch, got %v\n", err)
	}
}

func TestFilters(t *testing.T) {
	c := testCatalog(t)
	a := addMovie(t, c, MovieFields{Title: "A", DisplayOrder: 2})
	b := addMovie(t, c, MovieFields{Title: "B", DisplayOrder: 1})
	d := addMovie(t, c, MovieFields{Title: "C", DisplayOrder: 3})
	setViews(t, c, a, 50)
	setViews(t, c, d, 10)

	if got := ids(c.Movies(FilterAll)); fmt.Sprint(got) != fmt.Sprint([]uint{b.ID, a.ID, d.ID}) {
		t.Errorf("all %v\n", got)
	}
	if got := ids(c.Movies(FilterPopular)); fmt.Sprint(got) != fmt.Sprint([]uint{a.ID, d.ID, b.ID}) {
		t.Errorf("popular %v\n", got)
	}
	if got := ids(c.Movies(FilterNewest)); fmt.Sprint(got) != fmt.Sprint([]uint{d.ID, b.ID, a.ID}) {
		t.Errorf("newest %v\n", got)
	}
	if c.TotalViews() != 60 {
		t.Errorf("total views %d\n", c.TotalViews())
	}
	if len(c.RecentMovies(2)) != 2 {
		t.Error("recent")
	}
}

func TestTitlePrefix(t *testing.T) {
	c := testCatalog(t)
	addMovie(t, c, MovieFields{Title: "The Matrix"})
	addMovie(t, c, MovieFields{Title: "the thing"})
	addMovie(t, c, MovieFields{Title: "100% Love"})
	addMovie(t, c, MovieFields{Title: "Matrix Reloaded"})

	if n := len(c.TitlePrefix("THE", 10)); n != 2 {
		t.Errorf("expected 2, got %d\n", n)
	}
	if n := len(c.TitlePrefix("100%", 10)); n != 1 {
		t.Errorf("expected 1, got %d\n", n)
	}
	if n := len(c.TitlePrefix("1_0", 10)); n != 0 {
		t.Errorf("wildcard matched %d\n", n)
	}
	if n := len(c.TitlePrefix("", 10)); n != 0 {
		t.Errorf("empty prefix matched %d\n", n)
	}
}

func TestSearch(t *testing.T) {
	c := testCatalog(t)
	addMovie(t, c, MovieFields{Title: "Hành Động Phim"})
	addMovie(t, c, MovieFields{Title: "The Matrix", Description: "red pill"})

	// no index
	if n := len(c.Search("pill", 10)); n != 1 {
		t.Errorf("text search %d\n", n)
	}

	if err := c.OpenSearch(); err != nil {
		t.Fatal(err)
	}
	defer c.CloseSearch()
	if n, err := c.Reindex(); err != nil || n != 2 {
		t.Fatalf("reindex %d %v\n", n, err)
	}
	found := c.Search("hanh dong", 10)
	if len(found) != 1 || !strings.HasPrefix(found[0].Title, "Hành") {
		t.Errorf("folded search %+v\n", found)
	}
	if n := len(c.Search("mat", 10)); n != 1 {
		t.Errorf("prefix search %d\n", n)
	}
	if n := len(c.Search("the mat", 10)); n != 1 {
		t.Errorf("stop word search %d\n", n)
	}

	m := addMovie(t, c, MovieFields{Title: "Matrix Reloaded"})
	if n := len(c.Search("matrix", 10)); n != 2 {
		t.Errorf("indexed on add %d\n", n)
	}
	if err := c.DeleteMovie(admin, m.ID); err != nil {
		t.Fatal(err)
	}
	if n := len(c.Search("matrix", 10)); n != 1 {
		t.Errorf("unindexed on delete %d\n", n)
	}
}

func TestMoviesByID(t *testing.T) {
	c := testCatalog(t)
	a := addMovie(t, c, MovieFields{Title: "A"})
	b := addMovie(t, c, MovieFields{Title: "B"})
	list, err := c.MoviesByID([]uint{b.ID, 999, a.ID})
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(ids(list)) != fmt.Sprint([]uint{b.ID, a.ID}) {
		t.Errorf("order %v\n", ids(list))
	}
}
