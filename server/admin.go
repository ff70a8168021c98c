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
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/defsub/reel/catalog"
	"github.com/defsub/reel/storage"
)

const (
	AdminMovies     = "/admin/movies"
	AdminCategories = "/admin/categories"
	AdminFranchises = "/admin/franchises"
	AdminUsers      = "/admin/users"
)

func parseForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(multipartMemory)
	}
	return r.ParseForm()
}

func formID(r *http.Request, name string) *uint {
	id, err := parseID(r.Form.Get(name))
	if err != nil {
		return nil
	}
	return &id
}

func formInt(r *http.Request, name string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(r.Form.Get(name)))
	if err != nil {
		return nil
	}
	return &n
}

// movieFields reads the movie form. Uploaded files replace the urls
// typed into the form.
func movieFields(r *http.Request) (catalog.MovieFields, error) {
	f := catalog.MovieFields{
		Title:          r.Form.Get("title"),
		Subtitle:       r.Form.Get("subtitle"),
		Description:    r.Form.Get("description"),
		VideoURL:       strings.TrimSpace(r.Form.Get("video_url")),
		PosterURL:      strings.TrimSpace(r.Form.Get("poster_url")),
		SubtitleURL:    strings.TrimSpace(r.Form.Get("subtitle_url")),
		CategoryID:     formID(r, "category_id"),
		FranchiseID:    formID(r, "franchise_id"),
		SeriesParentID: formID(r, "series_parent_id"),
		EpisodeNumber:  formInt(r, "episode_number"),
		IsSeries:       r.Form.Get("is_series") != "",
	}
	if n := formInt(r, "display_order"); n != nil {
		f.DisplayOrder = *n
	}
	files := []struct {
		field  string
		kind   storage.Kind
		target *string
	}{
		{"poster", storage.Poster, &f.PosterURL},
		{"video", storage.Video, &f.VideoURL},
		{"subtitle_file", storage.Subtitle, &f.SubtitleURL},
	}
	for _, file := range files {
		loc, err := upload(r, file.field, file.kind)
		if err != nil {
			return f, err
		}
		if loc != "" {
			*file.target = loc
		}
	}
	return f, nil
}

// GET /admin
func adminDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	render(w, r, "dashboard.html", "Admin", dashboardView(ctx))
}

// GET /admin/movies
func adminMovies(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	render(w, r, "movies.html", "Movies", adminMoviesView(ctx))
}

// GET|POST /admin/movies/add
func adminAddMovie(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	const action = AdminMovies + "/add"
	if r.Method != http.MethodPost {
		view := movieFormView(ctx, nil, catalog.MovieFields{}, action)
		render(w, r, "movie_form.html", "Add movie", view)
		return
	}
	if err := parseForm(r); err != nil {
		formErr(w, r, ErrInvalidForm, action)
		return
	}
	f, err := movieFields(r)
	if err != nil {
		formErr(w, r, err, action)
		return
	}
	m, err := ctx.Catalog().AddMovie(ctx.User(), f)
	if err != nil {
		formErr(w, r, err, action)
		return
	}
	flash(w, flashSuccess, fmt.Sprintf("Added %s.", m.Title))
	http.Redirect(w, r, AdminMovies, http.StatusSeeOther)
}

// GET|POST /admin/movies/:id/edit
func adminEditMovie(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	id, err := pathID(r)
	if err != nil {
		notFoundErr(w, r)
		return
	}
	c := ctx.Catalog()
	m, err := c.LookupMovie(id)
	if err != nil {
		htmlErr(w, r, err)
		return
	}
	action := fmt.Sprintf("%s/%d/edit", AdminMovies, id)
	if r.Method != http.MethodPost {
		view := movieFormView(ctx, &m, m.Fields(), action)
		render(w, r, "movie_form.html", "Edit "+m.Title, view)
		return
	}
	if err := parseForm(r); err != nil {
		formErr(w, r, ErrInvalidForm, action)
		return
	}
	f, err := movieFields(r)
	if err != nil {
		formErr(w, r, err, action)
		return
	}
	m, err = c.EditMovie(ctx.User(), id, f)
	if err != nil {
		formErr(w, r, err, action)
		return
	}
	flash(w, flashSuccess, fmt.Sprintf("Updated %s.", m.Title))
	http.Redirect(w, r, AdminMovies, http.StatusSeeOther)
}

type patchedMovie struct {
	ID          uint   `json:"id"`
	ExternalKey string `json:"external_key"`
	catalog.MovieFields
}

type patchResult struct {
	Success bool         `json:"success"`
	Movie   patchedMovie `json:"movie"`
}

// POST /admin/movies/:id/quick_update < merge patch > patchResult{}
// 200: success
// 400: invalid patch or fields
// 404: not found
func adminQuickUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	id, err := pathID(r)
	if err != nil {
		jsonErr(w, err)
		return
	}
	patch, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		jsonErr(w, ErrInvalidJSON)
		return
	}
	m, err := ctx.Catalog().PatchMovie(ctx.User(), id, patch)
	if err != nil {
		jsonErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, patchResult{
		Success: true,
		Movie: patchedMovie{
			ID:          m.ID,
			ExternalKey: catalog.CanonicalKey(m),
			MovieFields: m.Fields(),
		},
	})
}

// POST /admin/movies/:id/delete
func adminDeleteMovie(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	id, err := pathID(r)
	if err != nil {
		notFoundErr(w, r)
		return
	}
	if err := ctx.Catalog().DeleteMovie(ctx.User(), id); err != nil {
		formErr(w, r, err, AdminMovies)
		return
	}
	flash(w, flashSuccess, "Movie deleted.")
	http.Redirect(w, r, AdminMovies, http.StatusSeeOther)
}

// POST /admin/movies/bulk_delete (movie_ids=1&movie_ids=2 or all=1)
func adminBulkDelete(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	r.ParseForm()
	c := ctx.Catalog()
	var ids []uint
	if r.Form.Get("all") != "" {
		ids = c.MovieIDs()
	} else {
		for _, v := range r.Form["movie_ids"] {
			if id, err := parseID(v); err == nil {
				ids = append(ids, id)
			}
		}
	}
	if err := c.DeleteMovies(ctx.User(), ids); err != nil {
		formErr(w, r, err, AdminMovies)
		return
	}
	flash(w, flashSuccess, fmt.Sprintf("Deleted %d movies.", len(ids)))
	http.Redirect(w, r, AdminMovies, http.StatusSeeOther)
}

// GET /admin/categories
func adminCategories(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	view := &AdminCategoriesView{Categories: ctx.Catalog().Categories()}
	render(w, r, "categories.html", "Categories", view)
}

// POST /admin/categories/add
func adminAddCategory(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	r.ParseForm()
	cat, err := ctx.Catalog().AddCategory(ctx.User(), r.Form.Get("name"))
	if err != nil {
		formErr(w, r, err, AdminCategories)
		return
	}
	flash(w, flashSuccess, fmt.Sprintf("Added %s.", cat.Name))
	http.Redirect(w, r, AdminCategories, http.StatusSeeOther)
}

// POST /admin/categories/:id/rename
func adminRenameCategory(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	id, err := pathID(r)
	if err != nil {
		notFoundErr(w, r)
		return
	}
	r.ParseForm()
	cat, err := ctx.Catalog().RenameCategory(ctx.User(), id, r.Form.Get("name"))
	if err != nil {
		formErr(w, r, err, AdminCategories)
		return
	}
	flash(w, flashSuccess, fmt.Sprintf("Renamed to %s.", cat.Name))
	http.Redirect(w, r, AdminCategories, http.StatusSeeOther)
}

// POST /admin/categories/:id/delete
func adminDeleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	id, err := pathID(r)
	if err != nil {
		notFoundErr(w, r)
		return
	}
	if err := ctx.Catalog().DeleteCategory(ctx.User(), id); err != nil {
		formErr(w, r, err, AdminCategories)
		return
	}
	flash(w, flashSuccess, "Category deleted.")
	http.Redirect(w, r, AdminCategories, http.StatusSeeOther)
}

func franchiseForm(r *http.Request) catalog.Franchise {
	return catalog.Franchise{
		Name:        r.Form.Get("name"),
		Description: r.Form.Get("description"),
		PosterURL:   strings.TrimSpace(r.Form.Get("poster_url")),
	}
}

// GET /admin/franchises
func adminFranchises(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	view := &AdminFranchisesView{Franchises: ctx.Catalog().Franchises()}
	render(w, r, "franchises.html", "Franchises", view)
}

// POST /admin/franchises/add
func adminAddFranchise(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	if err := parseForm(r); err != nil {
		formErr(w, r, ErrInvalidForm, AdminFranchises)
		return
	}
	f := franchiseForm(r)
	loc, err := upload(r, "poster", storage.Poster)
	if err == nil {
		if loc != "" {
			f.PosterURL = loc
		}
		f, err = ctx.Catalog().AddFranchise(ctx.User(), f)
	}
	if err != nil {
		formErr(w, r, err, AdminFranchises)
		return
	}
	flash(w, flashSuccess, fmt.Sprintf("Added %s.", f.Name))
	http.Redirect(w, r, AdminFranchises, http.StatusSeeOther)
}

// GET|POST /admin/franchises/:id/edit
func adminEditFranchise(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	id, err := pathID(r)
	if err != nil {
		notFoundErr(w, r)
		return
	}
	c := ctx.Catalog()
	f, err := c.LookupFranchise(id)
	if err != nil {
		htmlErr(w, r, err)
		return
	}
	action := fmt.Sprintf("%s/%d/edit", AdminFranchises, id)
	if r.Method != http.MethodPost {
		view := &FranchiseFormView{Franchise: f, Action: action}
		render(w, r, "franchise_form.html", "Edit "+f.Name, view)
		return
	}
	if err := parseForm(r); err != nil {
		formErr(w, r, ErrInvalidForm, action)
		return
	}
	edit := franchiseForm(r)
	loc, err := upload(r, "poster", storage.Poster)
	if err == nil {
		if loc != "" {
			edit.PosterURL = loc
		}
		f, err = c.EditFranchise(ctx.User(), id, edit)
	}
	if err != nil {
		formErr(w, r, err, action)
		return
	}
	flash(w, flashSuccess, fmt.Sprintf("Updated %s.", f.Name))
	http.Redirect(w, r, AdminFranchises, http.StatusSeeOther)
}

// POST /admin/franchises/:id/delete
func adminDeleteFranchise(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	id, err := pathID(r)
	if err != nil {
		notFoundErr(w, r)
		return
	}
	if err := ctx.Catalog().DeleteFranchise(ctx.User(), id); err != nil {
		formErr(w, r, err, AdminFranchises)
		return
	}
	flash(w, flashSuccess, "Franchise deleted.")
	http.Redirect(w, r, AdminFranchises, http.StatusSeeOther)
}

// GET /admin/users
func adminUsers(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	view := &AdminUsersView{Users: ctx.Auth().Users()}
	render(w, r, "users.html", "Users", view)
}

// POST /admin/users/:id/toggle_admin
func adminToggleAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	id, err := pathID(r)
	if err != nil {
		notFoundErr(w, r)
		return
	}
	u, err := ctx.Auth().ToggleAdmin(ctx.User(), id)
	if err != nil {
		formErr(w, r, err, AdminUsers)
		return
	}
	role := "a regular user"
	if u.IsAdmin {
		role = "an admin"
	}
	flash(w, flashSuccess, fmt.Sprintf("%s is now %s.", u.Username, role))
	http.Redirect(w, r, AdminUsers, http.StatusSeeOther)
}

// POST /admin/users/:id/delete
func adminDeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	id, err := pathID(r)
	if err != nil {
		notFoundErr(w, r)
		return
	}
	u, err := ctx.Auth().DeleteUser(ctx.User(), id)
	if err != nil {
		formErr(w, r, err, AdminUsers)
		return
	}
	flash(w, flashSuccess, fmt.Sprintf("Deleted %s.", u.Username))
	http.Redirect(w, r, AdminUsers, http.StatusSeeOther)
}
