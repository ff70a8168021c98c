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
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/defsub/reel/auth"
	"github.com/defsub/reel/catalog"
	"github.com/defsub/reel/storage"
)

const (
	SuccessRedirect = "/"
	ProfileRedirect = "/profile"

	multipartMemory = 32 << 20
)

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 0)
	if err != nil || id == 0 {
		return 0, ErrInvalidID
	}
	return uint(id), nil
}

// pathID returns the :id route parameter.
func pathID(r *http.Request) (uint, error) {
	return parseID(r.URL.Query().Get(":id"))
}

// upload stores the file of a multipart field and returns its url, or
// "" when the field is empty.
func upload(r *http.Request, field string, kind storage.Kind) (string, error) {
	ctx := contextValue(r)
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", nil
		}
		return "", err
	}
	defer file.Close()
	if header.Filename == "" {
		return "", nil
	}
	var reader io.Reader = file
	if size := ctx.Config().Storage.MaxSize; size > 0 {
		reader = io.LimitReader(file, size+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return ctx.Storage().Store(r.Context(), header.Filename, data, kind)
}

// GET /?filter=all|popular|newest|watched|liked
func homeHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		notFoundErr(w, r)
		return
	}
	ctx := contextValue(r)
	view, err := homeView(ctx, r.URL.Query().Get("filter"))
	if err != nil {
		htmlErr(w, r, err)
		return
	}
	render(w, r, "index.html", "Home", view)
}

// GET /movie/:key
// 200: movie page
// 301: canonical location
// 404: not found
func movieHandler(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	res, err := ctx.Catalog().Resolve(r.URL.Query().Get(":key"))
	countResolve(res, err)
	if err != nil {
		htmlErr(w, r, err)
		return
	}
	if res.Redirect {
		http.Redirect(w, r, "/movie/"+url.PathEscape(res.Key), http.StatusMovedPermanently)
		return
	}
	view, err := movieView(ctx, res.Movie)
	if err != nil {
		htmlErr(w, r, err)
		return
	}
	render(w, r, "movie.html", res.Movie.Title, view)
}

// GET /watch/:id, /watch?id= or /watch?movie_id=, /xem-phim/:id
// 301: canonical location
// 303: home with an error flash for a bad query id
// 404: not found
func legacyHandler(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	v := r.URL.Query().Get(":id")
	query := v == ""
	if query {
		v = r.URL.Query().Get("id")
	}
	if v == "" {
		v = r.URL.Query().Get("movie_id")
	}
	id, err := parseID(v)
	if err != nil {
		if query {
			formErr(w, r, ErrInvalidWatchLink, SuccessRedirect)
		} else {
			notFoundErr(w, r)
		}
		return
	}
	m, err := ctx.Catalog().LookupMovie(id)
	if err != nil {
		countResolve(catalog.Resolution{}, err)
		htmlErr(w, r, err)
		return
	}
	countResolve(catalog.Resolution{Redirect: true}, nil)
	http.Redirect(w, r, movieLink(m), http.StatusMovedPermanently)
}

// GET /category/:id
func categoryHandler(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	id, err := pathID(r)
	if err != nil {
		notFoundErr(w, r)
		return
	}
	cat, err := ctx.Catalog().LookupCategory(id)
	if err != nil {
		htmlErr(w, r, err)
		return
	}
	render(w, r, "category.html", cat.Name, categoryView(ctx, cat))
}

// GET /franchise/:id
func franchiseHandler(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	id, err := pathID(r)
	if err != nil {
		notFoundErr(w, r)
		return
	}
	f, err := ctx.Catalog().LookupFranchise(id)
	if err != nil {
		htmlErr(w, r, err)
		return
	}
	render(w, r, "franchise.html", f.Name, franchiseView(ctx, f))
}

// GET /search?q=
func searchHandler(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	render(w, r, "search.html", "Search", searchView(ctx, q))
}

// GET|POST /register
func registerHandler(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	if ctx.User() != nil {
		http.Redirect(w, r, SuccessRedirect, http.StatusSeeOther)
		return
	}
	if r.Method != http.MethodPost {
		render(w, r, "register.html", "Register", &AccountView{})
		return
	}
	r.ParseForm()
	_, err := ctx.Auth().Register(
		r.Form.Get("username"),
		r.Form.Get("email"),
		r.Form.Get("password"),
		r.Form.Get("confirm_password"))
	if err != nil {
		formErr(w, r, err, "/register")
		return
	}
	flash(w, flashSuccess, "Registration successful, please log in.")
	http.Redirect(w, r, LoginRedirect, http.StatusSeeOther)
}

// GET|POST /login?next=
func loginHandler(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	r.ParseForm()
	next := safeNext(r.Form.Get("next"))
	if ctx.User() != nil {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	if r.Method != http.MethodPost {
		render(w, r, "login.html", "Login", &AccountView{Next: next})
		return
	}
	a := ctx.Auth()
	session, err := a.Login(r.Form.Get("username"), r.Form.Get("password"))
	if err != nil {
		formErr(w, r, err, loginURLFor(next))
		return
	}
	cookie := a.NewCookie(&session)
	http.SetCookie(w, &cookie)
	// Use 303 for PRG
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func loginURLFor(next string) string {
	if next == SuccessRedirect {
		return LoginRedirect
	}
	return LoginRedirect + "?next=" + url.QueryEscape(next)
}

// GET /logout
func logoutHandler(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	a := ctx.Auth()
	if cookie, err := r.Cookie(auth.CookieName); err == nil {
		if session := a.CookieSession(cookie); session != nil {
			a.Logout(session)
		}
		http.SetCookie(w, auth.ExpireCookie(cookie))
	}
	http.Redirect(w, r, SuccessRedirect, http.StatusSeeOther)
}

// GET /profile
func profileHandler(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	view, err := profileView(ctx)
	if err != nil {
		htmlErr(w, r, err)
		return
	}
	render(w, r, "profile.html", "Profile", view)
}

// GET /favorites
func favoritesHandler(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	view, err := favoritesView(ctx)
	if err != nil {
		htmlErr(w, r, err)
		return
	}
	render(w, r, "favorites.html", "Favorites", view)
}

// POST /update_profile
func updateProfileHandler(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	r.ParseForm()
	err := ctx.Auth().UpdateProfile(ctx.User(),
		r.Form.Get("username"),
		r.Form.Get("email"),
		strings.TrimSpace(r.Form.Get("avatar_url")))
	if err != nil {
		formErr(w, r, err, ProfileRedirect)
		return
	}
	flash(w, flashSuccess, "Profile updated.")
	http.Redirect(w, r, ProfileRedirect, http.StatusSeeOther)
}

// POST /change_password
func changePasswordHandler(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	r.ParseForm()
	err := ctx.Auth().ChangePassword(ctx.User(),
		r.Form.Get("current_password"),
		r.Form.Get("new_password"),
		r.Form.Get("confirm_password"))
	if err != nil {
		formErr(w, r, err, ProfileRedirect)
		return
	}
	flash(w, flashSuccess, "Password changed.")
	http.Redirect(w, r, ProfileRedirect, http.StatusSeeOther)
}

// POST /upload_avatar (multipart avatar_file)
func uploadAvatarHandler(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		formErr(w, r, storage.ErrEmpty, ProfileRedirect)
		return
	}
	loc, err := upload(r, "avatar_file", storage.Avatar)
	if err == nil && loc == "" {
		err = storage.ErrEmpty
	}
	if err == nil {
		err = ctx.Auth().SetAvatar(ctx.User(), loc)
	}
	if err != nil {
		formErr(w, r, err, ProfileRedirect)
		return
	}
	flash(w, flashSuccess, "Avatar uploaded.")
	http.Redirect(w, r, ProfileRedirect, http.StatusSeeOther)
}
