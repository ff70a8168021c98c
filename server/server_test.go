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
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/defsub/reel/auth"
	"github.com/defsub/reel/catalog"
	g "github.com/defsub/reel/lib/gorm"
)

type testServer struct {
	ctx     RequestContext
	handler http.Handler
	admin   *auth.User
	alice   *auth.User
	movie   catalog.Movie
}

func newTestServer(t *testing.T) *testServer {
	cfg, db := g.OpenTest(t)
	cfg.Redis.URL = ""
	ctx, err := makeContext(cfg, db)
	if err != nil {
		t.Fatalf("makeContext %s\n", err)
	}
	hubCtx, cancel := context.WithCancel(context.Background())
	go ctx.Hub().Run(hubCtx)
	t.Cleanup(func() {
		cancel()
		ctx.Catalog().CloseSearch()
	})

	s := &testServer{ctx: ctx, handler: newMux(ctx)}
	user := func(name string, admin bool) *auth.User {
		u, err := ctx.Auth().AddUser(name, name+"@example.com", "password", admin)
		if err != nil {
			t.Fatal(err)
		}
		return &u
	}
	s.admin = user("admin", true)
	s.alice = user("alice", false)
	s.movie, err = ctx.Catalog().AddMovie(s.admin, catalog.MovieFields{
		Title:    "The Long Night",
		VideoURL: "https://example.com/night.mp4",
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func (s *testServer) do(t *testing.T, r *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, r)
	return w
}

func (s *testServer) cookie(t *testing.T, name string) *http.Cookie {
	session, err := s.ctx.Auth().Login(name, "password")
	if err != nil {
		t.Fatal(err)
	}
	cookie := s.ctx.Auth().NewCookie(&session)
	return &cookie
}

func (s *testServer) token(t *testing.T, name string) string {
	session, err := s.ctx.Auth().Login(name, "password")
	if err != nil {
		t.Fatal(err)
	}
	token, err := s.ctx.Auth().NewAccessToken(session)
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func jsonRequest(method, target string, body interface{}) *http.Request {
	var data []byte
	if body != nil {
		data, _ = json.Marshal(body)
	}
	r := httptest.NewRequest(method, target, strings.NewReader(string(data)))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %s\n", w.Body.String(), err)
	}
}

func TestMovieByURLKey(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, httptest.NewRequest("GET", "/movie/"+*s.movie.URLKey, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d\n", w.Code)
	}
	if !strings.Contains(w.Body.String(), "The Long Night") {
		t.Errorf("expected title in page\n")
	}
	m, err := s.ctx.Catalog().LookupMovie(s.movie.ID)
	if err != nil {
		t.Fatal(err)
	}
	if m.Views != 1 {
		t.Errorf("expected 1 view got %d\n", m.Views)
	}
}

func TestMovieLegacyKeysRedirect(t *testing.T) {
	s := newTestServer(t)
	want := "/movie/" + *s.movie.URLKey
	targets := []string{
		"/movie/" + *s.movie.Slug,
		"/movie/" + itoa(s.movie.ID),
		"/watch/" + itoa(s.movie.ID),
		"/watch?id=" + itoa(s.movie.ID),
		"/watch?movie_id=" + itoa(s.movie.ID),
		"/xem-phim/" + itoa(s.movie.ID),
	}
	for _, target := range targets {
		w := s.do(t, httptest.NewRequest("GET", target, nil))
		if w.Code != http.StatusMovedPermanently {
			t.Errorf("%s: expected 301 got %d\n", target, w.Code)
			continue
		}
		if loc := w.Header().Get("Location"); loc != want {
			t.Errorf("%s: expected %s got %s\n", target, want, loc)
		}
	}
	m, err := s.ctx.Catalog().LookupMovie(s.movie.ID)
	if err != nil {
		t.Fatal(err)
	}
	if m.Views != 0 {
		t.Errorf("redirects should not count views, got %d\n", m.Views)
	}
}

func TestMovieNotFound(t *testing.T) {
	s := newTestServer(t)
	for _, target := range []string{"/movie/nope", "/movie/9999", "/watch/abc", "/nowhere"} {
		w := s.do(t, httptest.NewRequest("GET", target, nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404 got %d\n", target, w.Code)
		}
	}
}

func TestWatchQueryInvalid(t *testing.T) {
	s := newTestServer(t)
	for _, target := range []string{"/watch", "/watch?id=abc", "/watch?movie_id=-3"} {
		w := s.do(t, httptest.NewRequest("GET", target, nil))
		if w.Code != http.StatusSeeOther {
			t.Errorf("%s: expected 303 got %d\n", target, w.Code)
			continue
		}
		if loc := w.Header().Get("Location"); loc != SuccessRedirect {
			t.Errorf("%s: expected %s got %s\n", target, SuccessRedirect, loc)
		}
		found := false
		for _, c := range w.Result().Cookies() {
			if c.Name == flashCookie && strings.Contains(c.Value, flashError) {
				found = true
			}
		}
		if !found {
			t.Errorf("%s: expected error flash\n", target)
		}
	}
	w := s.do(t, httptest.NewRequest("GET", "/watch?id=9999", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 got %d\n", w.Code)
	}
}

func TestHomeAndSearchPages(t *testing.T) {
	s := newTestServer(t)
	for _, target := range []string{"/", "/?filter=liked", "/search?q=long", "/register", "/login"} {
		w := s.do(t, httptest.NewRequest("GET", target, nil))
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200 got %d\n", target, w.Code)
		}
	}
}

func TestAPISearch(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, httptest.NewRequest("GET", "/api/search?q=the+lo", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d\n", w.Code)
	}
	var results []map[string]interface{}
	decode(t, w, &results)
	if len(results) != 1 {
		t.Fatalf("expected 1 result got %d\n", len(results))
	}
	for _, field := range []string{"id", "external_key", "title", "subtitle",
		"poster_url", "category_name", "views"} {
		if _, ok := results[0][field]; !ok {
			t.Errorf("missing field %s\n", field)
		}
	}
	if results[0]["external_key"] != *s.movie.URLKey {
		t.Errorf("expected url key got %v\n", results[0]["external_key"])
	}

	w = s.do(t, httptest.NewRequest("GET", "/api/search?q=", nil))
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("expected empty list got %s\n", w.Body.String())
	}
}

func TestToggleLikeWithCookie(t *testing.T) {
	s := newTestServer(t)
	cookie := s.cookie(t, "alice")
	for _, want := range []bool{true, false} {
		r := jsonRequest("POST", "/toggle_like", movieRef{MovieID: s.movie.ID})
		r.AddCookie(cookie)
		w := s.do(t, r)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d %s\n", w.Code, w.Body.String())
		}
		var result favoriteResult
		decode(t, w, &result)
		if !result.Success || result.IsFavorite != want {
			t.Errorf("expected favorite %v got %+v\n", want, result)
		}
	}
}

func TestAnonymousAPI(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, jsonRequest("POST", "/toggle_like", movieRef{MovieID: s.movie.ID}))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d\n", w.Code)
	}
	var result failure
	decode(t, w, &result)
	if result.Success || result.Error == "" {
		t.Errorf("unexpected error body %+v\n", result)
	}
}

func TestAnonymousPageRedirectsToLogin(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, httptest.NewRequest("GET", "/profile", nil))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 got %d\n", w.Code)
	}
	want := LoginRedirect + "?next=" + url.QueryEscape("/profile")
	if loc := w.Header().Get("Location"); loc != want {
		t.Errorf("expected %s got %s\n", want, loc)
	}
}

func TestLoginForm(t *testing.T) {
	s := newTestServer(t)
	form := url.Values{}
	form.Set("username", "alice")
	form.Set("password", "password")
	form.Set("next", "/favorites")
	r := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := s.do(t, r)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 got %d\n", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/favorites" {
		t.Errorf("expected /favorites got %s\n", loc)
	}
	found := false
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.CookieName && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected session cookie\n")
	}

	form.Set("next", "https://evil.example.com/")
	r = httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = s.do(t, r)
	if loc := w.Header().Get("Location"); loc != SuccessRedirect {
		t.Errorf("expected %s got %s\n", SuccessRedirect, loc)
	}
}

func TestAPILogin(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, jsonRequest("POST", "/api/login", login{Username: "alice", Password: "wrong"}))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 got %d\n", w.Code)
	}
	w = s.do(t, jsonRequest("POST", "/api/login", login{Username: "alice", Password: "password"}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d\n", w.Code)
	}
	var result loginResult
	decode(t, w, &result)
	if !result.Success || result.AccessToken == "" || result.ExpiresIn <= 0 {
		t.Errorf("unexpected login result %+v\n", result)
	}
}

func TestCommentsWithToken(t *testing.T) {
	s := newTestServer(t)
	bearer := BearerAuthorization + " " + s.token(t, "alice")

	r := jsonRequest("POST", "/comments", newComment{MovieID: s.movie.ID, Content: "  great  "})
	r.Header.Set(AuthorizationHeader, bearer)
	w := s.do(t, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d %s\n", w.Code, w.Body.String())
	}
	var posted commentResult
	decode(t, w, &posted)
	if posted.Comment.Content != "great" || posted.Comment.User.Username != "alice" {
		t.Errorf("unexpected comment %+v\n", posted.Comment)
	}

	r = jsonRequest("POST", "/comments/"+itoa(posted.Comment.ID)+"/like", nil)
	r.Header.Set(AuthorizationHeader, bearer)
	w = s.do(t, r)
	var liked likeResult
	decode(t, w, &liked)
	if !liked.Liked || liked.LikesCount != 1 {
		t.Errorf("unexpected like %+v\n", liked)
	}

	w = s.do(t, httptest.NewRequest("GET", "/comments?movie_id="+itoa(s.movie.ID), nil))
	var list commentsResult
	decode(t, w, &list)
	if len(list.Comments) != 1 || list.Comments[0].LikesCount != 1 {
		t.Errorf("unexpected comments %+v\n", list.Comments)
	}

	r = jsonRequest("POST", "/comments", newComment{MovieID: s.movie.ID, Content: "   "})
	r.Header.Set(AuthorizationHeader, bearer)
	w = s.do(t, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty content got %d\n", w.Code)
	}

	r = jsonRequest("DELETE", "/comments/"+itoa(posted.Comment.ID), nil)
	r.Header.Set(AuthorizationHeader, bearer)
	w = s.do(t, r)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 got %d\n", w.Code)
	}
	if n := s.ctx.Comments().Count(); n != 0 {
		t.Errorf("expected no comments got %d\n", n)
	}
}

func TestAdminForbidden(t *testing.T) {
	s := newTestServer(t)
	r := httptest.NewRequest("GET", "/admin", nil)
	r.AddCookie(s.cookie(t, "alice"))
	w := s.do(t, r)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 got %d\n", w.Code)
	}

	r = jsonRequest("POST", "/admin/movies/"+itoa(s.movie.ID)+"/quick_update",
		map[string]string{"title": "Nope"})
	r.Header.Set(AuthorizationHeader, BearerAuthorization+" "+s.token(t, "alice"))
	w = s.do(t, r)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 got %d\n", w.Code)
	}
}

func TestAdminPages(t *testing.T) {
	s := newTestServer(t)
	cookie := s.cookie(t, "admin")
	for _, target := range []string{
		"/admin",
		"/admin/movies",
		"/admin/movies/add",
		"/admin/movies/" + itoa(s.movie.ID) + "/edit",
		"/admin/categories",
		"/admin/franchises",
		"/admin/users",
	} {
		r := httptest.NewRequest("GET", target, nil)
		r.AddCookie(cookie)
		w := s.do(t, r)
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200 got %d\n", target, w.Code)
		}
	}
}

func TestQuickUpdate(t *testing.T) {
	s := newTestServer(t)
	r := jsonRequest("POST", "/admin/movies/"+itoa(s.movie.ID)+"/quick_update",
		map[string]interface{}{"title": "The Longer Night", "display_order": 3})
	r.Header.Set(AuthorizationHeader, BearerAuthorization+" "+s.token(t, "admin"))
	w := s.do(t, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d %s\n", w.Code, w.Body.String())
	}
	var result patchResult
	decode(t, w, &result)
	if result.Movie.Title != "The Longer Night" || result.Movie.DisplayOrder != 3 {
		t.Errorf("unexpected patch result %+v\n", result.Movie)
	}
	if result.Movie.ExternalKey != *s.movie.URLKey {
		t.Errorf("url key changed to %s\n", result.Movie.ExternalKey)
	}

	r = jsonRequest("POST", "/admin/movies/9999/quick_update", map[string]string{"title": "x"})
	r.Header.Set(AuthorizationHeader, BearerAuthorization+" "+s.token(t, "admin"))
	w = s.do(t, r)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 got %d\n", w.Code)
	}
	var body failure
	decode(t, w, &body)
	if body.Success || body.Error == "" {
		t.Errorf("unexpected error body %+v\n", body)
	}
}

func TestAdminDeleteMovie(t *testing.T) {
	s := newTestServer(t)
	r := httptest.NewRequest("POST", "/admin/movies/"+itoa(s.movie.ID)+"/delete", nil)
	r.AddCookie(s.cookie(t, "admin"))
	w := s.do(t, r)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 got %d\n", w.Code)
	}
	if _, err := s.ctx.Catalog().LookupMovie(s.movie.ID); err == nil {
		t.Errorf("expected movie to be deleted\n")
	}
}

func TestLiveUnknownMovie(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, httptest.NewRequest("GET", "/live?movie=9999", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 got %d\n", w.Code)
	}
}

func TestGetAuthToken(t *testing.T) {
	testData := []struct {
		header string
		token  string
	}{
		{"", ""},
		{"abc", "abc"},
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Basic abc", ""},
		{"a b c", ""},
	}
	for _, v := range testData {
		r := httptest.NewRequest("GET", "/", nil)
		if v.header != "" {
			r.Header.Set(AuthorizationHeader, v.header)
		}
		if token := getAuthToken(r); token != v.token {
			t.Errorf("%q: expected %q got %q\n", v.header, v.token, token)
		}
	}
}

func TestSafeNext(t *testing.T) {
	testData := map[string]string{
		"":                    SuccessRedirect,
		"/profile":            "/profile",
		"/movie/abc?x=1":      "/movie/abc?x=1",
		"//evil.example.com":  SuccessRedirect,
		"/\\evil.example.com": SuccessRedirect,
		"https://example.com": SuccessRedirect,
		"profile":             SuccessRedirect,
	}
	for next, want := range testData {
		if got := safeNext(next); got != want {
			t.Errorf("%q: expected %q got %q\n", next, want, got)
		}
	}
}

func TestRunJob(t *testing.T) {
	s := newTestServer(t)
	for _, name := range Jobs() {
		if err := runJob(s.ctx, name); err != nil {
			t.Errorf("%s: %s\n", name, err)
		}
	}
	if err := runJob(s.ctx, "nope"); err != ErrUnknownJob {
		t.Errorf("expected ErrUnknownJob got %v\n", err)
	}
}

func TestSchedule(t *testing.T) {
	s := newTestServer(t)
	scheduler := schedule(s.ctx)
	defer scheduler.Stop()
	want := 0
	cfg := s.ctx.Config()
	for _, d := range []time.Duration{cfg.Catalog.BackfillInterval,
		cfg.Session.PurgeInterval, cfg.Search.ReindexInterval} {
		if d > 0 {
			want++
		}
	}
	if n := len(scheduler.Jobs()); n != want {
		t.Errorf("expected %d jobs got %d\n", want, n)
	}
}

func TestAdminBulkDelete(t *testing.T) {
	s := newTestServer(t)
	other, err := s.ctx.Catalog().AddMovie(s.admin, catalog.MovieFields{
		Title:    "Morning",
		VideoURL: "https://example.com/morning.mp4",
	})
	if err != nil {
		t.Fatal(err)
	}
	cookie := s.cookie(t, "admin")

	form := url.Values{}
	form.Add("movie_ids", itoa(s.movie.ID))
	r := httptest.NewRequest("POST", "/admin/movies/bulk_delete", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.AddCookie(cookie)
	w := s.do(t, r)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 got %d\n", w.Code)
	}
	if n := s.ctx.Catalog().MovieCount(); n != 1 {
		t.Errorf("expected 1 movie got %d\n", n)
	}
	if _, err := s.ctx.Catalog().LookupMovie(other.ID); err != nil {
		t.Errorf("expected %s to remain\n", other.Title)
	}

	r = httptest.NewRequest("POST", "/admin/movies/bulk_delete", strings.NewReader("all=1"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.AddCookie(cookie)
	s.do(t, r)
	if n := s.ctx.Catalog().MovieCount(); n != 0 {
		t.Errorf("expected no movies got %d\n", n)
	}
}
