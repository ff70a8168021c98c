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
	"net/http"
	"net/url"
	"strings"

	"github.com/defsub/reel/auth"
	"github.com/defsub/reel/lib/log"
)

const (
	LoginRedirect = "/login"

	AuthorizationHeader = "Authorization"
	BearerAuthorization = "Bearer"
)

type access int

const (
	accessUser access = iota
	accessAdmin
)

// getAuthToken returns the bearer token from the request, if any.
func getAuthToken(r *http.Request) string {
	value := r.Header.Get(AuthorizationHeader)
	if value == "" {
		return ""
	}
	result := strings.Split(value, " ")
	var token string
	switch len(result) {
	case 1:
		// Authorization: <token>
		token = result[0]
	case 2:
		// Authorization: Bearer <token>
		if strings.EqualFold(result[0], BearerAuthorization) {
			token = result[1]
		}
	}
	return token
}

// authorizeAccessToken returns the user of a valid JWT access token.
func authorizeAccessToken(ctx Context, r *http.Request) *auth.User {
	token := getAuthToken(r)
	if token == "" {
		return nil
	}
	a := ctx.Auth()
	session, err := a.AccessTokenSession(token)
	if err != nil {
		log.Debugf("access token: %s", err)
		return nil
	}
	user, err := a.SessionUser(session)
	if err != nil {
		return nil
	}
	return user
}

// authorizeCookie returns the user of the session cookie and refreshes
// it. Stale cookies are expired.
func authorizeCookie(ctx Context, w http.ResponseWriter, r *http.Request) *auth.User {
	a := ctx.Auth()
	cookie, err := r.Cookie(auth.CookieName)
	if err != nil {
		return nil
	}

	session := a.CookieSession(cookie)
	if session == nil {
		http.SetCookie(w, auth.ExpireCookie(cookie))
		return nil
	} else if session.Expired() {
		// old session
		a.Logout(session)
		http.SetCookie(w, auth.ExpireCookie(cookie))
		return nil
	}

	user, err := a.SessionUser(session)
	if err != nil {
		// session with no user?
		a.Logout(session)
		http.SetCookie(w, auth.ExpireCookie(cookie))
		return nil
	}

	if err := a.RefreshCookie(session, cookie); err == nil {
		http.SetCookie(w, cookie)
	}
	return user
}

func authorizeUser(ctx Context, w http.ResponseWriter, r *http.Request) *auth.User {
	user := authorizeAccessToken(ctx, r)
	if user != nil {
		return user
	}
	return authorizeCookie(ctx, w, r)
}

// loginURL returns the login page that comes back to r afterwards.
func loginURL(r *http.Request) string {
	next := r.URL.Path
	if r.URL.RawQuery != "" && r.Method == http.MethodGet {
		next += "?" + r.URL.RawQuery
	}
	return LoginRedirect + "?next=" + url.QueryEscape(next)
}

// safeNext only allows same site paths as a post login redirect.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") ||
		strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return SuccessRedirect
	}
	u, err := url.Parse(next)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return SuccessRedirect
	}
	return next
}

// protect runs handler only for users with the given access. Anonymous
// page requests go to the login page and API requests get 401.
func protect(ctx RequestContext, level access, api bool, handler http.HandlerFunc) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		user := authorizeUser(ctx, w, r)
		if user == nil {
			if api {
				jsonStatus(w, http.StatusUnauthorized, ErrUnauthorized.Error())
			} else {
				flash(w, flashError, ErrLoginFirst.Error())
				http.Redirect(w, r, loginURL(r), http.StatusSeeOther)
			}
			return
		}
		r = withContext(r, ctx.withUser(user))
		if level == accessAdmin {
			if err := auth.RequireAdmin(user); err != nil {
				if api {
					jsonErr(w, err)
				} else {
					htmlErr(w, r, err)
				}
				return
			}
		}
		handler.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}

func authHandler(ctx RequestContext, handler http.HandlerFunc) http.Handler {
	return protect(ctx, accessUser, false, handler)
}

func apiAuthHandler(ctx RequestContext, handler http.HandlerFunc) http.Handler {
	return protect(ctx, accessUser, true, handler)
}

func adminHandler(ctx RequestContext, handler http.HandlerFunc) http.Handler {
	return protect(ctx, accessAdmin, false, handler)
}

func apiAdminHandler(ctx RequestContext, handler http.HandlerFunc) http.Handler {
	return protect(ctx, accessAdmin, true, handler)
}

// requestHandler serves public routes. The user is set when the request
// carries a valid session.
func requestHandler(ctx RequestContext, handler http.HandlerFunc) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		user := authorizeUser(ctx, w, r)
		handler.ServeHTTP(w, withContext(r, ctx.withUser(user)))
	}
	return http.HandlerFunc(fn)
}
