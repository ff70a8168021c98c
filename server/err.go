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
	"encoding/json"
	"errors"
	"net/http"

	"github.com/defsub/reel/comment"
	"github.com/defsub/reel/lib/fail"
	"github.com/defsub/reel/lib/log"
)

var (
	ErrInvalidJSON      = fail.Invalid("invalid request body")
	ErrInvalidForm      = fail.Invalid("invalid form")
	ErrInvalidID        = fail.Invalid("invalid id")
	ErrInvalidWatchLink = fail.Invalid("invalid watch link")
	ErrUnauthorized     = errors.New("login required")
	ErrLoginFirst       = errors.New("please log in to continue")
	ErrNotFound         = fail.NotFound("page")
)

const internalError = "internal server error"

// errStatus maps an error kind to its http status.
func errStatus(err error) int {
	switch {
	case errors.Is(err, comment.ErrRateLimited):
		return http.StatusTooManyRequests
	case fail.IsNotFound(err):
		return http.StatusNotFound
	case fail.IsInvalid(err):
		return http.StatusBadRequest
	case fail.IsForbidden(err):
		return http.StatusForbidden
	case fail.IsConflict(err):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// errMessage hides the details of server errors from clients.
func errMessage(err error, code int) string {
	if code == http.StatusInternalServerError {
		log.Println(err)
		return internalError
	}
	return err.Error()
}

type failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	if err := enc.Encode(v); err != nil {
		log.Println(err)
	}
}

func jsonStatus(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, failure{Success: false, Error: msg})
}

func jsonErr(w http.ResponseWriter, err error) {
	code := errStatus(err)
	jsonStatus(w, code, errMessage(err, code))
}

type ErrorView struct {
	Code    int
	Message string
}

// htmlErr renders the error page with the status of err.
func htmlErr(w http.ResponseWriter, r *http.Request, err error) {
	code := errStatus(err)
	view := &ErrorView{Code: code, Message: errMessage(err, code)}
	renderStatus(w, r, code, "error.html", http.StatusText(code), view)
}

func notFoundErr(w http.ResponseWriter, r *http.Request) {
	htmlErr(w, r, ErrNotFound)
}

// formErr shows err as a flash message on the redirect target.
func formErr(w http.ResponseWriter, r *http.Request, err error, redirect string) {
	code := errStatus(err)
	flash(w, flashError, errMessage(err, code))
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

func serverErr(w http.ResponseWriter, err error) {
	if err != nil {
		log.Println(err)
		http.Error(w, internalError, http.StatusInternalServerError)
	}
}
