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
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/defsub/reel/auth"
	"github.com/defsub/reel/catalog"
	"github.com/defsub/reel/config"
)

//go:embed res/static
var resStatic embed.FS

func mountResFS(resFS embed.FS) http.FileSystem {
	fsys, err := fs.Sub(resFS, "res")
	if err != nil {
		panic(err)
	}
	return http.FS(fsys)
}

//go:embed res/template
var resTemplates embed.FS

func getTemplateFS(config *config.Config) fs.FS {
	return resTemplates
}

func getTemplates(config *config.Config) *template.Template {
	return template.Must(template.New("").Funcs(doFuncMap(config)).ParseFS(getTemplateFS(config),
		"res/template/*.html",
		"res/template/admin/*.html"))
}

func movieLink(m catalog.Movie) string {
	return "/movie/" + url.PathEscape(catalog.CanonicalKey(m))
}

func doFuncMap(config *config.Config) template.FuncMap {
	return template.FuncMap{
		"join": strings.Join,
		"ymd": func(t time.Time) string {
			return t.Format("2006-01-02")
		},
		"link": func(o interface{}) string {
			var link string
			switch v := o.(type) {
			case catalog.Movie:
				link = movieLink(v)
			case *catalog.Movie:
				link = movieLink(*v)
			case catalog.Category:
				link = fmt.Sprintf("/category/%d", v.ID)
			case *catalog.Category:
				link = fmt.Sprintf("/category/%d", v.ID)
			case catalog.Franchise:
				link = fmt.Sprintf("/franchise/%d", v.ID)
			case *catalog.Franchise:
				link = fmt.Sprintf("/franchise/%d", v.ID)
			}
			return link
		},
		"poster": func(m catalog.Movie) string {
			if m.PosterURL == "" {
				return config.Catalog.DefaultPoster
			}
			return m.PosterURL
		},
		"clock": func(seconds int) string {
			h := seconds / 3600
			m := (seconds % 3600) / 60
			s := seconds % 60
			if h > 0 {
				return fmt.Sprintf("%d:%02d:%02d", h, m, s)
			}
			return fmt.Sprintf("%d:%02d", m, s)
		},
		"selected": func(id *uint, want uint) bool {
			return id != nil && *id == want
		},
		"deref": func(n *int) int {
			if n == nil {
				return 0
			}
			return *n
		},
	}
}

// Page wraps every view with the data the layout needs.
type Page struct {
	Title      string
	Path       string
	User       *auth.User
	Flash      []Flash
	Categories []catalog.Category
	View       interface{}
}

func render(w http.ResponseWriter, r *http.Request, temp, title string, view interface{}) {
	renderStatus(w, r, http.StatusOK, temp, title, view)
}

func renderStatus(w http.ResponseWriter, r *http.Request, code int,
	temp, title string, view interface{}) {
	ctx := contextValue(r)
	page := Page{
		Title:      title,
		Path:       r.URL.Path,
		User:       ctx.User(),
		Flash:      takeFlash(w, r),
		Categories: ctx.Catalog().Categories(),
		View:       view,
	}
	var buf bytes.Buffer
	err := ctx.Template().ExecuteTemplate(&buf, temp, page)
	if err != nil {
		serverErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	buf.WriteTo(w)
}
