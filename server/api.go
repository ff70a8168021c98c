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
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/defsub/reel/auth"
	"github.com/defsub/reel/catalog"
	"github.com/defsub/reel/comment"
)

const maxBody = 1 << 20

// readJSON decodes the request body into v.
func readJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		return ErrInvalidJSON
	}
	if err := json.Unmarshal(body, v); err != nil {
		return ErrInvalidJSON
	}
	return nil
}

type searchResult struct {
	ID           uint   `json:"id"`
	ExternalKey  string `json:"external_key"`
	Title        string `json:"title"`
	Subtitle     string `json:"subtitle"`
	PosterURL    string `json:"poster_url"`
	CategoryName string `json:"category_name"`
	Views        int    `json:"views"`
}

// GET /api/search?q= > []searchResult
// 200: success
func apiSearch(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	c := ctx.Catalog()
	results := []searchResult{}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q != "" {
		names := c.CategoryMap()
		for _, m := range c.TitlePrefix(q, ctx.Config().Catalog.SearchLimit) {
			result := searchResult{
				ID:          m.ID,
				ExternalKey: catalog.CanonicalKey(m),
				Title:       m.Title,
				Subtitle:    m.Subtitle,
				PosterURL:   m.PosterURL,
				Views:       m.Views,
			}
			if m.CategoryID != nil {
				result.CategoryName = names[*m.CategoryID].Name
			}
			results = append(results, result)
		}
	}
	writeJSON(w, http.StatusOK, results)
}

type login struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResult struct {
	Success     bool   `json:"success"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// POST /api/login < login{} > loginResult{}
// 200: success
// 401: fail
func apiLogin(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	var l login
	if err := readJSON(w, r, &l); err != nil {
		jsonErr(w, err)
		return
	}
	a := ctx.Auth()
	session, err := a.Login(l.Username, l.Password)
	if err != nil {
		if auth.CredentialsError(err) {
			jsonStatus(w, http.StatusUnauthorized, err.Error())
		} else {
			jsonErr(w, err)
		}
		return
	}
	token, err := a.NewAccessToken(session)
	if err != nil {
		jsonErr(w, err)
		return
	}
	age := ctx.Config().Auth.AccessToken.Age
	if d := session.Duration(); d < age {
		age = d
	}
	writeJSON(w, http.StatusOK, loginResult{
		Success:     true,
		AccessToken: token,
		ExpiresIn:   int(age.Seconds()),
	})
}

type watchPosition struct {
	MovieID  uint    `json:"movie_id"`
	Position float64 `json:"position"`
}

type success struct {
	Success bool `json:"success"`
}

// POST /save_watch_position < watchPosition{} > success{}
func saveWatchPosition(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	var p watchPosition
	if err := readJSON(w, r, &p); err != nil {
		jsonErr(w, err)
		return
	}
	position := 0
	if p.Position > 0 && !math.IsInf(p.Position, 0) {
		position = int(math.Min(p.Position, math.MaxInt32))
	}
	err := ctx.Engagement().RecordWatch(ctx.User(), p.MovieID, position)
	if err != nil {
		jsonErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, success{Success: true})
}

type movieRef struct {
	MovieID uint `json:"movie_id"`
}

type favoriteResult struct {
	Success    bool `json:"success"`
	IsFavorite bool `json:"is_favorite"`
}

// POST /toggle_like < movieRef{} > favoriteResult{}
func toggleLike(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	var ref movieRef
	if err := readJSON(w, r, &ref); err != nil {
		jsonErr(w, err)
		return
	}
	favorite, err := ctx.Engagement().ToggleFavorite(ctx.User(), ref.MovieID)
	if err != nil {
		jsonErr(w, err)
		return
	}
	countToggle("favorite", favorite)
	writeJSON(w, http.StatusOK, favoriteResult{Success: true, IsFavorite: favorite})
}

type commentsResult struct {
	Success  bool           `json:"success"`
	Comments []comment.View `json:"comments"`
}

// GET /comments?movie_id= > commentsResult{}
func apiComments(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	id, err := parseID(r.URL.Query().Get("movie_id"))
	if err != nil {
		jsonErr(w, err)
		return
	}
	list, err := ctx.Comments().List(id, ctx.User())
	if err != nil {
		jsonErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, commentsResult{Success: true, Comments: list})
}

type newComment struct {
	MovieID  uint   `json:"movie_id"`
	Content  string `json:"content"`
	ParentID *uint  `json:"parent_id"`
}

type commentResult struct {
	Success bool         `json:"success"`
	Comment comment.View `json:"comment"`
}

// POST /comments < newComment{} > commentResult{}
func apiPostComment(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	var c newComment
	if err := readJSON(w, r, &c); err != nil {
		jsonErr(w, err)
		return
	}
	v, err := ctx.Comments().Post(r.Context(), ctx.User(), c.MovieID, c.ParentID, c.Content)
	if err != nil {
		jsonErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, commentResult{Success: true, Comment: v})
}

// DELETE /comments/:id > success{}
func apiDeleteComment(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	id, err := pathID(r)
	if err != nil {
		jsonErr(w, err)
		return
	}
	if err := ctx.Comments().Delete(ctx.User(), id); err != nil {
		jsonErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, success{Success: true})
}

type likeResult struct {
	Success    bool  `json:"success"`
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likes_count"`
}

// POST /comments/:id/like > likeResult{}
func apiLikeComment(w http.ResponseWriter, r *http.Request) {
	ctx := contextValue(r)
	id, err := pathID(r)
	if err != nil {
		jsonErr(w, err)
		return
	}
	liked, count, err := ctx.Comments().ToggleLike(ctx.User(), id)
	if err != nil {
		jsonErr(w, err)
		return
	}
	countToggle("comment_like", liked)
	writeJSON(w, http.StatusOK, likeResult{Success: true, Liked: liked, LikesCount: count})
}
