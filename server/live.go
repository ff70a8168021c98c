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
	"fmt"
	"net/http"

	"github.com/defsub/reel/comment"
	"github.com/defsub/reel/lib/hub"
	"github.com/defsub/reel/lib/log"
)

const (
	livePosted  = "posted"
	liveDeleted = "deleted"
)

type liveMessage struct {
	Type    string        `json:"type"`
	ID      uint          `json:"id,omitempty"`
	Comment *comment.View `json:"comment,omitempty"`
}

func movieTopic(id uint) string {
	return fmt.Sprintf("movie:%d", id)
}

// livePublisher forwards comment events to the viewers of the movie.
type livePublisher struct {
	hub *hub.Hub
}

func (p livePublisher) Posted(v comment.View) {
	p.publish(v.MovieID, liveMessage{Type: livePosted, ID: v.ID, Comment: &v})
}

func (p livePublisher) Deleted(movieID, commentID uint) {
	p.publish(movieID, liveMessage{Type: liveDeleted, ID: commentID})
}

func (p livePublisher) publish(movieID uint, msg liveMessage) {
	body, err := json.Marshal(msg)
	if err != nil {
		log.Println(err)
		return
	}
	p.hub.Publish(movieTopic(movieID), body)
}

// GET /live?movie=ID
// websocket of live comment events for a movie
func hubHandler(ctx RequestContext) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r.URL.Query().Get("movie"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if _, err := ctx.Catalog().LookupMovie(id); err != nil {
			code := errStatus(err)
			http.Error(w, errMessage(err, code), code)
			return
		}
		ctx.Hub().Handle(movieTopic(id), w, r)
	}
	return http.HandlerFunc(fn)
}
