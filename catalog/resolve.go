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
	"strings"
)

// Resolution is the outcome of resolving an external key. When Redirect
// is set the caller should issue a permanent redirect to Key instead of
// rendering Movie.
type Resolution struct {
	Movie    Movie
	Redirect bool
	Key      string
}

// Resolve maps an external key to a movie, trying the url key, then the
// legacy slug, then the numeric id. Legacy forms redirect once the movie
// has a url key. A direct hit counts as a view.
func (c *Catalog) Resolve(key string) (Resolution, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Resolution{}, ErrMovieNotFound
	}

	m, ok, err := c.movieByURLKey(key)
	if err != nil {
		return Resolution{}, err
	}
	if ok {
		return c.direct(m), nil
	}

	m, ok, err = c.movieBySlug(key)
	if err != nil {
		return Resolution{}, err
	}
	if !ok {
		if id, valid := parseID(key); valid {
			var movies []Movie
			err = c.db.Where("id = ?", id).Limit(1).Find(&movies).Error
			if err != nil {
				return Resolution{}, notFound(err, ErrMovieNotFound)
			}
			if len(movies) == 1 {
				m, ok = movies[0], true
			}
		}
	}
	if !ok {
		return Resolution{}, ErrMovieNotFound
	}
	if m.HasURLKey() {
		return Resolution{Movie: m, Redirect: true, Key: *m.URLKey}, nil
	}
	return c.direct(m), nil
}

func (c *Catalog) direct(m Movie) Resolution {
	c.incrementViews(m.ID)
	m.Views++
	return Resolution{Movie: m, Key: m.Key()}
}

// CanonicalKey is the key links to m should use.
func CanonicalKey(m Movie) string {
	return m.Key()
}
