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
	"strconv"
	"strings"

	"github.com/defsub/reel/lib/key"
	"github.com/defsub/reel/lib/log"
	"github.com/defsub/reel/lib/search"
)

const (
	FieldTitle       = "title"
	FieldFolded      = "folded"
	FieldSubtitle    = "subtitle"
	FieldDescription = "description"
	FieldCategory    = "category"
)

// OpenSearch opens the movie index. Without one, Search scans the
// database.
func (c *Catalog) OpenSearch() error {
	s := search.NewSearch(c.config)
	s.Words = []string{FieldFolded}
	s.Keywords = []string{FieldCategory}
	if err := s.Open("movies"); err != nil {
		return err
	}
	c.search = s
	return nil
}

func (c *Catalog) CloseSearch() {
	if c.search != nil {
		c.search.Close()
		c.search = nil
	}
}

// fold lowercases and strips diacritics, keeping word boundaries.
func fold(s string) string {
	return strings.ReplaceAll(key.Fold(s), "-", " ")
}

func (c *Catalog) movieFields(m Movie) search.FieldMap {
	fields := make(search.FieldMap)
	fields[FieldTitle] = m.Title
	fields[FieldFolded] = fold(m.Title + " " + m.Subtitle)
	fields[FieldSubtitle] = m.Subtitle
	fields[FieldDescription] = m.Description
	if m.CategoryID != nil {
		fields[FieldCategory] = strconv.FormatUint(uint64(*m.CategoryID), 10)
	}
	return fields
}

func docID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func (c *Catalog) indexMovies(movies ...Movie) {
	if c.search == nil {
		return
	}
	index := make(search.IndexMap)
	for _, m := range movies {
		index[docID(m.ID)] = c.movieFields(m)
	}
	if err := c.search.Index(index); err != nil {
		log.Warnf("index movies: %s", err)
	}
}

func (c *Catalog) unindexMovies(ids ...uint) {
	if c.search == nil {
		return
	}
	var docs []string
	for _, id := range ids {
		docs = append(docs, docID(id))
	}
	if err := c.search.Delete(docs...); err != nil {
		log.Warnf("unindex movies: %s", err)
	}
}

// Reindex rebuilds the search index from the database.
func (c *Catalog) Reindex() (int, error) {
	if c.search == nil {
		return 0, nil
	}
	if err := c.search.Clear(); err != nil {
		return 0, err
	}
	movies := c.AllMovies()
	index := make(search.IndexMap)
	for _, m := range movies {
		index[docID(m.ID)] = c.movieFields(m)
	}
	if err := c.search.Index(index); err != nil {
		return 0, err
	}
	return len(movies), nil
}

// Search finds movies whose folded title or subtitle has a word starting
// with each term of q. Without an index, or when the index fails, it
// falls back to a substring scan.
func (c *Catalog) Search(q string, limit int) []Movie {
	q = strings.TrimSpace(q)
	if q == "" {
		return []Movie{}
	}
	if c.search != nil {
		movies, err := c.indexSearch(q, limit)
		if err == nil {
			return movies
		}
		log.Warnf("search %q: %s", q, err)
	}
	return c.TextSearch(q, limit)
}

func (c *Catalog) indexSearch(q string, limit int) ([]Movie, error) {
	terms := strings.Fields(fold(q))
	if len(terms) == 0 {
		return []Movie{}, nil
	}
	ids, err := c.search.Prefix(FieldFolded, terms, limit)
	if err != nil {
		return nil, err
	}
	var list []uint
	for _, id := range ids {
		if v, ok := parseID(id); ok {
			list = append(list, v)
		}
	}
	movies, err := c.MoviesByID(list)
	if movies == nil && err == nil {
		movies = []Movie{}
	}
	return movies, err
}
