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

	"github.com/defsub/reel/lib/fail"
	"gorm.io/gorm"
)

func (c *Catalog) openDB() error {
	return c.db.AutoMigrate(&Category{}, &Franchise{}, &Movie{})
}

// Models lists the catalog tables for schema inspection.
func Models() []interface{} {
	return []interface{}{&Category{}, &Franchise{}, &Movie{}}
}

func (c *Catalog) topLevelMovies(order string) []Movie {
	var movies []Movie
	c.db.Where("series_parent_id is null").Order(order).Find(&movies)
	return movies
}

func (c *Catalog) lookupMovie(tx *gorm.DB, id uint) (Movie, error) {
	var movie Movie
	err := tx.First(&movie, id).Error
	if err != nil {
		return Movie{}, notFound(err, ErrMovieNotFound)
	}
	return movie, nil
}

func (c *Catalog) lookupCategory(tx *gorm.DB, id uint) (Category, error) {
	var category Category
	err := tx.First(&category, id).Error
	if err != nil {
		return Category{}, notFound(err, ErrCategoryNotFound)
	}
	return category, nil
}

func (c *Catalog) lookupFranchise(tx *gorm.DB, id uint) (Franchise, error) {
	var franchise Franchise
	err := tx.First(&franchise, id).Error
	if err != nil {
		return Franchise{}, notFound(err, ErrFranchiseNotFound)
	}
	return franchise, nil
}

func (c *Catalog) LookupMovie(id uint) (Movie, error) {
	return c.lookupMovie(c.db, id)
}

func (c *Catalog) LookupCategory(id uint) (Category, error) {
	return c.lookupCategory(c.db, id)
}

func (c *Catalog) LookupFranchise(id uint) (Franchise, error) {
	return c.lookupFranchise(c.db, id)
}

func (c *Catalog) movieByURLKey(key string) (Movie, bool, error) {
	return c.firstMovie("url_key = ?", key)
}

// movieBySlug picks the oldest movie when slugs collide.
func (c *Catalog) movieBySlug(slug string) (Movie, bool, error) {
	return c.firstMovie("slug = ?", slug)
}

func (c *Catalog) firstMovie(where string, arg interface{}) (Movie, bool, error) {
	var movies []Movie
	err := c.db.Where(where, arg).Order("id").Limit(1).Find(&movies).Error
	if err != nil {
		return Movie{}, false, fail.Store(err)
	}
	if len(movies) == 0 {
		return Movie{}, false, nil
	}
	return movies[0], true, nil
}

func (c *Catalog) episodeCount(tx *gorm.DB, id uint) (int64, error) {
	var count int64
	err := tx.Model(&Movie{}).Where("series_parent_id = ?", id).Count(&count).Error
	return count, err
}

func (c *Catalog) exists(tx *gorm.DB, column string) func(string) (bool, error) {
	return func(value string) (bool, error) {
		var count int64
		err := tx.Model(&Movie{}).Where(column+" = ?", value).Count(&count).Error
		return count > 0, err
	}
}

func (c *Catalog) slugExists(tx *gorm.DB) func(string) (bool, error) {
	return c.exists(tx, "slug")
}

func (c *Catalog) urlKeyExists(tx *gorm.DB) func(string) (bool, error) {
	return c.exists(tx, "url_key")
}

func (c *Catalog) nameTaken(model interface{}, self uint, name string) bool {
	var count int64
	c.db.Model(model).Where("lower(name) = ? and id <> ?", strings.ToLower(name), self).
		Count(&count)
	return count > 0
}

// TitlePrefix returns movies whose title starts with prefix, ignoring
// case. It backs the search when no index is available.
func (c *Catalog) TitlePrefix(prefix string, limit int) []Movie {
	var movies []Movie
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return movies
	}
	c.db.Where("lower(title) like ? escape '!'", escapeLike(prefix)+"%").
		Order("views desc, id").Limit(limit).Find(&movies)
	return movies
}

// TextSearch matches q anywhere in the title or description.
func (c *Catalog) TextSearch(q string, limit int) []Movie {
	var movies []Movie
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return movies
	}
	pattern := "%" + escapeLike(q) + "%"
	c.db.Where("lower(title) like ? escape '!' or lower(description) like ? escape '!'",
		pattern, pattern).
		Order("views desc, id").Limit(limit).Find(&movies)
	return movies
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func parseID(s string) (uint, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
