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
	"errors"
	"strings"

	"github.com/defsub/reel/auth"
	"github.com/defsub/reel/config"
	"github.com/defsub/reel/lib/fail"
	"github.com/defsub/reel/lib/key"
	"github.com/defsub/reel/lib/log"
	"github.com/defsub/reel/lib/search"
	"gorm.io/gorm"
)

const (
	FilterAll     = "all"
	FilterPopular = "popular"
	FilterNewest  = "newest"

	maxTitle      = 200
	createRetries = 3
)

var (
	ErrMovieNotFound     = fail.NotFound("movie")
	ErrCategoryNotFound  = fail.NotFound("category")
	ErrFranchiseNotFound = fail.NotFound("franchise")
	ErrTitleRequired     = fail.Invalid("title is required")
	ErrTitleTooLong      = fail.Invalid("title is too long")
	ErrVideoRequired     = fail.Invalid("video url is required")
	ErrNameRequired      = fail.Invalid("name is required")
	ErrCategoryExists    = fail.Invalid("category already exists")
	ErrFranchiseExists   = fail.Invalid("franchise already exists")
	ErrUnknownCategory   = fail.Invalid("unknown category")
	ErrUnknownFranchise  = fail.Invalid("unknown franchise")
	ErrEpisodeNumber     = fail.Invalid("an episode needs a positive episode number")
	ErrSeriesParent      = fail.Invalid("series parent must be another series")
	ErrHasEpisodes       = fail.Invalid("movie still has episodes")
	ErrNoSelection       = fail.Invalid("no movies selected")
)

// Cleanup removes rows that reference a movie inside the delete
// transaction.
type Cleanup func(tx *gorm.DB, movieID uint) error

type Catalog struct {
	config   *config.Config
	db       *gorm.DB
	keys     *key.Generator
	search   *search.Search
	cleanups []Cleanup
}

func NewCatalog(config *config.Config, db *gorm.DB) *Catalog {
	return &Catalog{
		config: config,
		db:     db,
		keys:   key.NewGenerator(config.Catalog.KeyLength, config.Catalog.KeyAttempts),
	}
}

func (c *Catalog) Open() (err error) {
	err = c.openDB()
	return
}

// OnDelete registers cleanups run when a movie is deleted.
func (c *Catalog) OnDelete(fns ...Cleanup) {
	c.cleanups = append(c.cleanups, fns...)
}

func (c *Catalog) suggestLimit() int {
	if c.config.Catalog.SuggestLimit > 0 {
		return c.config.Catalog.SuggestLimit
	}
	return 10
}

func (c *Catalog) Movies(filter string) []Movie {
	switch filter {
	case FilterPopular:
		return c.topLevelMovies("views desc, id desc")
	case FilterNewest:
		return c.topLevelMovies("created_at desc, id desc")
	}
	return c.topLevelMovies("display_order asc, created_at desc, id desc")
}

func (c *Catalog) AllMovies() []Movie {
	var movies []Movie
	c.db.Order("created_at desc, id desc").Find(&movies)
	return movies
}

// SeriesList returns the series containers, for the episode parent picker.
func (c *Catalog) SeriesList() []Movie {
	var movies []Movie
	c.db.Where("is_series = ?", true).Order("title").Find(&movies)
	return movies
}

func (c *Catalog) RecentMovies(limit int) []Movie {
	var movies []Movie
	c.db.Order("created_at desc, id desc").Limit(limit).Find(&movies)
	return movies
}

func (c *Catalog) MoviesInCategory(id uint) []Movie {
	var movies []Movie
	c.db.Where("category_id = ? and series_parent_id is null", id).
		Order("display_order asc, created_at desc, id desc").Find(&movies)
	return movies
}

func (c *Catalog) MoviesInFranchise(id uint) []Movie {
	var movies []Movie
	c.db.Where("franchise_id = ?", id).
		Order("created_at asc, id asc").Find(&movies)
	return movies
}

// MoviesByID returns the movies in the order of ids, skipping unknown ids.
func (c *Catalog) MoviesByID(ids []uint) ([]Movie, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var list []Movie
	err := c.db.Where("id in ?", ids).Find(&list).Error
	if err != nil {
		return nil, fail.Store(err)
	}
	index := make(map[uint]Movie, len(list))
	for _, m := range list {
		index[m.ID] = m
	}
	movies := make([]Movie, 0, len(list))
	for _, id := range ids {
		if m, ok := index[id]; ok {
			movies = append(movies, m)
		}
	}
	return movies, nil
}

func (c *Catalog) Categories() []Category {
	var categories []Category
	c.db.Order("id").Find(&categories)
	return categories
}

func (c *Catalog) CategoryMap() map[uint]Category {
	result := make(map[uint]Category)
	for _, cat := range c.Categories() {
		result[cat.ID] = cat
	}
	return result
}

func (c *Catalog) Franchises() []Franchise {
	var franchises []Franchise
	c.db.Order("name").Find(&franchises)
	return franchises
}

func (c *Catalog) MovieCount() int64 {
	var count int64
	c.db.Model(&Movie{}).Count(&count)
	return count
}

func (c *Catalog) TotalViews() int64 {
	var total int64
	c.db.Model(&Movie{}).Select("coalesce(sum(views), 0)").Scan(&total)
	return total
}

// AddMovie creates a movie with a fresh url key and slug.
func (c *Catalog) AddMovie(actor *auth.User, f MovieFields) (Movie, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return Movie{}, err
	}
	var m Movie
	var err error
	for attempt := 0; attempt < createRetries; attempt++ {
		m = Movie{}
		err = c.db.Transaction(func(tx *gorm.DB) error {
			if err := c.validate(tx, 0, &f); err != nil {
				return err
			}
			m.apply(f)
			slug, err := key.Slug(m.Title, c.slugExists(tx))
			if err != nil {
				return err
			}
			urlKey, err := c.keys.URLKey(c.urlKeyExists(tx))
			if err != nil {
				return err
			}
			m.Slug = &slug
			m.URLKey = &urlKey
			return tx.Create(&m).Error
		})
		// a concurrent insert took the url key
		if !fail.IsConflict(err) {
			break
		}
	}
	if err != nil {
		return Movie{}, fail.Store(err)
	}
	c.indexMovies(m)
	return m, nil
}

// EditMovie replaces the editable fields. The url key and slug never
// change.
func (c *Catalog) EditMovie(actor *auth.User, id uint, f MovieFields) (Movie, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return Movie{}, err
	}
	var m Movie
	err := c.db.Transaction(func(tx *gorm.DB) error {
		var err error
		m, err = c.lookupMovie(tx, id)
		if err != nil {
			return err
		}
		if err := c.validate(tx, id, &f); err != nil {
			return err
		}
		m.apply(f)
		return tx.Save(&m).Error
	})
	if err != nil {
		return Movie{}, fail.Store(err)
	}
	c.indexMovies(m)
	return m, nil
}

// normalizeRole applies the series invariants. A series container is never
// an episode and a parent without an episode number is caught by validate.
func normalizeRole(f *MovieFields) {
	if f.IsSeries {
		f.SeriesParentID = nil
		f.EpisodeNumber = nil
		return
	}
	if f.SeriesParentID == nil {
		f.EpisodeNumber = nil
	}
}

func (c *Catalog) validate(tx *gorm.DB, self uint, f *MovieFields) error {
	f.Title = strings.TrimSpace(f.Title)
	f.VideoURL = strings.TrimSpace(f.VideoURL)
	f.PosterURL = strings.TrimSpace(f.PosterURL)
	if f.Title == "" {
		return ErrTitleRequired
	}
	if len([]rune(f.Title)) > maxTitle {
		return ErrTitleTooLong
	}
	if f.VideoURL == "" && !f.IsSeries {
		return ErrVideoRequired
	}
	if f.PosterURL == "" {
		f.PosterURL = c.config.Catalog.DefaultPoster
	}
	if f.CategoryID != nil && *f.CategoryID == 0 {
		f.CategoryID = nil
	}
	if f.FranchiseID != nil && *f.FranchiseID == 0 {
		f.FranchiseID = nil
	}
	if f.SeriesParentID != nil && *f.SeriesParentID == 0 {
		f.SeriesParentID = nil
	}
	normalizeRole(f)

	if f.CategoryID != nil {
		if _, err := c.lookupCategory(tx, *f.CategoryID); err != nil {
			if fail.IsNotFound(err) {
				return ErrUnknownCategory
			}
			return err
		}
	}
	if f.FranchiseID != nil {
		if _, err := c.lookupFranchise(tx, *f.FranchiseID); err != nil {
			if fail.IsNotFound(err) {
				return ErrUnknownFranchise
			}
			return err
		}
	}
	if f.SeriesParentID != nil {
		if f.EpisodeNumber == nil || *f.EpisodeNumber <= 0 {
			return ErrEpisodeNumber
		}
		if *f.SeriesParentID == self {
			return ErrSeriesParent
		}
		parent, err := c.lookupMovie(tx, *f.SeriesParentID)
		if err != nil {
			if fail.IsNotFound(err) {
				return ErrSeriesParent
			}
			return err
		}
		if !parent.IsSeries {
			return ErrSeriesParent
		}
	}
	if self != 0 && !f.IsSeries {
		count, err := c.episodeCount(tx, self)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrHasEpisodes
		}
	}
	return nil
}

// DeleteMovie removes a movie with its dependent rows in one transaction.
// Its episodes become standalone movies.
func (c *Catalog) DeleteMovie(actor *auth.User, id uint) error {
	return c.DeleteMovies(actor, []uint{id})
}

func (c *Catalog) DeleteMovies(actor *auth.User, ids []uint) error {
	if err := auth.RequireAdmin(actor); err != nil {
		return err
	}
	if len(ids) == 0 {
		return ErrNoSelection
	}
	err := c.db.Transaction(func(tx *gorm.DB) error {
		for _, id := range ids {
			if _, err := c.lookupMovie(tx, id); err != nil {
				return err
			}
			for _, fn := range c.cleanups {
				if err := fn(tx, id); err != nil {
					return err
				}
			}
			err := tx.Model(&Movie{}).Where("series_parent_id = ?", id).
				Updates(map[string]interface{}{
					"series_parent_id": nil,
					"episode_number":   nil,
				}).Error
			if err != nil {
				return err
			}
			if err := tx.Delete(&Movie{}, id).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fail.Store(err)
	}
	c.unindexMovies(ids...)
	return nil
}

// MovieIDs returns every movie id, used by the delete-all admin action.
func (c *Catalog) MovieIDs() []uint {
	var ids []uint
	c.db.Model(&Movie{}).Order("id").Pluck("id", &ids)
	return ids
}

func (c *Catalog) AddCategory(actor *auth.User, name string) (Category, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return Category{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, ErrNameRequired
	}
	if c.nameTaken(&Category{}, 0, name) {
		return Category{}, ErrCategoryExists
	}
	cat := Category{Name: name}
	err := c.db.Create(&cat).Error
	if fail.IsConflict(err) {
		return Category{}, ErrCategoryExists
	}
	return cat, fail.Store(err)
}

func (c *Catalog) RenameCategory(actor *auth.User, id uint, name string) (Category, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return Category{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, ErrNameRequired
	}
	cat, err := c.LookupCategory(id)
	if err != nil {
		return Category{}, err
	}
	if c.nameTaken(&Category{}, id, name) {
		return Category{}, ErrCategoryExists
	}
	cat.Name = name
	err = c.db.Model(&cat).Update("name", name).Error
	if fail.IsConflict(err) {
		return Category{}, ErrCategoryExists
	}
	return cat, fail.Store(err)
}

// DeleteCategory clears the category on its movies and removes it.
func (c *Catalog) DeleteCategory(actor *auth.User, id uint) error {
	if err := auth.RequireAdmin(actor); err != nil {
		return err
	}
	err := c.db.Transaction(func(tx *gorm.DB) error {
		if _, err := c.lookupCategory(tx, id); err != nil {
			return err
		}
		err := tx.Model(&Movie{}).Where("category_id = ?", id).
			Update("category_id", nil).Error
		if err != nil {
			return err
		}
		return tx.Delete(&Category{}, id).Error
	})
	return fail.Store(err)
}

func (c *Catalog) AddFranchise(actor *auth.User, f Franchise) (Franchise, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return Franchise{}, err
	}
	f.ID = 0
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return Franchise{}, ErrNameRequired
	}
	if c.nameTaken(&Franchise{}, 0, f.Name) {
		return Franchise{}, ErrFranchiseExists
	}
	err := c.db.Create(&f).Error
	if fail.IsConflict(err) {
		return Franchise{}, ErrFranchiseExists
	}
	return f, fail.Store(err)
}

func (c *Catalog) EditFranchise(actor *auth.User, id uint, f Franchise) (Franchise, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return Franchise{}, err
	}
	existing, err := c.LookupFranchise(id)
	if err != nil {
		return Franchise{}, err
	}
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return Franchise{}, ErrNameRequired
	}
	if c.nameTaken(&Franchise{}, id, f.Name) {
		return Franchise{}, ErrFranchiseExists
	}
	existing.Name = f.Name
	existing.Description = f.Description
	existing.PosterURL = f.PosterURL
	err = c.db.Save(&existing).Error
	if fail.IsConflict(err) {
		return Franchise{}, ErrFranchiseExists
	}
	return existing, fail.Store(err)
}

// DeleteFranchise clears the franchise on its movies and removes it.
func (c *Catalog) DeleteFranchise(actor *auth.User, id uint) error {
	if err := auth.RequireAdmin(actor); err != nil {
		return err
	}
	err := c.db.Transaction(func(tx *gorm.DB) error {
		if _, err := c.lookupFranchise(tx, id); err != nil {
			return err
		}
		err := tx.Model(&Movie{}).Where("franchise_id = ?", id).
			Update("franchise_id", nil).Error
		if err != nil {
			return err
		}
		return tx.Delete(&Franchise{}, id).Error
	})
	return fail.Store(err)
}

func (c *Catalog) incrementViews(id uint) {
	err := c.db.Model(&Movie{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
	if err != nil {
		log.Warnf("view count for movie %d: %s", id, err)
	}
}

func notFound(err error, kind error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return kind
	}
	return fail.Store(err)
}
