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

package engagement

import (
	"time"

	"github.com/defsub/reel/auth"
	"github.com/defsub/reel/catalog"
	"github.com/defsub/reel/config"
	"github.com/defsub/reel/lib/fail"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrLoginRequired = fail.Forbidden("login required")
)

// Movies is the part of the catalog the ledger reads.
type Movies interface {
	LookupMovie(id uint) (catalog.Movie, error)
	MoviesByID(ids []uint) ([]catalog.Movie, error)
}

type Engagement struct {
	config *config.Config
	db     *gorm.DB
	movies Movies
	now    func() time.Time
}

// HistoryEntry is a watched movie with where the user left off.
type HistoryEntry struct {
	Movie        catalog.Movie
	LastPosition int
	WatchedAt    time.Time
}

func NewEngagement(config *config.Config, db *gorm.DB, movies Movies) *Engagement {
	return &Engagement{
		config: config,
		db:     db,
		movies: movies,
		now:    time.Now,
	}
}

func (e *Engagement) Open() error {
	return e.db.AutoMigrate(Models()...)
}

func Models() []interface{} {
	return []interface{}{&WatchHistory{}, &Favorite{}}
}

// RecordWatch stores the playback position of user in a movie. Negative
// positions count as zero.
func (e *Engagement) RecordWatch(user *auth.User, movieID uint, position int) error {
	if user == nil {
		return ErrLoginRequired
	}
	if _, err := e.movies.LookupMovie(movieID); err != nil {
		return err
	}
	if position < 0 {
		position = 0
	}
	row := WatchHistory{
		UserID:       user.ID,
		MovieID:      movieID,
		WatchedAt:    e.now(),
		LastPosition: position,
	}
	err := e.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "movie_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"watched_at", "last_position"}),
	}).Create(&row).Error
	return fail.Store(err)
}

// LastPosition returns where user left off in a movie, or zero.
func (e *Engagement) LastPosition(user *auth.User, movieID uint) int {
	if user == nil {
		return 0
	}
	var rows []WatchHistory
	e.db.Where("user_id = ? and movie_id = ?", user.ID, movieID).
		Order("watched_at desc").Limit(1).Find(&rows)
	if len(rows) == 0 {
		return 0
	}
	return rows[0].LastPosition
}

// ToggleFavorite removes the favorite if present, otherwise adds it, and
// returns whether the movie is now a favorite.
func (e *Engagement) ToggleFavorite(user *auth.User, movieID uint) (bool, error) {
	if user == nil {
		return false, ErrLoginRequired
	}
	if _, err := e.movies.LookupMovie(movieID); err != nil {
		return false, err
	}
	var favorite bool
	err := e.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? and movie_id = ?", user.ID, movieID).
			Delete(&Favorite{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			favorite = false
			return nil
		}
		favorite = true
		return tx.Create(&Favorite{UserID: user.ID, MovieID: movieID}).Error
	})
	if fail.IsConflict(err) {
		// a concurrent toggle added it first
		return e.IsFavorite(user, movieID), nil
	}
	if err != nil {
		return false, fail.Store(err)
	}
	return favorite, nil
}

func (e *Engagement) IsFavorite(user *auth.User, movieID uint) bool {
	if user == nil {
		return false
	}
	var count int64
	e.db.Model(&Favorite{}).Where("user_id = ? and movie_id = ?", user.ID, movieID).
		Count(&count)
	return count > 0
}

// WatchedList returns the movies user watched, most recent first, each
// movie once.
func (e *Engagement) WatchedList(user *auth.User, limit int) ([]catalog.Movie, error) {
	if user == nil {
		return nil, ErrLoginRequired
	}
	var ids []uint
	tx := e.db.Model(&WatchHistory{}).Where("user_id = ?", user.ID).
		Group("movie_id").Order("max(watched_at) desc, movie_id desc")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if err := tx.Pluck("movie_id", &ids).Error; err != nil {
		return nil, fail.Store(err)
	}
	return e.movies.MoviesByID(ids)
}

// History returns the recent watch rows of user with their movies.
func (e *Engagement) History(user *auth.User, limit int) ([]HistoryEntry, error) {
	if user == nil {
		return nil, ErrLoginRequired
	}
	var rows []WatchHistory
	tx := e.db.Where("user_id = ?", user.ID).Order("watched_at desc, id desc")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fail.Store(err)
	}
	var ids []uint
	for _, r := range rows {
		ids = append(ids, r.MovieID)
	}
	movies, err := e.movies.MoviesByID(ids)
	if err != nil {
		return nil, err
	}
	index := make(map[uint]catalog.Movie, len(movies))
	for _, m := range movies {
		index[m.ID] = m
	}
	var entries []HistoryEntry
	for _, r := range rows {
		m, ok := index[r.MovieID]
		if !ok {
			continue
		}
		entries = append(entries, HistoryEntry{
			Movie:        m,
			LastPosition: r.LastPosition,
			WatchedAt:    r.WatchedAt,
		})
	}
	return entries, nil
}

// LikedList returns the favorites of user, most recently liked first. A
// limit of zero or less returns them all.
func (e *Engagement) LikedList(user *auth.User, limit int) ([]catalog.Movie, error) {
	if user == nil {
		return nil, ErrLoginRequired
	}
	var ids []uint
	tx := e.db.Model(&Favorite{}).Where("user_id = ?", user.ID).
		Order("created_at desc, id desc")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if err := tx.Pluck("movie_id", &ids).Error; err != nil {
		return nil, fail.Store(err)
	}
	return e.movies.MoviesByID(ids)
}

func (e *Engagement) WatchCount() int64 {
	var count int64
	e.db.Model(&WatchHistory{}).Count(&count)
	return count
}

// DeleteMovieRows removes the history and favorites of a movie.
func DeleteMovieRows(tx *gorm.DB, movieID uint) error {
	if err := tx.Where("movie_id = ?", movieID).Delete(&WatchHistory{}).Error; err != nil {
		return err
	}
	return tx.Where("movie_id = ?", movieID).Delete(&Favorite{}).Error
}

// DeleteUserRows removes the history and favorites of a user.
func DeleteUserRows(tx *gorm.DB, userID uint) error {
	if err := tx.Where("user_id = ?", userID).Delete(&WatchHistory{}).Error; err != nil {
		return err
	}
	return tx.Where("user_id = ?", userID).Delete(&Favorite{}).Error
}
