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
)

// WatchHistory is the last playback position of a user in a movie. There
// is one row per user and movie.
type WatchHistory struct {
	ID           uint      `gorm:"primarykey"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_watch_history_user_movie"`
	MovieID      uint      `gorm:"not null;uniqueIndex:idx_watch_history_user_movie;index:idx_watch_history_movie"`
	WatchedAt    time.Time `gorm:"index:idx_watch_history_watched_at"`
	LastPosition int       `gorm:"default:0"`
}

type Favorite struct {
	ID        uint `gorm:"primarykey"`
	UserID    uint `gorm:"not null;uniqueIndex:unique_user_movie_favorite"`
	MovieID   uint `gorm:"not null;uniqueIndex:unique_user_movie_favorite;index:idx_favorite_movie"`
	CreatedAt time.Time
}
