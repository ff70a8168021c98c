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

package comment

import (
	"time"

	g "github.com/defsub/reel/lib/gorm"
)

type Comment struct {
	g.Model
	UserID   uint   `gorm:"not null;index:idx_comment_user"`
	MovieID  uint   `gorm:"not null;index:idx_comment_movie"`
	ParentID *uint  `gorm:"index:idx_comment_parent"`
	Content  string `gorm:"type:text;not null"`
}

type CommentLike struct {
	ID        uint `gorm:"primarykey"`
	UserID    uint `gorm:"not null;uniqueIndex:idx_comment_like_user_comment"`
	CommentID uint `gorm:"not null;uniqueIndex:idx_comment_like_user_comment;index:idx_comment_like_comment"`
	CreatedAt time.Time
}

type Author struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

// View is a comment as returned to clients. Replies of a reply are
// always empty.
type View struct {
	ID         uint   `json:"id"`
	MovieID    uint   `json:"movie_id"`
	ParentID   *uint  `json:"parent_id"`
	Content    string `json:"content"`
	CreatedAt  string `json:"created_at"`
	LikesCount int64  `json:"likes_count"`
	UserLiked  bool   `json:"user_liked"`
	User       Author `json:"user"`
	Replies    []View `json:"replies"`
}

func timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000Z")
}
