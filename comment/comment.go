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
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/defsub/reel/auth"
	"github.com/defsub/reel/catalog"
	"github.com/defsub/reel/config"
	"github.com/defsub/reel/lib/fail"
	"github.com/defsub/reel/lib/limit"
	"github.com/defsub/reel/lib/log"
	"gorm.io/gorm"
)

var (
	ErrCommentNotFound = fail.NotFound("comment")
	ErrLoginRequired   = fail.Forbidden("login required")
	ErrNotAuthor       = fail.Forbidden("only the author or an admin can delete a comment")
	ErrEmpty           = fail.Invalid("comment cannot be empty")
	ErrBadParent       = fail.Invalid("reply must be on the same movie")
	ErrRateLimited     = fail.Invalid("too many comments, slow down")
)

type Movies interface {
	LookupMovie(id uint) (catalog.Movie, error)
}

type Users interface {
	UsersByID(ids []uint) (map[uint]auth.User, error)
}

// Publisher receives every posted or deleted comment.
type Publisher interface {
	Posted(v View)
	Deleted(movieID, commentID uint)
}

type Comments struct {
	config    *config.Config
	db        *gorm.DB
	movies    Movies
	users     Users
	limiter   *limit.Limiter
	publisher Publisher
}

func NewComments(config *config.Config, db *gorm.DB, movies Movies, users Users) *Comments {
	return &Comments{
		config: config,
		db:     db,
		movies: movies,
		users:  users,
	}
}

func (c *Comments) Open() error {
	return c.db.AutoMigrate(Models()...)
}

func Models() []interface{} {
	return []interface{}{&Comment{}, &CommentLike{}}
}

func (c *Comments) SetLimiter(l *limit.Limiter) {
	c.limiter = l
}

func (c *Comments) SetPublisher(p Publisher) {
	c.publisher = p
}

func (c *Comments) maxLength() int {
	if c.config.Comment.MaxLength > 0 {
		return c.config.Comment.MaxLength
	}
	return 1000
}

func (c *Comments) listLimit() int {
	if c.config.Comment.ListLimit > 0 {
		return c.config.Comment.ListLimit
	}
	return 100
}

func (c *Comments) lookup(tx *gorm.DB, id uint) (Comment, error) {
	var comment Comment
	err := tx.First(&comment, id).Error
	if err != nil {
		return Comment{}, notFound(err)
	}
	return comment, nil
}

// List returns the top-level comments of a movie, newest first, each with
// its replies oldest first. viewer may be nil.
func (c *Comments) List(movieID uint, viewer *auth.User) ([]View, error) {
	if _, err := c.movies.LookupMovie(movieID); err != nil {
		return nil, err
	}
	var top []Comment
	err := c.db.Where("movie_id = ? and parent_id is null", movieID).
		Order("created_at desc, id desc").Limit(c.listLimit()).Find(&top).Error
	if err != nil {
		return nil, fail.Store(err)
	}
	if len(top) == 0 {
		return []View{}, nil
	}
	var parents []uint
	for _, t := range top {
		parents = append(parents, t.ID)
	}
	var replies []Comment
	err = c.db.Where("parent_id in ?", parents).
		Order("created_at asc, id asc").Find(&replies).Error
	if err != nil {
		return nil, fail.Store(err)
	}

	all := append(append([]Comment{}, top...), replies...)
	views, err := c.views(all, viewer)
	if err != nil {
		return nil, err
	}
	children := make(map[uint][]View)
	for i, r := range replies {
		v := views[len(top)+i]
		children[*r.ParentID] = append(children[*r.ParentID], v)
	}
	result := make([]View, len(top))
	for i, t := range top {
		result[i] = views[i]
		if list, ok := children[t.ID]; ok {
			result[i].Replies = list
		}
	}
	return result, nil
}

// views builds client views for comments in order, with authors and like
// counts.
func (c *Comments) views(comments []Comment, viewer *auth.User) ([]View, error) {
	var userIDs, commentIDs []uint
	for _, cm := range comments {
		userIDs = append(userIDs, cm.UserID)
		commentIDs = append(commentIDs, cm.ID)
	}
	users, err := c.users.UsersByID(userIDs)
	if err != nil {
		return nil, err
	}

	type count struct {
		CommentID uint
		N         int64
	}
	var counts []count
	err = c.db.Model(&CommentLike{}).Select("comment_id, count(*) as n").
		Where("comment_id in ?", commentIDs).Group("comment_id").Scan(&counts).Error
	if err != nil {
		return nil, fail.Store(err)
	}
	likes := make(map[uint]int64)
	for _, n := range counts {
		likes[n.CommentID] = n.N
	}
	liked := make(map[uint]bool)
	if viewer != nil {
		var ids []uint
		err = c.db.Model(&CommentLike{}).
			Where("user_id = ? and comment_id in ?", viewer.ID, commentIDs).
			Pluck("comment_id", &ids).Error
		if err != nil {
			return nil, fail.Store(err)
		}
		for _, id := range ids {
			liked[id] = true
		}
	}

	views := make([]View, len(comments))
	for i, cm := range comments {
		u := users[cm.UserID]
		views[i] = View{
			ID:         cm.ID,
			MovieID:    cm.MovieID,
			ParentID:   cm.ParentID,
			Content:    cm.Content,
			CreatedAt:  timestamp(cm.CreatedAt),
			LikesCount: likes[cm.ID],
			UserLiked:  liked[cm.ID],
			User:       Author{ID: cm.UserID, Username: u.Username, AvatarURL: u.AvatarURL},
			Replies:    []View{},
		}
	}
	return views, nil
}

// Post adds a comment, or a reply when parentID is set. A reply to a
// reply is attached to the top-level comment.
func (c *Comments) Post(ctx context.Context, user *auth.User, movieID uint, parentID *uint,
	content string) (View, error) {
	if user == nil {
		return View{}, ErrLoginRequired
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return View{}, ErrEmpty
	}
	if utf8.RuneCountInString(content) > c.maxLength() {
		return View{}, fail.Invalid(fmt.Sprintf("comment is too long (max %d characters)", c.maxLength()))
	}
	if _, err := c.movies.LookupMovie(movieID); err != nil {
		return View{}, err
	}
	if parentID != nil && *parentID == 0 {
		parentID = nil
	}
	if parentID != nil {
		parent, err := c.lookup(c.db, *parentID)
		if err != nil {
			return View{}, err
		}
		if parent.MovieID != movieID {
			return View{}, ErrBadParent
		}
		if parent.ParentID != nil {
			parentID = parent.ParentID
		}
	}
	ok, err := c.limiter.Allow(ctx, fmt.Sprintf("user:%d", user.ID))
	if err != nil {
		log.Warnf("comment limiter: %s", err)
	} else if !ok {
		return View{}, ErrRateLimited
	}

	comment := Comment{
		UserID:   user.ID,
		MovieID:  movieID,
		ParentID: parentID,
		Content:  content,
	}
	if err := c.db.Create(&comment).Error; err != nil {
		return View{}, fail.Store(err)
	}
	v := View{
		ID:        comment.ID,
		MovieID:   movieID,
		ParentID:  parentID,
		Content:   comment.Content,
		CreatedAt: timestamp(comment.CreatedAt),
		User:      Author{ID: user.ID, Username: user.Username, AvatarURL: user.AvatarURL},
		Replies:   []View{},
	}
	if c.publisher != nil {
		c.publisher.Posted(v)
	}
	return v, nil
}

// Delete removes a comment with its replies and likes. Only admins and
// the author may delete.
func (c *Comments) Delete(actor *auth.User, id uint) error {
	if actor == nil {
		return ErrLoginRequired
	}
	var movieID uint
	err := c.db.Transaction(func(tx *gorm.DB) error {
		comment, err := c.lookup(tx, id)
		if err != nil {
			return err
		}
		if !actor.Admin() && comment.UserID != actor.ID {
			return ErrNotAuthor
		}
		movieID = comment.MovieID
		var ids []uint
		err = tx.Model(&Comment{}).Where("parent_id = ?", id).Pluck("id", &ids).Error
		if err != nil {
			return err
		}
		ids = append(ids, id)
		return deleteComments(tx, ids)
	})
	if err != nil {
		return fail.Store(err)
	}
	if c.publisher != nil {
		c.publisher.Deleted(movieID, id)
	}
	return nil
}

func deleteComments(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("comment_id in ?", ids).Delete(&CommentLike{}).Error; err != nil {
		return err
	}
	return tx.Where("id in ?", ids).Delete(&Comment{}).Error
}

// ToggleLike removes the like of user on a comment if present, otherwise
// adds it. It returns the new state and like count.
func (c *Comments) ToggleLike(user *auth.User, commentID uint) (bool, int64, error) {
	if user == nil {
		return false, 0, ErrLoginRequired
	}
	if _, err := c.lookup(c.db, commentID); err != nil {
		return false, 0, err
	}
	var liked bool
	err := c.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? and comment_id = ?", user.ID, commentID).
			Delete(&CommentLike{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			liked = false
			return nil
		}
		liked = true
		return tx.Create(&CommentLike{UserID: user.ID, CommentID: commentID}).Error
	})
	if fail.IsConflict(err) {
		// a concurrent toggle added it first
		liked, err = c.Liked(user, commentID), nil
	}
	if err != nil {
		return false, 0, fail.Store(err)
	}
	return liked, c.Likes(commentID), nil
}

func (c *Comments) Liked(user *auth.User, commentID uint) bool {
	var count int64
	c.db.Model(&CommentLike{}).Where("user_id = ? and comment_id = ?", user.ID, commentID).
		Count(&count)
	return count > 0
}

func (c *Comments) Likes(commentID uint) int64 {
	var count int64
	c.db.Model(&CommentLike{}).Where("comment_id = ?", commentID).Count(&count)
	return count
}

func (c *Comments) Count() int64 {
	var count int64
	c.db.Model(&Comment{}).Count(&count)
	return count
}

// DeleteMovieRows removes the comments of a movie and their likes.
func DeleteMovieRows(tx *gorm.DB, movieID uint) error {
	var ids []uint
	if err := tx.Model(&Comment{}).Where("movie_id = ?", movieID).Pluck("id", &ids).Error; err != nil {
		return err
	}
	return deleteComments(tx, ids)
}

// DeleteUserRows removes the comments and likes of a user, along with the
// replies others made to those comments.
func DeleteUserRows(tx *gorm.DB, userID uint) error {
	if err := tx.Where("user_id = ?", userID).Delete(&CommentLike{}).Error; err != nil {
		return err
	}
	var ids []uint
	err := tx.Model(&Comment{}).Where("user_id = ?", userID).Pluck("id", &ids).Error
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		var replies []uint
		err = tx.Model(&Comment{}).Where("parent_id in ?", ids).Pluck("id", &replies).Error
		if err != nil {
			return err
		}
		ids = append(ids, replies...)
	}
	return deleteComments(tx, ids)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCommentNotFound
	}
	return fail.Store(err)
}
