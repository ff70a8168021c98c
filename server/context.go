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
	"context"
	"html/template"
	"net/http"

	"github.com/defsub/reel/auth"
	"github.com/defsub/reel/catalog"
	"github.com/defsub/reel/comment"
	"github.com/defsub/reel/config"
	"github.com/defsub/reel/engagement"
	"github.com/defsub/reel/lib/hub"
	"github.com/defsub/reel/lib/limit"
	"github.com/defsub/reel/lib/log"
	"github.com/defsub/reel/storage"
	"gorm.io/gorm"
)

type contextKey string

var (
	contextKeyContext = contextKey("context")
)

func withContext(r *http.Request, ctx Context) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), contextKeyContext, ctx))
}

func contextValue(r *http.Request) Context {
	return r.Context().Value(contextKeyContext).(Context)
}

type Context interface {
	Auth() *auth.Auth
	Catalog() *catalog.Catalog
	Comments() *comment.Comments
	Config() *config.Config
	Engagement() *engagement.Engagement
	Hub() *hub.Hub
	Storage() *storage.Storage
	Template() *template.Template
	User() *auth.User
}

type RequestContext struct {
	auth       *auth.Auth
	catalog    *catalog.Catalog
	comments   *comment.Comments
	config     *config.Config
	engagement *engagement.Engagement
	hub        *hub.Hub
	storage    *storage.Storage
	template   *template.Template
	user       *auth.User
}

// makeContext opens every store on db and wires the cross store cleanups.
// The hub is created but not started.
func makeContext(cfg *config.Config, db *gorm.DB) (RequestContext, error) {
	a := auth.NewAuth(cfg, db)
	if err := a.Open(); err != nil {
		return RequestContext{}, err
	}
	c := catalog.NewCatalog(cfg, db)
	if err := c.Open(); err != nil {
		return RequestContext{}, err
	}
	if err := c.OpenSearch(); err != nil {
		// search falls back to the database
		log.Warnf("search index: %s", err)
	}
	e := engagement.NewEngagement(cfg, db, c)
	if err := e.Open(); err != nil {
		return RequestContext{}, err
	}
	cm := comment.NewComments(cfg, db, c, a)
	if err := cm.Open(); err != nil {
		return RequestContext{}, err
	}
	c.OnDelete(engagement.DeleteMovieRows, comment.DeleteMovieRows)
	a.OnDelete(engagement.DeleteUserRows, comment.DeleteUserRows)

	s, err := storage.NewStorage(cfg)
	if err != nil {
		return RequestContext{}, err
	}

	h := hub.NewHub()
	cm.SetPublisher(livePublisher{hub: h})
	if limiter := makeLimiter(cfg); limiter != nil {
		cm.SetLimiter(limiter)
	}

	return RequestContext{
		auth:       a,
		catalog:    c,
		comments:   cm,
		config:     cfg,
		engagement: e,
		hub:        h,
		storage:    s,
		template:   getTemplates(cfg),
	}, nil
}

// makeLimiter returns nil when redis is not configured or unreachable.
func makeLimiter(cfg *config.Config) *limit.Limiter {
	if cfg.Redis.URL == "" {
		return nil
	}
	store, err := limit.NewRedisStore(cfg.Redis.URL)
	if err != nil {
		log.Warnf("redis: %s", err)
		return nil
	}
	if err := store.Ping(context.Background()); err != nil {
		log.Warnf("redis: %s", err)
		store.Close()
		return nil
	}
	return limit.New(store, "comment", cfg.Comment.RateLimit, cfg.Comment.RateWindow)
}

// withUser returns a copy of ctx for an authenticated request.
func (ctx RequestContext) withUser(u *auth.User) RequestContext {
	ctx.user = u
	return ctx
}

func (ctx RequestContext) Auth() *auth.Auth {
	return ctx.auth
}

func (ctx RequestContext) Catalog() *catalog.Catalog {
	return ctx.catalog
}

func (ctx RequestContext) Comments() *comment.Comments {
	return ctx.comments
}

func (ctx RequestContext) Config() *config.Config {
	return ctx.config
}

func (ctx RequestContext) Engagement() *engagement.Engagement {
	return ctx.engagement
}

func (ctx RequestContext) Hub() *hub.Hub {
	return ctx.hub
}

func (ctx RequestContext) Storage() *storage.Storage {
	return ctx.storage
}

func (ctx RequestContext) Template() *template.Template {
	return ctx.template
}

func (ctx RequestContext) User() *auth.User {
	return ctx.user
}
