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
	"net/http"
	"strings"

	"github.com/bmizerany/pat"
	"github.com/defsub/reel/config"
	g "github.com/defsub/reel/lib/gorm"
	"github.com/defsub/reel/lib/log"
	"github.com/defsub/reel/schema"
)

func newMux(ctx RequestContext) http.Handler {
	mux := pat.New()

	get := func(pattern string, h http.Handler) {
		mux.Get(pattern, instrument(pattern, h))
	}
	post := func(pattern string, h http.Handler) {
		mux.Post(pattern, instrument(pattern, h))
	}
	del := func(pattern string, h http.Handler) {
		mux.Del(pattern, instrument(pattern, h))
	}

	resFileServer := http.FileServer(mountResFS(resStatic))
	mux.Get("/static/", resFileServer)
	if ctx.Storage().Local() {
		prefix := strings.TrimRight(ctx.Config().Storage.URLPrefix, "/") + "/"
		mux.Get(prefix, http.StripPrefix(prefix,
			http.FileServer(http.Dir(ctx.Storage().Dir()))))
	}
	mux.Get("/metrics", metricsHandler())
	mux.Get("/live", hubHandler(ctx))

	// catalog
	get("/movie/:key", requestHandler(ctx, movieHandler))
	get("/watch/:id", requestHandler(ctx, legacyHandler))
	get("/watch", requestHandler(ctx, legacyHandler))
	get("/xem-phim/:id", requestHandler(ctx, legacyHandler))
	get("/category/:id", requestHandler(ctx, categoryHandler))
	get("/franchise/:id", requestHandler(ctx, franchiseHandler))
	get("/search", requestHandler(ctx, searchHandler))
	get("/api/search", requestHandler(ctx, apiSearch))

	// accounts
	get("/register", requestHandler(ctx, registerHandler))
	post("/register", requestHandler(ctx, registerHandler))
	get("/login", requestHandler(ctx, loginHandler))
	post("/login", requestHandler(ctx, loginHandler))
	get("/logout", requestHandler(ctx, logoutHandler))
	post("/api/login", requestHandler(ctx, apiLogin))
	get("/profile", authHandler(ctx, profileHandler))
	get("/favorites", authHandler(ctx, favoritesHandler))
	post("/update_profile", authHandler(ctx, updateProfileHandler))
	post("/change_password", authHandler(ctx, changePasswordHandler))
	post("/upload_avatar", authHandler(ctx, uploadAvatarHandler))

	// engagement
	post("/save_watch_position", apiAuthHandler(ctx, saveWatchPosition))
	post("/toggle_like", apiAuthHandler(ctx, toggleLike))

	// comments
	get("/comments", requestHandler(ctx, apiComments))
	post("/comments", apiAuthHandler(ctx, apiPostComment))
	del("/comments/:id", apiAuthHandler(ctx, apiDeleteComment))
	post("/comments/:id/like", apiAuthHandler(ctx, apiLikeComment))

	// admin
	get("/admin", adminHandler(ctx, adminDashboard))
	get("/admin/movies", adminHandler(ctx, adminMovies))
	get("/admin/movies/add", adminHandler(ctx, adminAddMovie))
	post("/admin/movies/add", adminHandler(ctx, adminAddMovie))
	post("/admin/movies/bulk_delete", adminHandler(ctx, adminBulkDelete))
	get("/admin/movies/:id/edit", adminHandler(ctx, adminEditMovie))
	post("/admin/movies/:id/edit", adminHandler(ctx, adminEditMovie))
	post("/admin/movies/:id/quick_update", apiAdminHandler(ctx, adminQuickUpdate))
	post("/admin/movies/:id/delete", adminHandler(ctx, adminDeleteMovie))
	get("/admin/categories", adminHandler(ctx, adminCategories))
	post("/admin/categories/add", adminHandler(ctx, adminAddCategory))
	post("/admin/categories/:id/rename", adminHandler(ctx, adminRenameCategory))
	post("/admin/categories/:id/delete", adminHandler(ctx, adminDeleteCategory))
	get("/admin/franchises", adminHandler(ctx, adminFranchises))
	post("/admin/franchises/add", adminHandler(ctx, adminAddFranchise))
	get("/admin/franchises/:id/edit", adminHandler(ctx, adminEditFranchise))
	post("/admin/franchises/:id/edit", adminHandler(ctx, adminEditFranchise))
	post("/admin/franchises/:id/delete", adminHandler(ctx, adminDeleteFranchise))
	get("/admin/users", adminHandler(ctx, adminUsers))
	post("/admin/users/:id/toggle_admin", adminHandler(ctx, adminToggleAdmin))
	post("/admin/users/:id/delete", adminHandler(ctx, adminDeleteUser))

	// home matches every other path
	get("/", requestHandler(ctx, homeHandler))

	return mux
}

func Serve(config *config.Config) error {
	db, err := g.Open(config.DB)
	log.CheckError(err)
	defer g.Close(db)

	report, err := schema.Upgrade(config, db)
	log.CheckError(err)
	if !report.Empty() {
		log.Printf("schema: %s", report)
	}

	ctx, err := makeContext(config, db)
	log.CheckError(err)
	defer ctx.Catalog().CloseSearch()

	hubCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ctx.Hub().Run(hubCtx)

	scheduler := schedule(ctx)
	defer scheduler.Stop()

	log.Printf("listening on %s", config.Server.Listen)
	http.Handle("/", newMux(ctx))
	return http.ListenAndServe(config.Server.Listen, nil)
}
