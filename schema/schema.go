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

// Package schema upgrades a live database to the current models. Every
// step is additive and safe to repeat.
package schema

import (
	"fmt"

	"github.com/defsub/reel/auth"
	"github.com/defsub/reel/catalog"
	"github.com/defsub/reel/comment"
	"github.com/defsub/reel/config"
	"github.com/defsub/reel/engagement"
	"github.com/defsub/reel/lib/log"
	"gorm.io/gorm"
)

const watchHistoryIndex = "idx_watch_history_user_movie"

type Report struct {
	Tables     []string
	Columns    []string
	Deduped    int64
	Backfilled int
}

func (r Report) Empty() bool {
	return len(r.Tables) == 0 && len(r.Columns) == 0 && r.Deduped == 0 && r.Backfilled == 0
}

func (r Report) String() string {
	return fmt.Sprintf("tables %v, columns %v, deduped %d, backfilled %d",
		r.Tables, r.Columns, r.Deduped, r.Backfilled)
}

// Models returns every persisted model in creation order.
func Models() []interface{} {
	var models []interface{}
	models = append(models, auth.Models()...)
	models = append(models, catalog.Models()...)
	models = append(models, engagement.Models()...)
	models = append(models, comment.Models()...)
	return models
}

// Upgrade adds missing tables and columns, collapses duplicate watch
// history rows so the unique index can be built, and assigns url keys to
// movies without one.
func Upgrade(cfg *config.Config, db *gorm.DB) (Report, error) {
	var report Report
	models := Models()
	if err := inspect(db, models, &report); err != nil {
		return report, err
	}
	if err := prepare(db, &report); err != nil {
		return report, err
	}
	if err := db.AutoMigrate(models...); err != nil {
		return report, err
	}
	n, err := catalog.NewCatalog(cfg, db).BackfillURLKeys()
	report.Backfilled = n
	if err != nil {
		return report, err
	}
	if !report.Empty() {
		log.Printf("schema upgrade: %s", report)
	}
	return report, nil
}

// inspect records the tables and columns auto migration will add.
func inspect(db *gorm.DB, models []interface{}, report *Report) error {
	m := db.Migrator()
	for _, model := range models {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return err
		}
		table := stmt.Schema.Table
		if !m.HasTable(model) {
			report.Tables = append(report.Tables, table)
			continue
		}
		for _, field := range stmt.Schema.Fields {
			if field.DBName == "" {
				continue
			}
			if !m.HasColumn(model, field.DBName) {
				report.Columns = append(report.Columns, table+"."+field.DBName)
			}
		}
	}
	return nil
}

// prepare fixes legacy data that would break the new unique indexes.
func prepare(db *gorm.DB, report *Report) error {
	m := db.Migrator()
	movie := &catalog.Movie{}
	if m.HasTable(movie) {
		for _, column := range []string{"url_key", "slug"} {
			if !m.HasColumn(movie, column) {
				continue
			}
			err := db.Model(movie).Where(column+" = ?", "").
				Update(column, nil).Error
			if err != nil {
				return err
			}
		}
	}

	history := &engagement.WatchHistory{}
	if m.HasTable(history) && !m.HasIndex(history, watchHistoryIndex) {
		// keep the latest watched_at of each user and movie, then the
		// highest id on ties
		result := db.Exec(`delete from watch_history where id in
			(select id from (select h.id from watch_history h
			where exists (select 1 from watch_history w
			where w.user_id = h.user_id and w.movie_id = h.movie_id
			and ((w.watched_at is not null and (h.watched_at is null or w.watched_at > h.watched_at))
			or ((w.watched_at = h.watched_at or (w.watched_at is null and h.watched_at is null))
			and w.id > h.id)))
			) as stale)`)
		if result.Error != nil {
			return result.Error
		}
		report.Deduped = result.RowsAffected
	}
	return nil
}
