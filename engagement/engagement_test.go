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
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/defsub/reel/auth"
	"github.com/defsub/reel/catalog"
	"github.com/defsub/reel/lib/fail"
	g "github.com/defsub/reel/lib/gorm"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var admin = &auth.User{Username: "admin", IsAdmin: true}

type fixture struct {
	catalog *catalog.Catalog
	ledger  *Engagement
	user    *auth.User
	clock   time.Time
}

func testLedger(t *testing.T) *fixture {
	cfg, db := g.OpenTest(t)
	c := catalog.NewCatalog(cfg, db)
	if err := c.Open(); err != nil {
		t.Fatalf("Open %s\n", err)
	}
	e := NewEngagement(cfg, db, c)
	if err := e.Open(); err != nil {
		t.Fatalf("Open %s\n", err)
	}
	c.OnDelete(DeleteMovieRows)
	f := &fixture{
		catalog: c,
		ledger:  e,
		user:    &auth.User{Username: "viewer"},
		clock:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	f.user.ID = 7
	e.now = func() time.Time {
		f.clock = f.clock.Add(time.Minute)
		return f.clock
	}
	return f
}

func (f *fixture) movies(t *testing.T, n int) []catalog.Movie {
	var list []catalog.Movie
	for i := 0; i < n; i++ {
		m, err := f.catalog.AddMovie(admin, catalog.MovieFields{
			Title:    fmt.Sprintf("Movie %d", i),
			VideoURL: fmt.Sprintf("movie%d.mp4", i),
		})
		if err != nil {
			t.Fatal(err)
		}
		list = append(list, m)
	}
	return list
}

func TestRecordWatch(t *testing.T) {
	f := testLedger(t)
	m := f.movies(t, 1)[0]

	if err := f.ledger.RecordWatch(f.user, m.ID, 42); err != nil {
		t.Fatal(err)
	}
	if err := f.ledger.RecordWatch(f.user, m.ID, 120); err != nil {
		t.Fatal(err)
	}
	if pos := f.ledger.LastPosition(f.user, m.ID); pos != 120 {
		t.Errorf("position %d\n", pos)
	}
	if err := f.ledger.RecordWatch(f.user, m.ID, -5); err != nil {
		t.Fatal(err)
	}
	if pos := f.ledger.LastPosition(f.user, m.ID); pos != 0 {
		t.Errorf("negative position stored as %d\n", pos)
	}
	if f.ledger.WatchCount() != 1 {
		t.Errorf("expected one row, got %d\n", f.ledger.WatchCount())
	}

	err := f.ledger.RecordWatch(f.user, 9999, 10)
	if !errors.Is(err, catalog.ErrMovieNotFound) {
		t.Errorf("expected not found, got %v\n", err)
	}
	if err := f.ledger.RecordWatch(nil, m.ID, 10); !fail.IsForbidden(err) {
		t.Errorf("expected forbidden, got %v\n", err)
	}
}

func TestToggleFavorite(t *testing.T) {
	f := testLedger(t)
	m := f.movies(t, 1)[0]

	on, err := f.ledger.ToggleFavorite(f.user, m.ID)
	if err != nil || !on {
		t.Fatalf("first toggle %v %v\n", on, err)
	}
	if !f.ledger.IsFavorite(f.user, m.ID) {
		t.Error("expected favorite")
	}
	on, err = f.ledger.ToggleFavorite(f.user, m.ID)
	if err != nil || on {
		t.Fatalf("second toggle %v %v\n", on, err)
	}
	if f.ledger.IsFavorite(f.user, m.ID) {
		t.Error("expected favorite removed")
	}
	var count int64
	f.ledger.db.Model(&Favorite{}).Count(&count)
	if count != 0 {
		t.Errorf("favorite rows %d\n", count)
	}
}

// failCreates makes every insert of model fail as a duplicate key, as
// when a concurrent toggle wins the unique index.
func failCreates(t *testing.T, db *gorm.DB, name string, match func(interface{}) bool) {
	err := db.Callback().Create().Before("gorm:create").Register(name, func(tx *gorm.DB) {
		if match(tx.Statement.Dest) {
			tx.AddError(gorm.ErrDuplicatedKey)
		}
	})
	if err != nil {
		t.Fatal(err)
	}
}

// missDeletes makes deletes of model match no rows, as when a concurrent
// toggle inserts the row after this one looked.
func missDeletes(t *testing.T, db *gorm.DB, name string, match func(interface{}) bool) {
	err := db.Callback().Delete().Before("gorm:delete").Register(name, func(tx *gorm.DB) {
		if match(tx.Statement.Dest) {
			tx.Statement.AddClause(clause.Where{
				Exprs: []clause.Expression{clause.Expr{SQL: "1 = 0"}}})
		}
	})
	if err != nil {
		t.Fatal(err)
	}
}

func isFavorite(v interface{}) bool {
	_, ok := v.(*Favorite)
	return ok
}

func TestToggleFavoriteConflict(t *testing.T) {
	f := testLedger(t)
	m := f.movies(t, 1)[0]
	db := f.ledger.db

	failCreates(t, db, "reel:fail_favorite", isFavorite)
	on, err := f.ledger.ToggleFavorite(f.user, m.ID)
	if err != nil {
		t.Fatalf("expected conflict to be absorbed, got %v\n", err)
	}
	if on || f.ledger.IsFavorite(f.user, m.ID) {
		t.Errorf("expected state from the database, got %v\n", on)
	}
	if err := db.Callback().Create().Remove("reel:fail_favorite"); err != nil {
		t.Fatal(err)
	}

	if on, err := f.ledger.ToggleFavorite(f.user, m.ID); err != nil || !on {
		t.Fatalf("toggle %v %v\n", on, err)
	}
	missDeletes(t, db, "reel:miss_favorite", isFavorite)
	on, err = f.ledger.ToggleFavorite(f.user, m.ID)
	if err != nil {
		t.Fatalf("expected conflict to be absorbed, got %v\n", err)
	}
	if !on || !f.ledger.IsFavorite(f.user, m.ID) {
		t.Errorf("expected the existing favorite, got %v\n", on)
	}
	var count int64
	db.Model(&Favorite{}).Count(&count)
	if count != 1 {
		t.Errorf("favorite rows %d\n", count)
	}
}

func TestWatchedList(t *testing.T) {
	f := testLedger(t)
	movies := f.movies(t, 10)
	for _, m := range movies {
		if err := f.ledger.RecordWatch(f.user, m.ID, 1); err != nil {
			t.Fatal(err)
		}
	}
	a := movies[2]
	for i := 0; i < 3; i++ {
		if err := f.ledger.RecordWatch(f.user, a.ID, 10*i); err != nil {
			t.Fatal(err)
		}
	}

	list, err := f.ledger.WatchedList(f.user, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 5 {
		t.Fatalf("expected 5, got %d\n", len(list))
	}
	seen := make(map[uint]bool)
	for _, m := range list {
		if seen[m.ID] {
			t.Errorf("duplicate %d\n", m.ID)
		}
		seen[m.ID] = true
	}
	want := []uint{a.ID, movies[9].ID, movies[8].ID, movies[7].ID, movies[6].ID}
	for i, id := range want {
		if list[i].ID != id {
			t.Errorf("position %d: got %d want %d\n", i, list[i].ID, id)
		}
	}

	other := &auth.User{Username: "other"}
	other.ID = 8
	list, _ = f.ledger.WatchedList(other, 5)
	if len(list) != 0 {
		t.Errorf("other user sees %d\n", len(list))
	}

	entries, err := f.ledger.History(f.user, 3)
	if err != nil || len(entries) != 3 {
		t.Fatalf("history %d %v\n", len(entries), err)
	}
	if entries[0].Movie.ID != a.ID || entries[0].LastPosition != 20 {
		t.Errorf("latest entry %+v\n", entries[0])
	}
}

func TestLikedList(t *testing.T) {
	f := testLedger(t)
	movies := f.movies(t, 3)
	for _, m := range movies {
		if _, err := f.ledger.ToggleFavorite(f.user, m.ID); err != nil {
			t.Fatal(err)
		}
	}
	list, err := f.ledger.LikedList(f.user, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 || list[0].ID != movies[2].ID || list[2].ID != movies[0].ID {
		t.Errorf("liked order %v\n", list)
	}
	list, _ = f.ledger.LikedList(f.user, 2)
	if len(list) != 2 {
		t.Errorf("limit ignored %d\n", len(list))
	}
}

func TestDeleteMovieCleanup(t *testing.T) {
	f := testLedger(t)
	m := f.movies(t, 1)[0]
	f.ledger.RecordWatch(f.user, m.ID, 30)
	f.ledger.ToggleFavorite(f.user, m.ID)

	if err := f.catalog.DeleteMovie(admin, m.ID); err != nil {
		t.Fatal(err)
	}
	if f.ledger.WatchCount() != 0 || f.ledger.IsFavorite(f.user, m.ID) {
		t.Error("rows left after delete")
	}
}
