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

package gorm

import (
	"path/filepath"
	"testing"

	"github.com/defsub/reel/config"
	g "gorm.io/gorm"
)

// OpenTest returns the test config and a fresh sqlite database that lives
// for the duration of the test.
func OpenTest(tb testing.TB) (*config.Config, *g.DB) {
	tb.Helper()
	cfg, err := config.TestConfig()
	if err != nil {
		tb.Fatalf("TestConfig %s\n", err)
	}
	cfg.DB.Driver = "sqlite3"
	cfg.DB.Source = filepath.Join(tb.TempDir(), "test.db")
	cfg.Search.BleveDir = tb.TempDir()
	cfg.Storage.Dir = tb.TempDir()
	db, err := Open(cfg.DB)
	if err != nil {
		tb.Fatalf("Open %s\n", err)
	}
	tb.Cleanup(func() {
		Close(db)
	})
	return cfg, db
}
