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
	"errors"

	"github.com/defsub/reel/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	g "gorm.io/gorm"
)

var (
	ErrBadDriver = errors.New("driver not supported")
)

// Open connects to the configured database. Supported drivers are sqlite3,
// postgres and mysql.
func Open(cfg config.DatabaseConfig) (*g.DB, error) {
	var dialector g.Dialector
	switch cfg.Driver {
	case "sqlite3", "sqlite":
		dialector = sqlite.Open(cfg.Source)
	case "postgres":
		dialector = postgres.Open(cfg.Source)
	case "mysql":
		dialector = mysql.Open(cfg.Source)
	default:
		return nil, ErrBadDriver
	}
	return g.Open(dialector, cfg.GormConfig())
}

func Close(db *g.DB) {
	conn, err := db.DB()
	if err != nil {
		return
	}
	conn.Close()
}
