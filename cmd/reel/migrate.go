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

package main

import (
	"fmt"

	g "github.com/defsub/reel/lib/gorm"
	"github.com/defsub/reel/schema"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "upgrade the database schema",
	Long:  `Add missing tables and columns and assign url keys to movies without one.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return migrate()
	},
}

func migrate() error {
	cfg, db, err := openDB()
	if err != nil {
		return err
	}
	defer g.Close(db)
	report, err := schema.Upgrade(cfg, db)
	if err != nil {
		return err
	}
	if report.Empty() {
		fmt.Println("schema is up to date")
	} else {
		fmt.Println(report)
	}
	return nil
}

func init() {
	migrateCmd.Flags().StringVarP(&configFile, "config", "c", "", "config file")
	rootCmd.AddCommand(migrateCmd)
}
