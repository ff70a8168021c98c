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

	"github.com/defsub/reel/auth"
	"github.com/defsub/reel/catalog"
	"github.com/defsub/reel/comment"
	"github.com/defsub/reel/engagement"
	g "github.com/defsub/reel/lib/gorm"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "reel stats",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stats()
	},
}

func stats() error {
	cfg, db, err := openDB()
	if err != nil {
		return err
	}
	defer g.Close(db)

	a := auth.NewAuth(cfg, db)
	c := catalog.NewCatalog(cfg, db)
	e := engagement.NewEngagement(cfg, db, c)
	cm := comment.NewComments(cfg, db, c, a)
	for _, open := range []func() error{a.Open, c.Open, e.Open, cm.Open} {
		if err := open(); err != nil {
			return err
		}
	}
	fmt.Printf("movies %d\n", c.MovieCount())
	fmt.Printf("series %d\n", len(c.SeriesList()))
	fmt.Printf("categories %d\n", len(c.Categories()))
	fmt.Printf("franchises %d\n", len(c.Franchises()))
	fmt.Printf("views %d\n", c.TotalViews())
	fmt.Printf("users %d\n", a.UserCount())
	fmt.Printf("watches %d\n", e.WatchCount())
	fmt.Printf("comments %d\n", cm.Count())
	return nil
}

func init() {
	statsCmd.Flags().StringVarP(&configFile, "config", "c", "", "config file")
	rootCmd.AddCommand(statsCmd)
}
