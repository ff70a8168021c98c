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
	"errors"
	"fmt"
	"strings"

	"github.com/defsub/reel/auth"
	"github.com/defsub/reel/catalog"
	g "github.com/defsub/reel/lib/gorm"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var movieCmd = &cobra.Command{
	Use:   "movie",
	Short: "movie catalog",
}

var movieListCmd = &cobra.Command{
	Use:   "list",
	Short: "list top level movies",
	RunE: func(cmd *cobra.Command, args []string) error {
		return movieList()
	},
}

var movieAddCmd = &cobra.Command{
	Use:   "add",
	Short: "add a movie",
	RunE: func(cmd *cobra.Command, args []string) error {
		return movieAdd()
	},
}

var categoryCmd = &cobra.Command{
	Use:   "category",
	Short: "movie categories",
}

var categoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "list categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		return categoryList()
	},
}

var categoryAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "add a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return categoryAdd(args[0])
	},
}

var filter, actor string
var fields catalog.MovieFields
var categoryName string

// openCatalog returns the catalog and the admin named by --as, if any.
func openCatalog(needActor bool) (*catalog.Catalog, *auth.User, *gorm.DB, error) {
	cfg, db, err := openDB()
	if err != nil {
		return nil, nil, nil, err
	}
	c := catalog.NewCatalog(cfg, db)
	if err := c.Open(); err != nil {
		g.Close(db)
		return nil, nil, nil, err
	}
	if !needActor {
		return c, nil, db, nil
	}
	if actor == "" {
		g.Close(db)
		return nil, nil, nil, errors.New("no admin, use --as")
	}
	a := auth.NewAuth(cfg, db)
	if err := a.Open(); err != nil {
		g.Close(db)
		return nil, nil, nil, err
	}
	u, err := a.UserByName(actor)
	if err != nil {
		g.Close(db)
		return nil, nil, nil, err
	}
	return c, &u, db, nil
}

func movieList() error {
	c, _, db, err := openCatalog(false)
	if err != nil {
		return err
	}
	defer g.Close(db)
	names := c.CategoryMap()
	for _, m := range c.Movies(filter) {
		category := "-"
		if m.CategoryID != nil {
			category = names[*m.CategoryID].Name
		}
		fmt.Printf("%d\t%s\t%s\t%s\t%d\n", m.ID, m.Key(), m.Title, category, m.Views)
	}
	return nil
}

func movieAdd() error {
	c, u, db, err := openCatalog(true)
	if err != nil {
		return err
	}
	defer g.Close(db)
	if categoryName != "" {
		for _, cat := range c.Categories() {
			if strings.EqualFold(cat.Name, categoryName) {
				id := cat.ID
				fields.CategoryID = &id
				break
			}
		}
		if fields.CategoryID == nil {
			return fmt.Errorf("category %q not found", categoryName)
		}
	}
	m, err := c.AddMovie(u, fields)
	if err != nil {
		return err
	}
	fmt.Printf("added %s /movie/%s\n", m.Title, m.Key())
	return nil
}

func categoryList() error {
	c, _, db, err := openCatalog(false)
	if err != nil {
		return err
	}
	defer g.Close(db)
	for _, cat := range c.Categories() {
		fmt.Printf("%d\t%s\t%d\n", cat.ID, cat.Name, len(c.MoviesInCategory(cat.ID)))
	}
	return nil
}

func categoryAdd(name string) error {
	c, u, db, err := openCatalog(true)
	if err != nil {
		return err
	}
	defer g.Close(db)
	cat, err := c.AddCategory(u, name)
	if err != nil {
		return err
	}
	fmt.Printf("added %s (%d)\n", cat.Name, cat.ID)
	return nil
}

func init() {
	for _, cmd := range []*cobra.Command{movieListCmd, movieAddCmd, categoryListCmd, categoryAddCmd} {
		cmd.Flags().StringVarP(&configFile, "config", "c", "", "config file")
	}
	movieListCmd.Flags().StringVarP(&filter, "filter", "f", "", "popular or newest")
	movieAddCmd.Flags().StringVar(&actor, "as", "", "admin username")
	movieAddCmd.Flags().StringVarP(&fields.Title, "title", "t", "", "title")
	movieAddCmd.Flags().StringVar(&fields.Subtitle, "subtitle", "", "subtitle")
	movieAddCmd.Flags().StringVarP(&fields.Description, "description", "d", "", "description")
	movieAddCmd.Flags().StringVar(&fields.VideoURL, "video", "", "video url")
	movieAddCmd.Flags().StringVar(&fields.PosterURL, "poster", "", "poster url")
	movieAddCmd.Flags().StringVar(&fields.SubtitleURL, "subtitles", "", "subtitle track url")
	movieAddCmd.Flags().StringVar(&categoryName, "category", "", "category name")
	movieAddCmd.Flags().IntVar(&fields.DisplayOrder, "order", 0, "display order")
	categoryAddCmd.Flags().StringVar(&actor, "as", "", "admin username")

	movieCmd.AddCommand(movieListCmd, movieAddCmd)
	categoryCmd.AddCommand(categoryListCmd, categoryAddCmd)
	rootCmd.AddCommand(movieCmd, categoryCmd)
}
