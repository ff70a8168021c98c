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

	g "github.com/defsub/reel/lib/gorm"
	"github.com/defsub/reel/server"
	"github.com/spf13/cobra"
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "reel job",
	Long:  `Run one of the scheduled jobs now: backfill, purge or reindex.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return job()
	},
}

var jobName string

func job() error {
	if jobName == "" {
		return errors.New("no job")
	}
	cfg, db, err := openDB()
	if err != nil {
		return err
	}
	defer g.Close(db)
	return server.RunJob(cfg, db, jobName)
}

func init() {
	jobCmd.Flags().StringVarP(&configFile, "config", "c", "", "config file")
	jobCmd.Flags().StringVarP(&jobName, "name", "n", "", "name of job")
	rootCmd.AddCommand(jobCmd)
}
