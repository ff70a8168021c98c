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
	"errors"
	"time"

	"github.com/defsub/reel/config"
	"github.com/defsub/reel/lib/log"
	"github.com/go-co-op/gocron"
	"gorm.io/gorm"
)

const (
	JobBackfill = "backfill"
	JobPurge    = "purge"
	JobReindex  = "reindex"
)

var ErrUnknownJob = errors.New("unknown job")

func Jobs() []string {
	return []string{JobBackfill, JobPurge, JobReindex}
}

func runJob(ctx Context, name string) error {
	switch name {
	case JobBackfill:
		n, err := ctx.Catalog().BackfillURLKeys()
		if err != nil {
			return err
		}
		log.Printf("backfill: %d url keys", n)
	case JobPurge:
		n, err := ctx.Auth().PurgeSessions()
		if err != nil {
			return err
		}
		log.Printf("purge: %d sessions", n)
	case JobReindex:
		n, err := ctx.Catalog().Reindex()
		if err != nil {
			return err
		}
		log.Printf("reindex: %d movies", n)
	default:
		return ErrUnknownJob
	}
	return nil
}

// RunJob runs one scheduled job now.
func RunJob(cfg *config.Config, db *gorm.DB, name string) error {
	ctx, err := makeContext(cfg, db)
	if err != nil {
		return err
	}
	defer ctx.Catalog().CloseSearch()
	return runJob(ctx, name)
}

// schedule starts the periodic jobs. A zero interval disables a job.
func schedule(ctx Context) *gocron.Scheduler {
	scheduler := gocron.NewScheduler(time.UTC)

	every := func(d time.Duration, name string) {
		if d <= 0 {
			return
		}
		_, err := scheduler.Every(d).WaitForSchedule().Do(func() {
			if err := runJob(ctx, name); err != nil {
				log.Printf("%s: %s", name, err)
			}
		})
		if err != nil {
			log.Printf("schedule %s: %s", name, err)
		}
	}

	config := ctx.Config()
	every(config.Catalog.BackfillInterval, JobBackfill)
	every(config.Session.PurgeInterval, JobPurge)
	every(config.Search.ReindexInterval, JobReindex)

	scheduler.StartAsync()
	return scheduler
}
