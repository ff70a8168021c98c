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

package catalog

import (
	"github.com/defsub/reel/lib/fail"
	"github.com/defsub/reel/lib/log"
)

// BackfillURLKeys assigns a url key to every movie that lacks one and
// returns how many were assigned. Movies are processed in id order, a
// batch at a time, and a key is only written while the column is still
// empty so concurrent runs never overwrite each other.
func (c *Catalog) BackfillURLKeys() (int, error) {
	batch := c.config.Catalog.BackfillBatch
	if batch <= 0 {
		batch = 100
	}
	total := 0
	var last uint
	for {
		var movies []Movie
		err := c.db.Where("(url_key is null or url_key = '') and id > ?", last).
			Order("id").Limit(batch).Find(&movies).Error
		if err != nil {
			return total, fail.Store(err)
		}
		if len(movies) == 0 {
			break
		}
		for _, m := range movies {
			last = m.ID
			urlKey, err := c.keys.URLKey(c.urlKeyExists(c.db))
			if err != nil {
				return total, err
			}
			result := c.db.Model(&Movie{}).
				Where("id = ? and (url_key is null or url_key = '')", m.ID).
				Update("url_key", urlKey)
			if result.Error != nil {
				if fail.IsConflict(result.Error) {
					// lost the key to a concurrent insert, next run picks it up
					log.Warnf("url key %s taken, skipping movie %d", urlKey, m.ID)
					continue
				}
				return total, fail.Store(result.Error)
			}
			total += int(result.RowsAffected)
		}
		if len(movies) < batch {
			break
		}
	}
	if total > 0 {
		log.Printf("assigned %d url keys", total)
	}
	return total, nil
}
