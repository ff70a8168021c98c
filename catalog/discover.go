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

// SuggestedFor returns popular movies from m's category. Episodes, m
// itself and movies of m's franchise are left out.
func (c *Catalog) SuggestedFor(m Movie, limit int) ([]Movie, error) {
	var movies []Movie
	if m.CategoryID == nil {
		return movies, nil
	}
	if limit <= 0 {
		limit = c.suggestLimit()
	}
	tx := c.db.Where("category_id = ? and id <> ? and series_parent_id is null",
		*m.CategoryID, m.ID)
	if m.FranchiseID != nil {
		tx = tx.Where("(franchise_id is null or franchise_id <> ?)", *m.FranchiseID)
	}
	err := tx.Order("views desc, id desc").Limit(limit).Find(&movies).Error
	if err != nil {
		return nil, notFound(err, ErrMovieNotFound)
	}
	return movies, nil
}
