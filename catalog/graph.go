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

func (c *Catalog) CategoryOf(m Movie) *Category {
	if m.CategoryID == nil {
		return nil
	}
	cat, err := c.LookupCategory(*m.CategoryID)
	if err != nil {
		return nil
	}
	return &cat
}

func (c *Catalog) FranchiseOf(m Movie) *Franchise {
	if m.FranchiseID == nil {
		return nil
	}
	f, err := c.LookupFranchise(*m.FranchiseID)
	if err != nil {
		return nil
	}
	return &f
}

// FranchiseSiblings returns the other movies of m's franchise, oldest
// first.
func (c *Catalog) FranchiseSiblings(m Movie) []Movie {
	var movies []Movie
	if m.FranchiseID == nil {
		return movies
	}
	c.db.Where("franchise_id = ? and id <> ?", *m.FranchiseID, m.ID).
		Order("created_at asc, id asc").Find(&movies)
	return movies
}

// SeriesOf returns the series container of an episode.
func (c *Catalog) SeriesOf(m Movie) *Movie {
	if !m.IsEpisode() {
		return nil
	}
	series, err := c.LookupMovie(*m.SeriesParentID)
	if err != nil {
		return nil
	}
	return &series
}

// EpisodesOf returns the episodes of a series by episode number.
func (c *Catalog) EpisodesOf(series Movie) []Movie {
	var movies []Movie
	if !series.IsSeries {
		return movies
	}
	c.db.Where("series_parent_id = ?", series.ID).
		Order("episode_number asc, id asc").Find(&movies)
	return movies
}

func (c *Catalog) RoleOf(m Movie) Role {
	if m.IsSeries {
		return Role{Kind: SeriesContainer}
	}
	if m.IsEpisode() {
		return Role{Kind: Episode, Series: c.SeriesOf(m), Number: m.Episode()}
	}
	return Role{Kind: Standalone}
}

// NextEpisode returns the episode after m in its series.
func (c *Catalog) NextEpisode(m Movie) *Movie {
	if !m.IsEpisode() {
		return nil
	}
	var movies []Movie
	c.db.Where("series_parent_id = ? and episode_number > ?", *m.SeriesParentID, m.Episode()).
		Order("episode_number asc, id asc").Limit(1).Find(&movies)
	if len(movies) == 0 {
		return nil
	}
	return &movies[0]
}
