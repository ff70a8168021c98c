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
	"strconv"

	"github.com/defsub/reel/lib/gorm"
)

type Movie struct {
	gorm.Model
	Title          string  `gorm:"size:200;not null"`
	Subtitle       string  `gorm:"size:200"`
	Slug           *string `gorm:"size:220;index:idx_movie_slug"`
	URLKey         *string `gorm:"size:32;uniqueIndex:idx_movie_url_key"`
	Description    string  `gorm:"type:text"`
	VideoURL       string  `gorm:"size:500"`
	PosterURL      string  `gorm:"size:500"`
	SubtitleURL    string  `gorm:"size:500"`
	CategoryID     *uint   `gorm:"index:idx_movie_category"`
	Views          int     `gorm:"default:0"`
	DisplayOrder   int     `gorm:"default:0"`
	FranchiseID    *uint   `gorm:"index:idx_movie_franchise"`
	SeriesParentID *uint   `gorm:"index:idx_movie_series_parent"`
	EpisodeNumber  *int
	IsSeries       bool `gorm:"default:false"`
}

func (m Movie) HasURLKey() bool {
	return m.URLKey != nil && *m.URLKey != ""
}

func (m Movie) HasSlug() bool {
	return m.Slug != nil && *m.Slug != ""
}

// Key is the canonical external key: url key, then slug, then id.
func (m Movie) Key() string {
	if m.HasURLKey() {
		return *m.URLKey
	}
	if m.HasSlug() {
		return *m.Slug
	}
	return strconv.FormatUint(uint64(m.ID), 10)
}

func (m Movie) IsEpisode() bool {
	return !m.IsSeries && m.SeriesParentID != nil
}

func (m Movie) Episode() int {
	if m.EpisodeNumber == nil {
		return 0
	}
	return *m.EpisodeNumber
}

type Category struct {
	gorm.Model
	Name string `gorm:"size:100;uniqueIndex:idx_category_name;not null"`
}

type Franchise struct {
	gorm.Model
	Name        string `gorm:"size:200;uniqueIndex:idx_franchise_name;not null"`
	Description string `gorm:"type:text"`
	PosterURL   string `gorm:"size:500"`
}

type RoleKind int

const (
	Standalone RoleKind = iota
	SeriesContainer
	Episode
)

func (k RoleKind) String() string {
	switch k {
	case SeriesContainer:
		return "series"
	case Episode:
		return "episode"
	}
	return "standalone"
}

// Role is the place of a movie in the series graph. Series and Number are
// set for episodes only.
type Role struct {
	Kind   RoleKind
	Series *Movie
	Number int
}

// MovieFields are the admin editable fields of a movie.
type MovieFields struct {
	Title          string `json:"title"`
	Subtitle       string `json:"subtitle"`
	Description    string `json:"description"`
	VideoURL       string `json:"video_url"`
	PosterURL      string `json:"poster_url"`
	SubtitleURL    string `json:"subtitle_url"`
	CategoryID     *uint  `json:"category_id"`
	FranchiseID    *uint  `json:"franchise_id"`
	SeriesParentID *uint  `json:"series_parent_id"`
	EpisodeNumber  *int   `json:"episode_number"`
	IsSeries       bool   `json:"is_series"`
	DisplayOrder   int    `json:"display_order"`
}

func (m Movie) Fields() MovieFields {
	return MovieFields{
		Title:          m.Title,
		Subtitle:       m.Subtitle,
		Description:    m.Description,
		VideoURL:       m.VideoURL,
		PosterURL:      m.PosterURL,
		SubtitleURL:    m.SubtitleURL,
		CategoryID:     m.CategoryID,
		FranchiseID:    m.FranchiseID,
		SeriesParentID: m.SeriesParentID,
		EpisodeNumber:  m.EpisodeNumber,
		IsSeries:       m.IsSeries,
		DisplayOrder:   m.DisplayOrder,
	}
}

func (m *Movie) apply(f MovieFields) {
	m.Title = f.Title
	m.Subtitle = f.Subtitle
	m.Description = f.Description
	m.VideoURL = f.VideoURL
	m.PosterURL = f.PosterURL
	m.SubtitleURL = f.SubtitleURL
	m.CategoryID = f.CategoryID
	m.FranchiseID = f.FranchiseID
	m.SeriesParentID = f.SeriesParentID
	m.EpisodeNumber = f.EpisodeNumber
	m.IsSeries = f.IsSeries
	m.DisplayOrder = f.DisplayOrder
}
