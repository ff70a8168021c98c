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
	"encoding/json"

	"github.com/defsub/reel/auth"
	"github.com/defsub/reel/lib/fail"
	jsonpatch "github.com/evanphx/json-patch"
)

var ErrBadPatch = fail.Invalid("malformed patch")

// PatchMovie applies a JSON merge patch (RFC 7396) to the editable fields
// of a movie. Naming series_parent_id without is_series turns the movie
// into an episode.
func (c *Catalog) PatchMovie(actor *auth.User, id uint, patch []byte) (Movie, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return Movie{}, err
	}
	m, err := c.LookupMovie(id)
	if err != nil {
		return Movie{}, err
	}
	f, err := mergeFields(m.Fields(), patch)
	if err != nil {
		return Movie{}, err
	}
	return c.EditMovie(actor, id, f)
}

func mergeFields(current MovieFields, patch []byte) (MovieFields, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(patch, &keys); err != nil {
		return current, ErrBadPatch
	}
	doc, err := json.Marshal(current)
	if err != nil {
		return current, err
	}
	merged, err := jsonpatch.MergePatch(doc, patch)
	if err != nil {
		return current, ErrBadPatch
	}
	var f MovieFields
	if err := json.Unmarshal(merged, &f); err != nil {
		return current, ErrBadPatch
	}
	_, setSeries := keys["is_series"]
	if _, ok := keys["series_parent_id"]; ok && !setSeries && f.SeriesParentID != nil {
		f.IsSeries = false
	}
	return f, nil
}
