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

// Package bucket stores uploads in S3 compatible object storage.
package bucket

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/defsub/reel/config"
)

var ErrBackend = errors.New("unknown storage backend")

type Bucket interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// URL returns where clients can fetch key.
	URL(ctx context.Context, key string) (string, error)
}

func Open(backend string, cfg config.BucketConfig) (Bucket, error) {
	switch backend {
	case config.StorageS3:
		return OpenS3(cfg)
	case config.StorageMinio:
		return OpenMinio(cfg)
	}
	return nil, ErrBackend
}

func objectKey(cfg config.BucketConfig, key string) string {
	if cfg.ObjectPrefix == "" {
		return key
	}
	return path.Join(cfg.ObjectPrefix, key)
}

func publicURL(cfg config.BucketConfig, key string) string {
	return strings.TrimRight(cfg.PublicURL, "/") + "/" + key
}
