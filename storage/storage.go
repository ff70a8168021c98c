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

// Package storage saves uploaded posters, videos, avatars and subtitles
// and returns their public urls.
package storage

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/defsub/reel/config"
	"github.com/defsub/reel/lib/bucket"
	"github.com/defsub/reel/lib/fail"
	"github.com/defsub/reel/lib/key"
)

type Kind string

const (
	Poster   Kind = "poster"
	Video    Kind = "video"
	Avatar   Kind = "avatar"
	Subtitle Kind = "subtitle"
)

var (
	ErrKind     = fail.Invalid("unknown upload kind")
	ErrEmpty    = fail.Invalid("no file uploaded")
	ErrTooLarge = fail.Invalid("file is too large")
)

var (
	imageTypes = []string{"jpg", "jpeg", "png", "gif", "webp"}

	extensions = map[Kind][]string{
		Poster:   imageTypes,
		Avatar:   imageTypes,
		Video:    {"mp4", "webm", "mkv", "mov", "m3u8"},
		Subtitle: {"vtt", "srt"},
	}
)

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(s))
	if _, ok := extensions[k]; !ok {
		return "", ErrKind
	}
	return k, nil
}

type Storage struct {
	config config.StorageConfig
	bucket bucket.Bucket
	now    func() time.Time
}

func NewStorage(cfg *config.Config) (*Storage, error) {
	s := &Storage{config: cfg.Storage, now: time.Now}
	if s.config.Backend == "" || s.config.Backend == config.StorageLocal {
		return s, nil
	}
	b, err := bucket.Open(s.config.Backend, s.config.Bucket)
	if err != nil {
		return nil, err
	}
	s.bucket = b
	return s, nil
}

// Local reports whether uploads are written to the local directory.
func (s *Storage) Local() bool {
	return s.bucket == nil
}

func (s *Storage) Dir() string {
	return s.config.Dir
}

// Store saves data under a timestamped name in the directory of its kind
// and returns the public url.
func (s *Storage) Store(ctx context.Context, name string, data []byte, kind Kind) (string, error) {
	allowed, ok := extensions[kind]
	if !ok {
		return "", ErrKind
	}
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if s.config.MaxSize > 0 && int64(len(data)) > s.config.MaxSize {
		return "", ErrTooLarge
	}
	stem, ext := sanitize(name)
	if !contains(allowed, ext) {
		return "", fail.Invalid(fmt.Sprintf("unsupported %s format, use %s",
			kind, strings.ToUpper(strings.Join(allowed, ", "))))
	}
	objectKey := path.Join(string(kind)+"s",
		fmt.Sprintf("%s_%s.%s", s.now().Format("20060102_150405"), stem, ext))

	if s.bucket != nil {
		if err := s.bucket.Put(ctx, objectKey, data, contentType(ext, data)); err != nil {
			return "", fail.Store(err)
		}
		return s.bucket.URL(ctx, objectKey)
	}

	file := filepath.Join(s.config.Dir, filepath.FromSlash(objectKey))
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return "", fail.Store(err)
	}
	if err := os.WriteFile(file, data, 0644); err != nil {
		return "", fail.Store(err)
	}
	return strings.TrimRight(s.config.URLPrefix, "/") + "/" + objectKey, nil
}

// sanitize reduces an uploaded file name to a safe stem and a lowercase
// extension.
func sanitize(name string) (string, string) {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	stem := key.Fold(strings.TrimSuffix(name, filepath.Ext(name)))
	if stem == "" {
		stem = "file"
	}
	return stem, ext
}

func contentType(ext string, data []byte) string {
	if t := mime.TypeByExtension("." + ext); t != "" {
		return t
	}
	return http.DetectContentType(data)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
