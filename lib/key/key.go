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

// Package key generates external identifiers for catalog entries: short
// random url keys and readable slugs.
package key

import (
	"crypto/rand"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/defsub/reel/lib/fail"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	alphabet        = "abcdefghijklmnopqrstuvwxyz0123456789"
	DefaultLength   = 6
	DefaultAttempts = 100
	fallbackSlug    = "movie"
)

var (
	ErrExhausted = fail.Conflict("no free key available")
)

// ExistsFunc reports whether a candidate is already taken.
type ExistsFunc func(candidate string) (bool, error)

type Generator struct {
	Length   int
	Attempts int
	Now      func() time.Time
	Random   io.Reader
}

func NewGenerator(length, attempts int) *Generator {
	if length <= 0 {
		length = DefaultLength
	}
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	return &Generator{
		Length:   length,
		Attempts: attempts,
		Now:      time.Now,
		Random:   rand.Reader,
	}
}

// URLKey returns the base36 unix time followed by a random suffix of
// g.Length characters. A taken candidate is retried with a fresh suffix.
func (g *Generator) URLKey(exists ExistsFunc) (string, error) {
	prefix := strconv.FormatInt(g.Now().Unix(), 36)
	for i := 0; i < g.Attempts; i++ {
		suffix, err := g.suffix()
		if err != nil {
			return "", err
		}
		candidate := prefix + suffix
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", ErrExhausted
}

func (g *Generator) suffix() (string, error) {
	// 252 is the largest multiple of 36 below 256
	const limit = 252
	out := make([]byte, 0, g.Length)
	buf := make([]byte, g.Length*2)
	for len(out) < g.Length {
		if _, err := io.ReadFull(g.Random, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == g.Length {
				break
			}
		}
	}
	return string(out), nil
}

// letters that survive NFD decomposition unchanged
var foldTable = map[rune]string{
	'đ': "d",
	'ð': "d",
	'ø': "o",
	'ł': "l",
	'æ': "ae",
	'œ': "oe",
	'ß': "ss",
	'þ': "th",
}

var (
	nonSlugRegexp   = regexp.MustCompile(`[^\p{L}\p{N}\s_-]+`)
	separatorRegexp = regexp.MustCompile(`[\s_-]+`)
)

func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// Fold lowercases s, strips diacritics, drops punctuation and joins words
// with single hyphens.
func Fold(s string) string {
	s = stripMarks(strings.ToLower(s))
	var b strings.Builder
	for _, r := range s {
		if rep, ok := foldTable[r]; ok {
			b.WriteString(rep)
		} else {
			b.WriteRune(r)
		}
	}
	s = nonSlugRegexp.ReplaceAllString(b.String(), "")
	s = separatorRegexp.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Slugify is Fold with a fallback for titles that fold to nothing.
func Slugify(title string) string {
	s := Fold(title)
	if s == "" {
		s = fallbackSlug
	}
	return s
}

// Slug returns Slugify(title), or the first of base-1, base-2, ... that is
// not taken.
func Slug(title string, exists ExistsFunc) (string, error) {
	base := Slugify(title)
	candidate := base
	for n := 1; ; n++ {
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}
