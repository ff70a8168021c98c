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

package auth

import (
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

// Digests use the "method$salt$hex" layout so passwords set by earlier
// releases keep working.
const (
	scryptN      = 32768
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 64
	saltChars    = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	saltSize     = 16
)

var (
	ErrDigestFormat = errors.New("unsupported password digest")
)

func newSalt() (string, error) {
	buf := make([]byte, saltSize)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = saltChars[int(buf[i])%len(saltChars)]
	}
	return string(buf), nil
}

// HashPassword returns a scrypt digest of pass.
func HashPassword(pass string) (string, error) {
	salt, err := newSalt()
	if err != nil {
		return "", err
	}
	key, err := scrypt.Key([]byte(pass), []byte(salt), scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("scrypt:%d:%d:%d$%s$%s", scryptN, scryptR, scryptP,
		salt, hex.EncodeToString(key)), nil
}

// VerifyPassword checks pass against a scrypt or pbkdf2 digest.
func VerifyPassword(pass, digest string) bool {
	parts := strings.SplitN(digest, "$", 3)
	if len(parts) != 3 {
		return false
	}
	method, salt, want := parts[0], parts[1], parts[2]
	expected, err := hex.DecodeString(want)
	if err != nil {
		return false
	}
	got, err := derive(method, pass, salt, len(expected))
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(got, expected) == 1
}

func derive(method, pass, salt string, keyLen int) ([]byte, error) {
	args := strings.Split(method, ":")
	switch args[0] {
	case "scrypt":
		n, r, p := scryptN, scryptR, scryptP
		if len(args) == 4 {
			var err error
			if n, err = strconv.Atoi(args[1]); err != nil {
				return nil, ErrDigestFormat
			}
			if r, err = strconv.Atoi(args[2]); err != nil {
				return nil, ErrDigestFormat
			}
			if p, err = strconv.Atoi(args[3]); err != nil {
				return nil, ErrDigestFormat
			}
		}
		return scrypt.Key([]byte(pass), []byte(salt), n, r, p, keyLen)
	case "pbkdf2":
		if len(args) < 2 {
			return nil, ErrDigestFormat
		}
		var h func() hash.Hash
		switch args[1] {
		case "sha1":
			h = sha1.New
		case "sha256":
			h = sha256.New
		case "sha512":
			h = sha512.New
		default:
			return nil, ErrDigestFormat
		}
		iter := 260000
		if len(args) == 3 {
			var err error
			if iter, err = strconv.Atoi(args[2]); err != nil {
				return nil, ErrDigestFormat
			}
		}
		return pbkdf2.Key([]byte(pass), []byte(salt), iter, keyLen, h), nil
	}
	return nil, ErrDigestFormat
}
