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
	"encoding/hex"
	"errors"
	"time"

	"github.com/defsub/reel/config"
	"github.com/defsub/reel/lib/log"
	"github.com/golang-jwt/jwt"
)

var (
	ErrInvalidTokenSubject = errors.New("invalid subject")
	ErrInvalidTokenMethod  = errors.New("invalid token method")
	ErrInvalidTokenIssuer  = errors.New("invalid token issuer")
	ErrInvalidTokenClaims  = errors.New("invalid token claims")
	ErrTokenExpired        = errors.New("token expired")
)

var processSecret string

// tokenSecret falls back to a random per-process secret so a missing
// SECRET_KEY only invalidates tokens across restarts.
func tokenSecret(cfg config.TokenConfig) []byte {
	if cfg.Secret != "" {
		return []byte(cfg.Secret)
	}
	if processSecret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			panic(ErrInvalidTokenSecret)
		}
		processSecret = hex.EncodeToString(buf)
		log.Warnf("no access token secret configured, using a random one")
	}
	return []byte(processSecret)
}

func newToken(s Session, cfg config.TokenConfig) (string, error) {
	age := cfg.Age
	if s.Duration() < age {
		age = s.Duration()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256,
		jwt.StandardClaims{
			Issuer:    cfg.Issuer,
			Subject:   s.Token,
			ExpiresAt: time.Now().Add(age).Unix(),
		})
	return token.SignedString(tokenSecret(cfg))
}

// NewAccessToken returns a signed token for API clients. The subject is the
// session token so logging out revokes it.
func (a *Auth) NewAccessToken(s Session) (string, error) {
	return newToken(s, a.config.Auth.AccessToken)
}

// AccessTokenSession validates the token and returns its live session.
func (a *Auth) AccessTokenSession(signedToken string) (*Session, error) {
	_, claims, err := a.processToken(signedToken, a.config.Auth.AccessToken)
	if err != nil {
		return nil, err
	}
	session := a.findSession(claims.Subject)
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.Expired() {
		return nil, ErrSessionExpired
	}
	return session, nil
}

func (a *Auth) processToken(signedToken string, cfg config.TokenConfig) (*jwt.Token, *jwt.StandardClaims, error) {
	token, err := jwt.ParseWithClaims(
		signedToken,
		&jwt.StandardClaims{},
		func(token *jwt.Token) (interface{}, error) {
			return tokenSecret(cfg), nil
		})
	if err != nil {
		return nil, nil, err
	}
	if token.Method != jwt.SigningMethodHS256 {
		return nil, nil, ErrInvalidTokenMethod
	}
	claims, ok := token.Claims.(*jwt.StandardClaims)
	if !ok {
		return nil, nil, ErrInvalidTokenClaims
	}
	if claims.Issuer != cfg.Issuer {
		return nil, nil, ErrInvalidTokenIssuer
	}
	if claims.ExpiresAt < time.Now().Unix() {
		return nil, nil, ErrTokenExpired
	}
	if claims.Subject == "" {
		return nil, nil, ErrInvalidTokenSubject
	}
	return token, claims, nil
}
