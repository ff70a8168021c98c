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

// Package limit counts events per key in fixed time windows. A limiter
// without a store allows everything.
package limit

import (
	"context"
	"fmt"
	"time"
)

type Store interface {
	// Incr increments key and returns the new count.
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

type Limiter struct {
	store  Store
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

func New(store Store, prefix string, limit int, window time.Duration) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		store:  store,
		prefix: prefix,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Allow counts one event for key and reports whether it stays within the
// limit for the current window.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	if l == nil || l.store == nil || l.limit <= 0 {
		return true, nil
	}
	slot := l.now().UnixNano() / int64(l.window)
	k := fmt.Sprintf("%s:%s:%d", l.prefix, key, slot)
	count, err := l.store.Incr(ctx, k)
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := l.store.Expire(ctx, k, l.window); err != nil {
			return false, err
		}
	}
	return count <= int64(l.limit), nil
}
