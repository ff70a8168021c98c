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

// Package fail defines the error kinds shared by every store. Packages wrap
// these with their own sentinel errors and callers test with errors.Is.
package fail

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrInvalid   = errors.New("invalid")
	ErrConflict  = errors.New("conflict")
	ErrForbidden = errors.New("forbidden")
	ErrStore     = errors.New("store failure")
)

type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string {
	return e.msg
}

func (e *kindError) Unwrap() error {
	return e.kind
}

// NotFound returns "<what> not found".
func NotFound(what string) error {
	return &kindError{msg: what + " not found", kind: ErrNotFound}
}

// Invalid returns a validation error with a human readable reason.
func Invalid(reason string) error {
	return &kindError{msg: reason, kind: ErrInvalid}
}

func Conflict(reason string) error {
	return &kindError{msg: reason, kind: ErrConflict}
}

func Forbidden(reason string) error {
	return &kindError{msg: reason, kind: ErrForbidden}
}

type storeError struct {
	err error
}

func (e *storeError) Error() string {
	return fmt.Sprintf("%s: %s", ErrStore, e.err)
}

func (e *storeError) Is(target error) bool {
	return target == ErrStore
}

func (e *storeError) Unwrap() error {
	return e.err
}

// Store wraps a database error. Record-not-found and duplicate-key errors
// keep their own kind; anything else is a transient store failure.
func Store(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalid),
		errors.Is(err, ErrConflict), errors.Is(err, ErrForbidden),
		errors.Is(err, ErrStore):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &kindError{msg: "record not found", kind: ErrNotFound}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &kindError{msg: "duplicate value", kind: ErrConflict}
	}
	return &storeError{err: err}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalid)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, gorm.ErrDuplicatedKey)
}

func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}
