// QR Studio Core
// Copyright (c) 2026 The QR Studio Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of QR Studio Core.
//
// QR Studio Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// QR Studio Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with QR Studio Core.  If not, see <http://www.gnu.org/licenses/>.

// Package codec holds the payload codec shared by the builder, the
// classifier and the collaborators wrapping renderers, decoders and stores.
//
// Errors returned by any codec package wrap exactly one of the three root
// sentinels below, so callers can branch on the category with errors.Is
// without knowing the concrete failure.
package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed or missing input. Never retried.
	ErrValidation = errors.New("validation error")
	// ErrEncoding marks an internal consistency failure in the TLV or
	// checksum path. Seeing one is a programming error.
	ErrEncoding = errors.New("encoding error")
	// ErrExternalIO marks failures from renderers, decoders and stores.
	ErrExternalIO = errors.New("external I/O error")
)

var (
	ErrInvalidIdentifier = fmt.Errorf("%w: invalid identifier", ErrValidation)
	ErrValueTooLong      = fmt.Errorf("%w: value too long", ErrValidation)
	ErrInvalidAmount     = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrEmptyContent      = fmt.Errorf("%w: empty content", ErrValidation)
	ErrInvalidContent    = fmt.Errorf("%w: invalid content", ErrValidation)

	ErrInvalidTag     = fmt.Errorf("%w: invalid tag", ErrEncoding)
	ErrUnknownPayload = fmt.Errorf("%w: unknown payload kind", ErrEncoding)
)

// IOError wraps err as an external I/O failure, keeping err in the chain.
func IOError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrExternalIO, err)
}

// IsValidation reports whether err belongs to the validation category.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
