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

package decode

import (
	"context"
	"errors"

	"github.com/qrstudio/qrstudio-core/pkg/helpers/syncutil"
)

// ErrSuperseded is returned by a Session decode that was replaced by a newer
// one before it finished.
var ErrSuperseded = errors.New("decode superseded by a newer request")

// Session serialises decodes from one source, such as a camera feed or a
// websocket client. Starting a decode cancels the one still in flight.
type Session struct {
	d      Decoder
	cancel context.CancelFunc
	mu     syncutil.Mutex
	gen    uint64
}

func NewSession(d Decoder) *Session {
	return &Session{d: d}
}

func (s *Session) Decode(ctx context.Context, data []byte) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	s.cancel = cancel
	s.mu.Unlock()

	text, err := s.d.Decode(ctx, data)

	s.mu.Lock()
	current := s.gen == gen
	if current {
		s.cancel = nil
	}
	s.mu.Unlock()

	if !current {
		return "", ErrSuperseded
	}
	return text, err
}

// Close cancels any decode in flight.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
}
