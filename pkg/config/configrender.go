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

package config

import "strings"

const (
	DefaultRenderSize    = 256
	DefaultMaxRenderSize = 1024
	MinRenderSize        = 64

	RecoveryLow     = "low"
	RecoveryMedium  = "medium"
	RecoveryHigh    = "high"
	RecoveryHighest = "highest"
)

type Render struct {
	Recovery    string `toml:"recovery,omitempty"`
	DefaultSize int    `toml:"default_size,omitempty"`
	MaxSize     int    `toml:"max_size,omitempty"`
}

// RenderSize clamps a requested image size to the configured bounds. Zero
// or negative requests get the default size.
func (c *Instance) RenderSize(requested int) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	maxSize := c.vals.Render.MaxSize
	if maxSize <= 0 {
		maxSize = DefaultMaxRenderSize
	}
	size := requested
	if size <= 0 {
		size = c.vals.Render.DefaultSize
		if size <= 0 {
			size = DefaultRenderSize
		}
	}
	return min(max(size, MinRenderSize), maxSize)
}

// RenderRecovery returns the error correction level name, defaulting to
// medium for unknown values.
func (c *Instance) RenderRecovery() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch r := strings.ToLower(c.vals.Render.Recovery); r {
	case RecoveryLow, RecoveryMedium, RecoveryHigh, RecoveryHighest:
		return r
	default:
		return RecoveryMedium
	}
}

func (c *Instance) SetRenderRecovery(level string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Render.Recovery = level
}
