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

const DefaultRetentionDays = 365

type History struct {
	RetentionDays *int `toml:"retention_days,omitempty"`
}

// HistoryRetentionDays is how long scan events are kept. Zero disables
// cleanup.
func (c *Instance) HistoryRetentionDays() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.History.RetentionDays == nil {
		return DefaultRetentionDays
	}
	return max(*c.vals.History.RetentionDays, 0)
}

func (c *Instance) SetHistoryRetentionDays(days int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.History.RetentionDays = &days
}
