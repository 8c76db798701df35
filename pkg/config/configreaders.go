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

import "fmt"

type Readers struct {
	// Owner attributes hardware scans to a stored owner. Scans are not
	// saved when empty.
	Owner   string           `toml:"owner,omitempty"`
	Connect []ReadersConnect `toml:"connect,omitempty"`
}

type ReadersConnect struct {
	Driver string `toml:"driver"`
	Path   string `toml:"path,omitempty"`
}

func (r ReadersConnect) ConnectionString() string {
	return fmt.Sprintf("%s:%s", r.Driver, r.Path)
}

func (c *Instance) Readers() Readers {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Readers
}

func (c *Instance) ReadersOwner() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Readers.Owner
}

func (c *Instance) SetReaderConnections(rcs []ReadersConnect) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Readers.Connect = rcs
}

func (c *Instance) SetReadersOwner(owner string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Readers.Owner = owner
}
