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

//go:build !deadlock

// Package syncutil provides the mutexes used across the service. Build with
// -tags=deadlock to swap in go-deadlock's detector.
package syncutil

import "sync"

// DeadlockEnabled is true if the deadlock detector is enabled.
const DeadlockEnabled = false

//nolint:gocritic // embedding is the point of this wrapper
type Mutex struct {
	sync.Mutex //nolint:forbidigo // the one place sync.Mutex is allowed
}

//nolint:gocritic // embedding is the point of this wrapper
type RWMutex struct {
	sync.RWMutex //nolint:forbidigo // the one place sync.RWMutex is allowed
}
