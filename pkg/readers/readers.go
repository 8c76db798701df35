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

// Package readers defines hardware code readers that push decoded text
// into the service.
package readers

import (
	"strings"
	"time"

	"github.com/qrstudio/qrstudio-core/pkg/config"
)

type DriverMetadata struct {
	ID          string
	Description string
}

// Scan is one line read from a device. Error is set when the device
// failed and Text is empty.
type Scan struct {
	Time     time.Time
	Error    error
	Text     string
	Source   string
	ReaderID string
}

type Reader interface {
	Metadata() DriverMetadata
	// IDs returns the driver names accepted in a connect entry.
	IDs() []string
	// Open connects to the device and starts sending scans to out.
	Open(device config.ReadersConnect, out chan<- Scan) error
	Close() error
	// Device returns the connection string the reader was opened with.
	Device() string
	Connected() bool
	Info() string
}

// NormalizeDriverID drops underscores so "rs232_barcode" and
// "rs232barcode" name the same driver.
func NormalizeDriverID(id string) string {
	return strings.ReplaceAll(id, "_", "")
}

// Supports reports whether r handles the driver named in device.
func Supports(r Reader, device config.ReadersConnect) bool {
	want := NormalizeDriverID(device.Driver)
	for _, id := range r.IDs() {
		if NormalizeDriverID(id) == want {
			return true
		}
	}
	return false
}
