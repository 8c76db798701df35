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

package readers

import (
	"crypto/sha256"
	"encoding/base32"
	"strings"
)

var idEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// devicePathKey folds the spellings of one serial device path together:
// Windows separators and case.
func devicePathKey(path string) string {
	return strings.ToLower(strings.ReplaceAll(path, "\\", "/"))
}

// GenerateReaderID names a reader "{driver}-{suffix}". The suffix is 8
// base32 characters hashed from the driver and device path, so a scanner
// plugged into the same port keeps its ID across restarts and reconnects.
func GenerateReaderID(driverName, devicePath string) string {
	driver := strings.ToLower(NormalizeDriverID(driverName))

	h := sha256.New()
	_, _ = h.Write([]byte(driver))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(devicePathKey(devicePath)))
	sum := h.Sum(nil)

	return driver + "-" + strings.ToLower(idEncoding.EncodeToString(sum[:5]))
}
