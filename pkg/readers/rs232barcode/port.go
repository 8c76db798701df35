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
package rs232barcode

import (
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// Port is the part of serial.Port the reader uses.
type Port interface {
	io.ReadCloser
	SetReadTimeout(t time.Duration) error
}

// PortOpener opens the device at path.
type PortOpener func(path string, mode *serial.Mode) (Port, error)

// scannerMode is what USB-serial QR scanners ship configured with.
var scannerMode = serial.Mode{
	BaudRate: 9600,
	DataBits: 8,
	Parity:   serial.NoParity,
	StopBits: serial.OneStopBit,
}

func openSerial(path string, mode *serial.Mode) (Port, error) {
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	return port, nil
}
