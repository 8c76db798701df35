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

// Package crc16 computes the CRC-16/CCITT-FALSE checksum used by EMVCo
// merchant-presented payloads: polynomial 0x1021, initial register 0xFFFF,
// MSB-first, no reflection and no final XOR.
package crc16

import "fmt"

const (
	Polynomial uint16 = 0x1021
	Initial    uint16 = 0xFFFF
)

var table = makeTable(Polynomial)

func makeTable(poly uint16) [256]uint16 {
	var t [256]uint16
	for i := range t {
		crc := uint16(i) << 8
		for range 8 {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return t
}

// Update continues a running checksum over data.
func Update(crc uint16, data []byte) uint16 {
	for _, b := range data {
		crc = (crc << 8) ^ table[((crc>>8)^uint16(b))&0xff]
	}
	return crc
}

// Sum returns the checksum of data starting from the 0xFFFF register.
func Sum(data []byte) uint16 {
	return Update(Initial, data)
}

// Checksum returns the checksum of s as exactly four uppercase hex digits.
func Checksum(s string) string {
	return fmt.Sprintf("%04X", Sum([]byte(s)))
}
