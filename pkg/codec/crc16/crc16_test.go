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

package crc16

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

var hexRe = regexp.MustCompile(`^[0-9A-F]{4}$`)

func TestChecksum_KnownValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "check string", input: "123456789", want: "29B1"},
		{name: "empty input keeps initial register", input: "", want: "FFFF"},
		{name: "single letter", input: "A", want: "B915"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Checksum(tt.input))
		})
	}
}

func TestTableMatchesBitwise(t *testing.T) {
	t.Parallel()

	bitwise := func(data []byte) uint16 {
		crc := Initial
		for _, b := range data {
			crc ^= uint16(b) << 8
			for range 8 {
				if crc&0x8000 != 0 {
					crc = (crc << 1) ^ Polynomial
				} else {
					crc <<= 1
				}
			}
		}
		return crc
	}

	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOf(rapid.Byte()).Draw(t, "data")
		if got, want := Sum(data), bitwise(data); got != want {
			t.Fatalf("table crc %04X != bitwise crc %04X", got, want)
		}
	})
}

func TestChecksum_Properties(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		s := rapid.StringMatching(`[ -~]{0,120}`).Draw(t, "s")
		got := Checksum(s)
		if !hexRe.MatchString(got) {
			t.Fatalf("checksum %q is not four uppercase hex digits", got)
		}
		if Checksum(s) != got {
			t.Fatalf("checksum is not deterministic for %q", s)
		}
	})
}

func TestChecksum_SingleCharacterChange(t *testing.T) {
	t.Parallel()

	// CRC16 detects every single-byte error, so any substitution changes
	// the result.
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.StringMatching(`[0-9A-Z]{1,80}`).Draw(t, "s")
		i := rapid.IntRange(0, len(s)-1).Draw(t, "i")
		c := rapid.ByteRange('0', 'Z').Filter(func(b byte) bool { return b != s[i] }).Draw(t, "c")
		mutated := s[:i] + string(c) + s[i+1:]
		if Checksum(s) == Checksum(mutated) {
			t.Fatalf("checksum collision between %q and %q", s, mutated)
		}
	})
}

func TestUpdate_Incremental(t *testing.T) {
	t.Parallel()

	whole := Sum([]byte("hello world"))
	part := Update(Update(Initial, []byte("hello ")), []byte("world"))
	assert.Equal(t, whole, part)
}
