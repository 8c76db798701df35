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

// Package tlv formats and splits the two-digit tag, two-digit length
// records used by EMVCo QR payloads.
package tlv

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/qrstudio/qrstudio-core/pkg/codec"
)

// MaxValueLength is the largest value the two-digit length field can carry.
const MaxValueLength = 99

// Field is a single tag/value record. Its length is derived from Value.
type Field struct {
	Tag   string `json:"tag"`
	Value string `json:"value"`
}

// Length returns the declared length of the field as two digits.
func (f Field) Length() string {
	return fmt.Sprintf("%02d", utf8.RuneCountInString(f.Value))
}

// String renders the field. A field Encode would reject renders as "";
// use Encode to get the reason.
func (f Field) String() string {
	s, err := Encode(f.Tag, f.Value)
	if err != nil {
		return ""
	}
	return s
}

func validTag(tag string) bool {
	return len(tag) == 2 &&
		tag[0] >= '0' && tag[0] <= '9' &&
		tag[1] >= '0' && tag[1] <= '9'
}

// Encode returns tag + zero padded length + value. Values longer than
// MaxValueLength characters are rejected, never truncated.
func Encode(tag, value string) (string, error) {
	if !validTag(tag) {
		return "", fmt.Errorf("%w: %q", codec.ErrInvalidTag, tag)
	}
	n := utf8.RuneCountInString(value)
	if n > MaxValueLength {
		return "", fmt.Errorf("%w: tag %s has %d characters, max %d",
			codec.ErrValueTooLong, tag, n, MaxValueLength)
	}
	return fmt.Sprintf("%s%02d%s", tag, n, value), nil
}

// Compose concatenates pre-built fields in the order given.
func Compose(fields ...string) string {
	return strings.Join(fields, "")
}

// Decode splits a concatenated TLV string back into fields, preserving
// order. Any truncated or non-numeric header is an error.
func Decode(s string) ([]Field, error) {
	rs := []rune(s)
	var fields []Field
	for i := 0; i < len(rs); {
		if len(rs)-i < 4 {
			return nil, fmt.Errorf("%w: truncated header at offset %d", codec.ErrInvalidContent, i)
		}
		tag := string(rs[i : i+2])
		if !validTag(tag) {
			return nil, fmt.Errorf("%w: tag %q at offset %d", codec.ErrInvalidTag, tag, i)
		}
		n, ok := parseLength(rs[i+2], rs[i+3])
		if !ok {
			return nil, fmt.Errorf("%w: length %q at offset %d",
				codec.ErrInvalidContent, string(rs[i+2:i+4]), i)
		}
		start := i + 4
		if start+n > len(rs) {
			return nil, fmt.Errorf("%w: tag %s declares %d characters, %d left",
				codec.ErrInvalidContent, tag, n, len(rs)-start)
		}
		fields = append(fields, Field{Tag: tag, Value: string(rs[start : start+n])})
		i = start + n
	}
	return fields, nil
}

func parseLength(hi, lo rune) (int, bool) {
	if hi < '0' || hi > '9' || lo < '0' || lo > '9' {
		return 0, false
	}
	return int(hi-'0')*10 + int(lo-'0'), true
}

// Find returns the first field with the given tag.
func Find(fields []Field, tag string) (Field, bool) {
	for _, f := range fields {
		if f.Tag == tag {
			return f, true
		}
	}
	return Field{}, false
}
