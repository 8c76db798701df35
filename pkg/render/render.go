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

// Package render draws encoded payloads as QR symbols.
package render

import (
	"fmt"
	"strings"

	"github.com/qrstudio/qrstudio-core/pkg/codec"
	"github.com/qrstudio/qrstudio-core/pkg/config"
	"github.com/skip2/go-qrcode"
)

// Renderer turns a payload into an image of size x size pixels.
type Renderer interface {
	Render(payload string, size int) ([]byte, error)
}

// QRRenderer renders PNG images.
type QRRenderer struct {
	Level qrcode.RecoveryLevel
}

// NewQRRenderer returns a renderer using the named error recovery level
// (low, medium, high or highest). Unknown names mean medium.
func NewQRRenderer(recovery string) *QRRenderer {
	return &QRRenderer{Level: ParseRecovery(recovery)}
}

func ParseRecovery(s string) qrcode.RecoveryLevel {
	switch strings.ToLower(s) {
	case config.RecoveryLow:
		return qrcode.Low
	case config.RecoveryHigh:
		return qrcode.High
	case config.RecoveryHighest:
		return qrcode.Highest
	default:
		return qrcode.Medium
	}
}

func (r *QRRenderer) Render(payload string, size int) ([]byte, error) {
	if payload == "" {
		return nil, fmt.Errorf("render: %w", codec.ErrEmptyContent)
	}
	size = max(size, config.MinRenderSize)

	q, err := qrcode.New(payload, r.Level)
	if err != nil {
		return nil, codec.IOError("render qr", err)
	}
	png, err := q.PNG(size)
	if err != nil {
		return nil, codec.IOError("encode png", err)
	}
	return png, nil
}

// Terminal renders payload with half-block characters, two modules per
// line, for printing to a console.
func Terminal(payload string, level qrcode.RecoveryLevel) (string, error) {
	if payload == "" {
		return "", fmt.Errorf("render: %w", codec.ErrEmptyContent)
	}
	q, err := qrcode.New(payload, level)
	if err != nil {
		return "", codec.IOError("render qr", err)
	}
	return q.ToSmallString(false), nil
}
