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

// Package decode reads QR symbols out of images.
package decode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/qrstudio/qrstudio-core/pkg/codec"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrNotFound means the image was readable but held no QR symbol.
var ErrNotFound = fmt.Errorf("%w: no qr code found", codec.ErrExternalIO)

// Decoder extracts the text of the first QR symbol in an encoded image.
type Decoder interface {
	Decode(ctx context.Context, image []byte) (string, error)
}

// ZXing decodes PNG, JPEG, GIF, BMP and WebP images.
type ZXing struct {
	hints map[gozxing.DecodeHintType]any
}

func NewZXing() *ZXing {
	return &ZXing{hints: map[gozxing.DecodeHintType]any{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}}
}

type result struct {
	err  error
	text string
}

// Decode runs the scan off the calling goroutine so a cancelled ctx returns
// promptly; the abandoned scan finishes in the background.
func (z *ZXing) Decode(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("decode: %w", codec.ErrEmptyContent)
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}

	done := make(chan result, 1)
	go func() {
		text, err := z.decode(data)
		done <- result{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("decode: %w", ctx.Err())
	case r := <-done:
		return r.text, r.err
	}
}

func (z *ZXing) decode(data []byte) (string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("unreadable image: %w: %w", codec.ErrInvalidContent, err)
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", codec.IOError("prepare "+format+" bitmap", err)
	}

	res, err := qrcode.NewQRCodeReader().Decode(bmp, z.hints)
	if err != nil {
		var nf gozxing.NotFoundException
		if errors.As(err, &nf) {
			return "", ErrNotFound
		}
		return "", codec.IOError("decode qr", err)
	}
	return res.GetText(), nil
}
