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

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/qrstudio/qrstudio-core/pkg/codec"
	"github.com/qrstudio/qrstudio-core/pkg/codec/classify"
	"github.com/qrstudio/qrstudio-core/pkg/codec/content"
	"github.com/qrstudio/qrstudio-core/pkg/codec/promptpay"
	"github.com/qrstudio/qrstudio-core/pkg/config"
	"github.com/qrstudio/qrstudio-core/pkg/decode"
	"github.com/qrstudio/qrstudio-core/pkg/render"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// decodeConcurrency bounds how many images -decode works on at once.
const decodeConcurrency = 4

var ErrDecodeFailed = errors.New("one or more images could not be decoded")

// Offline runs the flags that work without the service.
type Offline struct {
	FS      afero.Fs
	Out     io.Writer
	Cfg     *config.Instance
	Decoder decode.Decoder
}

// Output says where an encoded payload goes: a PNG file when Path is set,
// otherwise the payload and a text rendering are printed.
type Output struct {
	Path string
	Size int
}

// parseEncodeArg splits "kind:key=value,key=value". A comma only starts a
// new field when the text after it has an '=', so values may contain
// commas.
func parseEncodeArg(arg string) (content.Kind, map[string]string, error) {
	kindStr, rest, _ := strings.Cut(arg, ":")
	kind, err := content.ParseKind(strings.TrimSpace(kindStr))
	if err != nil {
		return "", nil, err
	}

	fields := make(map[string]string)
	last := ""
	for part := range strings.SplitSeq(rest, ",") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			if last == "" {
				if strings.TrimSpace(part) == "" {
					continue
				}
				return "", nil, fmt.Errorf("%w: field %q has no value", codec.ErrInvalidContent, part)
			}
			fields[last] += "," + part
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			return "", nil, fmt.Errorf("%w: empty field name", codec.ErrInvalidContent)
		}
		fields[key] = value
		last = key
	}
	return kind, fields, nil
}

// Encode builds a payload from a -encode argument and writes it to out.
func (o *Offline) Encode(arg string, out Output) error {
	kind, fields, err := parseEncodeArg(arg)
	if err != nil {
		return err
	}
	p, err := content.FromFields(kind, fields)
	if err != nil {
		return err
	}
	payload, err := content.Encode(p)
	if err != nil {
		return err
	}
	return o.emit(payload, out)
}

// PromptPay builds a payment payload from "identifier[:amount]".
func (o *Offline) PromptPay(arg string, out Output) error {
	id, amountStr, _ := strings.Cut(arg, ":")
	amount, err := promptpay.ParseAmount(amountStr)
	if err != nil {
		return err
	}
	payload, err := promptpay.Build(id, amount)
	if err != nil {
		return err
	}
	return o.emit(payload, out)
}

func (o *Offline) emit(payload string, out Output) error {
	if out.Path == "" {
		text, err := render.Terminal(payload, render.ParseRecovery(o.Cfg.RenderRecovery()))
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(o.Out, payload)
		_, _ = fmt.Fprint(o.Out, text)
		return nil
	}

	size := o.Cfg.RenderSize(out.Size)
	png, err := render.NewQRRenderer(o.Cfg.RenderRecovery()).Render(payload, size)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(out.Path); dir != "." {
		if err := o.FS.MkdirAll(dir, 0o750); err != nil {
			return codec.IOError("create output dir", err)
		}
	}
	if err := afero.WriteFile(o.FS, out.Path, png, 0o644); err != nil {
		return codec.IOError("write output", err)
	}
	log.Info().Str("path", out.Path).Int("size", size).Msg("wrote code image")
	_, _ = fmt.Fprintf(o.Out, "%s (%dx%d)\n", out.Path, size, size)
	return nil
}

type decodedFile struct {
	File   string           `json:"file"`
	Error  string           `json:"error,omitempty"`
	Result *classify.Result `json:"result,omitempty"`
}

// Decode reads each image, decodes it and prints one JSON line per file
// with its classification. Every file is attempted; ErrDecodeFailed is
// returned if any of them failed.
func (o *Offline) Decode(ctx context.Context, files []string) error {
	images := make([][]byte, len(files))
	readErrs := make([]error, len(files))
	for i, f := range files {
		data, err := afero.ReadFile(o.FS, f)
		if err != nil {
			readErrs[i] = codec.IOError("read image", err)
			continue
		}
		images[i] = data
	}

	results, err := decode.All(ctx, o.Decoder, images, decodeConcurrency)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(o.Out)
	failed := false
	for i, f := range files {
		line := decodedFile{File: f}
		switch {
		case readErrs[i] != nil:
			line.Error = readErrs[i].Error()
		case results[i].Err != nil:
			line.Error = results[i].Err.Error()
		default:
			res := classify.Classify(results[i].Text)
			line.Result = &res
		}
		if line.Error != "" {
			failed = true
		}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
	}
	if failed {
		return ErrDecodeFailed
	}
	return nil
}

// Classify prints the classification of text as JSON.
func (o *Offline) Classify(text string) error {
	return o.printJSON(classify.Classify(text))
}

// Verify checks a PromptPay payload's checksum and prints its fields.
func (o *Offline) Verify(payload string) error {
	info, err := promptpay.Inspect(strings.TrimSpace(payload))
	if err != nil {
		return err
	}
	return o.printJSON(info)
}

func (o *Offline) printJSON(v any) error {
	enc := json.NewEncoder(o.Out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}
