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

package decode

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome for one image of a batch.
type Result struct {
	Err  error
	Text string
}

// All decodes images with at most limit decodes running at once. Per-image
// failures are reported in the results; the returned error is only set when
// ctx ends before the batch does.
func All(ctx context.Context, d Decoder, images [][]byte, limit int) ([]Result, error) {
	results := make([]Result, len(images))
	if limit <= 0 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, img := range images {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			text, err := d.Decode(gctx, img)
			results[i] = Result{Text: text, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("decode batch: %w", err)
	}
	return results, nil
}
