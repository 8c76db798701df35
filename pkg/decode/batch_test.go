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
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type funcDecoder func(ctx context.Context, data []byte) (string, error)

func (f funcDecoder) Decode(ctx context.Context, data []byte) (string, error) {
	return f(ctx, data)
}

func TestAll_PreservesOrderAndPerImageErrors(t *testing.T) {
	t.Parallel()

	bad := errors.New("bad image")
	d := funcDecoder(func(_ context.Context, data []byte) (string, error) {
		if string(data) == "bad" {
			return "", bad
		}
		return "decoded:" + string(data), nil
	})

	images := [][]byte{[]byte("a"), []byte("bad"), []byte("c")}
	results, err := All(context.Background(), d, images, 2)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "decoded:a", results[0].Text)
	require.ErrorIs(t, results[1].Err, bad)
	assert.Equal(t, "decoded:c", results[2].Text)
}

func TestAll_RespectsLimit(t *testing.T) {
	t.Parallel()

	var running, peak atomic.Int32
	gate := make(chan struct{})
	d := funcDecoder(func(_ context.Context, _ []byte) (string, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-gate
		running.Add(-1)
		return "ok", nil
	})

	images := make([][]byte, 6)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := All(context.Background(), d, images, 2)
		assert.NoError(t, err)
	}()
	close(gate)
	<-done

	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestAll_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := funcDecoder(func(ctx context.Context, _ []byte) (string, error) {
		return "", ctx.Err()
	})
	_, err := All(ctx, d, [][]byte{{1}, {2}}, 0)
	require.ErrorIs(t, err, context.Canceled)
}
