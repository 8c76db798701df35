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
package testutils

import (
	"errors"
	"time"

	"github.com/qrstudio/qrstudio-core/pkg/helpers/syncutil"
)

// idleRead is how long an empty ScannerPort blocks, standing in for a
// serial read timeout.
const idleRead = 10 * time.Millisecond

var errPortClosed = errors.New("port closed")

// ScannerPort stands in for a serial QR scanner. Queued chunks come back
// one per Read, split if the caller's buffer is short. With the queue
// drained, Read fails with ReadErr when set and otherwise idles and
// returns nothing.
type ScannerPort struct {
	ReadErr    error
	TimeoutErr error
	CloseErr   error
	chunks     [][]byte
	closed     bool
	mu         syncutil.Mutex
}

func NewScannerPort(chunks ...string) *ScannerPort {
	p := &ScannerPort{}
	for _, c := range chunks {
		p.chunks = append(p.chunks, []byte(c))
	}
	return p
}

func (p *ScannerPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, errPortClosed
	}
	if len(p.chunks) > 0 {
		n := copy(b, p.chunks[0])
		if n < len(p.chunks[0]) {
			p.chunks[0] = p.chunks[0][n:]
		} else {
			p.chunks = p.chunks[1:]
		}
		p.mu.Unlock()
		return n, nil
	}
	err := p.ReadErr
	p.mu.Unlock()

	if err != nil {
		return 0, err
	}
	time.Sleep(idleRead)
	return 0, nil
}

func (p *ScannerPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return p.CloseErr
}

func (p *ScannerPort) SetReadTimeout(time.Duration) error {
	return p.TimeoutErr
}

func (p *ScannerPort) IsClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
