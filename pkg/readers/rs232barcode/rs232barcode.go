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

// Package rs232barcode reads QR codes from serial scanners that send one
// decoded code per line.
package rs232barcode

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/qrstudio/qrstudio-core/pkg/config"
	"github.com/qrstudio/qrstudio-core/pkg/helpers/syncutil"
	"github.com/qrstudio/qrstudio-core/pkg/readers"
	"github.com/rs/zerolog/log"
)

// QR version 40 holds at most 7089 numeric characters.
const maxBufferSize = 8192

const (
	driverID    = "rs232barcode"
	readTimeout = 100 * time.Millisecond
)

type Reader struct {
	port     Port
	openPort PortOpener
	clock    clockwork.Clock
	device   config.ReadersConnect
	path     string
	id       string
	polling  bool
	mu       syncutil.RWMutex // protects polling
}

func NewReader() *Reader {
	return &Reader{
		openPort: openSerial,
		clock:    clockwork.NewRealClock(),
	}
}

func (*Reader) Metadata() readers.DriverMetadata {
	return readers.DriverMetadata{
		ID:          driverID,
		Description: "RS232 barcode/QR code reader",
	}
}

func (*Reader) IDs() []string {
	return []string{driverID, "rs232_barcode"}
}

// parseLine strips whitespace and STX/ETX framing. Empty lines report
// false.
func parseLine(line string) (string, bool) {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "\x02")
	line = strings.TrimSuffix(line, "\x03")
	return line, line != ""
}

func (r *Reader) Open(device config.ReadersConnect, out chan<- readers.Scan) error {
	if !readers.Supports(r, device) {
		return errors.New("invalid reader id: " + device.Driver)
	}

	path := device.Path
	if runtime.GOOS != "windows" {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("failed to stat device path %s: %w", path, err)
		}
	}

	log.Debug().Msgf("opening RS232 barcode reader: %s", path)

	mode := scannerMode
	port, err := r.openPort(path, &mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", path, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		_ = port.Close()
		return fmt.Errorf("failed to set read timeout on serial port: %w", err)
	}

	r.mu.Lock()
	r.port = port
	r.device = device
	r.path = path
	r.id = readers.GenerateReaderID(driverID, path)
	r.polling = true
	r.mu.Unlock()

	log.Info().Str("reader", r.id).Msgf("opened RS232 barcode reader: %s", path)

	go r.readLoop(out)
	return nil
}

func (r *Reader) isPolling() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.polling
}

func (r *Reader) emit(out chan<- readers.Scan, line string) {
	text, ok := parseLine(line)
	if !ok {
		return
	}
	log.Debug().Int("len", len(text)).Msg("barcode scanned")
	out <- readers.Scan{
		Time:     r.clock.Now(),
		Text:     text,
		Source:   r.device.ConnectionString(),
		ReaderID: r.id,
	}
}

// readLoop splits input on \r or \n. A line longer than maxBufferSize is
// dropped up to the next delimiter.
func (r *Reader) readLoop(out chan<- readers.Scan) {
	buf := make([]byte, 1024)
	var lineBuf []byte
	overflowed := false

	for r.isPolling() {
		n, err := r.port.Read(buf)

		for _, b := range buf[:n] {
			if b == '\n' || b == '\r' {
				if !overflowed && len(lineBuf) > 0 {
					r.emit(out, string(lineBuf))
				}
				overflowed = false
				lineBuf = lineBuf[:0]
				continue
			}
			if overflowed {
				continue
			}
			if len(lineBuf) >= maxBufferSize {
				log.Warn().Str("path", r.path).Msg("buffer overflow, discarding data until next delimiter")
				lineBuf = lineBuf[:0]
				overflowed = true
				continue
			}
			lineBuf = append(lineBuf, b)
		}

		if err != nil {
			if !r.isPolling() {
				return
			}
			log.Error().Err(err).Msg("failed to read from RS232 barcode reader")
			out <- readers.Scan{
				Time:     r.clock.Now(),
				Error:    fmt.Errorf("read %s: %w", r.path, err),
				Source:   r.device.ConnectionString(),
				ReaderID: r.id,
			}
			if closeErr := r.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close RS232 barcode reader")
			}
			return
		}
	}
}

func (r *Reader) Close() error {
	r.mu.Lock()
	r.polling = false
	port := r.port
	r.mu.Unlock()
	if port != nil {
		if err := port.Close(); err != nil {
			return fmt.Errorf("failed to close serial port: %w", err)
		}
	}
	return nil
}

func (r *Reader) Device() string {
	return r.device.ConnectionString()
}

func (r *Reader) Connected() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.polling && r.port != nil
}

func (r *Reader) Info() string {
	return r.path
}

func (r *Reader) ID() string {
	return r.id
}
