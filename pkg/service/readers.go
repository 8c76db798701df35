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

package service

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/qrstudio/qrstudio-core/pkg/config"
	"github.com/qrstudio/qrstudio-core/pkg/identity"
	"github.com/qrstudio/qrstudio-core/pkg/readers"
	"github.com/qrstudio/qrstudio-core/pkg/readers/rs232barcode"
	"github.com/qrstudio/qrstudio-core/pkg/service/codes"
	"github.com/qrstudio/qrstudio-core/pkg/service/state"
	"github.com/rs/zerolog/log"
)

const reconnectInterval = 5 * time.Second

type readerFactory func() readers.Reader

var defaultReaderFactories = []readerFactory{
	func() readers.Reader { return rs232barcode.NewReader() },
}

type scanHandler interface {
	Scan(ctx context.Context, raw string) codes.Scanned
}

// connectReaders opens every configured device that has no connected
// reader yet. Disconnected readers are dropped from st first.
func connectReaders(
	cfg *config.Instance,
	st *state.State,
	factories []readerFactory,
	out chan<- readers.Scan,
) {
	for _, r := range st.ListReaders() {
		if !r.Connected() {
			log.Info().Msgf("reader disconnected: %s", r.Device())
			st.RemoveReader(r.Device())
		}
	}

	seen := make(map[string]bool)
	for _, device := range cfg.Readers().Connect {
		if seen[device.Path] {
			log.Warn().Msgf("device path %s configured for multiple readers, ignoring %s",
				device.Path, device.ConnectionString())
			continue
		}
		seen[device.Path] = true

		if _, ok := st.GetReader(device.ConnectionString()); ok {
			continue
		}

		opened := false
		for _, factory := range factories {
			r := factory()
			if !readers.Supports(r, device) {
				continue
			}
			if err := r.Open(device, out); err != nil {
				log.Warn().Err(err).Msgf("error opening reader: %s", device.ConnectionString())
				break
			}
			st.SetReader(r)
			log.Info().Msgf("opened reader: %s", device.ConnectionString())
			opened = true
			break
		}
		if !opened {
			log.Debug().Msgf("no reader opened for: %s", device.ConnectionString())
		}
	}
}

// handleScan classifies a hardware scan. With a configured readers owner
// the scan is saved to that owner's history.
func handleScan(ctx context.Context, cfg *config.Instance, st *state.State, h scanHandler, scan readers.Scan) {
	if scan.Error != nil {
		log.Warn().Err(scan.Error).Str("source", scan.Source).Msg("reader error")
		return
	}
	st.SetLastScan(state.LastScan{Time: scan.Time, Text: scan.Text, Source: scan.Source})

	if owner := cfg.ReadersOwner(); owner != "" {
		ctx = identity.WithActor(ctx, identity.Actor{ID: owner})
	}
	res := h.Scan(ctx, scan.Text)
	ev := log.Info().Str("source", scan.Source).Str("kind", string(res.Kind))
	if res.Record != nil {
		ev = ev.Str("id", res.Record.ID)
	}
	ev.Msg("code scanned by reader")
}

// readerManager keeps configured readers connected and feeds their scans
// to h until the service context ends.
func readerManager(
	cfg *config.Instance,
	st *state.State,
	h scanHandler,
	factories []readerFactory,
	clock clockwork.Clock,
) {
	ctx := st.GetContext()
	scans := make(chan readers.Scan, 16)

	connectReaders(cfg, st, factories, scans)

	ticker := clock.NewTicker(reconnectInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			for _, r := range st.ListReaders() {
				st.RemoveReader(r.Device())
			}
			log.Debug().Msg("reader manager stopped")
			return
		case <-ticker.Chan():
			connectReaders(cfg, st, factories, scans)
		case scan := <-scans:
			handleScan(ctx, cfg, st, h, scan)
		}
	}
}
