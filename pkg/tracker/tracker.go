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

// Package tracker resolves tracked code ids to their destinations while
// recording each resolution as a scan event.
package tracker

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/qrstudio/qrstudio-core/pkg/codec"
	"github.com/qrstudio/qrstudio-core/pkg/database"
	"github.com/rs/zerolog/log"
)

// Store is the part of the history store the aggregator needs.
type Store interface {
	database.CodeStore
	database.ScanSubscriber
}

// Aggregator records scans of tracked codes and resolves their
// destinations. It keeps no totals of its own; counts come from the store.
type Aggregator struct {
	store Store
	clock clockwork.Clock
	wg    sync.WaitGroup
}

func NewAggregator(store Store, clock clockwork.Clock) *Aggregator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Aggregator{store: store, clock: clock}
}

// Resolve returns the destination stored for id. The scan event is appended
// in the background and its failure never affects the result.
func (a *Aggregator) Resolve(ctx context.Context, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("tracking id: %w", codec.ErrEmptyContent)
	}

	now := a.clock.Now()
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.store.AppendScanEvent(id, now); err != nil {
			log.Warn().Err(err).Str("id", id).Msg("failed to record scan event")
		}
	}()

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("resolve %s: %w", id, err)
	}

	rec, err := a.store.Read(id)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", id, err)
	}
	return rec.Data, nil
}

// Wait blocks until every scan event started by Resolve has been written
// or has failed.
func (a *Aggregator) Wait() {
	a.wg.Wait()
}

// Subscribe streams scan events from the store.
func (a *Aggregator) Subscribe(bufferSize int) (<-chan database.ScanEvent, int) {
	return a.store.Subscribe(bufferSize)
}

func (a *Aggregator) Unsubscribe(id int) {
	a.store.Unsubscribe(id)
}
