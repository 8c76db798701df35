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

// Package state holds the runtime state shared by the service, the API and
// the reader manager.
package state

import (
	"context"
	"time"

	"github.com/qrstudio/qrstudio-core/pkg/api/models"
	"github.com/qrstudio/qrstudio-core/pkg/api/notifications"
	"github.com/qrstudio/qrstudio-core/pkg/helpers/syncutil"
	"github.com/qrstudio/qrstudio-core/pkg/readers"
	"github.com/rs/zerolog/log"
)

const notificationBuffer = 500

// LastScan is the most recent code read by a hardware reader.
type LastScan struct {
	Time   time.Time
	Text   string
	Source string
}

// State is safe for concurrent use. Notifications are always sent after mu
// is released.
type State struct {
	ctx           context.Context
	ctxCancelFunc context.CancelFunc
	readers       map[string]readers.Reader
	Notifications chan<- models.Notification
	lastScan      LastScan
	mu            syncutil.RWMutex
}

func NewState() (state *State, notificationCh <-chan models.Notification) {
	ns := make(chan models.Notification, notificationBuffer)
	ctx, cancel := context.WithCancel(context.Background())
	return &State{
		readers:       make(map[string]readers.Reader),
		Notifications: ns,
		ctx:           ctx,
		ctxCancelFunc: cancel,
	}, ns
}

func (s *State) GetContext() context.Context {
	return s.ctx
}

func (s *State) StopService() {
	s.ctxCancelFunc()
}

func (s *State) SetLastScan(scan LastScan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastScan = scan
}

func (s *State) GetLastScan() LastScan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastScan
}

func ReaderInfo(r readers.Reader) models.ReaderResponse {
	return models.ReaderResponse{
		ID:        readers.GenerateReaderID(r.Metadata().ID, r.Info()),
		Driver:    r.Metadata().ID,
		Device:    r.Device(),
		Info:      r.Info(),
		Connected: r.Connected(),
	}
}

// SetReader registers r under its device string, closing any reader
// already registered there.
func (s *State) SetReader(r readers.Reader) {
	device := r.Device()
	s.mu.Lock()
	existing, ok := s.readers[device]
	s.readers[device] = r
	s.mu.Unlock()

	if ok && existing != nil && existing != r {
		if err := existing.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing existing reader")
		}
	}
	notifications.ReadersAdded(s.Notifications, ReaderInfo(r))
}

// RemoveReader closes and forgets the reader on device.
func (s *State) RemoveReader(device string) {
	s.mu.Lock()
	r, ok := s.readers[device]
	delete(s.readers, device)
	s.mu.Unlock()

	if !ok || r == nil {
		return
	}
	if err := r.Close(); err != nil {
		log.Warn().Err(err).Msg("error closing reader")
	}
	payload := ReaderInfo(r)
	payload.Connected = false
	notifications.ReadersRemoved(s.Notifications, payload)
}

func (s *State) GetReader(device string) (readers.Reader, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.readers[device]
	return r, ok
}

func (s *State) ListReaders() []readers.Reader {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rs := make([]readers.Reader, 0, len(s.readers))
	for _, r := range s.readers {
		rs = append(rs, r)
	}
	return rs
}
