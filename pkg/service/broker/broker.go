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

// Package broker fans values out from one source channel to any number of
// subscribers without letting a slow subscriber block the source.
package broker

import (
	"context"

	"github.com/qrstudio/qrstudio-core/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
)

// Named values report a short name used when a drop is logged.
type Named interface {
	EventName() string
}

// Broker reads from a source channel and broadcasts each value to all
// current subscribers using non-blocking sends.
type Broker[T any] struct {
	ctx         context.Context
	source      <-chan T
	subscribers map[int]chan T
	done        chan struct{}
	name        string
	mu          syncutil.RWMutex
	nextID      int
	stopped     bool
}

// NewBroker creates a broker called name reading from source.
func NewBroker[T any](ctx context.Context, name string, source <-chan T) *Broker[T] {
	return &Broker[T]{
		ctx:         ctx,
		name:        name,
		source:      source,
		subscribers: make(map[int]chan T),
		done:        make(chan struct{}),
	}
}

// Start runs the broadcast loop until the source closes or the context is
// cancelled, then closes every subscriber channel.
func (b *Broker[T]) Start() {
	go func() {
		defer close(b.done)
		for {
			select {
			case v, ok := <-b.source:
				if !ok {
					log.Debug().Str("broker", b.name).Msg("source channel closed")
					b.closeAllSubscribers()
					return
				}
				b.broadcast(v)
			case <-b.ctx.Done():
				log.Debug().Str("broker", b.name).Msg("context cancelled, shutting down")
				b.closeAllSubscribers()
				return
			}
		}
	}()
}

// Done is closed once the loop started by Start has exited.
func (b *Broker[T]) Done() <-chan struct{} {
	return b.done
}

func (b *Broker[T]) broadcast(v T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- v:
		default:
			ev := log.Warn().Str("broker", b.name).Int("subscriber_id", id)
			if n, ok := any(v).(Named); ok {
				ev = ev.Str("event", n.EventName())
			}
			ev.Msg("subscriber channel full, dropping value")
		}
	}
}

// Subscribe registers a subscriber with a channel buffer of bufferSize.
// Subscribing to a stopped broker returns an already closed channel.
func (b *Broker[T]) Subscribe(bufferSize int) (ch <-chan T, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id = b.nextID
	b.nextID++

	c := make(chan T, bufferSize)
	if b.stopped {
		close(c)
		return c, id
	}
	b.subscribers[id] = c

	log.Debug().
		Str("broker", b.name).
		Int("subscriber_id", id).
		Int("buffer_size", bufferSize).
		Msg("new subscriber registered")

	return c, id
}

// Unsubscribe removes a subscription and closes its channel. Safe to call
// more than once.
func (b *Broker[T]) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[id]; ok {
		delete(b.subscribers, id)
		close(ch)
		log.Debug().Str("broker", b.name).Int("subscriber_id", id).Msg("subscriber unsubscribed")
	}
}

// Stop closes all subscriber channels. Later subscriptions get closed
// channels.
func (b *Broker[T]) Stop() {
	b.closeAllSubscribers()
}

func (b *Broker[T]) closeAllSubscribers() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subscribers {
		close(ch)
		log.Debug().Str("broker", b.name).Int("subscriber_id", id).Msg("closed subscriber channel on shutdown")
	}
	b.subscribers = make(map[int]chan T)
	b.stopped = true
}
