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

// Package identity maps API credentials to the actor that owns stored
// history.
package identity

import (
	"context"
	"strings"

	"github.com/qrstudio/qrstudio-core/pkg/config"
)

// Actor is an authenticated user. Its ID is the owner id stored with
// every record the actor creates.
type Actor struct {
	ID string `json:"id"`
}

// Provider authenticates bearer tokens.
type Provider interface {
	Authenticate(token string) (Actor, bool)
}

// ConfigProvider authenticates against the [[keys]] list in auth.toml.
// Keys are read on every call so a reloaded auth file applies at once.
type ConfigProvider struct {
	keys func() []config.APIKey
}

func NewConfigProvider() *ConfigProvider {
	return &ConfigProvider{keys: func() []config.APIKey {
		return config.GetAuthCfg().Keys
	}}
}

// NewStaticProvider authenticates against a fixed key list.
func NewStaticProvider(keys []config.APIKey) *ConfigProvider {
	return &ConfigProvider{keys: func() []config.APIKey { return keys }}
}

func (p *ConfigProvider) Authenticate(token string) (Actor, bool) {
	owner, ok := config.LookupAPIKey(p.keys(), strings.TrimSpace(token))
	if !ok {
		return Actor{}, false
	}
	return Actor{ID: owner}, true
}

type actorKey struct{}

// WithActor returns a copy of ctx carrying a.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// FromContext returns the actor attached to ctx, if any.
func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	if !ok || a.ID == "" {
		return Actor{}, false
	}
	return a, true
}
