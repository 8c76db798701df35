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

package identity

import (
	"context"
	"testing"

	"github.com/qrstudio/qrstudio-core/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticProvider(t *testing.T) {
	t.Parallel()

	p := NewStaticProvider([]config.APIKey{
		{Token: "tok-alice", Owner: "alice"},
		{Token: "tok-bob", Owner: "bob"},
	})

	a, ok := p.Authenticate("tok-bob")
	require.True(t, ok)
	assert.Equal(t, "bob", a.ID)

	a, ok = p.Authenticate(" tok-alice ")
	require.True(t, ok)
	assert.Equal(t, "alice", a.ID)

	_, ok = p.Authenticate("tok-carol")
	assert.False(t, ok)

	_, ok = p.Authenticate("")
	assert.False(t, ok)
}

//nolint:paralleltest // mutates the global auth config
func TestConfigProvider_ReadsCurrentAuth(t *testing.T) {
	t.Cleanup(config.ClearAuthCfgForTesting)
	p := NewConfigProvider()

	_, ok := p.Authenticate("tok")
	assert.False(t, ok)

	config.SetAuthCfgForTesting(config.Auth{Keys: []config.APIKey{{Token: "tok", Owner: "alice"}}})
	a, ok := p.Authenticate("tok")
	require.True(t, ok)
	assert.Equal(t, "alice", a.ID)
}

func TestActorContext(t *testing.T) {
	t.Parallel()

	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithActor(context.Background(), Actor{ID: "alice"})
	a, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "alice", a.ID)

	_, ok = FromContext(WithActor(context.Background(), Actor{}))
	assert.False(t, ok)
}
