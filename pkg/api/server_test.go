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

package api

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/qrstudio/qrstudio-core/pkg/api/models"
	"github.com/qrstudio/qrstudio-core/pkg/config"
	"github.com/qrstudio/qrstudio-core/pkg/identity"
	"github.com/qrstudio/qrstudio-core/pkg/service/codes"
	"github.com/qrstudio/qrstudio-core/pkg/service/state"
	"github.com/qrstudio/qrstudio-core/pkg/testing/helpers"
	"github.com/qrstudio/qrstudio-core/pkg/tracker"
)

const testKey = "secret-key"

var testNow = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

type stubRenderer struct {
	size int
}

func (r *stubRenderer) Render(_ string, size int) ([]byte, error) {
	r.size = size
	return []byte("\x89PNG"), nil
}

type stubDecoder struct {
	err  error
	text string
}

func (d stubDecoder) Decode(context.Context, []byte) (string, error) {
	return d.text, d.err
}

type testServer struct {
	*Server
	store    *helpers.MockUserDBI
	st       *state.State
	renderer *stubRenderer
	ns       chan models.Notification
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := helpers.NewTestConfig(t)
	st, _ := state.NewState()
	t.Cleanup(st.StopService)

	store := helpers.NewMockUserDBI()
	ns := make(chan models.Notification, 10)
	r := &stubRenderer{}
	clock := clockwork.NewFakeClockAt(testNow)
	trk := tracker.NewAggregator(store, clock)
	t.Cleanup(trk.Wait)

	srv := NewServer(cfg, st, Services{
		Codes:   codes.NewService(store, cfg, r, ns, clock),
		Tracker: trk,
		Decoder: stubDecoder{text: "hello"},
		Identity: identity.NewStaticProvider([]config.APIKey{
			{Token: testKey, Owner: "alice"},
		}),
	}, clock)

	return &testServer{Server: srv, store: store, st: st, renderer: r, ns: ns}
}
