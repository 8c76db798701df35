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

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/qrstudio/qrstudio-core/pkg/config"
	"github.com/qrstudio/qrstudio-core/pkg/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func actorEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a, ok := identity.FromContext(r.Context())
		if !ok {
			_, _ = w.Write([]byte("anonymous"))
			return
		}
		_, _ = w.Write([]byte(a.ID))
	})
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		target string
		want   string
	}{
		{name: "none", target: "/api", want: ""},
		{name: "bearer header", header: "Bearer abc", target: "/api", want: "abc"},
		{name: "lowercase scheme", header: "bearer  abc ", target: "/api", want: "abc"},
		{name: "basic scheme ignored", header: "Basic abc", target: "/api", want: ""},
		{name: "query param", target: "/api?key=xyz", want: "xyz"},
		{name: "header wins", header: "Bearer abc", target: "/api?key=xyz", want: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, tt.target, http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, BearerToken(req))
		})
	}
}

func TestHTTPAuthMiddleware(t *testing.T) {
	t.Parallel()

	provider := identity.NewStaticProvider([]config.APIKey{
		{Token: "secret-1", Owner: "alice"},
	})
	handler := HTTPAuthMiddleware(provider)(actorEcho())

	tests := []struct {
		name       string
		header     string
		target     string
		wantBody   string
		wantStatus int
	}{
		{
			name:       "anonymous",
			target:     "/api",
			wantStatus: http.StatusOK,
			wantBody:   "anonymous",
		},
		{
			name:       "valid header",
			header:     "Bearer secret-1",
			target:     "/api",
			wantStatus: http.StatusOK,
			wantBody:   "alice",
		},
		{
			name:       "valid query",
			target:     "/api?key=secret-1",
			wantStatus: http.StatusOK,
			wantBody:   "alice",
		},
		{
			name:       "invalid key",
			header:     "Bearer nope",
			target:     "/api",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unsupported scheme",
			header:     "Basic secret-1",
			target:     "/api",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, tt.target, http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
			if tt.wantStatus == http.StatusUnauthorized {
				assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}
