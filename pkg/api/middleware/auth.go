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
	"strings"

	"github.com/qrstudio/qrstudio-core/pkg/identity"
	"github.com/rs/zerolog/log"
)

// TokenQueryParam carries the API key on websocket upgrades, where
// browsers cannot set an Authorization header.
const TokenQueryParam = "key"

// BearerToken returns the API key presented with r, preferring the
// Authorization header over the query parameter.
func BearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return strings.TrimSpace(r.URL.Query().Get(TokenQueryParam))
}

// HTTPAuthMiddleware attaches the authenticated actor to the request
// context. Requests without credentials continue anonymously; requests
// with credentials that do not match a key are rejected with 401.
func HTTPAuthMiddleware(provider identity.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hasHeader := r.Header.Get("Authorization") != ""
			token := BearerToken(r)
			if token == "" && !hasHeader {
				next.ServeHTTP(w, r)
				return
			}

			actor, ok := provider.Authenticate(token)
			if !ok {
				log.Warn().
					Str("addr", r.RemoteAddr).
					Str("path", r.URL.Path).
					Msg("rejected request with invalid API key")
				w.Header().Set("WWW-Authenticate", `Bearer realm="qrstudio"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(identity.WithActor(r.Context(), actor)))
		})
	}
}
