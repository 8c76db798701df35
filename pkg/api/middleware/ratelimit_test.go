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
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestIPRateLimiter_Burst(t *testing.T) {
	t.Parallel()
	limiter := NewIPRateLimiter(clockwork.NewFakeClock())

	for i := range BurstSize {
		assert.True(t, limiter.allow("192.168.1.100"), "request %d within burst", i+1)
	}
	assert.False(t, limiter.allow("192.168.1.100"), "request beyond burst")
}

func TestIPRateLimiter_Refill(t *testing.T) {
	t.Parallel()
	clock := clockwork.NewFakeClock()
	limiter := NewIPRateLimiter(clock)

	for range BurstSize {
		require.True(t, limiter.allow("10.0.0.1"))
	}
	require.False(t, limiter.allow("10.0.0.1"))

	// 100 per minute refills one token every 600ms
	clock.Advance(600 * time.Millisecond)
	assert.True(t, limiter.allow("10.0.0.1"))
	assert.False(t, limiter.allow("10.0.0.1"))
}

func TestIPRateLimiter_DifferentIPs(t *testing.T) {
	t.Parallel()
	limiter := NewIPRateLimiter(clockwork.NewFakeClock())

	rl1 := limiter.GetLimiter("192.168.1.100")
	rl2 := limiter.GetLimiter("192.168.1.101")
	assert.NotSame(t, rl1, rl2)
	assert.Same(t, rl1, limiter.GetLimiter("192.168.1.100"))
	assert.Equal(t, 2, limiter.size())
}

func TestIPRateLimiter_Cleanup(t *testing.T) {
	t.Parallel()
	clock := clockwork.NewFakeClock()
	limiter := NewIPRateLimiter(clock)

	limiter.limiters["old.ip"] = &rateLimiterEntry{
		limiter:  rate.NewLimiter(1, 1),
		lastSeen: clock.Now().Add(-15 * time.Minute),
	}
	limiter.limiters["new.ip"] = &rateLimiterEntry{
		limiter:  rate.NewLimiter(1, 1),
		lastSeen: clock.Now(),
	}

	limiter.Cleanup()

	assert.Len(t, limiter.limiters, 1)
	assert.Contains(t, limiter.limiters, "new.ip")
}

func TestHTTPRateLimitMiddleware(t *testing.T) {
	t.Parallel()
	limiter := NewIPRateLimiter(clockwork.NewFakeClock())
	handler := HTTPRateLimitMiddleware(limiter)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	serve := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api", http.NoBody)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for range BurstSize {
		require.Equal(t, http.StatusOK, serve("192.168.1.50:1000").Code)
	}

	// a different source port is the same client
	rec := serve("192.168.1.50:2000")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Too Many Requests")

	assert.Equal(t, http.StatusOK, serve("[2001:db8::1]:8080").Code)
}
