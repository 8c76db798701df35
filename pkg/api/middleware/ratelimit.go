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
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/olahol/melody"
	"github.com/qrstudio/qrstudio-core/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	RequestsPerMinute = 100
	BurstSize         = 20

	limiterMaxAge   = 10 * time.Minute
	cleanupInterval = 5 * time.Minute
)

// IPRateLimiter keeps one token bucket per client IP, shared by HTTP
// routes and websocket messages.
type IPRateLimiter struct {
	clock    clockwork.Clock
	limiters map[string]*rateLimiterEntry
	mu       syncutil.Mutex
}

type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewIPRateLimiter(clock clockwork.Clock) *IPRateLimiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &IPRateLimiter{
		clock:    clock,
		limiters: make(map[string]*rateLimiterEntry),
	}
}

func (rl *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	entry, ok := rl.limiters[ip]
	if !ok {
		entry = &rateLimiterEntry{
			limiter: rate.NewLimiter(rate.Limit(float64(RequestsPerMinute)/60.0), BurstSize),
		}
		rl.limiters[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// allow takes a token for ip at the limiter clock's current time.
func (rl *IPRateLimiter) allow(ip string) bool {
	return rl.GetLimiter(ip).AllowN(rl.clock.Now(), 1)
}

// Cleanup drops limiters not used for limiterMaxAge.
func (rl *IPRateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	for ip, entry := range rl.limiters {
		if now.Sub(entry.lastSeen) > limiterMaxAge {
			delete(rl.limiters, ip)
			log.Debug().Str("ip", ip).Msg("removed stale rate limiter")
		}
	}
}

func (rl *IPRateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// StartCleanup runs Cleanup every cleanupInterval until ctx is done.
func (rl *IPRateLimiter) StartCleanup(ctx context.Context) {
	go func() {
		ticker := rl.clock.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.Chan():
				rl.Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()
}

func HTTPRateLimitMiddleware(limiter *IPRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := ParseRemoteIP(r.RemoteAddr).String()
			if !limiter.allow(host) {
				log.Warn().
					Str("ip", host).
					Str("path", r.URL.Path).
					Str("method", r.Method).
					Msg("HTTP rate limit exceeded")
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type rateLimitError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type rateLimitResponse struct {
	ID      any            `json:"id"`
	JSONRPC string         `json:"jsonrpc"`
	Error   rateLimitError `json:"error"`
}

// WebSocketRateLimitHandler answers a limited message with a JSON-RPC
// server error instead of passing it to handler.
func WebSocketRateLimitHandler(
	limiter *IPRateLimiter,
	handler func(*melody.Session, []byte),
) func(*melody.Session, []byte) {
	return func(session *melody.Session, msg []byte) {
		host := ParseRemoteIP(session.Request.RemoteAddr).String()
		if limiter.allow(host) {
			handler(session, msg)
			return
		}

		log.Warn().Str("ip", host).Int("msg_size", len(msg)).Msg("WebSocket rate limit exceeded")
		errorMsg, err := json.Marshal(rateLimitResponse{
			JSONRPC: "2.0",
			Error:   rateLimitError{Code: -32000, Message: "Rate limit exceeded"},
		})
		if err != nil {
			log.Error().Err(err).Msg("failed to marshal rate limit error")
			return
		}
		if err := session.Write(errorMsg); err != nil {
			log.Error().Err(err).Msg("failed to send rate limit error")
		}
	}
}
