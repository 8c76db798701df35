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

	"github.com/stretchr/testify/assert"
)

func TestNewIPFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		allowedIPs   []string
		wantPrefixes int
		wantEnabled  bool
	}{
		{name: "empty list", allowedIPs: []string{}},
		{name: "single IP", allowedIPs: []string{"192.168.1.1"}, wantPrefixes: 1, wantEnabled: true},
		{name: "single CIDR", allowedIPs: []string{"192.168.1.0/24"}, wantPrefixes: 1, wantEnabled: true},
		{
			name:         "mixed IPs and CIDRs",
			allowedIPs:   []string{"192.168.1.1", "10.0.0.0/8", "172.16.0.5"},
			wantPrefixes: 3,
			wantEnabled:  true,
		},
		// an allowlist of only junk still blocks everything
		{name: "invalid IP", allowedIPs: []string{"invalid"}, wantEnabled: true},
		{name: "IPv6", allowedIPs: []string{"::1", "2001:db8::/32"}, wantPrefixes: 2, wantEnabled: true},
		{name: "IP with port", allowedIPs: []string{"192.168.1.1:7497"}, wantPrefixes: 1, wantEnabled: true},
		{name: "IPv6 with port", allowedIPs: []string{"[::1]:8080"}, wantPrefixes: 1, wantEnabled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			filter := NewIPFilter(tt.allowedIPs)
			assert.Len(t, filter.prefixes, tt.wantPrefixes)
			assert.Equal(t, tt.wantEnabled, filter.enabled)
		})
	}
}

func TestIPFilter_IsAllowed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		allowedIPs []string
		expected   bool
	}{
		{name: "empty allowlist allows all", remoteAddr: "8.8.8.8:1234", expected: true},
		{
			name:       "exact match",
			allowedIPs: []string{"192.168.1.10"},
			remoteAddr: "192.168.1.10:5555",
			expected:   true,
		},
		{
			name:       "exact mismatch",
			allowedIPs: []string{"192.168.1.10"},
			remoteAddr: "192.168.1.11:5555",
			expected:   false,
		},
		{
			name:       "inside CIDR",
			allowedIPs: []string{"10.0.0.0/8"},
			remoteAddr: "10.20.30.40:80",
			expected:   true,
		},
		{
			name:       "outside CIDR",
			allowedIPs: []string{"10.0.0.0/8"},
			remoteAddr: "11.0.0.1:80",
			expected:   false,
		},
		{
			name:       "unaligned CIDR is masked",
			allowedIPs: []string{"192.168.1.77/24"},
			remoteAddr: "192.168.1.3:80",
			expected:   true,
		},
		{
			name:       "IPv4 mapped IPv6 remote",
			allowedIPs: []string{"127.0.0.1"},
			remoteAddr: "[::ffff:127.0.0.1]:80",
			expected:   true,
		},
		{
			name:       "IPv6 CIDR",
			allowedIPs: []string{"2001:db8::/32"},
			remoteAddr: "[2001:db8::1]:443",
			expected:   true,
		},
		{
			name:       "remote without port",
			allowedIPs: []string{"192.168.1.10"},
			remoteAddr: "192.168.1.10",
			expected:   true,
		},
		{
			name:       "unparsable remote",
			allowedIPs: []string{"192.168.1.10"},
			remoteAddr: "not-an-ip",
			expected:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, NewIPFilter(tt.allowedIPs).IsAllowed(tt.remoteAddr))
		})
	}
}

func TestHTTPIPFilterMiddleware(t *testing.T) {
	t.Parallel()

	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := HTTPIPFilterMiddleware(NewIPFilter([]string{"192.168.1.0/24"}))(ok)

	req := httptest.NewRequest(http.MethodGet, "/api", http.NoBody)
	req.RemoteAddr = "192.168.1.5:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api", http.NoBody)
	req.RemoteAddr = "10.0.0.5:1234"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Forbidden")
}

func TestParseRemoteIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		want       string
	}{
		{"IPv4 with port", "192.168.1.1:8080", "192.168.1.1"},
		{"IPv4 without port", "192.168.1.1", "192.168.1.1"},
		{"IPv6 with port", "[::1]:8080", "::1"},
		{"IPv6 without port", "::1", "::1"},
		{"invalid", "garbage", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ip := ParseRemoteIP(tt.remoteAddr)
			if tt.want == "" {
				assert.Nil(t, ip)
				return
			}
			assert.Equal(t, tt.want, ip.String())
		})
	}
}

func TestIsLoopbackAddr(t *testing.T) {
	t.Parallel()

	assert.True(t, IsLoopbackAddr("127.0.0.1:7497"))
	assert.True(t, IsLoopbackAddr("[::1]:7497"))
	assert.False(t, IsLoopbackAddr("192.168.1.2:7497"))
	assert.False(t, IsLoopbackAddr("nope"))
}
