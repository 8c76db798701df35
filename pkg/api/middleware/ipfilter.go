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
	"net"
	"net/http"
	"net/netip"

	"github.com/rs/zerolog/log"
)

// ParseRemoteIP extracts the IP from an "ip:port" address. It returns nil
// when the address has no parsable IP.
func ParseRemoteIP(remoteAddr string) net.IP {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	return net.ParseIP(host)
}

func IsLoopbackAddr(remoteAddr string) bool {
	ip := ParseRemoteIP(remoteAddr)
	return ip != nil && ip.IsLoopback()
}

// IPFilter is an allowlist of addresses and networks. Single addresses are
// stored as full-length prefixes.
type IPFilter struct {
	prefixes []netip.Prefix
	enabled  bool
}

// NewIPFilter parses IPs and CIDRs, skipping invalid entries. An empty list
// allows every address.
func NewIPFilter(allowed []string) *IPFilter {
	f := &IPFilter{enabled: len(allowed) > 0}
	for _, entry := range allowed {
		// tolerate pasted "ip:port" values
		if host, _, err := net.SplitHostPort(entry); err == nil {
			entry = host
		}
		if p, err := netip.ParsePrefix(entry); err == nil {
			f.prefixes = append(f.prefixes, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(entry); err == nil {
			a = a.Unmap()
			f.prefixes = append(f.prefixes, netip.PrefixFrom(a, a.BitLen()))
			continue
		}
		log.Warn().Str("ip", entry).Msg("invalid IP or CIDR in allowed_ips, skipping")
	}
	return f
}

func (f *IPFilter) IsAllowed(remoteAddr string) bool {
	if !f.enabled {
		return true
	}
	ip := ParseRemoteIP(remoteAddr)
	if ip == nil {
		log.Warn().Str("addr", remoteAddr).Msg("failed to parse IP address")
		return false
	}
	addr, ok := netip.AddrFromSlice(ip)
	if !ok {
		return false
	}
	addr = addr.Unmap()
	for _, p := range f.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// HTTPIPFilterMiddleware rejects requests from addresses outside the
// allowlist with 403. Websocket upgrades pass through here too.
func HTTPIPFilterMiddleware(filter *IPFilter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !filter.IsAllowed(r.RemoteAddr) {
				log.Debug().
					Str("addr", r.RemoteAddr).
					Str("path", r.URL.Path).
					Msg("request from blocked IP")
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
