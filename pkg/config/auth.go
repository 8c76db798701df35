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

package config

import (
	"crypto/subtle"
	"fmt"
	"net/url"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

// Auth holds the secrets kept out of config.toml: credentials for outbound
// connections and the API keys that identify callers.
type Auth struct {
	Creds map[string]CredentialEntry `toml:"creds,omitempty"`
	Keys  []APIKey                   `toml:"keys,omitempty"`
}

// CredentialEntry holds authentication credentials for a URL.
type CredentialEntry struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
	Bearer   string `toml:"bearer"`
}

// APIKey maps a bearer token presented to the API to the owner id used
// for stored records.
type APIKey struct {
	Token string `toml:"token"`
	Owner string `toml:"owner"`
}

// schemeAliases maps protocol variants to their canonical form.
var schemeAliases = map[string]string{
	"tcp": "mqtt",
	"ssl": "mqtts",
	"ws":  "http",
	"wss": "https",
}

// LoadAuthFromData parses the contents of auth.toml.
func LoadAuthFromData(data []byte) (Auth, error) {
	var auth Auth
	if err := toml.Unmarshal(data, &auth); err != nil {
		return Auth{}, fmt.Errorf("failed to unmarshal auth file: %w", err)
	}
	valid := auth.Keys[:0]
	for _, k := range auth.Keys {
		if k.Token == "" || k.Owner == "" {
			log.Warn().Str("owner", k.Owner).Msg("ignoring api key with empty token or owner")
			continue
		}
		valid = append(valid, k)
	}
	auth.Keys = valid
	return auth, nil
}

// normalizeScheme converts scheme aliases to their canonical form.
func normalizeScheme(scheme string) string {
	lower := strings.ToLower(scheme)
	if canonical, ok := schemeAliases[lower]; ok {
		return canonical
	}
	return lower
}

// LookupAuth finds credentials for a URL. An exact scheme match wins over
// an alias match (tcp://x matches an mqtt://x entry), which wins over a
// schemeless host:port entry.
func LookupAuth(creds map[string]CredentialEntry, reqURL string) *CredentialEntry {
	if len(creds) == 0 {
		return nil
	}

	u, err := url.Parse(reqURL)
	if err != nil {
		log.Warn().Msgf("invalid auth request url: %s", reqURL)
		return nil
	}

	match := func(exact bool) *CredentialEntry {
		for k, v := range creds {
			if !strings.Contains(k, "://") {
				continue
			}
			defURL, err := url.Parse(k)
			if err != nil {
				log.Error().Msgf("invalid auth config url: %s", k)
				continue
			}
			schemeOK := strings.EqualFold(defURL.Scheme, u.Scheme)
			if !exact {
				schemeOK = normalizeScheme(defURL.Scheme) == normalizeScheme(u.Scheme)
			}
			if schemeOK &&
				strings.EqualFold(defURL.Host, u.Host) &&
				strings.HasPrefix(u.Path, defURL.Path) {
				return &v
			}
		}
		return nil
	}

	if v := match(true); v != nil {
		return v
	}
	if v := match(false); v != nil {
		return v
	}

	for k, v := range creds {
		if !strings.Contains(k, "://") && strings.EqualFold(k, u.Host) {
			return &v
		}
	}

	return nil
}

// LookupAPIKey returns the owner for a bearer token.
func LookupAPIKey(keys []APIKey, token string) (string, bool) {
	if token == "" {
		return "", false
	}
	for _, k := range keys {
		if subtle.ConstantTimeCompare([]byte(k.Token), []byte(token)) == 1 {
			return k.Owner, true
		}
	}
	return "", false
}

// SetAuthCfgForTesting sets the global auth config for testing purposes
func SetAuthCfgForTesting(auth Auth) {
	authCfg.Store(auth)
}

// ClearAuthCfgForTesting clears the global auth config for testing purposes
func ClearAuthCfgForTesting() {
	authCfg.Store(Auth{})
}
