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
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/google/uuid"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/qrstudio/qrstudio-core/pkg/helpers/syncutil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	SchemaVersion = 1
	CfgEnv        = "QRSTUDIO_CFG"
)

type Values struct {
	Render         Render  `toml:"render,omitempty"`
	Service        Service `toml:"service,omitempty"`
	Readers        Readers `toml:"readers,omitempty"`
	History        History `toml:"history,omitempty"`
	ConfigSchema   int     `toml:"config_schema"`
	DebugLogging   bool    `toml:"debug_logging"`
	ErrorReporting bool    `toml:"error_reporting"`
}

var BaseDefaults = Values{
	ConfigSchema: SchemaVersion,
	Render: Render{
		DefaultSize: DefaultRenderSize,
		MaxSize:     DefaultMaxRenderSize,
		Recovery:    RecoveryMedium,
	},
}

type Instance struct {
	cfgPath  string
	authPath string
	vals     Values
	defaults Values
	mu       syncutil.RWMutex
}

var authCfg atomic.Value

// GetAuthCfg returns the secrets loaded from auth.toml.
func GetAuthCfg() Auth {
	val := authCfg.Load()
	if val == nil {
		return Auth{}
	}
	auth, ok := val.(Auth)
	if !ok {
		return Auth{}
	}
	return auth
}

var (
	ErrNoConfigPath   = errors.New("config path not set")
	ErrSchemaMismatch = errors.New("schema version mismatch")
)

// NewConfig loads config.toml from configDir, or from the file named by
// QRSTUDIO_CFG, writing defaults first when it does not exist yet. A
// sibling auth.toml is read too if present.
//
//nolint:gocritic // config struct copied for immutability
func NewConfig(configDir string, defaults Values) (*Instance, error) {
	cfgPath := os.Getenv(CfgEnv)
	if cfgPath != "" {
		log.Debug().Str("path", cfgPath).Msg("config path from environment")
	} else {
		cfgPath = filepath.Join(configDir, CfgFile)
	}

	cfg := &Instance{
		cfgPath:  cfgPath,
		authPath: filepath.Join(filepath.Dir(cfgPath), AuthFile),
		vals:     defaults,
		defaults: defaults,
	}

	if _, err := os.Stat(cfgPath); errors.Is(err, fs.ErrNotExist) {
		log.Info().Str("path", cfgPath).Msg("writing default config")
		if err := os.MkdirAll(filepath.Dir(cfgPath), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := cfg.Save(); err != nil {
			return nil, err
		}
	}

	if err := cfg.Load(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// readValues decodes path over a copy of defaults, so keys missing from
// the file keep their default.
//
//nolint:gocritic // config struct copied for immutability
func readValues(path string, defaults Values) (Values, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Values{}, fmt.Errorf("failed to read config file: %w", err)
	}
	vals := defaults
	if err := toml.Unmarshal(data, &vals); err != nil {
		return Values{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if vals.ConfigSchema != SchemaVersion {
		return Values{}, fmt.Errorf("%w: file has %d, expected %d",
			ErrSchemaMismatch, vals.ConfigSchema, SchemaVersion)
	}
	return vals, nil
}

// loadAuth reads auth.toml into the global auth config. A missing file
// leaves whatever was loaded before.
func loadAuth(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to read auth file: %w", err)
	}

	auth, err := LoadAuthFromData(data)
	if err != nil {
		return err
	}
	log.Info().
		Int("creds", len(auth.Creds)).
		Int("keys", len(auth.Keys)).
		Msg("loaded auth file")
	authCfg.Store(auth)
	return nil
}

func (c *Instance) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return ErrNoConfigPath
	}
	vals, err := readValues(c.cfgPath, c.defaults)
	if err != nil {
		log.Error().Err(err).Str("path", c.cfgPath).Msg("failed to load config")
		return err
	}
	c.vals = vals
	return loadAuth(c.authPath)
}

// Save writes the current values, assigning a device id on first save.
// The file is replaced by rename so a crash never leaves it half written.
func (c *Instance) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return ErrNoConfigPath
	}

	c.vals.ConfigSchema = SchemaVersion
	if c.vals.Service.DeviceID == "" {
		c.vals.Service.DeviceID = uuid.NewString()
		log.Info().Str("device_id", c.vals.Service.DeviceID).Msg("generated device id")
	}

	data, err := toml.Marshal(&c.vals)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmp := c.cfgPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmp, c.cfgPath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace config file: %w", err)
	}
	return nil
}

func (c *Instance) DebugLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DebugLogging
}

func (c *Instance) SetDebugLogging(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.DebugLogging = enabled
	if enabled {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func (c *Instance) ErrorReporting() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.ErrorReporting
}

func (c *Instance) SetErrorReporting(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.ErrorReporting = enabled
}

// Path is the location of the loaded config file.
func (c *Instance) Path() string {
	return c.cfgPath
}
