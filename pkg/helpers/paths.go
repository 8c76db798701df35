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

package helpers

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/adrg/xdg"
	"github.com/qrstudio/qrstudio-core/pkg/config"
)

// HomeEnv points every directory at a single folder, for portable installs
// and tests.
const HomeEnv = "QRSTUDIO_HOME"

const (
	LogsDir = "logs"
)

var (
	userDirOnce        sync.Once
	userDirCache       string
	userDirCacheExists bool
)

// HasUserDir returns the portable directory set by HomeEnv, if any. The
// lookup is cached for the life of the process.
func HasUserDir() (string, bool) {
	userDirOnce.Do(func() {
		dir := os.Getenv(HomeEnv)
		if dir == "" {
			return
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return
		}
		userDirCache = abs
		userDirCacheExists = true
	})
	return userDirCache, userDirCacheExists
}

func ConfigDir() string {
	if v, ok := HasUserDir(); ok {
		return v
	}
	return filepath.Join(xdg.ConfigHome, config.AppName)
}

func DataDir() string {
	if v, ok := HasUserDir(); ok {
		return v
	}
	return filepath.Join(xdg.DataHome, config.AppName)
}

func LogDir() string {
	return filepath.Join(DataDir(), LogsDir)
}

// EnsureDirectories creates the config, data and log directories.
func EnsureDirectories() error {
	for _, dir := range []string{ConfigDir(), DataDir(), LogDir()} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
