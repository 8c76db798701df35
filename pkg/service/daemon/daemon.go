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

// Package daemon runs the service in the foreground with a pid file and
// shuts it down on SIGINT or SIGTERM.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/qrstudio/qrstudio-core/pkg/config"
	"github.com/rs/zerolog/log"
)

var ErrAlreadyRunning = errors.New("service already running")

// Entry starts the service and returns its stop function and a channel
// closed once it has shut down.
type Entry func() (stop func() error, done <-chan struct{}, err error)

type Daemon struct {
	start  Entry
	pidDir string
}

func New(pidDir string, start Entry) *Daemon {
	return &Daemon{pidDir: pidDir, start: start}
}

func (d *Daemon) pidPath() string {
	return filepath.Join(d.pidDir, config.PidFile)
}

func (d *Daemon) createPidFile() error {
	if err := os.MkdirAll(d.pidDir, 0o750); err != nil {
		return fmt.Errorf("failed to create pid directory: %w", err)
	}
	err := os.WriteFile(d.pidPath(), []byte(strconv.Itoa(os.Getpid())), 0o600)
	if err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

func (d *Daemon) removePidFile() {
	if err := os.Remove(d.pidPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Error().Err(err).Msg("error removing pid file")
	}
}

// Pid returns the pid recorded in the pid file, or 0 when there is none.
func (d *Daemon) Pid() (int, error) {
	data, err := os.ReadFile(d.pidPath())
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	} else if err != nil {
		return 0, fmt.Errorf("error reading pid file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("error parsing pid: %w", err)
	}
	return pid, nil
}

// Running reports whether the process in the pid file is alive.
func (d *Daemon) Running() bool {
	pid, err := d.Pid()
	if err != nil || pid == 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

// Run starts the service and blocks until ctx is cancelled, a stop signal
// arrives or the service stops by itself.
func (d *Daemon) Run(ctx context.Context) error {
	if d.Running() {
		return ErrAlreadyRunning
	}
	if err := d.createPidFile(); err != nil {
		return err
	}
	defer d.removePidFile()

	log.Info().Msg("starting service")
	stop, done, err := d.start()
	if err != nil {
		return fmt.Errorf("error starting service: %w", err)
	}

	sigCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	select {
	case <-sigCtx.Done():
		log.Info().Msg("stopping service")
		if err := stop(); err != nil {
			return fmt.Errorf("error stopping service: %w", err)
		}
	case <-done:
		log.Info().Msg("service shut down internally")
	}
	return nil
}
