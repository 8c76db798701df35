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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/qrstudio/qrstudio-core/internal/telemetry"
	"github.com/qrstudio/qrstudio-core/pkg/api/client"
	"github.com/qrstudio/qrstudio-core/pkg/cli"
	"github.com/qrstudio/qrstudio-core/pkg/config"
	"github.com/qrstudio/qrstudio-core/pkg/helpers"
	"github.com/qrstudio/qrstudio-core/pkg/service"
	"github.com/qrstudio/qrstudio-core/pkg/service/daemon"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		telemetry.Flush()
		os.Exit(1)
	}
}

func run() error {
	flags := cli.SetupFlags()
	flags.Pre()

	var logWriters []io.Writer
	if *flags.Daemon {
		logWriters = []io.Writer{helpers.ConsoleWriter(os.Stderr)}
	}

	cfg := cli.Setup(config.BaseDefaults, logWriters)
	defer telemetry.Close()

	defer func() {
		if err := recover(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Panic: %s\n", err)
			log.Fatal().Msgf("panic: %v", err)
		}
	}()

	flags.Post(cfg)

	if !*flags.Daemon {
		flag.Usage()
		return nil
	}

	if client.IsServiceRunning(cfg) {
		return errors.New("service is already running")
	}

	d := daemon.New(helpers.DataDir(), func() (func() error, <-chan struct{}, error) {
		return service.Start(cfg)
	})
	log.Info().Msg("started in daemon mode")
	if err := d.Run(context.Background()); err != nil {
		log.Error().Err(err).Msg("service exited with error")
		return fmt.Errorf("error running service: %w", err)
	}
	return nil
}
