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

// Package cli holds the flags shared by the qrstudio binaries.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/qrstudio/qrstudio-core/internal/telemetry"
	"github.com/qrstudio/qrstudio-core/pkg/api/client"
	"github.com/qrstudio/qrstudio-core/pkg/api/models"
	"github.com/qrstudio/qrstudio-core/pkg/config"
	"github.com/qrstudio/qrstudio-core/pkg/decode"
	"github.com/qrstudio/qrstudio-core/pkg/helpers"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// watchTimeout makes -watch wait until interrupted.
const watchTimeout time.Duration = -1

type Flags struct {
	Encode    *string
	PromptPay *string
	Decode    *bool
	Classify  *string
	Verify    *string
	Output    *string
	Size      *int
	API       *string
	Watch     *bool
	Daemon    *bool
	Config    *bool
	Version   *bool
	set       *flag.FlagSet
	newClient func(cfg *config.Instance) client.APIClient
}

func localAPIClient(cfg *config.Instance) client.APIClient {
	return client.NewEndpointClient(client.LocalEndpoint(cfg))
}

// SetupFlags defines the common flags on the default flag set.
func SetupFlags() *Flags {
	return defineFlags(flag.CommandLine)
}

func defineFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		set:       fs,
		newClient: localAPIClient,
		Encode: fs.String(
			"encode",
			"",
			"encode content, as kind:key=value,... (kinds: url, text, contact, wifi, promptpay)",
		),
		PromptPay: fs.String(
			"promptpay",
			"",
			"encode a PromptPay payment, as identifier[:amount]",
		),
		Decode: fs.Bool(
			"decode",
			false,
			"decode the QR code in each image file given as an argument",
		),
		Classify: fs.String(
			"classify",
			"",
			"print the content type of scanned text",
		),
		Verify: fs.String(
			"verify",
			"",
			"check a PromptPay payload's checksum and print its fields",
		),
		Output: fs.String(
			"o",
			"",
			"write the encoded code to this PNG file instead of the terminal",
		),
		Size: fs.Int(
			"size",
			0,
			"PNG size in pixels (default from config)",
		),
		API: fs.String(
			"api",
			"",
			"send method and params to the running service and print the response",
		),
		Watch: fs.Bool(
			"watch",
			false,
			"wait for the next scan of a tracked code and print it",
		),
		Daemon: fs.Bool(
			"daemon",
			false,
			"run the service in the foreground",
		),
		Config: fs.Bool(
			"config",
			false,
			"print the config file location and contents",
		),
		Version: fs.Bool(
			"version",
			false,
			"print version and exit",
		),
	}
}

func (f *Flags) isFlagPassed(name string) bool {
	found := false
	f.set.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			found = true
		}
	})
	return found
}

// Pre parses flags and handles the ones that need no setup.
func (f *Flags) Pre() {
	if !f.set.Parsed() {
		_ = f.set.Parse(os.Args[1:])
	}

	if *f.Version {
		_, _ = fmt.Printf("QR Studio v%s (%s/%s)\n", config.AppVersion, runtime.GOOS, runtime.GOARCH)
		os.Exit(0)
	}
}

// splitAPIArg splits "method:params". Params are passed through as is.
func splitAPIArg(arg string) (method, params string) {
	method, params, _ = strings.Cut(arg, ":")
	return strings.TrimSpace(method), params
}

// Run handles every action flag except -daemon. It returns false when no
// action flag was given.
func (f *Flags) Run(ctx context.Context, cfg *config.Instance, out io.Writer) (bool, error) {
	o := &Offline{
		FS:      afero.NewOsFs(),
		Out:     out,
		Cfg:     cfg,
		Decoder: decode.NewZXing(),
	}
	dest := Output{Path: *f.Output, Size: *f.Size}

	switch {
	case f.isFlagPassed("encode"):
		if *f.Encode == "" {
			return true, errors.New("encode flag requires a value")
		}
		return true, o.Encode(*f.Encode, dest)
	case f.isFlagPassed("promptpay"):
		if *f.PromptPay == "" {
			return true, errors.New("promptpay flag requires a value")
		}
		return true, o.PromptPay(*f.PromptPay, dest)
	case *f.Decode:
		files := f.set.Args()
		if len(files) == 0 {
			return true, errors.New("decode flag requires at least one image file")
		}
		return true, o.Decode(ctx, files)
	case f.isFlagPassed("classify"):
		return true, o.Classify(*f.Classify)
	case f.isFlagPassed("verify"):
		if *f.Verify == "" {
			return true, errors.New("verify flag requires a value")
		}
		return true, o.Verify(*f.Verify)
	case *f.Config:
		data, err := afero.ReadFile(o.FS, cfg.Path())
		if err != nil {
			return true, fmt.Errorf("failed to read config: %w", err)
		}
		_, _ = fmt.Fprintf(out, "# %s\n%s", cfg.Path(), data)
		return true, nil
	case f.isFlagPassed("api"):
		method, params := splitAPIArg(*f.API)
		if method == "" {
			return true, errors.New("api flag requires a method")
		}
		resp, err := f.newClient(cfg).Call(ctx, method, params)
		if err != nil {
			return true, fmt.Errorf("error calling API: %w", err)
		}
		_, _ = fmt.Fprintln(out, resp)
		return true, nil
	case *f.Watch:
		resp, err := f.newClient(cfg).WaitNotification(ctx, watchTimeout, models.NotificationCodesScanned)
		if err != nil {
			return true, fmt.Errorf("error waiting for scan: %w", err)
		}
		_, _ = fmt.Fprintln(out, resp)
		return true, nil
	}
	return false, nil
}

// Post runs the action flags and exits if one was given.
func (f *Flags) Post(cfg *config.Instance) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	handled, err := f.Run(ctx, cfg, os.Stdout)
	stop()
	if !handled {
		return
	}
	if err != nil && !errors.Is(err, client.ErrRequestCancelled) {
		log.Error().Err(err).Msg("command failed")
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		telemetry.Flush()
		os.Exit(1)
	}
	os.Exit(0)
}

// Setup creates the app directories, loads the config and starts logging.
// Error reporting is enabled here when the config opts in.
//
//nolint:gocritic // config struct copied for immutability
func Setup(defaultConfig config.Values, writers []io.Writer) *config.Instance {
	err := helpers.EnsureDirectories()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error creating directories: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.NewConfig(helpers.ConfigDir(), defaultConfig)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	sentryWriter, telemetryErr := telemetry.Init(telemetry.Options{
		Enabled:  cfg.ErrorReporting(),
		DSN:      os.Getenv(telemetry.DSNEnv),
		DeviceID: cfg.DeviceID(),
		Version:  config.AppVersion,
	})
	if sentryWriter != nil {
		writers = append(writers, sentryWriter)
	}

	err = helpers.InitLogging(helpers.LogDir(), writers)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		os.Exit(1)
	}
	if telemetryErr != nil {
		log.Warn().Err(telemetryErr).Msg("failed to initialize error reporting")
	}

	if cfg.DebugLogging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	return cfg
}
