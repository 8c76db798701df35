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

// Package telemetry provides opt-in error reporting via Sentry. Paths,
// hostnames and API keys are stripped before anything is sent.
package telemetry

import (
	"fmt"
	"io"
	"regexp"
	"runtime"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	sentryzerolog "github.com/getsentry/sentry-go/zerolog"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DSNEnv names the environment variable holding the Sentry DSN. Without a
// DSN nothing is reported even when reporting is enabled in config.
const DSNEnv = "QRSTUDIO_SENTRY_DSN"

const flushTimeout = 2 * time.Second

var (
	enabled      bool
	sentryWriter *sentryzerolog.Writer
	closeOnce    sync.Once

	homePathRe    = regexp.MustCompile(`(?i)/home/[^/]+/`)
	usersPathRe   = regexp.MustCompile(`(?i)/Users/[^/]+/`)
	windowsUserRe = regexp.MustCompile(`(?i)[a-zA-Z]:\\Users\\[^\\]+\\`)
	keyParamRe    = regexp.MustCompile(`([?&]key=)[^&\s]+`)
	bearerRe      = regexp.MustCompile(`(?i)(bearer\s+)\S+`)
)

type Options struct {
	DSN      string
	DeviceID string
	Version  string
	Enabled  bool
}

// Init starts Sentry and returns a writer to add to the log outputs. It
// returns a nil writer when reporting is off.
func Init(opts Options) (io.Writer, error) {
	if !opts.Enabled {
		log.Debug().Msg("error reporting disabled")
		return nil, nil
	}
	if opts.DSN == "" {
		log.Warn().Msgf("error reporting enabled but %s is not set", DSNEnv)
		return nil, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              opts.DSN,
		Release:          "qrstudio@" + opts.Version,
		Environment:      runtime.GOOS,
		AttachStacktrace: true,
		SendDefaultPII:   false,
		ServerName:       "",
		MaxBreadcrumbs:   0,
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return sanitizeEvent(event)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sentry: %w", err)
	}

	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetUser(sentry.User{ID: opts.DeviceID})
		scope.SetTag("os", runtime.GOOS)
		scope.SetTag("arch", runtime.GOARCH)
	})

	sentryWriter, err = sentryzerolog.NewWithHub(sentry.CurrentHub(), sentryzerolog.Options{
		Levels:          []zerolog.Level{zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel},
		FlushTimeout:    flushTimeout,
		WithBreadcrumbs: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sentry zerolog writer: %w", err)
	}

	enabled = true
	return sentryWriter, nil
}

// Close flushes pending events and shuts down Sentry. Safe to call more
// than once.
func Close() {
	if !enabled {
		return
	}
	closeOnce.Do(func() {
		_ = sentryWriter.Close()
		sentry.Flush(flushTimeout)
	})
}

// Flush sends pending events. Call it before os.Exit.
func Flush() {
	if !enabled {
		return
	}
	sentry.Flush(flushTimeout)
}

func Enabled() bool {
	return enabled
}

func sanitizeEvent(event *sentry.Event) *sentry.Event {
	// the SDK may fill this in even with ServerName unset
	event.ServerName = ""

	for i := range event.Exception {
		event.Exception[i].Value = sanitize(event.Exception[i].Value)
		if event.Exception[i].Stacktrace == nil {
			continue
		}
		for j := range event.Exception[i].Stacktrace.Frames {
			frame := &event.Exception[i].Stacktrace.Frames[j]
			frame.AbsPath = sanitizePath(frame.AbsPath)
			frame.Filename = sanitizePath(frame.Filename)
		}
	}

	event.Message = sanitize(event.Message)

	for k, v := range event.Extra {
		if s, ok := v.(string); ok {
			event.Extra[k] = sanitize(s)
		}
	}

	return event
}

func sanitize(s string) string {
	return redactKeys(sanitizePath(s))
}

// sanitizePath removes usernames from file paths.
func sanitizePath(path string) string {
	if path == "" {
		return path
	}

	result := homePathRe.ReplaceAllString(path, "/home/<user>/")
	result = usersPathRe.ReplaceAllString(result, "/Users/<user>/")
	result = windowsUserRe.ReplaceAllString(result, "C:\\Users\\<user>\\")

	return result
}

// redactKeys hides API keys passed as a query parameter or bearer token.
func redactKeys(s string) string {
	s = keyParamRe.ReplaceAllString(s, "${1}<redacted>")
	return bearerRe.ReplaceAllString(s, "${1}<redacted>")
}
