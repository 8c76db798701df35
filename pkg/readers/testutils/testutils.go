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

// Package testutils has serial port fakes and scan assertions for reader
// tests.
package testutils

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/qrstudio/qrstudio-core/pkg/readers"
	"github.com/stretchr/testify/require"
)

func CreateTestScanChannel(_ *testing.T) chan readers.Scan {
	return make(chan readers.Scan, 10)
}

// AssertScanReceived waits up to timeout for a scan on ch.
func AssertScanReceived(t *testing.T, ch chan readers.Scan, timeout time.Duration) readers.Scan {
	t.Helper()
	select {
	case scan := <-ch:
		return scan
	case <-time.After(timeout):
		require.Fail(t, "expected scan to be received within timeout", "timeout: %v", timeout)
		return readers.Scan{}
	}
}

func AssertNoScan(t *testing.T, ch chan readers.Scan, timeout time.Duration) {
	t.Helper()
	select {
	case scan := <-ch:
		require.Fail(t, "unexpected scan received",
			"scan: source=%s, text=%q, error=%v", scan.Source, scan.Text, scan.Error)
	case <-time.After(timeout):
	}
}

// CreateTempDevicePath returns a path that passes the reader's stat check.
func CreateTempDevicePath(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		return "COM1"
	}
	path := filepath.Join(t.TempDir(), "ttyTEST0")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	return path
}
