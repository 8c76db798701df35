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

package state

import (
	"testing"
	"time"

	"github.com/qrstudio/qrstudio-core/pkg/api/models"
	"github.com/qrstudio/qrstudio-core/pkg/testing/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetReader_ReplacesAndNotifies(t *testing.T) {
	t.Parallel()

	st, ns := NewState()
	first := mocks.NewMockReader("rs232barcode:/dev/ttyUSB0")
	second := mocks.NewMockReader("rs232barcode:/dev/ttyUSB0")

	st.SetReader(first)
	st.SetReader(second)

	first.AssertCalled(t, "Close")
	second.AssertNotCalled(t, "Close")
	require.Len(t, st.ListReaders(), 1)

	got, ok := st.GetReader("rs232barcode:/dev/ttyUSB0")
	require.True(t, ok)
	assert.Same(t, second, got)

	for range 2 {
		n := <-ns
		assert.Equal(t, models.NotificationReadersAdded, n.Method)
	}
}

func TestRemoveReader(t *testing.T) {
	t.Parallel()

	st, ns := NewState()
	r := mocks.NewMockReader("rs232barcode:/dev/ttyUSB1")
	st.SetReader(r)
	<-ns

	st.RemoveReader("rs232barcode:/dev/ttyUSB1")
	r.AssertCalled(t, "Close")
	assert.Empty(t, st.ListReaders())

	n := <-ns
	assert.Equal(t, models.NotificationReadersRemoved, n.Method)
	assert.Contains(t, string(n.Params), `"connected":false`)

	st.RemoveReader("missing")
	assert.Empty(t, ns)
}

func TestLastScan(t *testing.T) {
	t.Parallel()

	st, _ := NewState()
	assert.Zero(t, st.GetLastScan())

	scan := LastScan{Time: time.Unix(1700000000, 0), Text: "hello", Source: "rs232barcode:/dev/ttyUSB0"}
	st.SetLastScan(scan)
	assert.Equal(t, scan, st.GetLastScan())
}

func TestStopService(t *testing.T) {
	t.Parallel()

	st, _ := NewState()
	require.NoError(t, st.GetContext().Err())
	st.StopService()
	select {
	case <-st.GetContext().Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled")
	}
}
