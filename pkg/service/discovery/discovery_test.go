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

package discovery

import (
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/qrstudio/qrstudio-core/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAdvertiser struct {
	shutdowns atomic.Int32
}

func (f *fakeAdvertiser) Shutdown() { f.shutdowns.Add(1) }

var upIface = net.Interface{Name: "eth0", Flags: net.FlagUp | net.FlagMulticast}

func newTestService(t *testing.T) *Service {
	t.Helper()
	cfg, err := config.NewConfig(t.TempDir(), config.BaseDefaults)
	require.NoError(t, err)
	svc := New(cfg)
	svc.interfaces = func() ([]net.Interface, error) { return []net.Interface{upIface}, nil }
	return svc
}

func TestServiceType(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "_qrstudio._tcp", ServiceType)
}

func TestFilterInterfaces(t *testing.T) {
	t.Parallel()

	ifaces := []net.Interface{
		upIface,
		{Name: "lo", Flags: net.FlagUp | net.FlagLoopback | net.FlagMulticast},
		{Name: "eth1", Flags: net.FlagMulticast},
		{Name: "ppp0", Flags: net.FlagUp},
		{Name: "docker0", Flags: net.FlagUp | net.FlagMulticast},
		{Name: "VETH12", Flags: net.FlagUp | net.FlagMulticast},
	}

	got := filterInterfaces(ifaces)
	require.Len(t, got, 1)
	assert.Equal(t, "eth0", got[0].Name)
}

func TestStart_Registers(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	svc.cfg.SetAPIPort(8080)
	adv := &fakeAdvertiser{}
	var gotPort int
	var gotTxt []string
	svc.register = func(_ string, port int, txt []string, _ []net.Interface) (advertiser, error) {
		gotPort = port
		gotTxt = txt
		return adv, nil
	}

	require.NoError(t, svc.Start())
	assert.NotEmpty(t, svc.InstanceName())
	assert.Equal(t, 8080, gotPort)
	assert.Contains(t, gotTxt, "url=http://localhost:8080")

	svc.Stop()
	svc.Stop()
	assert.Equal(t, int32(1), adv.shutdowns.Load())
}

func TestStart_Disabled(t *testing.T) {
	t.Parallel()

	cfg, err := config.NewConfig(t.TempDir(), config.Values{
		Service: config.Service{Discovery: config.Discovery{Enabled: new(bool)}},
	})
	require.NoError(t, err)
	svc := New(cfg)
	svc.register = func(string, int, []string, []net.Interface) (advertiser, error) {
		t.Fatal("register should not be called")
		return nil, nil
	}

	require.NoError(t, svc.Start())
	assert.Empty(t, svc.InstanceName())
}

func TestStart_RetriesUntilRegistered(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	clock := clockwork.NewFakeClock()
	svc.clock = clock

	var attempts atomic.Int32
	registered := make(chan struct{})
	svc.register = func(string, int, []string, []net.Interface) (advertiser, error) {
		if attempts.Add(1) == 1 {
			return nil, errors.New("network down")
		}
		close(registered)
		return &fakeAdvertiser{}, nil
	}

	require.NoError(t, svc.Start())

	// the ticker is created by the retry goroutine, so advance until it fires
	for range 5 {
		clock.Advance(retryInterval)
		select {
		case <-registered:
			svc.Stop()
			return
		case <-time.After(50 * time.Millisecond):
		}
	}
	t.Fatal("retry did not register")
}

func TestStop_DuringRetry(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	svc.clock = clockwork.NewFakeClock()
	svc.interfaces = func() ([]net.Interface, error) { return nil, nil }

	require.NoError(t, svc.Start())
	svc.Stop()
	assert.Nil(t, svc.cancelFunc)
}

func TestResolveInstanceName_Configured(t *testing.T) {
	t.Parallel()

	cfg, err := config.NewConfig(t.TempDir(), config.Values{
		Service: config.Service{Discovery: config.Discovery{InstanceName: "front-desk"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "front-desk", New(cfg).resolveInstanceName())
}
