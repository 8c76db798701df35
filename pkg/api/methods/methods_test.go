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

package methods

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/qrstudio/qrstudio-core/pkg/api/models"
	"github.com/qrstudio/qrstudio-core/pkg/api/models/requests"
	"github.com/qrstudio/qrstudio-core/pkg/codec"
	"github.com/qrstudio/qrstudio-core/pkg/codec/classify"
	"github.com/qrstudio/qrstudio-core/pkg/config"
	"github.com/qrstudio/qrstudio-core/pkg/database"
	"github.com/qrstudio/qrstudio-core/pkg/identity"
	"github.com/qrstudio/qrstudio-core/pkg/service/codes"
	"github.com/qrstudio/qrstudio-core/pkg/service/state"
	"github.com/qrstudio/qrstudio-core/pkg/testing/helpers"
	"github.com/qrstudio/qrstudio-core/pkg/testing/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type stubRenderer struct{}

func (stubRenderer) Render(string, int) ([]byte, error) { return []byte("png"), nil }

type stubDecoder struct {
	err  error
	text string
}

func (d stubDecoder) Decode(context.Context, []byte) (string, error) { return d.text, d.err }

func newEnv(t *testing.T, ctx context.Context, params string) (requests.RequestEnv, *helpers.MockUserDBI) {
	t.Helper()
	store := helpers.NewMockUserDBI()
	cfg := helpers.NewTestConfig(t)
	st, _ := state.NewState()
	t.Cleanup(st.StopService)
	ns := make(chan models.Notification, 10)

	env := requests.RequestEnv{
		Context: ctx,
		Config:  cfg,
		State:   st,
		Codes:   codes.NewService(store, cfg, stubRenderer{}, ns, clockwork.NewFakeClockAt(testNow)),
		Decoder: stubDecoder{text: "https://example.com"},
	}
	if params != "" {
		env.Params = json.RawMessage(params)
	}
	return env, store
}

func withActor() context.Context {
	return identity.WithActor(context.Background(), identity.Actor{ID: "alice"})
}

func TestHandleVersion(t *testing.T) {
	t.Parallel()
	env, _ := newEnv(t, context.Background(), "")

	res, err := HandleVersion(env)
	require.NoError(t, err)
	v, ok := res.(models.VersionResponse)
	require.True(t, ok)
	assert.Equal(t, config.AppVersion, v.Version)
	assert.NotEmpty(t, v.Platform)
}

func TestHandleCodesCreate_Anonymous(t *testing.T) {
	t.Parallel()
	env, store := newEnv(t, context.Background(),
		`{"kind":"wifi","fields":{"ssid":"Cafe","password":"latte"}}`)

	res, err := HandleCodesCreate(env)
	require.NoError(t, err)
	resp, ok := res.(models.CodeResponse)
	require.True(t, ok)
	assert.Equal(t, "WIFI:T:WPA;S:Cafe;P:latte;;", resp.Payload)
	assert.Equal(t, "wifi", resp.Kind)
	assert.Nil(t, resp.ID)
	store.AssertNotCalled(t, "Create", mock.Anything)
}

func TestHandleCodesCreate_Saved(t *testing.T) {
	t.Parallel()
	env, store := newEnv(t, withActor(), `{"kind":"text","fields":{"text":"hello"}}`)
	store.On("Create", helpers.CategoryRecordMatcher(database.CategoryCreated)).
		Run(func(args mock.Arguments) {
			args.Get(0).(*database.CodeRecord).ID = "c-1"
		}).Return(nil)

	res, err := HandleCodesCreate(env)
	require.NoError(t, err)
	resp := res.(models.CodeResponse)
	require.NotNil(t, resp.ID)
	assert.Equal(t, "c-1", *resp.ID)
	assert.Equal(t, "Text", resp.Label)
}

func TestHandleCodesCreate_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		params string
	}{
		{name: "missing params", params: ""},
		{name: "bad json", params: `{"kind":`},
		{name: "unknown kind", params: `{"kind":"sms","fields":{"text":"x"}}`},
		{name: "unknown field", params: `{"kind":"text","fields":{"body":"x"}}`},
		{name: "blank text", params: `{"kind":"text","fields":{"text":"  "}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env, _ := newEnv(t, context.Background(), tt.params)
			_, err := HandleCodesCreate(env)
			require.Error(t, err)
			assert.True(t, codec.IsValidation(err), "got %v", err)
		})
	}
}

func TestHandleCodesCreate_TrackedNeedsActor(t *testing.T) {
	t.Parallel()
	env, _ := newEnv(t, context.Background(),
		`{"kind":"url","fields":{"text":"https://example.com"},"track":true}`)

	_, err := HandleCodesCreate(env)
	require.ErrorIs(t, err, codes.ErrUnauthenticated)
}

func TestHandleCodesPromptPay(t *testing.T) {
	t.Parallel()
	env, _ := newEnv(t, context.Background(), `{"identifier":"0812345678","amount":"100.5"}`)

	res, err := HandleCodesPromptPay(env)
	require.NoError(t, err)
	resp := res.(models.CodeResponse)
	assert.True(t, strings.HasPrefix(resp.Payload, "000201010212"))
	assert.Contains(t, resp.Payload, "5406100.50")
	assert.Equal(t, "PromptPay", resp.Label)
}

func TestHandleCodesPromptPay_InvalidIdentifier(t *testing.T) {
	t.Parallel()
	env, _ := newEnv(t, context.Background(), `{"identifier":"12345"}`)

	_, err := HandleCodesPromptPay(env)
	require.Error(t, err)
	assert.True(t, codec.IsValidation(err))
}

func TestHandleCodesGet_NotOwner(t *testing.T) {
	t.Parallel()
	id := "5d0c1c8e-2f0b-4c3c-9d8e-0a1b2c3d4e5f"
	env, store := newEnv(t, withActor(), `{"id":"`+id+`"}`)
	store.On("Read", id).Return(database.CodeRecord{ID: id, OwnerID: "bob"}, nil)

	_, err := HandleCodesGet(env)
	require.ErrorIs(t, err, database.ErrRecordNotFound)
}

func TestHandleCodesDelete(t *testing.T) {
	t.Parallel()
	id := "5d0c1c8e-2f0b-4c3c-9d8e-0a1b2c3d4e5f"
	env, store := newEnv(t, withActor(), `{"id":"`+id+`"}`)
	store.On("Read", id).Return(database.CodeRecord{ID: id, OwnerID: "alice"}, nil)
	store.On("Delete", id).Return(nil)

	res, err := HandleCodesDelete(env)
	require.NoError(t, err)
	assert.Equal(t, NoContent{}, res)
	store.AssertExpectations(t)
}

func TestHandleCodesList(t *testing.T) {
	t.Parallel()
	env, store := newEnv(t, withActor(), `{"category":"created","search":" wifi "}`)
	store.On("ListByCategory", "alice", database.CategoryCreated, "wifi").Return([]database.CodeRecord{
		{ID: "a", Type: "WiFi", Preview: "WiFi: Home", Category: database.CategoryCreated, CreatedAt: testNow},
	}, nil)
	store.On("CountCreatedSince", "alice", database.CategoryCreated, mock.Anything).Return(3, nil)

	res, err := HandleCodesList(env)
	require.NoError(t, err)
	resp := res.(models.CodesResponse)
	require.Len(t, resp.Codes, 1)
	assert.Equal(t, "a", resp.Codes[0].ID)
	assert.Equal(t, 3, resp.CreatedToday)
}

func TestHandleCodesList_Unauthenticated(t *testing.T) {
	t.Parallel()
	env, _ := newEnv(t, context.Background(), `{"category":"scanned"}`)

	_, err := HandleCodesList(env)
	require.ErrorIs(t, err, codes.ErrUnauthenticated)
}

func TestHandleCodesList_BadCategory(t *testing.T) {
	t.Parallel()
	env, _ := newEnv(t, withActor(), `{"category":"deleted"}`)

	_, err := HandleCodesList(env)
	require.Error(t, err)
	assert.True(t, codec.IsValidation(err))
}

func TestHandleCodesStats(t *testing.T) {
	t.Parallel()
	id := "5d0c1c8e-2f0b-4c3c-9d8e-0a1b2c3d4e5f"
	env, store := newEnv(t, withActor(), `{"id":"`+id+`"}`)
	store.On("Read", id).Return(database.CodeRecord{ID: id, OwnerID: "alice"}, nil)
	store.On("ScanCountsByDay", id).Return([]database.DailyCount{
		{Day: "2026-03-01", Scans: 2},
		{Day: "2026-03-02", Scans: 5},
	}, nil)

	res, err := HandleCodesStats(env)
	require.NoError(t, err)
	resp := res.(models.CodeStatsResponse)
	assert.Equal(t, 7, resp.Total)
	assert.Equal(t, []models.DailyScans{{Day: "2026-03-01", Scans: 2}, {Day: "2026-03-02", Scans: 5}}, resp.Daily)
}

func TestHandleCodesExport(t *testing.T) {
	t.Parallel()
	env, store := newEnv(t, withActor(), `{"category":"scanned"}`)
	store.On("ListByCategory", "alice", database.CategoryScanned, "").Return([]database.CodeRecord{
		{ID: "s1", Type: "Scanned Data", Data: "hi", Preview: "hi", CreatedAt: testNow},
	}, nil)

	res, err := HandleCodesExport(env)
	require.NoError(t, err)
	resp := res.(models.ExportResponse)
	assert.Equal(t, "created_at,id,type,data,preview\n2026-03-02T09:00:00Z,s1,Scanned Data,hi,hi\n", resp.CSV)
}

func TestHandleScanDecode(t *testing.T) {
	t.Parallel()
	// "png" base64 encoded
	env, _ := newEnv(t, context.Background(), `{"image":"cG5n"}`)

	res, err := HandleScanDecode(env)
	require.NoError(t, err)
	resp := res.(models.ScanResponse)
	assert.Equal(t, string(classify.KindURL), resp.Kind)
	assert.Equal(t, "https://example.com", resp.Raw)
	assert.Nil(t, resp.ID)
}

func TestHandleScanDecode_DecoderError(t *testing.T) {
	t.Parallel()
	env, _ := newEnv(t, context.Background(), `{"image":"cG5n"}`)
	env.Decoder = stubDecoder{err: errors.New("boom")}

	_, err := HandleScanDecode(env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestHandleScanClassify_SavesForActor(t *testing.T) {
	t.Parallel()
	env, store := newEnv(t, withActor(), `{"text":"WIFI:T:WEP;S:Lab;P:k;;"}`)
	store.On("Create", helpers.CategoryRecordMatcher(database.CategoryScanned)).
		Run(func(args mock.Arguments) {
			args.Get(0).(*database.CodeRecord).ID = "s-9"
		}).Return(nil)

	res, err := HandleScanClassify(env)
	require.NoError(t, err)
	resp := res.(models.ScanResponse)
	assert.Equal(t, "wifi", resp.Kind)
	require.NotNil(t, resp.Wifi)
	assert.Equal(t, "Lab", resp.Wifi.SSID)
	assert.Equal(t, "WEP", resp.Wifi.Security)
	require.NotNil(t, resp.ID)
	assert.Equal(t, "s-9", *resp.ID)
	assert.Equal(t, "Scanned Data", resp.Label)
}

func TestHandleReaders(t *testing.T) {
	t.Parallel()
	env, _ := newEnv(t, context.Background(), "")
	env.State.SetReader(mocks.NewMockReader("rs232barcode:/dev/ttyUSB0"))

	res, err := HandleReaders(env)
	require.NoError(t, err)
	resp := res.(models.ReadersResponse)
	require.Len(t, resp.Readers, 1)
	assert.Equal(t, "rs232barcode:/dev/ttyUSB0", resp.Readers[0].Device)
	assert.True(t, resp.Readers[0].Connected)
}
