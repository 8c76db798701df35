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

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/qrstudio/qrstudio-core/pkg/api/models"
	"github.com/qrstudio/qrstudio-core/pkg/api/models/requests"
	"github.com/qrstudio/qrstudio-core/pkg/database"
	"github.com/qrstudio/qrstudio-core/pkg/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func createTestPostHandler(t *testing.T) (http.Handler, *testServer) {
	t.Helper()
	ts := newTestServer(t)

	err := ts.Methods().AddMethod("test.echo", func(_ requests.RequestEnv) (any, error) {
		return map[string]string{"echo": "success"}, nil
	})
	require.NoError(t, err)
	err = ts.Methods().AddMethod("test.error", func(_ requests.RequestEnv) (any, error) {
		return nil, errors.New("test error")
	})
	require.NoError(t, err)
	err = ts.Methods().AddMethod("test.whoami", func(env requests.RequestEnv) (any, error) {
		a, _ := identity.FromContext(env.Context)
		return a.ID, nil
	})
	require.NoError(t, err)

	return ts.Handler(), ts
}

func postRPC(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) *models.ErrorObject {
	t.Helper()
	require.Equal(t, http.StatusOK, rr.Code, "JSON-RPC errors still return HTTP 200")
	var resp models.ResponseErrorObject
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestMethodMap_AddMethod(t *testing.T) {
	t.Parallel()
	m := NewMethodMap()

	_, ok := m.GetMethod("CODES.CREATE")
	assert.True(t, ok, "lookups ignore case")

	err := m.AddMethod(models.MethodVersion, func(requests.RequestEnv) (any, error) { return nil, nil })
	require.ErrorIs(t, err, ErrMethodExists)

	assert.Contains(t, m.ListMethods(), models.MethodScanDecode)
}

func TestHandlePostRequest_ValidRequest(t *testing.T) {
	t.Parallel()
	h, _ := createTestPostHandler(t)

	rr := postRPC(t, h, `{"jsonrpc":"2.0","id":"`+uuid.New().String()+`","method":"test.echo"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp models.ResponseObject
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "2.0", resp.JSONRPC)
	assert.NotNil(t, resp.Result)
}

func TestHandlePostRequest_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		contains string
		code     int
	}{
		{name: "invalid json", body: `{invalid json`, code: -32700},
		{name: "empty body", body: ``, code: -32700},
		{name: "unknown method", body: `{"jsonrpc":"2.0","id":1,"method":"nope"}`, code: -32601},
		{name: "wrong version", body: `{"jsonrpc":"1.0","id":1,"method":"test.echo"}`, code: -32600},
		{name: "object id", body: `{"jsonrpc":"2.0","id":{"a":1},"method":"test.echo"}`, code: -32600},
		{name: "array id", body: `{"jsonrpc":"2.0","id":[1],"method":"test.echo"}`, code: -32600},
		{name: "missing method", body: `{"jsonrpc":"2.0","id":1}`, code: -32600},
		{
			name:     "method error",
			body:     `{"jsonrpc":"2.0","id":1,"method":"test.error"}`,
			code:     -32603,
			contains: "test error",
		},
		{
			name: "invalid params",
			body: `{"jsonrpc":"2.0","id":1,"method":"codes.create","params":{"kind":"sms"}}`,
			code: -32602,
		},
		{
			name: "missing params",
			body: `{"jsonrpc":"2.0","id":1,"method":"codes.promptpay"}`,
			code: -32602,
		},
		{
			name:     "unauthenticated",
			body:     `{"jsonrpc":"2.0","id":1,"method":"codes.list","params":{"category":"created"}}`,
			code:     -32000,
			contains: "authentication required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h, _ := createTestPostHandler(t)
			eo := decodeError(t, postRPC(t, h, tt.body))
			assert.Equal(t, tt.code, eo.Code)
			if tt.contains != "" {
				assert.Contains(t, eo.Message, tt.contains)
			}
		})
	}
}

func TestHandlePostRequest_WrongContentType(t *testing.T) {
	t.Parallel()
	h, _ := createTestPostHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
}

func TestHandlePostRequest_ContentTypeWithCharset(t *testing.T) {
	t.Parallel()
	h, _ := createTestPostHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api",
		strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"test.echo"}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestHandlePostRequest_Notification(t *testing.T) {
	t.Parallel()
	h, _ := createTestPostHandler(t)

	rr := postRPC(t, h, `{"jsonrpc":"2.0","method":"test.echo"}`)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.Bytes())
}

func TestHandlePostRequest_OversizedBody(t *testing.T) {
	t.Parallel()
	h, _ := createTestPostHandler(t)

	rr := postRPC(t, h, strings.Repeat("x", maxRequestSize+1))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.Contains(t, rr.Body.String(), "Request body too large")
}

func TestHandlePostRequest_IDEcho(t *testing.T) {
	t.Parallel()

	tests := []struct {
		want any
		name string
		id   string
	}{
		{name: "string", id: `"my-id"`, want: "my-id"},
		{name: "number", id: `12345`, want: float64(12345)},
		{name: "null", id: `null`, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h, _ := createTestPostHandler(t)

			rr := postRPC(t, h, `{"jsonrpc":"2.0","id":`+tt.id+`,"method":"test.echo"}`)

			require.Equal(t, http.StatusOK, rr.Code)
			var resp map[string]any
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.want, resp["id"])
			assert.NotNil(t, resp["result"], "a request with any id is answered")
		})
	}
}

func TestHandlePostRequest_BearerActor(t *testing.T) {
	t.Parallel()
	h, ts := createTestPostHandler(t)
	ts.store.On("ListByCategory", "alice", database.CategoryCreated, "").
		Return([]database.CodeRecord{}, nil)
	ts.store.On("CountCreatedSince", "alice", database.CategoryCreated, mock.Anything).
		Return(0, nil)

	req := httptest.NewRequest(http.MethodPost, "/api",
		strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"codes.list","params":{"category":"created"}}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+testKey)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Result models.CodesResponse `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Empty(t, resp.Result.Codes)
	ts.store.AssertExpectations(t)
}

func TestHandlePostRequest_InvalidKey(t *testing.T) {
	t.Parallel()
	h, _ := createTestPostHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api",
		strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"test.whoami"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer wrong")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
