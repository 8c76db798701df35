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

package models

import (
	"bytes"
	"encoding/json"
	"errors"
)

// RPCID is a JSON-RPC 2.0 request id: a string, a number or null. The raw
// JSON is kept so the id is echoed back byte for byte.
type RPCID struct {
	json.RawMessage
}

var ErrInvalidRPCID = errors.New("JSON-RPC id must be a string, number or null")

var nullJSON = []byte("null")

// NullRPCID is used when a reply cannot be tied to a request.
var NullRPCID = RPCID{RawMessage: nullJSON}

func validIDStart(c byte) bool {
	return c == '"' || c == '-' || (c >= '0' && c <= '9')
}

func (id *RPCID) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if len(raw) == 0 || (!validIDStart(raw[0]) && !bytes.Equal(raw, nullJSON)) {
		return ErrInvalidRPCID
	}
	id.RawMessage = bytes.Clone(raw)
	return nil
}

func (id RPCID) MarshalJSON() ([]byte, error) {
	if len(id.RawMessage) == 0 {
		return nullJSON, nil
	}
	return id.RawMessage, nil
}

// IsAbsent reports whether no id was decoded. On a *RPCID field a JSON
// null also decodes to nil, so callers that must tell a notification from
// a null id look at the raw message.
func (id *RPCID) IsAbsent() bool {
	return id == nil || len(id.RawMessage) == 0
}

func (id *RPCID) IsNull() bool {
	return id != nil && bytes.Equal(id.RawMessage, nullJSON)
}

func (id *RPCID) String() string {
	if id.IsAbsent() {
		return string(nullJSON)
	}
	return string(id.RawMessage)
}

func NewStringID(s string) RPCID {
	b, _ := json.Marshal(s)
	return RPCID{RawMessage: b}
}
