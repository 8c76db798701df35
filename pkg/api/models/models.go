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
	"encoding/json"
)

const (
	NotificationCodesCreated   = "codes.created"
	NotificationCodesDeleted   = "codes.deleted"
	NotificationCodesScanned   = "codes.scanned"
	NotificationReadersAdded   = "readers.added"
	NotificationReadersRemoved = "readers.removed"
)

const (
	MethodVersion        = "version"
	MethodCodesCreate    = "codes.create"
	MethodCodesPromptPay = "codes.promptpay"
	MethodCodesGet       = "codes.get"
	MethodCodesDelete    = "codes.delete"
	MethodCodesList      = "codes.list"
	MethodCodesStats     = "codes.stats"
	MethodCodesExport    = "codes.export"
	MethodScanDecode     = "scan.decode"
	MethodScanClassify   = "scan.classify"
	MethodReaders        = "readers"
)

type Notification struct {
	Method string
	Params json.RawMessage
}

// EventName names notifications in broker drop logs.
func (n Notification) EventName() string {
	return n.Method
}

type RequestObject struct {
	ID      *RPCID          `json:"id,omitempty"`
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type ErrorObject struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type ResponseObject struct {
	Result  any          `json:"result"`
	Error   *ErrorObject `json:"error,omitempty"`
	JSONRPC string       `json:"jsonrpc"`
	ID      RPCID        `json:"id"`
}

// ResponseErrorObject exists for sending errors, so we can omit result from
// the response, but so nil responses are still returned when using the main
// ResponseObject.
type ResponseErrorObject struct {
	Error   *ErrorObject `json:"error"`
	JSONRPC string       `json:"jsonrpc"`
	ID      RPCID        `json:"id"`
}
