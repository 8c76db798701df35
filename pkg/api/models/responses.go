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
	"time"
)

type VersionResponse struct {
	Version  string `json:"version"`
	Platform string `json:"platform"`
}

// CodeResponse is a generated code. ID is set only when the code was
// saved to the caller's history.
type CodeResponse struct {
	ID      *string `json:"id,omitempty"`
	Payload string  `json:"payload"`
	Kind    string  `json:"kind"`
	Label   string  `json:"label"`
	Preview string  `json:"preview"`
	Tracked bool    `json:"tracked"`
}

type CodeRecordResponse struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Data      string    `json:"data"`
	Preview   string    `json:"preview"`
	Category  string    `json:"category"`
}

type CodesResponse struct {
	Codes        []CodeRecordResponse `json:"codes"`
	CreatedToday int                  `json:"createdToday"`
}

type DailyScans struct {
	Day   string `json:"day"`
	Scans int    `json:"scans"`
}

type CodeStatsResponse struct {
	Daily []DailyScans       `json:"daily"`
	Code  CodeRecordResponse `json:"code"`
	Total int                `json:"total"`
}

type ExportResponse struct {
	CSV string `json:"csv"`
}

type ContactResponse struct {
	Name         string `json:"name"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
	Organization string `json:"organization,omitempty"`
}

type WifiResponse struct {
	SSID     string `json:"ssid"`
	Password string `json:"password,omitempty"`
	Security string `json:"security,omitempty"`
}

type ScanResponse struct {
	ID      *string          `json:"id,omitempty"`
	Contact *ContactResponse `json:"contact,omitempty"`
	Wifi    *WifiResponse    `json:"wifi,omitempty"`
	Kind    string           `json:"kind"`
	Raw     string           `json:"raw"`
	Label   string           `json:"label"`
	Preview string           `json:"preview"`
}

// CodeDeletedParams is sent with codes.deleted.
type CodeDeletedParams struct {
	ID string `json:"id"`
}

// CodeScannedParams is sent with codes.scanned each time a tracked code
// is resolved.
type CodeScannedParams struct {
	Time time.Time `json:"time"`
	ID   string    `json:"id"`
}

type ReaderResponse struct {
	ID        string `json:"id"`
	Driver    string `json:"driver"`
	Device    string `json:"device"`
	Info      string `json:"info"`
	Connected bool   `json:"connected"`
}

type ReadersResponse struct {
	Readers []ReaderResponse `json:"readers"`
}
