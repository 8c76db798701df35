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

// Package classify turns strings read back from a code into typed content.
// Classify never fails: anything it cannot place is plain text or, for
// input that is structured but deliberately not interpreted, unrecognized.
package classify

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/qrstudio/qrstudio-core/pkg/codec"
	"github.com/qrstudio/qrstudio-core/pkg/codec/content"
	"github.com/qrstudio/qrstudio-core/pkg/codec/tlv"
)

type Kind string

const (
	KindURL          Kind = "url"
	KindText         Kind = "text"
	KindVCard        Kind = "vcard"
	KindWifi         Kind = "wifi"
	KindUnrecognized Kind = "unrecognized"
)

const (
	vcardPrefix = "BEGIN:VCARD"
	vcardEnd    = "END:VCARD"
	wifiPrefix  = "WIFI:"
	wifiEnd     = ";;"
	// EMVCo payload format indicator, tag 00 with value 01.
	emvcoPrefix = "000201"
)

// Result is the outcome of Classify. Contact is set for KindVCard and
// Wifi for KindWifi.
type Result struct {
	Contact *content.ContactCard    `json:"contact,omitempty"`
	Wifi    *content.WifiCredential `json:"wifi,omitempty"`
	Kind    Kind                    `json:"kind"`
	Raw     string                  `json:"raw"`
}

// Classify inspects raw and returns its kind with any parsed fields.
func Classify(raw string) Result {
	res := Result{Kind: KindText, Raw: raw}

	switch {
	case !utf8.ValidString(raw) || strings.TrimSpace(raw) == "":
		res.Kind = KindUnrecognized
	case strings.HasPrefix(raw, vcardPrefix):
		card := parseVCard(raw)
		res.Kind = KindVCard
		res.Contact = &card
	case strings.HasPrefix(raw, wifiPrefix):
		wifi := parseWifi(raw)
		res.Kind = KindWifi
		res.Wifi = &wifi
	case isEMVCo(raw):
		// payment payloads are not mapped back to a transfer
		res.Kind = KindUnrecognized
	case codec.IsAbsoluteURL(raw) && !strings.ContainsFunc(raw, unicode.IsSpace):
		res.Kind = KindURL
	}

	return res
}

func parseVCard(raw string) content.ContactCard {
	var card content.ContactCard
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == vcardEnd {
			break
		}
		if v, ok := strings.CutPrefix(line, "FN:"); ok {
			card.Name = v
		} else if v, ok := strings.CutPrefix(line, "TEL:"); ok {
			card.Phone = v
		} else if v, ok := strings.CutPrefix(line, "EMAIL:"); ok {
			card.Email = v
		} else if v, ok := strings.CutPrefix(line, "ORG:"); ok {
			card.Organization = v
		}
	}
	return card
}

func parseWifi(raw string) content.WifiCredential {
	var wifi content.WifiCredential
	body := strings.TrimPrefix(raw, wifiPrefix)
	if i := strings.Index(body, wifiEnd); i >= 0 {
		body = body[:i]
	}
	for _, part := range strings.Split(body, ";") {
		key, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		switch key {
		case "T":
			wifi.Security = content.Security(value)
		case "S":
			wifi.SSID = value
		case "P":
			wifi.Password = value
		}
	}
	return wifi
}

func isEMVCo(raw string) bool {
	if !strings.HasPrefix(raw, emvcoPrefix) {
		return false
	}
	_, err := tlv.Decode(raw)
	return err == nil
}
