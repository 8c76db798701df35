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

package content

import (
	"fmt"
	"unicode/utf8"

	"github.com/qrstudio/qrstudio-core/pkg/codec/promptpay"
)

// Type labels stored with each record.
const (
	LabelURL        = "URL"
	LabelTrackedURL = "Tracked URL"
	LabelText       = "Text"
	LabelContact    = "Contact"
	LabelWifi       = "WiFi"
	LabelPromptPay  = "PromptPay"
	LabelScanned    = "Scanned Data"
)

const previewLength = 50

// Truncate shortens s to the preview length, appending "..." when cut.
func Truncate(s string) string {
	if utf8.RuneCountInString(s) <= previewLength {
		return s
	}
	return string([]rune(s)[:previewLength]) + "..."
}

// Label returns the record type label for p.
func Label(p Payload) string {
	switch p.(type) {
	case URL:
		return LabelURL
	case PlainText:
		return LabelText
	case ContactCard:
		return LabelContact
	case WifiCredential:
		return LabelWifi
	case MerchantTransfer:
		return LabelPromptPay
	default:
		return ""
	}
}

// Preview returns the short description shown in history listings.
func Preview(p Payload) string {
	switch v := p.(type) {
	case URL:
		return v.Text
	case PlainText:
		return Truncate(v.Text)
	case ContactCard:
		return "Contact: " + v.Name
	case WifiCredential:
		return "WiFi: " + v.SSID
	case MerchantTransfer:
		amount := "any amount"
		if v.Amount != nil {
			amount = promptpay.FormatAmount(*v.Amount)
		}
		return fmt.Sprintf("PromptPay: %s | %s THB", v.Identifier, amount)
	default:
		return ""
	}
}
