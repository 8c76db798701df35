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

// Package content models the five kinds of data a code can carry and
// serializes each into the literal string that gets rendered.
//
// Payload is a closed set: only the types in this package implement it,
// and every switch over it in the module handles all five cases.
package content

import (
	"fmt"
	"strings"

	"github.com/qrstudio/qrstudio-core/pkg/codec"
	"github.com/qrstudio/qrstudio-core/pkg/codec/promptpay"
	"github.com/qrstudio/qrstudio-core/pkg/validation"
	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindURL       Kind = "url"
	KindText      Kind = "text"
	KindContact   Kind = "contact"
	KindWifi      Kind = "wifi"
	KindPromptPay Kind = "promptpay"
)

// Kinds lists every kind in display order.
var Kinds = []Kind{KindURL, KindText, KindContact, KindWifi, KindPromptPay}

type Security string

const (
	SecurityWEP    Security = "WEP"
	SecurityWPA    Security = "WPA"
	SecurityNoPass Security = "nopass"
)

// Payload is implemented by URL, PlainText, ContactCard, WifiCredential and
// MerchantTransfer only.
type Payload interface {
	Kind() Kind
	payload()
}

type URL struct {
	Text string `json:"text" mapstructure:"text" validate:"notblank"`
}

type PlainText struct {
	Text string `json:"text" mapstructure:"text" validate:"notblank"`
}

type ContactCard struct {
	Name         string `json:"name" mapstructure:"name" validate:"notblank"`
	Phone        string `json:"phone,omitempty" mapstructure:"phone"`
	Email        string `json:"email,omitempty" mapstructure:"email"`
	Organization string `json:"organization,omitempty" mapstructure:"organization"`
}

type WifiCredential struct {
	SSID     string   `json:"ssid" mapstructure:"ssid" validate:"notblank"`
	Password string   `json:"password,omitempty" mapstructure:"password"`
	Security Security `json:"security" mapstructure:"security" validate:"oneof=WEP WPA nopass"`
}

type MerchantTransfer struct {
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	Identifier string           `json:"identifier" validate:"promptpayid"`
}

func (URL) Kind() Kind              { return KindURL }
func (PlainText) Kind() Kind        { return KindText }
func (ContactCard) Kind() Kind      { return KindContact }
func (WifiCredential) Kind() Kind   { return KindWifi }
func (MerchantTransfer) Kind() Kind { return KindPromptPay }

func (URL) payload()              {}
func (PlainText) payload()        {}
func (ContactCard) payload()      {}
func (WifiCredential) payload()   {}
func (MerchantTransfer) payload() {}

// Validate checks the required fields of p.
func Validate(p Payload) error {
	if p == nil {
		return codec.ErrEmptyContent
	}
	if err := validation.DefaultValidator.Validate(p); err != nil {
		return fmt.Errorf("%s content: %w", p.Kind(), err)
	}
	return nil
}

// Encode validates p and returns the string to render.
func Encode(p Payload) (string, error) {
	if err := Validate(p); err != nil {
		return "", err
	}
	switch v := p.(type) {
	case URL:
		return v.Text, nil
	case PlainText:
		return v.Text, nil
	case ContactCard:
		return v.VCard(), nil
	case WifiCredential:
		return v.WifiString(), nil
	case MerchantTransfer:
		return promptpay.Build(v.Identifier, v.Amount)
	default:
		return "", fmt.Errorf("%w: %T", codec.ErrUnknownPayload, p)
	}
}

// VCard renders c as a vCard 3.0 block. Empty optional fields are kept as
// empty lines so the layout is fixed.
func (c ContactCard) VCard() string {
	var sb strings.Builder
	sb.WriteString("BEGIN:VCARD\n")
	sb.WriteString("VERSION:3.0\n")
	sb.WriteString("FN:" + c.Name + "\n")
	sb.WriteString("TEL:" + c.Phone + "\n")
	sb.WriteString("EMAIL:" + c.Email + "\n")
	sb.WriteString("ORG:" + c.Organization + "\n")
	sb.WriteString("END:VCARD")
	return sb.String()
}

// WifiString renders w in the WIFI: join format. Values are not escaped.
func (w WifiCredential) WifiString() string {
	return "WIFI:T:" + string(w.Security) + ";S:" + w.SSID + ";P:" + w.Password + ";;"
}
