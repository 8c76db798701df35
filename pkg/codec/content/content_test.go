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
	"strings"
	"testing"

	"github.com/qrstudio/qrstudio-core/pkg/codec"
	"github.com/qrstudio/qrstudio-core/pkg/codec/promptpay"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	t.Parallel()

	amount := decimal.RequireFromString("150.5")
	withAmount, err := promptpay.Build("0812345678", &amount)
	require.NoError(t, err)

	tests := []struct {
		payload Payload
		name    string
		want    string
	}{
		{
			name:    "url",
			payload: URL{Text: "https://example.com"},
			want:    "https://example.com",
		},
		{
			name:    "text",
			payload: PlainText{Text: "สวัสดี hello"},
			want:    "สวัสดี hello",
		},
		{
			name:    "wifi",
			payload: WifiCredential{SSID: "Home", Password: "secret1", Security: SecurityWPA},
			want:    "WIFI:T:WPA;S:Home;P:secret1;;",
		},
		{
			name:    "open wifi",
			payload: WifiCredential{SSID: "Cafe", Security: SecurityNoPass},
			want:    "WIFI:T:nopass;S:Cafe;P:;;",
		},
		{
			name: "contact",
			payload: ContactCard{
				Name:         "Somchai Jaidee",
				Phone:        "0812345678",
				Email:        "somchai@example.com",
				Organization: "Acme",
			},
			want: "BEGIN:VCARD\nVERSION:3.0\nFN:Somchai Jaidee\nTEL:0812345678\n" +
				"EMAIL:somchai@example.com\nORG:Acme\nEND:VCARD",
		},
		{
			name:    "contact name only",
			payload: ContactCard{Name: "Ann"},
			want:    "BEGIN:VCARD\nVERSION:3.0\nFN:Ann\nTEL:\nEMAIL:\nORG:\nEND:VCARD",
		},
		{
			name:    "promptpay",
			payload: MerchantTransfer{Identifier: "0812345678", Amount: &amount},
			want:    withAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Encode(tt.payload)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncode_ValidationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		payload Payload
		name    string
	}{
		{name: "nil payload", payload: nil},
		{name: "empty url", payload: URL{}},
		{name: "blank text", payload: PlainText{Text: "   "}},
		{name: "contact without name", payload: ContactCard{Phone: "0812345678"}},
		{name: "wifi without ssid", payload: WifiCredential{Security: SecurityWEP}},
		{name: "wifi bad security", payload: WifiCredential{SSID: "Home", Security: "WPA2"}},
		{name: "short identifier", payload: MerchantTransfer{Identifier: "1234567"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Encode(tt.payload)
			require.ErrorIs(t, err, codec.ErrValidation)
			assert.Empty(t, got)
		})
	}
}

func TestEncode_SpecificErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		payload Payload
		want    error
		name    string
	}{
		{name: "seven digit identifier", payload: MerchantTransfer{Identifier: "1234567"}, want: codec.ErrInvalidIdentifier},
		{name: "missing identifier", payload: MerchantTransfer{}, want: codec.ErrInvalidIdentifier},
		{name: "letters in identifier", payload: MerchantTransfer{Identifier: "08123456ab"}, want: codec.ErrInvalidIdentifier},
		{name: "blank text", payload: PlainText{Text: "   "}, want: codec.ErrEmptyContent},
		{name: "empty url", payload: URL{}, want: codec.ErrEmptyContent},
		{name: "nil payload", payload: nil, want: codec.ErrEmptyContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Encode(tt.payload)
			require.ErrorIs(t, err, tt.want)
			require.ErrorIs(t, err, codec.ErrValidation)
		})
	}
}

func TestEncode_WifiSecurityIsNotEmptyContent(t *testing.T) {
	t.Parallel()
	_, err := Encode(WifiCredential{SSID: "Home", Security: "WPA2"})
	require.ErrorIs(t, err, codec.ErrValidation)
	assert.NotErrorIs(t, err, codec.ErrEmptyContent)
}

type foreign struct{ URL }

func TestEncode_UnknownImplementation(t *testing.T) {
	t.Parallel()

	// embedding borrows the sealed method set but is not one of the five
	_, err := Encode(foreign{URL{Text: "https://example.com"}})
	require.ErrorIs(t, err, codec.ErrUnknownPayload)
	assert.Empty(t, Label(foreign{}))
	assert.Empty(t, Preview(foreign{}))
}

func TestPreviewAndLabel(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("ก", 60)
	amount := decimal.NewFromInt(20)

	tests := []struct {
		payload Payload
		preview string
		label   string
	}{
		{payload: URL{Text: "https://example.com"}, preview: "https://example.com", label: LabelURL},
		{payload: PlainText{Text: "short"}, preview: "short", label: LabelText},
		{payload: PlainText{Text: long}, preview: strings.Repeat("ก", 50) + "...", label: LabelText},
		{payload: ContactCard{Name: "Ann"}, preview: "Contact: Ann", label: LabelContact},
		{payload: WifiCredential{SSID: "Home"}, preview: "WiFi: Home", label: LabelWifi},
		{
			payload: MerchantTransfer{Identifier: "0812345678", Amount: &amount},
			preview: "PromptPay: 0812345678 | 20.00 THB",
			label:   LabelPromptPay,
		},
		{
			payload: MerchantTransfer{Identifier: "0812345678"},
			preview: "PromptPay: 0812345678 | any amount THB",
			label:   LabelPromptPay,
		},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.preview, Preview(tt.payload))
		assert.Equal(t, tt.label, Label(tt.payload))
	}
}

func TestFromFields(t *testing.T) {
	t.Parallel()

	p, err := FromFields(KindWifi, map[string]string{"ssid": "Home", "password": "secret1"})
	require.NoError(t, err)
	assert.Equal(t, WifiCredential{SSID: "Home", Password: "secret1", Security: SecurityWPA}, p)

	p, err = FromFields(KindContact, map[string]string{"name": "Ann", "organization": "Acme"})
	require.NoError(t, err)
	assert.Equal(t, ContactCard{Name: "Ann", Organization: "Acme"}, p)

	p, err = FromFields(KindPromptPay, map[string]string{"identifier": "0812345678", "amount": "5"})
	require.NoError(t, err)
	mt, ok := p.(MerchantTransfer)
	require.True(t, ok)
	require.NotNil(t, mt.Amount)
	assert.Equal(t, "5.00", promptpay.FormatAmount(*mt.Amount))

	p, err = FromFields(KindPromptPay, map[string]string{"identifier": "0812345678"})
	require.NoError(t, err)
	assert.Nil(t, p.(MerchantTransfer).Amount)
}

func TestFromFields_Errors(t *testing.T) {
	t.Parallel()

	_, err := FromFields(KindURL, map[string]string{"link": "https://example.com"})
	require.ErrorIs(t, err, codec.ErrInvalidContent)

	_, err = FromFields(KindPromptPay, map[string]string{"identifier": "0812345678", "amount": "abc"})
	require.ErrorIs(t, err, codec.ErrInvalidAmount)

	_, err = FromFields("barcode", nil)
	require.ErrorIs(t, err, codec.ErrValidation)
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	k, err := ParseKind("WiFi")
	require.NoError(t, err)
	assert.Equal(t, KindWifi, k)

	_, err = ParseKind("sms")
	require.Error(t, err)
}
