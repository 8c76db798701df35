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

// Package promptpay builds Thai PromptPay payloads following the EMVCo
// merchant-presented QR layout. Field order is fixed; banking apps reject
// anything else.
package promptpay

import (
	"fmt"
	"strings"

	"github.com/qrstudio/qrstudio-core/pkg/codec"
	"github.com/qrstudio/qrstudio-core/pkg/codec/crc16"
	"github.com/qrstudio/qrstudio-core/pkg/codec/tlv"
	"github.com/shopspring/decimal"
)

const (
	TagPayloadFormat   = "00"
	TagInitiation      = "01"
	TagMerchantAccount = "29"
	TagAmount          = "54"
	TagCurrency        = "53"
	TagCountry         = "58"
	TagCRC             = "63"

	// TagApplicationID is the inner tag of the merchant account template.
	TagApplicationID = "00"

	PayloadFormatVersion = "01"
	// InitiationStatic marks a reusable code.
	InitiationStatic = "12"
	ApplicationID    = "A000000677010111"
	CountryCode      = "TH"
	CurrencyTHB      = "764"

	mobileCountryPrefix = "66"
	crcLength           = "04"
	// EMVCo caps tag 54 at 13 characters.
	maxAmountLength = 13
)

// ProxyType is the inner tag distinguishing the kind of account identifier.
type ProxyType string

const (
	ProxyMobile     ProxyType = "01"
	ProxyNationalID ProxyType = "02"
)

func (p ProxyType) String() string {
	switch p {
	case ProxyMobile:
		return "mobile"
	case ProxyNationalID:
		return "national-id"
	default:
		return "unknown"
	}
}

// NormalizeIdentifier strips hyphens from id and classifies it. A 10 digit
// mobile number has its leading 0 replaced by the 66 country prefix; a 13
// digit national ID is returned unchanged.
func NormalizeIdentifier(id string) (ProxyType, string, error) {
	digits := strings.ReplaceAll(strings.TrimSpace(id), "-", "")
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", "", fmt.Errorf("%w: %q contains non-digit characters",
				codec.ErrInvalidIdentifier, id)
		}
	}

	switch len(digits) {
	case 10:
		if digits[0] != '0' {
			return "", "", fmt.Errorf("%w: mobile number %q must start with 0",
				codec.ErrInvalidIdentifier, id)
		}
		return ProxyMobile, mobileCountryPrefix + digits[1:], nil
	case 13:
		return ProxyNationalID, digits, nil
	default:
		return "", "", fmt.Errorf("%w: %q has %d digits, want 10 or 13",
			codec.ErrInvalidIdentifier, id, len(digits))
	}
}

// ParseAmount turns user input into an optional amount. Blank input means
// no amount. Anything unparsable, negative or too long for the amount
// field is rejected rather than silently dropped.
func ParseAmount(s string) (*decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil //nolint:nilnil // absent amount is not an error
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a number", codec.ErrInvalidAmount, s)
	}
	if err := checkAmount(d); err != nil {
		return nil, err
	}
	return &d, nil
}

func checkAmount(d decimal.Decimal) error {
	if d.IsNegative() {
		return fmt.Errorf("%w: %s is negative", codec.ErrInvalidAmount, d)
	}
	if s := FormatAmount(d); len(s) > maxAmountLength {
		return fmt.Errorf("%w: %s exceeds %d characters", codec.ErrInvalidAmount, s, maxAmountLength)
	}
	return nil
}

// FormatAmount renders d with exactly two decimal places.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Build returns the complete payload for identifier, with the amount field
// present only when amount is non-nil.
func Build(identifier string, amount *decimal.Decimal) (string, error) {
	proxy, account, err := NormalizeIdentifier(identifier)
	if err != nil {
		return "", err
	}

	var fields []string
	add := func(tag, value string) {
		if err != nil {
			return
		}
		var f string
		f, err = tlv.Encode(tag, value)
		fields = append(fields, f)
	}

	merchant, err := merchantAccount(proxy, account)
	if err != nil {
		return "", err
	}

	add(TagPayloadFormat, PayloadFormatVersion)
	add(TagInitiation, InitiationStatic)
	add(TagMerchantAccount, merchant)
	if amount != nil {
		if err := checkAmount(*amount); err != nil {
			return "", err
		}
		add(TagAmount, FormatAmount(*amount))
	}
	add(TagCountry, CountryCode)
	add(TagCurrency, CurrencyTHB)
	if err != nil {
		return "", err
	}

	body := tlv.Compose(fields...) + TagCRC + crcLength
	return body + crc16.Checksum(body), nil
}

func merchantAccount(proxy ProxyType, account string) (string, error) {
	aid, err := tlv.Encode(TagApplicationID, ApplicationID)
	if err != nil {
		return "", err
	}
	acct, err := tlv.Encode(string(proxy), account)
	if err != nil {
		return "", err
	}
	return tlv.Compose(aid, acct), nil
}
