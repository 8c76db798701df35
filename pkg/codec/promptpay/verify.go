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

package promptpay

import (
	"fmt"
	"strings"

	"github.com/qrstudio/qrstudio-core/pkg/codec"
	"github.com/qrstudio/qrstudio-core/pkg/codec/crc16"
	"github.com/qrstudio/qrstudio-core/pkg/codec/tlv"
	"github.com/shopspring/decimal"
)

// Info is what Inspect recovers from a payload.
type Info struct {
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Proxy     ProxyType        `json:"proxy"`
	Account   string           `json:"account"`
	Country   string           `json:"country"`
	Currency  string           `json:"currency"`
	Checksum  string           `json:"checksum"`
	Initiator string           `json:"initiation"`
}

// Verify checks the trailing checksum field of payload and that the rest of
// it is well formed TLV.
func Verify(payload string) error {
	const trailer = len(TagCRC) + len(crcLength) + 4
	if len(payload) < trailer {
		return fmt.Errorf("%w: payload too short", codec.ErrInvalidContent)
	}
	head := payload[len(payload)-trailer : len(payload)-4]
	if head != TagCRC+crcLength {
		return fmt.Errorf("%w: missing checksum field", codec.ErrInvalidContent)
	}
	got := payload[len(payload)-4:]
	want := crc16.Checksum(payload[:len(payload)-4])
	if !strings.EqualFold(got, want) {
		return fmt.Errorf("%w: checksum %s, computed %s", codec.ErrInvalidContent, got, want)
	}
	if _, err := tlv.Decode(payload); err != nil {
		return err
	}
	return nil
}

// Inspect verifies payload and extracts its PromptPay fields.
func Inspect(payload string) (Info, error) {
	if err := Verify(payload); err != nil {
		return Info{}, err
	}
	fields, err := tlv.Decode(payload)
	if err != nil {
		return Info{}, err
	}

	var info Info
	for _, f := range fields {
		switch f.Tag {
		case TagInitiation:
			info.Initiator = f.Value
		case TagMerchantAccount:
			inner, err := tlv.Decode(f.Value)
			if err != nil {
				return Info{}, err
			}
			if aid, ok := tlv.Find(inner, TagApplicationID); !ok || aid.Value != ApplicationID {
				return Info{}, fmt.Errorf("%w: not a PromptPay merchant account", codec.ErrInvalidContent)
			}
			for _, p := range []ProxyType{ProxyMobile, ProxyNationalID} {
				if acct, ok := tlv.Find(inner, string(p)); ok {
					info.Proxy = p
					info.Account = acct.Value
				}
			}
		case TagAmount:
			d, err := decimal.NewFromString(f.Value)
			if err != nil {
				return Info{}, fmt.Errorf("%w: amount %q", codec.ErrInvalidAmount, f.Value)
			}
			info.Amount = &d
		case TagCountry:
			info.Country = f.Value
		case TagCurrency:
			info.Currency = f.Value
		case TagCRC:
			info.Checksum = f.Value
		}
	}
	if info.Proxy == "" {
		return Info{}, fmt.Errorf("%w: missing merchant account", codec.ErrInvalidContent)
	}
	return info, nil
}
