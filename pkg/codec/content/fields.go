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
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/qrstudio/qrstudio-core/pkg/codec"
	"github.com/qrstudio/qrstudio-core/pkg/codec/promptpay"
)

// FromFields builds a payload of the given kind from loosely typed key/value
// input, as collected by the CLI and the API. Unknown keys are rejected.
// Wi-Fi security defaults to WPA.
func FromFields(kind Kind, fields map[string]string) (Payload, error) {
	switch kind {
	case KindURL:
		return decodeAs(fields, URL{})
	case KindText:
		return decodeAs(fields, PlainText{})
	case KindContact:
		return decodeAs(fields, ContactCard{})
	case KindWifi:
		return decodeAs(fields, WifiCredential{Security: SecurityWPA})
	case KindPromptPay:
		var raw struct {
			Identifier string `mapstructure:"identifier"`
			Amount     string `mapstructure:"amount"`
		}
		if err := decodeFields(fields, &raw); err != nil {
			return nil, err
		}
		amount, err := promptpay.ParseAmount(raw.Amount)
		if err != nil {
			return nil, err
		}
		return MerchantTransfer{Identifier: raw.Identifier, Amount: amount}, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", codec.ErrInvalidContent, kind)
	}
}

func decodeAs[T Payload](fields map[string]string, p T) (Payload, error) {
	if err := decodeFields(fields, &p); err != nil {
		return nil, err
	}
	return p, nil
}

func decodeFields(fields map[string]string, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      out,
	})
	if err != nil {
		return fmt.Errorf("failed to create field decoder: %w", err)
	}
	if err := dec.Decode(fields); err != nil {
		return fmt.Errorf("%w: %w", codec.ErrInvalidContent, err)
	}
	return nil
}

// ParseKind matches s against the known kinds, case-insensitively.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(s, string(k)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown kind %q", codec.ErrInvalidContent, s)
}
