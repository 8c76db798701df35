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

// CreateParams carries a content kind and its fields, the same key=value
// pairs the CLI -encode flag accepts.
type CreateParams struct {
	Fields map[string]string `json:"fields" validate:"required"`
	Kind   string            `json:"kind" validate:"required,oneof=url text contact wifi promptpay"`
	Track  bool              `json:"track"`
}

type PromptPayParams struct {
	Amount     *string `json:"amount,omitempty" validate:"omitempty,amount"`
	Identifier string  `json:"identifier" validate:"required,promptpayid"`
}

type CodeIDParams struct {
	ID string `json:"id" validate:"required,uuid"`
}

type ListParams struct {
	Search   *string `json:"search,omitempty"`
	Category string  `json:"category" validate:"required,oneof=created scanned"`
}

type DecodeParams struct {
	// Image is base64 in JSON.
	Image []byte `json:"image" validate:"required"`
}

type ClassifyParams struct {
	Text string `json:"text" validate:"required"`
}
