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

package methods

import (
	"fmt"

	"github.com/qrstudio/qrstudio-core/pkg/api/models"
	"github.com/qrstudio/qrstudio-core/pkg/api/models/requests"
	"github.com/qrstudio/qrstudio-core/pkg/codec/content"
	"github.com/qrstudio/qrstudio-core/pkg/service/codes"
	"github.com/qrstudio/qrstudio-core/pkg/validation"
	"github.com/rs/zerolog/log"
)

// ScanResponse converts a classified scan to its API form.
func ScanResponse(s codes.Scanned) models.ScanResponse {
	resp := models.ScanResponse{
		Kind:    string(s.Kind),
		Raw:     s.Raw,
		Label:   content.LabelScanned,
		Preview: content.Truncate(s.Raw),
	}
	if s.Record != nil {
		id := s.Record.ID
		resp.ID = &id
	}
	if s.Contact != nil {
		resp.Contact = &models.ContactResponse{
			Name:         s.Contact.Name,
			Phone:        s.Contact.Phone,
			Email:        s.Contact.Email,
			Organization: s.Contact.Organization,
		}
	}
	if s.Wifi != nil {
		resp.Wifi = &models.WifiResponse{
			SSID:     s.Wifi.SSID,
			Password: s.Wifi.Password,
			Security: string(s.Wifi.Security),
		}
	}
	return resp
}

//nolint:gocritic // single-use parameter in API handler
func HandleScanDecode(env requests.RequestEnv) (any, error) {
	var params models.DecodeParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	log.Debug().Int("bytes", len(params.Image)).Msg("decoding scan image")
	scanned, err := env.Codes.ScanImage(env.Context, env.Decoder, params.Image)
	if err != nil {
		return nil, err
	}
	return ScanResponse(scanned), nil
}

// HandleScanClassify classifies text read by an external scanner and
// saves it like a decoded image.
//
//nolint:gocritic // single-use parameter in API handler
func HandleScanClassify(env requests.RequestEnv) (any, error) {
	var params models.ClassifyParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	return ScanResponse(env.Codes.Scan(env.Context, params.Text)), nil
}
