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
	"bytes"
	"fmt"
	"strings"

	"github.com/qrstudio/qrstudio-core/pkg/api/models"
	"github.com/qrstudio/qrstudio-core/pkg/api/models/requests"
	"github.com/qrstudio/qrstudio-core/pkg/codec/content"
	"github.com/qrstudio/qrstudio-core/pkg/codec/promptpay"
	"github.com/qrstudio/qrstudio-core/pkg/database"
	"github.com/qrstudio/qrstudio-core/pkg/service/codes"
	"github.com/qrstudio/qrstudio-core/pkg/validation"
	"github.com/rs/zerolog/log"
)

func codeResponse(c codes.Created) models.CodeResponse {
	resp := models.CodeResponse{
		Payload: c.Payload,
		Kind:    string(c.Kind),
		Label:   c.Label,
		Preview: c.Preview,
		Tracked: c.Tracked,
	}
	if c.Record != nil {
		id := c.Record.ID
		resp.ID = &id
	}
	return resp
}

//nolint:gocritic // single-use parameter in API handler
func HandleCodesCreate(env requests.RequestEnv) (any, error) {
	var params models.CreateParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	kind, err := content.ParseKind(params.Kind)
	if err != nil {
		return nil, err
	}
	p, err := content.FromFields(kind, params.Fields)
	if err != nil {
		return nil, err
	}

	log.Info().Str("kind", string(kind)).Bool("track", params.Track).Msg("creating code")
	created, err := env.Codes.Create(env.Context, p, params.Track)
	if err != nil {
		return nil, err
	}
	return codeResponse(created), nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleCodesPromptPay(env requests.RequestEnv) (any, error) {
	var params models.PromptPayParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	transfer := content.MerchantTransfer{Identifier: params.Identifier}
	if params.Amount != nil {
		amount, err := promptpay.ParseAmount(*params.Amount)
		if err != nil {
			return nil, err
		}
		transfer.Amount = amount
	}

	created, err := env.Codes.Create(env.Context, transfer, false)
	if err != nil {
		return nil, err
	}
	return codeResponse(created), nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleCodesGet(env requests.RequestEnv) (any, error) {
	var params models.CodeIDParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	rec, err := env.Codes.Get(env.Context, params.ID)
	if err != nil {
		return nil, err
	}
	return codes.RecordResponse(&rec), nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleCodesDelete(env requests.RequestEnv) (any, error) {
	var params models.CodeIDParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if err := env.Codes.Delete(env.Context, params.ID); err != nil {
		return nil, err
	}
	return NoContent{}, nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleCodesList(env requests.RequestEnv) (any, error) {
	var params models.ListParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	category, _ := database.ParseCategory(params.Category)

	search := ""
	if params.Search != nil {
		search = strings.TrimSpace(*params.Search)
	}
	list, err := env.Codes.List(env.Context, category, search)
	if err != nil {
		return nil, err
	}
	today, err := env.Codes.CreatedToday(env.Context, category)
	if err != nil {
		return nil, err
	}

	resp := models.CodesResponse{
		Codes:        make([]models.CodeRecordResponse, 0, len(list)),
		CreatedToday: today,
	}
	for i := range list {
		resp.Codes = append(resp.Codes, codes.RecordResponse(&list[i]))
	}
	return resp, nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleCodesStats(env requests.RequestEnv) (any, error) {
	var params models.CodeIDParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	st, err := env.Codes.Stats(env.Context, params.ID)
	if err != nil {
		return nil, err
	}

	resp := models.CodeStatsResponse{
		Code:  codes.RecordResponse(&st.Code),
		Total: st.Total,
		Daily: make([]models.DailyScans, 0, len(st.Daily)),
	}
	for _, d := range st.Daily {
		resp.Daily = append(resp.Daily, models.DailyScans{Day: d.Day, Scans: d.Scans})
	}
	return resp, nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleCodesExport(env requests.RequestEnv) (any, error) {
	var params models.ListParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	category, _ := database.ParseCategory(params.Category)

	var buf bytes.Buffer
	if err := env.Codes.ExportCSV(env.Context, category, &buf); err != nil {
		return nil, err
	}
	return models.ExportResponse{CSV: buf.String()}, nil
}
