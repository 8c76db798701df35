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
	"github.com/qrstudio/qrstudio-core/pkg/api/models"
	"github.com/qrstudio/qrstudio-core/pkg/api/models/requests"
	"github.com/qrstudio/qrstudio-core/pkg/service/state"
)

func HandleReaders(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	rs := env.State.ListReaders()
	resp := models.ReadersResponse{
		Readers: make([]models.ReaderResponse, 0, len(rs)),
	}
	for _, r := range rs {
		resp.Readers = append(resp.Readers, state.ReaderInfo(r))
	}
	return resp, nil
}
