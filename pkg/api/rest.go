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

package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/qrstudio/qrstudio-core/pkg/api/methods"
	"github.com/qrstudio/qrstudio-core/pkg/codec"
	"github.com/qrstudio/qrstudio-core/pkg/database"
	"github.com/qrstudio/qrstudio-core/pkg/decode"
	"github.com/qrstudio/qrstudio-core/pkg/service/codes"
	"github.com/rs/zerolog/log"
)

func httpStatus(err error) int {
	switch {
	case codec.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, codes.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, database.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, decode.ErrNotFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, codec.ErrExternalIO):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeHTTPError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatus(err)
	ev := log.Warn()
	if status >= http.StatusInternalServerError {
		ev = log.Error()
	}
	ev.Err(err).Str("path", r.URL.Path).Int("status", status).Msg("request failed")

	msg := http.StatusText(status)
	if status < http.StatusInternalServerError {
		msg = err.Error()
	}
	http.Error(w, msg, status)
}

// handleTrack counts a scan of a tracked code and redirects to its
// destination. Destinations other than http and https are refused with 422.
// The scan is appended while the destination is still being read, so a
// refused or unknown code is counted like any other scan attempt.
func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	dest, err := s.svc.Tracker.Resolve(r.Context(), id)
	if err != nil {
		writeHTTPError(w, r, err)
		return
	}
	if !codec.IsWebURL(dest) {
		log.Warn().Str("id", id).Msg("refusing redirect to non-web destination")
		http.Error(w, "destination is not a web address", http.StatusUnprocessableEntity)
		return
	}
	http.Redirect(w, r, dest, http.StatusFound)
}

func (s *Server) handleCodeImage(w http.ResponseWriter, r *http.Request) {
	size := 0
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "size must be a positive integer", http.StatusBadRequest)
			return
		}
		size = n
	}

	img, err := s.svc.Codes.Render(r.Context(), chi.URLParam(r, "id"), size)
	if err != nil {
		writeHTTPError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(img)))
	if _, err := w.Write(img); err != nil {
		log.Error().Err(err).Msg("error writing image")
	}
}

// handleScan decodes an uploaded image and returns its classification.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestSize))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if len(body) == 0 {
		http.Error(w, "image body required", http.StatusBadRequest)
		return
	}

	scanned, err := s.svc.Codes.ScanImage(r.Context(), s.svc.Decoder, body)
	if err != nil {
		writeHTTPError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(methods.ScanResponse(scanned)); err != nil {
		log.Error().Err(err).Msg("error writing scan response")
	}
}

func (s *Server) handleHistoryCSV(w http.ResponseWriter, r *http.Request) {
	category, ok := database.ParseCategory(chi.URLParam(r, "category"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	var buf bytes.Buffer
	if err := s.svc.Codes.ExportCSV(r.Context(), category, &buf); err != nil {
		writeHTTPError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="qrstudio-`+string(category)+`.csv"`)
	if _, err := buf.WriteTo(w); err != nil {
		log.Error().Err(err).Msg("error writing csv export")
	}
}
