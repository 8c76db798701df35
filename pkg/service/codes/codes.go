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

// Package codes is the application service behind the API and CLI: it
// creates codes, saves them to the caller's history, and reads that history
// back.
package codes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/qrstudio/qrstudio-core/pkg/api/models"
	"github.com/qrstudio/qrstudio-core/pkg/api/notifications"
	"github.com/qrstudio/qrstudio-core/pkg/codec"
	"github.com/qrstudio/qrstudio-core/pkg/codec/classify"
	"github.com/qrstudio/qrstudio-core/pkg/codec/content"
	"github.com/qrstudio/qrstudio-core/pkg/config"
	"github.com/qrstudio/qrstudio-core/pkg/database"
	"github.com/qrstudio/qrstudio-core/pkg/decode"
	"github.com/qrstudio/qrstudio-core/pkg/identity"
	"github.com/qrstudio/qrstudio-core/pkg/render"
	"github.com/rs/zerolog/log"
)

// ErrUnauthenticated is returned by operations that need an actor when the
// context carries none.
var ErrUnauthenticated = errors.New("authentication required")

// Store is the part of the history store the service uses.
type Store interface {
	database.CodeStore
	ScanCountsByDay(id string) ([]database.DailyCount, error)
	CountCreatedSince(owner string, category database.Category, since time.Time) (int, error)
}

type Service struct {
	store    Store
	renderer render.Renderer
	cfg      *config.Instance
	clock    clockwork.Clock
	ns       chan<- models.Notification
}

func NewService(
	store Store,
	cfg *config.Instance,
	renderer render.Renderer,
	ns chan<- models.Notification,
	clock clockwork.Clock,
) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{store: store, cfg: cfg, renderer: renderer, ns: ns, clock: clock}
}

// Created is a generated code. Record is set when it was saved.
type Created struct {
	Record  *database.CodeRecord
	Payload string
	Kind    content.Kind
	Label   string
	Preview string
	Tracked bool
}

// Create encodes p. With an actor in ctx the result is also saved to the
// actor's history; a failed save is logged and the code still returned.
// A tracked code is always saved, so it needs an actor and fails with the
// store.
func (s *Service) Create(ctx context.Context, p content.Payload, track bool) (Created, error) {
	if err := content.Validate(p); err != nil {
		return Created{}, err
	}
	if track {
		return s.createTracked(ctx, p)
	}

	payload, err := content.Encode(p)
	if err != nil {
		return Created{}, fmt.Errorf("encode %s: %w", p.Kind(), err)
	}
	out := Created{
		Payload: payload,
		Kind:    p.Kind(),
		Label:   content.Label(p),
		Preview: content.Preview(p),
	}

	actor, ok := identity.FromContext(ctx)
	if !ok {
		return out, nil
	}
	rec := &database.CodeRecord{
		OwnerID:  actor.ID,
		Type:     out.Label,
		Data:     payload,
		Preview:  out.Preview,
		Category: database.CategoryCreated,
	}
	if err := s.store.Create(rec); err != nil {
		log.Warn().Err(err).Str("owner", actor.ID).Msg("failed to save created code")
		return out, nil
	}
	out.Record = rec
	notifications.CodesCreated(s.ns, RecordResponse(rec))
	return out, nil
}

func (s *Service) createTracked(ctx context.Context, p content.Payload) (Created, error) {
	u, ok := p.(content.URL)
	if !ok || !codec.IsWebURL(u.Text) {
		return Created{}, fmt.Errorf("%w: only http and https urls can be tracked", codec.ErrInvalidContent)
	}
	actor, ok := identity.FromContext(ctx)
	if !ok {
		return Created{}, ErrUnauthenticated
	}

	rec := &database.CodeRecord{
		ID:       uuid.NewString(),
		OwnerID:  actor.ID,
		Type:     content.LabelTrackedURL,
		Data:     u.Text,
		Preview:  content.Preview(u),
		Category: database.CategoryCreated,
	}
	if err := s.store.Create(rec); err != nil {
		return Created{}, fmt.Errorf("save tracked url: %w", err)
	}
	notifications.CodesCreated(s.ns, RecordResponse(rec))

	return Created{
		Record:  rec,
		Payload: s.TrackURL(rec.ID),
		Kind:    content.KindURL,
		Label:   content.LabelTrackedURL,
		Preview: rec.Preview,
		Tracked: true,
	}, nil
}

// TrackURL is the public redirect address for a tracked code.
func (s *Service) TrackURL(id string) string {
	return s.cfg.PublicURL() + "/track/" + id
}

// PayloadFor returns the string a stored record renders as.
func (s *Service) PayloadFor(rec *database.CodeRecord) string {
	if rec.Type == content.LabelTrackedURL {
		return s.TrackURL(rec.ID)
	}
	return rec.Data
}

func requireActor(ctx context.Context) (identity.Actor, error) {
	actor, ok := identity.FromContext(ctx)
	if !ok {
		return identity.Actor{}, ErrUnauthenticated
	}
	return actor, nil
}

// Get returns one of the actor's records. Records owned by someone else
// are reported as not found.
func (s *Service) Get(ctx context.Context, id string) (database.CodeRecord, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return database.CodeRecord{}, err
	}
	rec, err := s.store.Read(id)
	if err != nil {
		return database.CodeRecord{}, fmt.Errorf("get code: %w", err)
	}
	if rec.OwnerID != actor.ID {
		return database.CodeRecord{}, fmt.Errorf("get code %q: %w", id, database.ErrRecordNotFound)
	}
	return rec, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(id); err != nil {
		return fmt.Errorf("delete code: %w", err)
	}
	notifications.CodesDeleted(s.ns, id)
	return nil
}

// List returns the actor's records in category, newest first, filtered by
// a case-insensitive preview search when search is not empty.
func (s *Service) List(ctx context.Context, category database.Category, search string) ([]database.CodeRecord, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.store.ListByCategory(actor.ID, category, search)
	if err != nil {
		return nil, fmt.Errorf("list codes: %w", err)
	}
	return list, nil
}

// CreatedToday counts the actor's records in category since local
// midnight.
func (s *Service) CreatedToday(ctx context.Context, category database.Category) (int, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return 0, err
	}
	now := s.clock.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	n, err := s.store.CountCreatedSince(actor.ID, category, midnight)
	if err != nil {
		return 0, fmt.Errorf("count codes: %w", err)
	}
	return n, nil
}

type Stats struct {
	Daily []database.DailyCount
	Code  database.CodeRecord
	Total int
}

// Stats reports per-day scans of one of the actor's codes.
func (s *Service) Stats(ctx context.Context, id string) (Stats, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return Stats{}, err
	}
	daily, err := s.store.ScanCountsByDay(id)
	if err != nil {
		return Stats{}, fmt.Errorf("scan stats: %w", err)
	}
	st := Stats{Code: rec, Daily: daily}
	for _, d := range daily {
		st.Total += d.Scans
	}
	return st, nil
}

type exportRow struct {
	CreatedAt string `csv:"created_at"`
	ID        string `csv:"id"`
	Type      string `csv:"type"`
	Data      string `csv:"data"`
	Preview   string `csv:"preview"`
}

// ExportCSV writes the actor's records in category as CSV with a header
// row.
func (s *Service) ExportCSV(ctx context.Context, category database.Category, w io.Writer) error {
	list, err := s.List(ctx, category, "")
	if err != nil {
		return err
	}
	rows := make([]exportRow, 0, len(list))
	for i := range list {
		rows = append(rows, exportRow{
			CreatedAt: list[i].CreatedAt.UTC().Format(time.RFC3339),
			ID:        list[i].ID,
			Type:      list[i].Type,
			Data:      list[i].Data,
			Preview:   list[i].Preview,
		})
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// Render draws one of the actor's stored codes as a PNG of the configured
// size nearest to size.
func (s *Service) Render(ctx context.Context, id string, size int) ([]byte, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	img, err := s.renderer.Render(s.PayloadFor(&rec), s.cfg.RenderSize(size))
	if err != nil {
		return nil, fmt.Errorf("render code: %w", err)
	}
	return img, nil
}

// Scanned is a classified scan. Record is set when it was saved.
type Scanned struct {
	Record *database.CodeRecord
	classify.Result
}

// Scan classifies text read from a code and, with an actor in ctx, saves it
// to the actor's scanned history.
func (s *Service) Scan(ctx context.Context, raw string) Scanned {
	out := Scanned{Result: classify.Classify(raw)}

	actor, ok := identity.FromContext(ctx)
	if !ok || strings.TrimSpace(raw) == "" {
		return out
	}
	rec := &database.CodeRecord{
		OwnerID:  actor.ID,
		Type:     content.LabelScanned,
		Data:     raw,
		Preview:  content.Truncate(raw),
		Category: database.CategoryScanned,
	}
	if err := s.store.Create(rec); err != nil {
		log.Warn().Err(err).Str("owner", actor.ID).Msg("failed to save scanned code")
		return out
	}
	out.Record = rec
	notifications.CodesCreated(s.ns, RecordResponse(rec))
	return out
}

// ScanImage decodes img with d and passes the text to Scan.
func (s *Service) ScanImage(ctx context.Context, d decode.Decoder, img []byte) (Scanned, error) {
	text, err := d.Decode(ctx, img)
	if err != nil {
		return Scanned{}, fmt.Errorf("scan image: %w", err)
	}
	return s.Scan(ctx, text), nil
}

// RecordResponse converts a stored record to its API form.
func RecordResponse(rec *database.CodeRecord) models.CodeRecordResponse {
	return models.CodeRecordResponse{
		CreatedAt: rec.CreatedAt,
		ID:        rec.ID,
		Type:      rec.Type,
		Data:      rec.Data,
		Preview:   rec.Preview,
		Category:  string(rec.Category),
	}
}
