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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"
	"github.com/olahol/melody"
	"github.com/qrstudio/qrstudio-core/pkg/api/methods"
	"github.com/qrstudio/qrstudio-core/pkg/api/middleware"
	"github.com/qrstudio/qrstudio-core/pkg/api/models"
	"github.com/qrstudio/qrstudio-core/pkg/api/models/requests"
	"github.com/qrstudio/qrstudio-core/pkg/codec"
	"github.com/qrstudio/qrstudio-core/pkg/config"
	"github.com/qrstudio/qrstudio-core/pkg/database"
	"github.com/qrstudio/qrstudio-core/pkg/decode"
	"github.com/qrstudio/qrstudio-core/pkg/helpers/syncutil"
	"github.com/qrstudio/qrstudio-core/pkg/identity"
	"github.com/qrstudio/qrstudio-core/pkg/service/codes"
	"github.com/qrstudio/qrstudio-core/pkg/service/state"
	"github.com/qrstudio/qrstudio-core/pkg/tracker"
	"github.com/rs/zerolog/log"
)

const (
	// maxRequestSize bounds POST bodies and websocket messages. Decode
	// requests carry whole images.
	maxRequestSize = 8 << 20
	// maxLoggedChars bounds large string fields in debug logs.
	maxLoggedChars = 100

	sessionKeyActor   = "actor"
	sessionKeyDecoder = "decoder"

	shutdownTimeout = 5 * time.Second
)

var (
	JSONRPCErrorParseError = models.ErrorObject{
		Code:    -32700,
		Message: "Parse error",
	}
	JSONRPCErrorInvalidRequest = models.ErrorObject{
		Code:    -32600,
		Message: "Invalid Request",
	}
	JSONRPCErrorMethodNotFound = models.ErrorObject{
		Code:    -32601,
		Message: "Method not found",
	}
)

var ErrMethodExists = errors.New("method already registered")

type MethodFunc func(requests.RequestEnv) (any, error)

// MethodMap is the registry of JSON-RPC methods. Names are case-insensitive.
type MethodMap struct {
	methods map[string]MethodFunc
	mu      syncutil.RWMutex
}

// NewMethodMap returns a registry holding every built-in method.
func NewMethodMap() *MethodMap {
	m := &MethodMap{methods: make(map[string]MethodFunc)}
	defaults := map[string]MethodFunc{
		models.MethodVersion:        methods.HandleVersion,
		models.MethodCodesCreate:    methods.HandleCodesCreate,
		models.MethodCodesPromptPay: methods.HandleCodesPromptPay,
		models.MethodCodesGet:       methods.HandleCodesGet,
		models.MethodCodesDelete:    methods.HandleCodesDelete,
		models.MethodCodesList:      methods.HandleCodesList,
		models.MethodCodesStats:     methods.HandleCodesStats,
		models.MethodCodesExport:    methods.HandleCodesExport,
		models.MethodScanDecode:     methods.HandleScanDecode,
		models.MethodScanClassify:   methods.HandleScanClassify,
		models.MethodReaders:        methods.HandleReaders,
	}
	for name, fn := range defaults {
		m.methods[name] = fn
	}
	return m
}

func (m *MethodMap) AddMethod(name string, fn MethodFunc) error {
	name = strings.ToLower(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.methods[name]; ok {
		return fmt.Errorf("%w: %s", ErrMethodExists, name)
	}
	m.methods[name] = fn
	return nil
}

func (m *MethodMap) GetMethod(name string) (MethodFunc, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fn, ok := m.methods[strings.ToLower(name)]
	return fn, ok
}

func (m *MethodMap) ListMethods() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.methods))
	for name := range m.methods {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Services are the domain handlers the API exposes.
type Services struct {
	Codes    *codes.Service
	Tracker  *tracker.Aggregator
	Decoder  decode.Decoder
	Identity identity.Provider
}

type Server struct {
	cfg     *config.Instance
	st      *state.State
	svc     Services
	methods *MethodMap
	limiter *middleware.IPRateLimiter
	melody  *melody.Melody
}

func NewServer(cfg *config.Instance, st *state.State, svc Services, clock clockwork.Clock) *Server {
	if svc.Identity == nil {
		svc.Identity = identity.NewConfigProvider()
	}
	m := melody.New()
	m.Config.MaxMessageSize = maxRequestSize
	m.Upgrader.CheckOrigin = func(_ *http.Request) bool { return true }

	s := &Server{
		cfg:     cfg,
		st:      st,
		svc:     svc,
		methods: NewMethodMap(),
		limiter: middleware.NewIPRateLimiter(clock),
		melody:  m,
	}
	m.HandleConnect(s.handleWSConnect)
	m.HandleDisconnect(s.handleWSDisconnect)
	m.HandleMessage(middleware.WebSocketRateLimitHandler(s.limiter, s.handleWSMessage))
	return s
}

// Methods exposes the registry so callers can add methods before Start.
func (s *Server) Methods() *MethodMap {
	return s.methods
}

func errorObject(err error) models.ErrorObject {
	switch {
	case codec.IsValidation(err):
		return models.ErrorObject{Code: -32602, Message: err.Error()}
	case errors.Is(err, codes.ErrUnauthenticated),
		errors.Is(err, database.ErrRecordNotFound),
		errors.Is(err, decode.ErrNotFound),
		errors.Is(err, decode.ErrSuperseded):
		return models.ErrorObject{Code: -32000, Message: err.Error()}
	default:
		log.Error().Err(err).Msg("method failed")
		return models.ErrorObject{Code: -32603, Message: err.Error()}
	}
}

func logSafeRequest(req models.RequestObject) {
	if strings.EqualFold(req.Method, models.MethodScanDecode) {
		log.Debug().Str("method", req.Method).Msg("received scan decode request")
		return
	}
	log.Debug().Interface("request", req).Msg("received request")
}

func truncateForLog(s string) string {
	if len(s) <= maxLoggedChars {
		return s
	}
	return fmt.Sprintf("%s... (truncated, %d more chars)", s[:maxLoggedChars], len(s)-maxLoggedChars)
}

func logSafeResponse(result any) {
	if export, ok := result.(models.ExportResponse); ok && len(export.CSV) > maxLoggedChars {
		log.Debug().Str("csv", truncateForLog(export.CSV)).Msg("sending response")
		return
	}
	log.Debug().Interface("result", result).Msg("sending response")
}

func encodeError(id models.RPCID, eo models.ErrorObject) []byte {
	log.Debug().Int("code", eo.Code).Str("message", eo.Message).Msg("sending error")
	data, err := json.Marshal(models.ResponseErrorObject{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &eo,
	})
	if err != nil {
		log.Error().Err(err).Msg("error marshalling error response")
		return nil
	}
	return data
}

func encodeResult(id models.RPCID, result any) []byte {
	logSafeResponse(result)
	data, err := json.Marshal(models.ResponseObject{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	})
	if err != nil {
		log.Error().Err(err).Msg("error marshalling response")
		return encodeError(id, models.ErrorObject{Code: -32603, Message: "Internal error"})
	}
	return data
}

// handleMessage runs one JSON-RPC message against env and returns the
// encoded reply, or nil when none is due.
//
//nolint:gocritic // env is copied per request
func (s *Server) handleMessage(env requests.RequestEnv, msg []byte) []byte {
	if !json.Valid(msg) {
		log.Warn().Msg("data not valid json")
		return encodeError(models.NullRPCID, JSONRPCErrorParseError)
	}

	var req models.RequestObject
	if err := json.Unmarshal(msg, &req); err != nil {
		log.Warn().Err(err).Msg("message is not a request object")
		return encodeError(models.NullRPCID, JSONRPCErrorInvalidRequest)
	}

	// a null id unmarshals to a nil pointer, so presence is probed
	// separately from the value
	var probe struct {
		ID     json.RawMessage `json:"id"`
		Result json.RawMessage `json:"result"`
		Error  json.RawMessage `json:"error"`
	}
	_ = json.Unmarshal(msg, &probe)
	hasID := len(probe.ID) > 0

	id := models.NullRPCID
	if !req.ID.IsAbsent() {
		id = *req.ID
	}

	if req.JSONRPC != "2.0" {
		log.Warn().Str("jsonrpc", req.JSONRPC).Msg("unsupported payload version")
		return encodeError(id, JSONRPCErrorInvalidRequest)
	}

	if req.Method == "" {
		if hasID && (len(probe.Result) > 0 || len(probe.Error) > 0) {
			log.Debug().Str("id", id.String()).Msg("received response, ignoring")
			return nil
		}
		return encodeError(id, JSONRPCErrorInvalidRequest)
	}

	if !hasID {
		log.Info().Str("method", req.Method).Msg("received notification, ignoring")
		return nil
	}

	logSafeRequest(req)

	fn, ok := s.methods.GetMethod(req.Method)
	if !ok {
		log.Warn().Str("method", req.Method).Msg("unknown method")
		return encodeError(id, JSONRPCErrorMethodNotFound)
	}

	env.ID = id
	env.Params = req.Params
	result, err := fn(env)
	if err != nil {
		return encodeError(id, errorObject(err))
	}
	return encodeResult(id, result)
}

func (s *Server) newEnv(ctx context.Context, remoteAddr string, d decode.Decoder) requests.RequestEnv {
	if d == nil {
		d = s.svc.Decoder
	}
	return requests.RequestEnv{
		Context: ctx,
		Config:  s.cfg,
		State:   s.st,
		Codes:   s.svc.Codes,
		Decoder: d,
		IsLocal: middleware.IsLoopbackAddr(remoteAddr),
	}
}

func (s *Server) handleWSConnect(session *melody.Session) {
	if actor, ok := identity.FromContext(session.Request.Context()); ok {
		session.Set(sessionKeyActor, actor)
	}
	if s.svc.Decoder != nil {
		session.Set(sessionKeyDecoder, decode.NewSession(s.svc.Decoder))
	}
	log.Debug().Str("addr", session.Request.RemoteAddr).Msg("websocket client connected")
}

func (s *Server) handleWSDisconnect(session *melody.Session) {
	if v, ok := session.Get(sessionKeyDecoder); ok {
		if ds, ok := v.(*decode.Session); ok {
			ds.Close()
		}
	}
	log.Debug().Str("addr", session.Request.RemoteAddr).Msg("websocket client disconnected")
}

func (s *Server) handleWSMessage(session *melody.Session, msg []byte) {
	// heartbeat
	if bytes.Equal(msg, []byte("ping")) {
		if err := session.Write([]byte("pong")); err != nil {
			log.Error().Err(err).Msg("sending pong")
		}
		return
	}

	// the upgrade request context dies with its timeout, so calls run
	// under the service context
	ctx, cancel := context.WithTimeout(s.st.GetContext(), config.APIRequestTimeout)
	defer cancel()
	if v, ok := session.Get(sessionKeyActor); ok {
		if actor, ok := v.(identity.Actor); ok {
			ctx = identity.WithActor(ctx, actor)
		}
	}

	var d decode.Decoder
	if v, ok := session.Get(sessionKeyDecoder); ok {
		if ds, ok := v.(*decode.Session); ok {
			d = ds
		}
	}

	reply := s.handleMessage(s.newEnv(ctx, session.Request.RemoteAddr, d), msg)
	if reply == nil {
		return
	}
	if err := session.Write(reply); err != nil {
		log.Error().Err(err).Msg("error sending response")
	}
}

// handlePostRequest serves JSON-RPC over plain HTTP. JSON-RPC errors are
// reported in the body with status 200.
func (s *Server) handlePostRequest(w http.ResponseWriter, r *http.Request) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestSize))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		log.Error().Err(err).Msg("error reading request body")
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	reply := s.handleMessage(s.newEnv(r.Context(), r.RemoteAddr, nil), body)
	if reply == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(reply); err != nil {
		log.Error().Err(err).Msg("error writing response")
	}
}

// broadcastNotifications sends every notification to all websocket
// clients. Broadcasts run in their own goroutine so a slow client never
// holds up the notification channel.
func broadcastNotifications(ctx context.Context, m *melody.Melody, notifications <-chan models.Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case notif, ok := <-notifications:
			if !ok {
				return
			}
			data, err := json.Marshal(models.RequestObject{
				JSONRPC: "2.0",
				Method:  notif.Method,
				Params:  notif.Params,
			})
			if err != nil {
				log.Error().Err(err).Msg("marshalling notification request")
				continue
			}
			go func() {
				if err := m.Broadcast(data); err != nil && !errors.Is(err, melody.ErrClosed) {
					log.Error().Err(err).Msg("broadcasting notification")
				}
			}()
		}
	}
}

// privateNetworkAccessMiddleware answers Private Network Access preflights
// so browser pages on public origins can reach the LAN service.
func privateNetworkAccessMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions &&
			r.Header.Get("Access-Control-Request-Private-Network") == "true" {
			w.Header().Set("Access-Control-Allow-Private-Network", "true")
		}
		next.ServeHTTP(w, r)
	})
}

// Handler builds the router with every route and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.HTTPIPFilterMiddleware(middleware.NewIPFilter(s.cfg.AllowedIPs())))
	r.Use(privateNetworkAccessMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))
	r.Use(middleware.HTTPAuthMiddleware(s.svc.Identity))

	// websocket messages are rate limited per message instead
	r.Get("/api", func(w http.ResponseWriter, r *http.Request) {
		if err := s.melody.HandleRequest(w, r); err != nil {
			log.Error().Err(err).Msg("handling websocket request")
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.HTTPRateLimitMiddleware(s.limiter))
		r.Use(chimiddleware.NoCache)
		r.Use(chimiddleware.Timeout(config.APIRequestTimeout))

		r.Post("/api", s.handlePostRequest)
		r.Get("/track/{id}", s.handleTrack)
		r.Get("/codes/{id}.png", s.handleCodeImage)
		r.Post("/scan", s.handleScan)
		r.Get("/history/{category}.csv", s.handleHistoryCSV)
	})

	return r
}

// Start listens on the configured address and serves until the service
// context is cancelled. Listen errors are returned before serving starts.
func (s *Server) Start(notifications <-chan models.Notification) (<-chan struct{}, error) {
	addr := s.cfg.APIListen()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ln, notifications), nil
}

// Serve runs the API on ln. The returned channel closes once the server
// has shut down.
func (s *Server) Serve(ln net.Listener, notifications <-chan models.Notification) <-chan struct{} {
	ctx := s.st.GetContext()
	done := make(chan struct{})

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.limiter.StartCleanup(ctx)
	go broadcastNotifications(ctx, s.melody, notifications)

	go func() {
		defer close(done)
		log.Info().Str("addr", ln.Addr().String()).Msg("starting API server")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("API server stopped")
			s.st.StopService()
		}
	}()

	go func() {
		<-ctx.Done()
		if err := s.melody.Close(); err != nil && !errors.Is(err, melody.ErrClosed) {
			log.Warn().Err(err).Msg("error closing websocket sessions")
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("error shutting down API server")
		}
	}()

	return done
}
