// Package httpapi exposes the application state to a UI: a JSON snapshot, the user controls
// and a WebSocket stream of changes.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robertof/go-stylus-bridge/device"
	"github.com/robertof/go-stylus-bridge/session"
	"github.com/robertof/go-stylus-bridge/state"
)

type Snapshotter interface {
	Snapshot() state.Snapshot
}

type Controller interface {
	Select(ctx context.Context, id device.ID) error
	Deselect(ctx context.Context) error
	SetCopyToClipboard(enabled bool)
}

type Server struct {
	state      Snapshotter
	controller Controller
	hub        *Hub
	metrics    http.Handler
}

type Option func(*Server)

func WithHub(h *Hub) Option {
	return func(s *Server) { s.hub = h }
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

func NewServer(st Snapshotter, c Controller, opts ...Option) *Server {
	s := &Server{state: st, controller: c}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/state", func(r chi.Router) {
		r.Get("/", s.handleState)

		if s.hub != nil {
			r.Get("/changes", s.hub.ServeHTTP)
		}

		r.Put("/selected-device", s.handleSelect)
		r.Delete("/selected-device", s.handleDeselect)
		r.Put("/copy-to-clipboard", s.handleCopyToClipboard)
	})

	return r
}

type jsonErr struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

type selectRequest struct {
	Device string `json:"device"`
}

type copyToClipboardRequest struct {
	Enabled *bool `json:"enabled"`
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.state.Snapshot())
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Device) == "" {
		s.handleDeselect(w, r)
		return
	}

	id, err := device.ParseID(req.Device)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.controller.Select(r.Context(), id); err != nil {
		writeError(w, bindErrorStatus(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeselect(w http.ResponseWriter, r *http.Request) {
	if err := s.controller.Deselect(r.Context()); err != nil {
		writeError(w, bindErrorStatus(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCopyToClipboard(w http.ResponseWriter, r *http.Request) {
	var req copyToClipboardRequest
	if err := decodeJSON(r, &req); err != nil || req.Enabled == nil {
		writeError(w, http.StatusBadRequest, "expected {\"enabled\": true|false}")
		return
	}

	s.controller.SetCopyToClipboard(*req.Enabled)

	w.WriteHeader(http.StatusNoContent)
}

func bindErrorStatus(err error) int {
	var bindErr *session.BindError

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &bindErr):
		return http.StatusBadGateway
	default:
		log.Error().Err(err).Msg("httpapi: unexpected controller error")
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, jsonErr{Error: msg, Code: status})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
