package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Simplici0/displayquote/internal/catalog"
	"github.com/Simplici0/displayquote/internal/form"
	"github.com/Simplici0/displayquote/internal/quote"
	"github.com/Simplici0/displayquote/internal/session"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string        `json:"error"`
	Field string        `json:"field,omitempty"`
	View  *session.View `json:"view,omitempty"`
	Quote *quote.Result `json:"quote,omitempty"`
}

type displayInfo struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Category string `json:"category,omitempty"`
	Error    string `json:"error,omitempty"`
}

type quoteRequest struct {
	Display string                `json:"display"`
	Form    form.Form             `json:"form"`
	Matrix  *form.MatrixSelection `json:"matrix"`
}

type displayRequest struct {
	Display string `json:"display"`
}

type fieldRequest struct {
	Control string `json:"control"`
	Value   any    `json:"value"`
}

var errBadRequest = errors.New("bad request")

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleDisplays(w http.ResponseWriter, r *http.Request) {
	entries := s.catalogs.List()
	out := make([]displayInfo, 0, len(entries))
	for _, e := range entries {
		info := displayInfo{Key: e.Key, Label: e.Label, Category: e.Category}
		if e.Err != nil {
			info.Error = e.Err.Error()
		}
		out = append(out, info)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleDisplay(w http.ResponseWriter, r *http.Request) {
	cat, err := s.catalogs.Get(chi.URLParam(r, "*"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

// handleQuote prices a complete form without touching any session.
func (s *server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	matrix := form.DefaultMatrix
	if req.Matrix != nil {
		matrix = *req.Matrix
	}
	if !matrix.Valid() {
		s.writeError(w, fmt.Errorf("%w: (%d,%d)", session.ErrInvalidMatrix, matrix.Row, matrix.Col))
		return
	}

	cat, err := s.catalogs.Get(req.Display)
	if err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.engine.Compute(cat, form.FromForm(req.Display, req.Form, matrix))
	if err != nil {
		s.writeErrorWith(w, err, errorResponse{Quote: res})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	var req displayRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, err)
		return
	}

	view, err := s.sessions.Start(req.Display)
	if view != nil {
		s.cookies.setSessionCookie(w, view.Session.ID)
	}
	s.respondView(w, http.StatusCreated, view, err)
}

func (s *server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	view, err := s.sessions.Get(sessionIDFrom(r.Context()))
	s.respondView(w, http.StatusOK, view, err)
}

func (s *server) handleSessionEnd(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.End(sessionIDFrom(r.Context())); err != nil {
		s.writeError(w, err)
		return
	}
	s.cookies.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleSessionDisplay(w http.ResponseWriter, r *http.Request) {
	var req displayRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	view, err := s.sessions.SelectDisplay(sessionIDFrom(r.Context()), req.Display)
	s.respondView(w, http.StatusOK, view, err)
}

func (s *server) handleSessionField(w http.ResponseWriter, r *http.Request) {
	var req fieldRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Control == "" {
		s.writeError(w, fmt.Errorf("%w: control is required", errBadRequest))
		return
	}
	view, err := s.sessions.SetField(sessionIDFrom(r.Context()), req.Control, req.Value)
	s.respondView(w, http.StatusOK, view, err)
}

func (s *server) handleSessionMatrix(w http.ResponseWriter, r *http.Request) {
	var sel form.MatrixSelection
	if err := decodeJSON(r, &sel); err != nil {
		s.writeError(w, err)
		return
	}
	view, err := s.sessions.SetMatrix(sessionIDFrom(r.Context()), sel)
	s.respondView(w, http.StatusOK, view, err)
}

func (s *server) handleSessionReset(w http.ResponseWriter, r *http.Request) {
	view, err := s.sessions.Reset(sessionIDFrom(r.Context()))
	s.respondView(w, http.StatusOK, view, err)
}

// respondView writes a session view. A configuration error still carries the
// view so the form can be rendered next to the message.
func (s *server) respondView(w http.ResponseWriter, status int, view *session.View, err error) {
	if err != nil {
		s.writeErrorWith(w, err, errorResponse{View: view})
		return
	}
	writeJSON(w, status, view)
}

func (s *server) writeError(w http.ResponseWriter, err error) {
	s.writeErrorWith(w, err, errorResponse{})
}

func (s *server) writeErrorWith(w http.ResponseWriter, err error, body errorResponse) {
	body.Error = err.Error()

	var cfgErr *catalog.ConfigurationError
	switch {
	case errors.As(err, &cfgErr):
		body.Field = cfgErr.Field
		writeJSON(w, http.StatusUnprocessableEntity, body)
	case errors.Is(err, catalog.ErrUnknownDisplay), errors.Is(err, session.ErrNotFound):
		writeJSON(w, http.StatusNotFound, body)
	case errors.Is(err, errBadRequest),
		errors.Is(err, session.ErrNoDisplay),
		errors.Is(err, session.ErrUnknownControl),
		errors.Is(err, session.ErrFieldLocked),
		errors.Is(err, session.ErrInvalidValue),
		errors.Is(err, session.ErrInvalidMatrix):
		writeJSON(w, http.StatusBadRequest, body)
	default:
		s.logger.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body: %w", errBadRequest, err)
		}
		return fmt.Errorf("%w: invalid JSON: %v", errBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
