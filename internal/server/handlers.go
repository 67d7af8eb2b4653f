package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/muurk/formwizard/internal/logging"
	"github.com/muurk/formwizard/internal/records"
	"github.com/muurk/formwizard/internal/version"
	"github.com/muurk/formwizard/internal/wizard"
)

// RecordService is the subset of the records client used by the server
type RecordService interface {
	List(ctx context.Context) ([]records.Record, error)
	Create(ctx context.Context, rec *records.Record) (*records.Record, error)
}

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 64 << 10

type errorResponse struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}

type createSessionRequest struct {
	Form string `json:"form"`
}

type setFieldRequest struct {
	Group string `json:"group"`
	Field string `json:"field"`
	Value string `json:"value"`
}

type setEntryRequest struct {
	Value string `json:"value"`
}

type moveResponse struct {
	Moved    bool     `json:"moved"`
	Snapshot Snapshot `json:"snapshot"`
}

type entryResponse struct {
	Index    int      `json:"index"`
	Snapshot Snapshot `json:"snapshot"`
}

type submitResponse struct {
	Accepted    bool            `json:"accepted"`
	Values      map[string]any  `json:"values,omitempty"`
	Record      *records.Record `json:"record,omitempty"`
	RecordError string          `json:"record_error,omitempty"`
	Snapshot    Snapshot        `json:"snapshot"`
}

type formSummary struct {
	ID     string      `json:"id"`
	Title  string      `json:"title"`
	Kind   wizard.Kind `json:"kind"`
	Groups int         `json:"groups"`
	Fields int         `json:"fields"`
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/version", s.handleVersion)
	mux.HandleFunc("GET /api/forms", s.handleListForms)
	mux.HandleFunc("GET /api/forms/{form}", s.handleGetForm)

	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/sessions/{id}", s.withSession(s.handleGetSession))
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("PUT /api/sessions/{id}/fields", s.withSession(s.handleSetField))
	mux.HandleFunc("POST /api/sessions/{id}/advance", s.withSession(s.handleAdvance))
	mux.HandleFunc("POST /api/sessions/{id}/retreat", s.withSession(s.handleRetreat))
	mux.HandleFunc("POST /api/sessions/{id}/submit", s.withSession(s.handleSubmit))
	mux.HandleFunc("POST /api/sessions/{id}/entries", s.withSession(s.handleAddEntry))
	mux.HandleFunc("PUT /api/sessions/{id}/entries/{index}", s.withSession(s.handleSetEntry))
	mux.HandleFunc("DELETE /api/sessions/{id}/entries/{index}", s.withSession(s.handleRemoveEntry))

	mux.HandleFunc("GET /api/records", requireToken(s.config.Token, s.handleListRecords))

	mux.HandleFunc("GET /ws/sessions/{id}", s.withSession(s.handleWebSocket))

	return withLogging(mux)
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *Session)

func (s *Server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		sess, ok := s.store.Get(id)
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Errorf("session %q not found", id))
			return
		}
		h(w, r, sess)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.store.Len()})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, version.Get())
}

func (s *Server) handleListForms(w http.ResponseWriter, r *http.Request) {
	defs := s.config.Catalog.List()
	out := make([]formSummary, len(defs))
	for i, d := range defs {
		out[i] = formSummary{ID: d.ID, Title: d.Title, Kind: d.Kind, Groups: len(d.Groups), Fields: d.FieldCount()}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetForm(w http.ResponseWriter, r *http.Request) {
	def, ok := s.config.Catalog.Lookup(r.PathValue("form"))
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("form %q not found", r.PathValue("form")))
		return
	}
	writeJSON(w, http.StatusOK, def)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	if req.Form == "" {
		req.Form = s.config.DefaultForm
	}

	def, ok := s.config.Catalog.Lookup(req.Form)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("form %q not found", req.Form))
		return
	}

	sess, err := s.store.Create(def)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Location", "/api/sessions/"+sess.ID)
	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request, sess *Session) {
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.store.Delete(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, fmt.Errorf("session %q not found", r.PathValue("id")))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetField(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req setFieldRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	snap, err := sess.SetField(req.Group, req.Field, req.Value)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request, sess *Session) {
	moved, snap := sess.Advance()
	writeJSON(w, http.StatusOK, moveResponse{Moved: moved, Snapshot: snap})
}

func (s *Server) handleRetreat(w http.ResponseWriter, r *http.Request, sess *Session) {
	moved, snap := sess.Retreat()
	writeJSON(w, http.StatusOK, moveResponse{Moved: moved, Snapshot: snap})
}

// handleSubmit answers 422 when the form is invalid. With ?send=true an
// accepted submission is also stored as a record; a store failure is
// reported in record_error without undoing the submission.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request, sess *Session) {
	sub, ok, snap := sess.Submit()
	if !ok {
		writeJSON(w, http.StatusUnprocessableEntity, submitResponse{Accepted: false, Snapshot: snap})
		return
	}

	resp := submitResponse{Accepted: true, Values: sub.Values, Snapshot: snap}
	if send, _ := strconv.ParseBool(r.URL.Query().Get("send")); send {
		if s.config.Records == nil {
			resp.RecordError = "record store not configured"
		} else {
			created, err := s.config.Records.Create(r.Context(), sub.Record)
			if err != nil {
				logging.Warn("Failed to store submission", zap.String("session", sess.ID), zap.Error(err))
				resp.RecordError = records.GetShortErrorMessage(err)
			} else {
				resp.Record = created
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request, sess *Session) {
	i, snap, err := sess.AddEntry()
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, entryResponse{Index: i, Snapshot: snap})
}

func (s *Server) handleSetEntry(w http.ResponseWriter, r *http.Request, sess *Session) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid entry index %q", r.PathValue("index")))
		return
	}

	var req setEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	snap, err := sess.SetEntry(index, req.Value)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleRemoveEntry(w http.ResponseWriter, r *http.Request, sess *Session) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid entry index %q", r.PathValue("index")))
		return
	}

	snap, err := sess.RemoveEntry(index)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	if s.config.Records == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("record store not configured"))
		return
	}

	list, err := s.config.Records.List(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorResponse{
			Error: records.GetShortErrorMessage(err),
			Hint:  records.GetTroubleshootingHint(err),
		})
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// statusFor maps caller mistakes to 4xx codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, wizard.ErrUnknownGroup), errors.Is(err, wizard.ErrUnknownField):
		return http.StatusBadRequest
	case errors.Is(err, wizard.ErrEntryOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, ErrNotList):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("Failed to write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
