package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/zeusync/sightline/internal/core/observability/log"
	"github.com/zeusync/sightline/internal/scene"
)

const requestIDHeader = "X-Request-ID"

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Strategy  string `json:"strategy"`
	Evaluated uint64 `json:"evaluated"`
}

type evaluateResponse struct {
	Fingerprint string             `json:"fingerprint"`
	Evaluations []scene.Evaluation `json:"evaluations"`
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.MethodNotAllowedHandler = http.HandlerFunc(s.handleMethodNotAllowed)
	r.Use(s.withRequestID)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/v1").Subrouter()
	api.MethodNotAllowedHandler = r.MethodNotAllowedHandler
	api.Use(s.withToken)
	api.HandleFunc("/visibility", s.handleVisibility).Methods(http.MethodPost)
	api.HandleFunc("/scenes/evaluate", s.handleEvaluate).Methods(http.MethodPost)
	api.HandleFunc("/stream", s.handleStream).Methods(http.MethodGet)
	return r
}

// withRequestID tags the request context with the caller's X-Request-ID, or a
// fresh one, and echoes it back.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := log.ContextWithRequestID(r.Context(), id)

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))
		s.logger.WithContext(ctx).Debug("request served",
			log.String("method", r.Method),
			log.String("path", r.URL.Path),
			log.Duration("elapsed", time.Since(start)))
	})
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, http.StatusMethodNotAllowed, fmt.Errorf("%w: %s %s", ErrMethodNotAllowed, r.Method, r.URL.Path))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, healthResponse{
		Status:    "ok",
		Strategy:  s.engine.Strategy().Name(),
		Evaluated: s.evaluated.Load(),
	})
}

// handleVisibility answers a single Request.
func (s *Server) handleVisibility(w http.ResponseWriter, r *http.Request) {
	var req scene.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("%w: %w", ErrInvalidMessage, err))
		return
	}
	q, err := req.Query(s.config.Policy)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	res := s.engine.ComputeVisibility(q)
	s.evaluated.Add(1)
	s.writeJSON(w, r, http.StatusOK, res)
}

// handleEvaluate runs every check of a scene document, JSON or YAML by
// Content-Type.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	format := scene.FormatJSON
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		format = scene.FormatYAML
	}
	doc, err := scene.Decode(body, format)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	evals, err := scene.Evaluate(r.Context(), s.engine, doc, s.config.Policy, s.config.Workers)
	if err != nil {
		status := http.StatusBadRequest
		if r.Context().Err() != nil {
			status = http.StatusServiceUnavailable
		}
		s.writeError(w, r, status, err)
		return
	}
	s.evaluated.Add(uint64(len(evals)))
	s.writeJSON(w, r, http.StatusOK, evaluateResponse{
		Fingerprint: fmt.Sprintf("%016x", doc.Fingerprint()),
		Evaluations: evals,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithContext(r.Context()).Warn("write response", log.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		status = http.StatusRequestEntityTooLarge
	}
	s.logger.WithContext(r.Context()).Debug("request rejected", log.Int("status", status), log.Error(err))
	s.writeJSON(w, r, status, errorResponse{Error: err.Error(), RequestID: w.Header().Get(requestIDHeader)})
}
