package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/smartretail/hanaproxy/internal/proxyerr"
)

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument wraps a handler with request logging and metrics.
func (s *Server) instrument(path string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		h(rec, r)
		elapsed := time.Since(start)

		s.metrics.ObserveRequest(path, rec.status, elapsed)
		s.logger.Info("request",
			"method", r.Method,
			"path", path,
			"status", rec.status,
			"duration_ms", elapsed.Milliseconds(),
		)
	})
}

// requireAPIKey rejects requests whose X-API-KEY header does not match the
// configured key. When no key is configured the endpoint is open, matching
// the original deployment behavior.
func (s *Server) requireAPIKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.APIKey != "" && r.Header.Get("X-API-KEY") != s.cfg.APIKey {
			s.writeError(w, proxyerr.ErrUnauthorized)
			return
		}
		next(w, r)
	}
}

// writeError maps a core error onto its HTTP status and a JSON error body.
// Messages reaching this point are already redacted.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var re *proxyerr.ReachabilityError
	var ve *proxyerr.ValidationError
	switch {
	case errors.Is(err, proxyerr.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.As(err, &ve):
		status = http.StatusBadRequest
	case errors.As(err, &re):
		s.metrics.ObservePrecheckFailure(string(re.Stage))
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err.Error())
	}
	s.writeJSON(w, status, map[string]any{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}
