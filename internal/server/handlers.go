package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/smartretail/hanaproxy/internal/proxyerr"
	"github.com/smartretail/hanaproxy/internal/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   s.timestamp(),
	})
}

func (s *Server) handleDiag(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Host == "" {
		s.writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error": "target host not configured",
		})
		return
	}

	res := s.probe(r.Context())
	s.metrics.ObservePrecheck(res)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"precheck":                res,
		"ssl_validate_configured": s.cfg.ValidateCertificate,
		"time":                    s.timestamp(),
	})
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	db, err := s.connect(ctx)
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer func() { _ = db.Close() }()

	products, err := store.New(db, s.cfg.Schema, s.cfg.Driver).List(ctx)
	if err != nil {
		s.writeError(w, &proxyerr.QueryError{
			Message: proxyerr.Redact(err.Error(), s.cfg.Password),
		})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (s *Server) handleInsertProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Name == "" || payload.Description == "" {
		s.writeError(w, &proxyerr.ValidationError{Message: "name and description required"})
		return
	}

	db, err := s.connect(ctx)
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer func() { _ = db.Close() }()

	id, err := store.New(db, s.cfg.Schema, s.cfg.Driver).Insert(ctx, payload.Name, payload.Description)
	if err != nil {
		s.writeError(w, &proxyerr.QueryError{
			Message: proxyerr.Redact(err.Error(), s.cfg.Password),
		})
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"status":     "ok",
		"product_id": id,
	})
}

func (s *Server) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}
