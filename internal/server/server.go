// Package server exposes the HTTP surface of the proxy: health and
// diagnostic endpoints, the product read/write endpoints behind the shared
// API key, and Prometheus metrics. Every database endpoint acquires its own
// connection, uses it for one request and closes it before returning.
package server

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smartretail/hanaproxy/internal/config"
	"github.com/smartretail/hanaproxy/internal/dbconn"
	"github.com/smartretail/hanaproxy/internal/precheck"
	"github.com/smartretail/hanaproxy/internal/proxyerr"
)

// Server holds the request handlers and their collaborators.
type Server struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *Metrics

	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer

	connect func(ctx context.Context) (*sql.DB, error)
	probe   func(ctx context.Context) precheck.Result
	now     func() time.Time
}

// Option is a functional option for New.
type Option func(*Server)

// WithConnect overrides how a database connection is established.
func WithConnect(fn func(ctx context.Context) (*sql.DB, error)) Option {
	return func(s *Server) { s.connect = fn }
}

// WithProbe overrides the diagnostic probe used by /diag.
func WithProbe(fn func(ctx context.Context) precheck.Result) Option {
	return func(s *Server) { s.probe = fn }
}

// WithRegistry sets a private metrics registry instead of the default one.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.registerer = reg
		s.gatherer = reg
	}
}

// WithClock overrides the time source for response timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates the Server with real collaborators unless overridden.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:        cfg,
		logger:     logger,
		registerer: prometheus.DefaultRegisterer,
		gatherer:   prometheus.DefaultGatherer,
		now:        time.Now,
	}
	for _, o := range opts {
		o(s)
	}

	if s.connect == nil {
		est := dbconn.New(cfg, logger, dbconn.WithToleratedFailureHook(func(stage proxyerr.Stage) {
			s.metrics.ObservePrecheckFailure(string(stage))
		}))
		s.connect = est.Connect
	}
	if s.probe == nil {
		s.probe = func(ctx context.Context) precheck.Result {
			p := &precheck.Prober{Timeout: cfg.PrecheckTimeout}
			return p.Run(ctx, cfg.Host, cfg.Port)
		}
	}

	m, err := NewMetrics(s.registerer)
	if err != nil {
		return nil, err
	}
	s.metrics = m
	return s, nil
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /health", s.instrument("/health", s.handleHealth))
	mux.Handle("GET /diag", s.instrument("/diag", s.handleDiag))
	mux.Handle("GET /products", s.instrument("/products", s.requireAPIKey(s.handleListProducts)))
	mux.Handle("POST /product", s.instrument("/product", s.requireAPIKey(s.handleInsertProduct)))
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return mux
}
