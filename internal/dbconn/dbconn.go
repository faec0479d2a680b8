// Package dbconn establishes the per-request database connection: it runs
// the network precheck, applies the certificate-validation policy to the
// result, and only then performs the real driver login with a bounded
// timeout. The caller owns the returned handle and must close it on every
// exit path.
package dbconn

import (
	"context"
	"database/sql"
	"log/slog"

	_ "github.com/SAP/go-hdb/driver"   // hdb driver
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver

	"github.com/smartretail/hanaproxy/internal/config"
	"github.com/smartretail/hanaproxy/internal/precheck"
	"github.com/smartretail/hanaproxy/internal/proxyerr"
)

// Establisher orchestrates precheck and login for one target backend.
// It holds no connection state; every Connect call is independent.
type Establisher struct {
	cfg    *config.Config
	logger *slog.Logger

	// onToleratedFailure is invoked when a TLS precheck failure is
	// tolerated by the policy. Strict failures surface as errors and are
	// accounted for at the handler boundary; tolerated ones only pass
	// through here.
	onToleratedFailure func(stage proxyerr.Stage)

	// Indirection points for tests.
	probe func(ctx context.Context) precheck.Result
	open  func(driverName, dsn string) (*sql.DB, error)
}

// Option is a functional option for New.
type Option func(*Establisher)

// WithToleratedFailureHook sets a callback for precheck failures that the
// certificate-validation policy tolerates rather than surfaces.
func WithToleratedFailureHook(fn func(stage proxyerr.Stage)) Option {
	return func(e *Establisher) { e.onToleratedFailure = fn }
}

// New creates an Establisher for the given configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Establisher {
	e := &Establisher{
		cfg:    cfg,
		logger: logger,
		probe: func(ctx context.Context) precheck.Result {
			p := &precheck.Prober{Timeout: cfg.PrecheckTimeout}
			return p.Run(ctx, cfg.Host, cfg.Port)
		},
		open: sql.Open,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Connect runs the precheck and, if it passes or its TLS failure is
// tolerated by the policy, logs in to the database. Failures come back as
// one of the proxyerr variants with any credential material scrubbed.
func (e *Establisher) Connect(ctx context.Context) (*sql.DB, error) {
	if e.cfg.Host == "" {
		return nil, &proxyerr.ConfigError{Message: "target host not configured"}
	}

	res := e.probe(ctx)
	if res.DNS != nil && !res.DNS.OK {
		return nil, &proxyerr.ReachabilityError{Stage: proxyerr.StageDNS, Reason: res.DNS.Error}
	}
	if res.TCP != nil && !res.TCP.OK {
		return nil, &proxyerr.ReachabilityError{Stage: proxyerr.StageTCP, Reason: res.TCP.Error}
	}
	if res.TLS != nil && !res.TLS.OK {
		if e.cfg.ValidateCertificate {
			return nil, &proxyerr.ReachabilityError{Stage: proxyerr.StageTLS, Reason: res.TLS.Error}
		}
		// Intentional escape hatch for self-signed or trial backends: the
		// probe reported the real certificate state, the login below will
		// skip verification.
		e.logger.Warn("TLS precheck failed, certificate validation disabled, proceeding",
			"stage", "tls",
			"error", proxyerr.Redact(res.TLS.Error, e.cfg.Password),
		)
		if e.onToleratedFailure != nil {
			e.onToleratedFailure(proxyerr.StageTLS)
		}
	}

	driverName, dsn, err := BuildDSN(e.cfg)
	if err != nil {
		return nil, &proxyerr.ConfigError{Message: err.Error()}
	}

	db, err := e.open(driverName, dsn)
	if err != nil {
		return nil, &proxyerr.LoginError{Message: proxyerr.Redact(err.Error(), e.cfg.Password)}
	}

	// One handle per request; there is nothing to pool.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, e.cfg.LoginTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		safe := proxyerr.Redact(err.Error(), e.cfg.Password)
		e.logger.Error("database login failed",
			"driver", driverName,
			"host", e.cfg.Host,
			"port", e.cfg.Port,
			"user", e.cfg.User,
			"error", safe,
		)
		return nil, &proxyerr.LoginError{Message: safe}
	}

	return db, nil
}
