// Package precheck performs the staged network diagnostic run before every
// database login attempt: address resolution, a timed TCP connect, and a TLS
// handshake. Each stage is attempted only if the previous one succeeded, and
// every outcome is represented in the returned Result; the probe itself
// never fails.
//
// The TLS stage always verifies the server certificate, even when the
// process is configured to tolerate invalid certificates for the real login.
// The probe's job is to report the true certificate state; the tolerance
// decision belongs to the connection establisher.
package precheck

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net"
	"strconv"
	"time"
)

// DefaultTimeout bounds one full probe run (all stages combined).
const DefaultTimeout = 8 * time.Second

// StageResult is the outcome of a single probe stage.
type StageResult struct {
	OK bool `json:"ok"`
	// Detail holds stage metadata on success: the first resolved address
	// for the dns stage, the negotiated protocol and cipher for tls.
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Result accumulates the per-stage outcomes of one probe run.
// A nil stage pointer means the stage was never attempted because an
// earlier stage failed; this is distinct from a failed stage.
type Result struct {
	Host string       `json:"host"`
	Port int          `json:"port"`
	DNS  *StageResult `json:"dns,omitempty"`
	TCP  *StageResult `json:"tcp,omitempty"`
	TLS  *StageResult `json:"tls,omitempty"`
}

// Prober runs the staged diagnostic against one endpoint.
// The zero value is usable and probes with stdlib defaults.
type Prober struct {
	// Timeout bounds one Run call. Zero means DefaultTimeout.
	Timeout time.Duration
	// Resolver overrides the resolver used for the dns stage.
	Resolver *net.Resolver
	// Dialer overrides the dialer used for the tcp stage.
	Dialer *net.Dialer
	// RootCAs overrides the trust anchors for the tls stage. Nil means the
	// host's root set. Verification itself is never disabled.
	RootCAs *x509.CertPool
}

// Run executes the probe stages in order against host:port.
// It opens at most one transient connection and closes it before returning.
func (p *Prober) Run(ctx context.Context, host string, port int) Result {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out := Result{Host: host, Port: port}

	resolver := p.Resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	addrs, err := resolver.LookupHost(ctx, host)
	if err != nil || len(addrs) == 0 {
		out.DNS = &StageResult{Error: errText(err, "no addresses")}
		return out
	}
	out.DNS = &StageResult{OK: true, Detail: addrs[0]}

	dialer := p.Dialer
	if dialer == nil {
		dialer = &net.Dialer{}
	}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		out.TCP = &StageResult{Error: err.Error()}
		return out
	}
	out.TCP = &StageResult{OK: true}

	// Validating config on purpose: surface the real certificate state.
	tlsConn := tls.Client(conn, &tls.Config{ServerName: host, RootCAs: p.RootCAs})
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		out.TLS = &StageResult{Error: err.Error()}
		_ = conn.Close()
		return out
	}
	state := tlsConn.ConnectionState()
	out.TLS = &StageResult{
		OK:     true,
		Detail: tls.VersionName(state.Version) + " " + tls.CipherSuiteName(state.CipherSuite),
	}
	_ = tlsConn.Close()

	return out
}

func errText(err error, fallback string) string {
	if err != nil {
		return err.Error()
	}
	return fallback
}
