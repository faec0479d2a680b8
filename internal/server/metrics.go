package server

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/smartretail/hanaproxy/internal/precheck"
)

const (
	requestsHelp         = "Total HTTP requests handled, by path and status code"
	durationHelp         = "HTTP request duration in seconds, by path"
	precheckFailuresHelp = "Total precheck stage failures, by stage"
)

var durationBuckets = []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0}

// Metrics holds the Prometheus instruments of the proxy.
type Metrics struct {
	requests         *prometheus.CounterVec
	duration         *prometheus.HistogramVec
	precheckFailures *prometheus.CounterVec
}

// NewMetrics creates and registers the proxy metrics on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hanaproxy_requests_total",
			Help: requestsHelp,
		}, []string{"path", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hanaproxy_request_duration_seconds",
			Help:    durationHelp,
			Buckets: durationBuckets,
		}, []string{"path"}),
		precheckFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hanaproxy_precheck_failures_total",
			Help: precheckFailuresHelp,
		}, []string{"stage"}),
	}

	if err := reg.Register(m.requests); err != nil {
		return nil, err
	}
	if err := reg.Register(m.duration); err != nil {
		return nil, err
	}
	if err := reg.Register(m.precheckFailures); err != nil {
		return nil, err
	}
	return m, nil
}

// ObserveRequest records one handled request.
func (m *Metrics) ObserveRequest(path string, code int, d time.Duration) {
	m.requests.WithLabelValues(path, strconv.Itoa(code)).Inc()
	m.duration.WithLabelValues(path).Observe(d.Seconds())
}

// ObservePrecheck records stage failures of one probe run.
func (m *Metrics) ObservePrecheck(res precheck.Result) {
	for stage, sr := range map[string]*precheck.StageResult{
		"dns": res.DNS,
		"tcp": res.TCP,
		"tls": res.TLS,
	} {
		if sr != nil && !sr.OK {
			m.precheckFailures.WithLabelValues(stage).Inc()
		}
	}
}

// ObservePrecheckFailure records a single stage failure reported outside a
// full probe result, e.g. from a reachability error at the handler boundary.
func (m *Metrics) ObservePrecheckFailure(stage string) {
	m.precheckFailures.WithLabelValues(stage).Inc()
}
