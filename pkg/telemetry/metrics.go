package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsConfig configures Prometheus metrics for a provider.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected at all.
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the address for the optional metrics HTTP endpoint.
	// Empty means metrics are collected but not exposed over HTTP.
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path for metrics.
	Path string `yaml:"path"`

	// Namespace is the metrics namespace prefix.
	Namespace string `yaml:"namespace"`
}

// DefaultMetricsConfig returns the metrics configuration a provider binary
// starts from. Exposition is off by default; a plugin process has no
// well-known port to claim.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   true,
		Path:      "/metrics",
		Namespace: "kite_provider",
	}
}

// Metrics collects Prometheus metrics for the provider RPC surface. The
// zero value and a nil pointer are both safe no-ops so call sites never
// have to branch on whether metrics are enabled.
type Metrics struct {
	config MetricsConfig

	rpcCalls    *prometheus.CounterVec
	rpcDuration *prometheus.HistogramVec
	diagnostics *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a metrics collector with its own registry.
func NewMetrics(cfg MetricsConfig) *Metrics {
	if !cfg.Enabled {
		return &Metrics{config: cfg}
	}

	registry := prometheus.NewRegistry()
	m := &Metrics{
		config:   cfg,
		registry: registry,

		rpcCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "rpc_calls_total",
				Help:      "Total number of provider RPC calls",
			},
			[]string{"method"},
		),
		rpcDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "rpc_duration_seconds",
				Help:      "Duration of provider RPC calls in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		diagnostics: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "diagnostics_total",
				Help:      "Total number of diagnostics returned to the engine",
			},
			[]string{"severity"},
		),
	}

	registry.MustRegister(m.rpcCalls, m.rpcDuration, m.diagnostics)
	return m
}

// ObserveCall records one RPC call and its duration.
func (m *Metrics) ObserveCall(method string, seconds float64) {
	if m == nil || m.rpcCalls == nil {
		return
	}
	m.rpcCalls.WithLabelValues(method).Inc()
	m.rpcDuration.WithLabelValues(method).Observe(seconds)
}

// ObserveDiagnostic records one diagnostic by severity.
func (m *Metrics) ObserveDiagnostic(severity string) {
	if m == nil || m.diagnostics == nil {
		return
	}
	m.diagnostics.WithLabelValues(severity).Inc()
}

// Handler returns the HTTP handler for the metrics endpoint, or nil when
// metrics are disabled.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return nil
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes the metrics endpoint over HTTP when a listen address is
// configured. It returns the server so the caller can shut it down, or nil
// when exposition is not configured.
func (m *Metrics) Serve() *http.Server {
	if m == nil || m.registry == nil || m.config.ListenAddress == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())
	srv := &http.Server{Addr: m.config.ListenAddress, Handler: mux}
	go func() {
		_ = srv.ListenAndServe()
	}()
	return srv
}
