// Package metrics holds the Prometheus collectors for encrypt, decrypt and
// key lookup outcomes, and the server that exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Metrics is a set of collectors registered on one registry.
type Metrics struct {
	Registry *prometheus.Registry

	Encryptions       *prometheus.CounterVec
	Decryptions       *prometheus.CounterVec
	Verifications     *prometheus.CounterVec
	Decompressions    *prometheus.CounterVec
	KeyFetches        *prometheus.CounterVec
	RateLimited       prometheus.Counter
	OperationDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers the collectors under namespace.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		Encryptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "encryptions_total",
			Help:      "Encrypt-and-sign operations by outcome.",
		}, []string{"outcome"}),
		Decryptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decryptions_total",
			Help:      "Envelope decryptions by outcome.",
		}, []string{"outcome"}),
		Verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Signature verifications by outcome.",
		}, []string{"outcome"}),
		Decompressions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decompressions_total",
			Help:      "Plaintext decompressions by outcome.",
		}, []string{"outcome"}),
		KeyFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "key_fetches_total",
			Help:      "Key store lookups by role and outcome.",
		}, []string{"role", "outcome"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_rate_limited_total",
			Help:      "HTTP requests rejected by the per-client rate limiter.",
		}),
		OperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of encrypt and decrypt operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	reg.MustRegister(
		m.Encryptions,
		m.Decryptions,
		m.Verifications,
		m.Decompressions,
		m.KeyFetches,
		m.RateLimited,
		m.OperationDuration,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Outcome maps an error to the outcome label.
func Outcome(err error) string {
	if err != nil {
		return OutcomeFailed
	}
	return OutcomeOK
}
