package metrics

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer serves /metrics for one Metrics set on its own listener.
type MetricsServer struct {
	Metrics *Metrics
	srv     *http.Server
}

// New creates the collectors for namespace and a server for them on addr.
// The namespace is sanitised to a valid Prometheus name prefix.
func New(namespace, addr string) (*MetricsServer, error) {
	ns := sanitizeNamespace(namespace)
	if ns == "" {
		return nil, errors.New("empty metrics namespace")
	}

	m := NewMetrics(ns)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))

	return &MetricsServer{
		Metrics: m,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

func (s *MetricsServer) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler returns the /metrics handler, mostly for tests.
func (s *MetricsServer) Handler() http.Handler {
	return s.srv.Handler
}

// sanitizeNamespace keeps the last path element and replaces characters
// Prometheus rejects.
func sanitizeNamespace(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
