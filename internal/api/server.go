// Package api exposes the crawler's operational HTTP surface: a health
// probe and the Prometheus metrics endpoint. The crawl itself has no
// network API.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server serves the ops endpoints while a crawl runs.
type Server struct {
	logger *zap.Logger
}

// NewServer constructs a Server.
func NewServer(logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{logger: logger}
}

// Handler returns the chi router with /healthz and /metrics mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok\n")); err != nil {
			s.logger.Warn("healthz write failed", zap.Error(err))
		}
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
