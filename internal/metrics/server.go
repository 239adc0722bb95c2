package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server serves /metrics, /status and /health.
type Server struct {
	r   *chi.Mux
	c   *Collector
	log zerolog.Logger
	srv *http.Server
}

// NewServer installs middleware and registers routes.
func NewServer(c *Collector, log zerolog.Logger) *Server {
	s := &Server{r: chi.NewRouter(), c: c, log: log}

	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))

	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Get("/status", s.handleStatus)
	s.r.Handle("/metrics", promhttp.HandlerFor(c.Registry(), promhttp.HandlerOpts{}))

	return s
}

// Router exposes the router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(s.c.Status()); err != nil {
		s.log.Warn().Err(err).Msg("encode status")
	}
}

// Start serves on addr in the background until Shutdown.
func (s *Server) Start(addr string) {
	s.srv = &http.Server{Addr: addr, Handler: s.r, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		s.log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("metrics server exited")
		}
	}()
}

// Shutdown stops a started server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
