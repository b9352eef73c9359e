// Package api exposes the admin HTTP surface: attaching and detaching
// entities, reading and writing settings, manual switches and previews.
// It is the integration boundary for the host platform and its settings UI.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/rustyd0g/scrypted-daynightswitcher/internal/registry"
)

// Server serves the admin API over HTTP.
type Server struct {
	addr       string
	registry   *registry.Registry
	httpServer *http.Server
}

// NewServer creates a new admin API server.
func NewServer(host string, port int, reg *registry.Registry) *Server {
	return &Server{
		addr:     fmt.Sprintf("%s:%d", host, port),
		registry: reg,
	}
}

// Handler returns the routed handler, for serving and for tests.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)

	r.Route("/settings", func(r chi.Router) {
		r.Get("/", s.handleGetGlobalSettings)
		r.Put("/", s.handlePutGlobalSettings)
	})

	r.Route("/entities", func(r chi.Router) {
		r.Get("/", s.handleListEntities)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetEntity)
			r.Put("/", s.handleAttachEntity)
			r.Delete("/", s.handleDetachEntity)
			r.Get("/settings", s.handleGetEntitySettings)
			r.Put("/settings", s.handlePutEntitySettings)
			r.Post("/switch/{phase}", s.handleSwitch)
			r.Post("/preview", s.handleRefreshPreview)
		})
	})

	return r
}

// Run starts the admin API server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	log.Info().Str("addr", s.addr).Msg("Starting admin API server")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Admin API server shutdown error")
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "healthy"})
}
