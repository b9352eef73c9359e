package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/rustyd0g/scrypted-daynightswitcher/internal/api"
	"github.com/rustyd0g/scrypted-daynightswitcher/internal/config"
	"github.com/rustyd0g/scrypted-daynightswitcher/internal/registry"
)

// APIService wraps the admin API HTTP server.
type APIService struct {
	cfg    *config.Config
	server *api.Server
	done   chan struct{}
}

// NewAPIService creates a new APIService.
func NewAPIService(cfg *config.Config, reg *registry.Registry) *APIService {
	return &APIService{
		cfg:    cfg,
		server: api.NewServer(cfg.API.Host, cfg.API.Port, reg),
		done:   make(chan struct{}),
	}
}

// Start begins the admin API server. The API is the daemon's only control
// surface, so a server failure is fatal.
func (s *APIService) Start(ctx context.Context, onFatalError func(error)) {
	go func() {
		defer close(s.done)
		if err := s.server.Run(ctx, s.cfg.ShutdownTimeout.Duration()); err != nil {
			log.Error().Err(err).Msg("Admin API server error")
			onFatalError(err)
		}
	}()
}

// Wait blocks until a started server has exited. Must not be called unless
// Start ran.
func (s *APIService) Wait() {
	<-s.done
}
