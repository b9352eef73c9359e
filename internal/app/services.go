package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/rustyd0g/scrypted-daynightswitcher/internal/astro"
	"github.com/rustyd0g/scrypted-daynightswitcher/internal/config"
	"github.com/rustyd0g/scrypted-daynightswitcher/internal/db"
	"github.com/rustyd0g/scrypted-daynightswitcher/internal/executor"
	"github.com/rustyd0g/scrypted-daynightswitcher/internal/kv"
	"github.com/rustyd0g/scrypted-daynightswitcher/internal/registry"
	"github.com/rustyd0g/scrypted-daynightswitcher/internal/settings"
)

// Services is a container for all application services.
// It manages service initialization order and dependencies.
type Services struct {
	cfg *config.Config

	// Core infrastructure
	DB      *db.DB
	Buckets *kv.Manager
	Global  *settings.Store

	// Scheduling
	Solar    *astro.Cache
	Executor *executor.Executor
	Registry *registry.Registry

	// High-level services
	API *APIService
}

// NewServices creates all services with proper dependency injection.
func NewServices(cfg *config.Config) (*Services, error) {
	s := &Services{cfg: cfg}

	// Initialize database
	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	s.DB = database

	// Initialize settings storage
	s.Buckets = kv.NewManager(database.DB)
	s.Global = settings.NewStore(s.Buckets.Bucket("global", true))

	// Initialize solar calculator with memoization
	solar, err := astro.NewCache(astro.NOAACalculator{}, astro.DefaultCacheSize)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Solar = solar

	// Initialize action executor
	s.Executor = executor.NewWithConfig(executor.Config{
		AttemptTimeout: cfg.Dispatch.AttemptTimeout.Duration(),
		RateLimitRPS:   cfg.Dispatch.RateLimitRPS,
	})

	// Initialize entity registry
	s.Registry = registry.New(s.Buckets, s.Global, s.Solar, s.Executor, cfg.GlobalDebounce.Duration())

	// Initialize admin API service
	s.API = NewAPIService(cfg, s.Registry)

	return s, nil
}

// Start attaches the configured and persisted entities and starts the
// admin API server.
func (s *Services) Start(ctx context.Context, onFatalError func(error)) error {
	for _, ent := range s.cfg.Entities {
		if _, err := s.Registry.Attach(ent.ID, ent.Name); err != nil {
			return fmt.Errorf("failed to attach entity %q: %w", ent.ID, err)
		}
	}

	// Entities from earlier runs come back under their persisted settings.
	if err := s.Registry.AttachPersisted(); err != nil {
		return err
	}

	s.API.Start(ctx, onFatalError)
	return nil
}

// Stop waits for the admin API server to finish its graceful shutdown,
// then releases everything else.
func (s *Services) Stop() {
	s.API.Wait()
	s.Close()
}

// Close releases all resources.
func (s *Services) Close() {
	if s.Registry != nil {
		s.Registry.Close()
	}
	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close database")
		}
	}
}
