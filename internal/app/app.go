// Package app assembles the services and drives their lifecycle.
package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/rustyd0g/scrypted-daynightswitcher/internal/config"
)

// App drives the service container through one run: start everything, block
// until shutdown is requested, stop everything.
type App struct {
	services *Services
}

// New creates an App with all services initialized but not started.
func New(cfg *config.Config) (*App, error) {
	services, err := NewServices(cfg)
	if err != nil {
		return nil, err
	}
	return &App{services: services}, nil
}

// Run starts the services and blocks until ctx is cancelled or a service
// reports a fatal error. It returns once everything has shut down.
func (a *App) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// A fatal service error ends the run the same way a signal does.
	onFatalError := func(err error) {
		log.Error().Err(err).Msg("Fatal error, initiating shutdown")
		cancel()
	}

	if err := a.services.Start(runCtx, onFatalError); err != nil {
		a.services.Close()
		return err
	}
	log.Info().Msg("daynightd started")

	<-runCtx.Done()

	log.Info().Msg("Shutting down...")
	a.services.Stop()
	return nil
}

// SignalContext returns a context cancelled by SIGINT or SIGTERM.
func SignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Warn().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	return ctx
}
