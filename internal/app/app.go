package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/chrissnell/flowstats/internal/controllers/restserver"
	"github.com/chrissnell/flowstats/internal/log"
	"github.com/chrissnell/flowstats/internal/managers"
	"github.com/chrissnell/flowstats/pkg/config"
	"go.uber.org/zap"
)

// App represents the flowstats server
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
}

// New creates a new application instance
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
	}
}

// Run starts the REST server and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := a.configProvider.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	defaults, err := cfg.Analysis.ToOptions()
	if err != nil {
		return fmt.Errorf("invalid analysis defaults: %w", err)
	}

	registry, err := managers.NewSourceRegistry(a.configProvider, a.logger.Named("sources"))
	if err != nil {
		return err
	}
	defer func() {
		if err := registry.Close(); err != nil {
			a.logger.Warnf("error closing sources: %v", err)
		}
	}()

	var serverConfig config.ServerData
	if cfg.Server != nil {
		serverConfig = *cfg.Server
	}

	rest, err := restserver.NewController(ctx, &wg, registry, defaults, serverConfig, a.logger.Named("rest"))
	if err != nil {
		return err
	}
	if err := rest.StartController(); err != nil {
		return err
	}

	log.Info("Application started successfully")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	cancel()

	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}
