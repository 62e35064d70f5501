package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/hydrograph/riverflow/internal/controllers/efccache"
	"github.com/hydrograph/riverflow/internal/controllers/restserver"
	"github.com/hydrograph/riverflow/internal/database"
	"github.com/hydrograph/riverflow/internal/log"
	"github.com/hydrograph/riverflow/pkg/config"
	"go.uber.org/zap"
)

// App represents the main application
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

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfgData, err := a.configProvider.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}

	// Open the shared database handle used by the cache refresh job. The
	// REST server manages its own connection.
	var sqlDB *sql.DB
	if cfgData.Storage.TimescaleDB != nil && cfgData.Storage.TimescaleDB.ConnectionString != "" {
		gormDB, err := database.CreateConnection(cfgData.Storage.TimescaleDB.ConnectionString)
		if err != nil {
			return fmt.Errorf("could not connect to database: %w", err)
		}
		sqlDB, err = gormDB.DB()
		if err != nil {
			return fmt.Errorf("could not obtain database handle: %w", err)
		}
	}

	for _, con := range cfgData.Controllers {
		switch con.Type {
		case config.ControllerTypeRESTServer:
			var rc config.RESTServerData
			if con.RESTServer != nil {
				rc = *con.RESTServer
			}
			rest, err := restserver.NewController(ctx, &wg, a.configProvider, rc, a.logger)
			if err != nil {
				return fmt.Errorf("error creating REST server controller: %w", err)
			}
			if err := rest.StartController(); err != nil {
				return fmt.Errorf("error starting REST server controller: %w", err)
			}
		case config.ControllerTypeEFCCache:
			var cc config.EFCCacheData
			if con.EFCCache != nil {
				cc = *con.EFCCache
			}
			cache, err := efccache.NewController(ctx, &wg, sqlDB, a.configProvider, cc, a.logger)
			if err != nil {
				return fmt.Errorf("error creating EFC cache controller: %w", err)
			}
			if cache != nil {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if err := cache.Start(); err != nil {
						log.Errorf("EFC cache controller error: %v", err)
					}
				}()
			}
		default:
			a.logger.Warnf("unknown controller type in configuration: %s", con.Type)
		}
	}

	log.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}
