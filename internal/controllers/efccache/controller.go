// Package efccache provides a dedicated controller for periodic EFC
// classification of stored discharge series. It runs independently of the
// REST server, refreshing the per-step label cache and pulse summary cache
// for every configured gauge.
package efccache

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/hydrograph/riverflow/pkg/config"
	"go.uber.org/zap"
)

// Default cache refresh cadence and classification window when the
// controller configuration leaves them unset. DefaultWindowHours is
// exported because the REST server must resolve the same window when it
// serves the cache tables.
const (
	defaultRefreshInterval = 15 * time.Minute
	DefaultWindowHours     = 720
)

// Controller manages the EFC cache refresh lifecycle
type Controller struct {
	ctx            context.Context
	wg             *sync.WaitGroup
	db             *sql.DB
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
	calculators    []*Calculator
	interval       time.Duration
	stopChan       chan struct{}
}

// NewController creates a new EFC cache controller. Returns nil if no
// gauges are configured.
func NewController(
	ctx context.Context,
	wg *sync.WaitGroup,
	db *sql.DB,
	configProvider config.ConfigProvider,
	cacheConfig config.EFCCacheData,
	logger *zap.SugaredLogger,
) (*Controller, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection required for EFC cache controller")
	}

	gauges, err := configProvider.GetGauges()
	if err != nil {
		return nil, fmt.Errorf("failed to load gauges: %w", err)
	}
	if len(gauges) == 0 {
		logger.Debug("No gauges configured, EFC cache controller will not be created")
		return nil, nil
	}

	windows := cacheConfig.WindowsHours
	if len(windows) == 0 {
		windows = []int{DefaultWindowHours}
	}

	interval := defaultRefreshInterval
	if cacheConfig.RefreshIntervalMinutes > 0 {
		interval = time.Duration(cacheConfig.RefreshIntervalMinutes) * time.Minute
	}

	ctrl := &Controller{
		ctx:            ctx,
		wg:             wg,
		db:             db,
		configProvider: configProvider,
		logger:         logger,
		interval:       interval,
		stopChan:       make(chan struct{}),
	}
	for _, gauge := range gauges {
		ctrl.calculators = append(ctrl.calculators, NewCalculator(db, logger, gauge, windows))
	}

	return ctrl, nil
}

// Start begins the cache refresh loop. This method blocks until the context
// is cancelled or Stop is called.
func (c *Controller) Start() error {
	// Wait for gauges to start recording data
	c.logger.Infof("EFC cache refresh job waiting for discharge data (%d gauges)", len(c.calculators))
	for !c.hasRecentData() {
		select {
		case <-c.ctx.Done():
			c.logger.Info("EFC cache refresh job stopped before data became available")
			return nil
		case <-c.stopChan:
			c.logger.Info("EFC cache refresh job stopped before data became available")
			return nil
		case <-time.After(30 * time.Second):
		}
	}

	c.logger.Infof("Discharge data available - starting EFC cache refresh job (interval %s)", c.interval)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Do initial classification immediately
	c.refreshAll()

	for {
		select {
		case <-c.ctx.Done():
			c.logger.Info("EFC cache refresh job stopped (context cancelled)")
			return nil
		case <-c.stopChan:
			c.logger.Info("EFC cache refresh job stopped (stop requested)")
			return nil
		case <-ticker.C:
			c.refreshAll()
		}
	}
}

// Stop gracefully stops the controller
func (c *Controller) Stop() error {
	c.logger.Info("Stopping EFC cache controller...")
	close(c.stopChan)
	return nil
}

// refreshAll refreshes every gauge's cache, continuing past failures
func (c *Controller) refreshAll() {
	for _, calc := range c.calculators {
		if err := calc.RefreshWindows(c.ctx); err != nil {
			c.logger.Errorf("EFC cache refresh failed for gauge %s: %v", calc.gauge.Name, err)
		}
	}
}

// hasRecentData checks whether any gauge recorded discharge within the last
// 24 hours
func (c *Controller) hasRecentData() bool {
	var count int
	query := `
		SELECT COUNT(*)
		FROM discharge_1h
		WHERE discharge_cms IS NOT NULL
		  AND bucket >= NOW() - INTERVAL '24 hours'
		LIMIT 1
	`
	if err := c.db.QueryRow(query).Scan(&count); err != nil {
		c.logger.Debugf("Error checking for discharge data: %v", err)
		return false
	}
	return count > 0
}
