package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/hydrograph/riverflow/internal/controllers/efccache"
	"github.com/hydrograph/riverflow/internal/database"
	"github.com/hydrograph/riverflow/internal/log"
	"github.com/hydrograph/riverflow/pkg/config"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxSpan caps how far back the span endpoints will query.
const maxSpan = 366 * 24 * time.Hour

// Controller represents the REST server controller
type Controller struct {
	ctx            context.Context
	wg             *sync.WaitGroup
	configProvider config.ConfigProvider
	restConfig     config.RESTServerData
	Server         http.Server
	DBClient       *database.Client
	DB             *gorm.DB
	DBEnabled      bool
	Gauges         []config.GaugeData
	GaugeNames     map[string]bool
	DefaultGauge   string
	CacheWindows   []int
	logger         *zap.SugaredLogger
	handlers       *Handlers
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, rc config.RESTServerData, logger *zap.SugaredLogger) (*Controller, error) {
	ctrl := &Controller{
		ctx:            ctx,
		wg:             wg,
		configProvider: configProvider,
		restConfig:     rc,
		logger:         logger,
	}

	cfgData, err := configProvider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %v", err)
	}

	if len(cfgData.Gauges) == 0 {
		return nil, fmt.Errorf("no gauges configured - at least one gauge must be configured for the REST server")
	}

	ctrl.Gauges = cfgData.Gauges
	ctrl.GaugeNames = make(map[string]bool)
	for _, gauge := range cfgData.Gauges {
		ctrl.GaugeNames[gauge.Name] = true
	}

	// Determine the gauge queried when the request does not name one
	ctrl.DefaultGauge = rc.DefaultGauge
	if ctrl.DefaultGauge == "" {
		ctrl.DefaultGauge = cfgData.Gauges[0].Name
	}
	if !ctrl.GaugeNames[ctrl.DefaultGauge] {
		return nil, fmt.Errorf("default gauge does not exist: %s", ctrl.DefaultGauge)
	}

	// Pick up the cache windows from the EFC cache controller, if configured,
	// so the span handlers know which precomputed windows are available. A
	// cache controller without explicit windows populates the default window,
	// so resolve the same fallback here.
	for _, con := range cfgData.Controllers {
		if con.Type == config.ControllerTypeEFCCache {
			if con.EFCCache != nil && len(con.EFCCache.WindowsHours) > 0 {
				ctrl.CacheWindows = con.EFCCache.WindowsHours
			} else {
				ctrl.CacheWindows = []int{efccache.DefaultWindowHours}
			}
		}
	}

	// If a DefaultListenAddr was not provided, listen on all interfaces
	if rc.DefaultListenAddr == "" {
		logger.Info("rest.default_listen_addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		rc.DefaultListenAddr = "0.0.0.0"
	}

	// Set default HTTP port if not specified
	if rc.HTTPPort == 0 {
		logger.Info("rest.http_port not provided; defaulting to 8080")
		rc.HTTPPort = 8080
	}
	ctrl.restConfig = rc

	// If a TimescaleDB database was configured, set up a database client so
	// that the handlers can retrieve data
	if cfgData.Storage.TimescaleDB != nil && cfgData.Storage.TimescaleDB.ConnectionString != "" {
		ctrl.DBClient = database.NewClient(cfgData, logger)
		if err := ctrl.DBClient.Connect(); err != nil {
			return nil, fmt.Errorf("REST server could not connect to database: %v", err)
		}
		ctrl.DB = ctrl.DBClient.DB
		ctrl.DBEnabled = true
	}

	// Create handlers
	ctrl.handlers = NewHandlers(ctrl)

	// Set up router
	router := ctrl.setupRouter()
	ctrl.Server.Addr = fmt.Sprintf("%v:%v", rc.DefaultListenAddr, rc.HTTPPort)
	ctrl.Server.Handler = router

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	log.Info("Starting REST server controller...")
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		if c.restConfig.TLSCertPath != "" && c.restConfig.TLSKeyPath != "" {
			if err := c.Server.ListenAndServeTLS(c.restConfig.TLSCertPath, c.restConfig.TLSKeyPath); err != http.ErrServerClosed {
				log.Errorf("REST server error: %v", err)
			}
		} else {
			if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
				log.Errorf("REST server error: %v", err)
			}
		}
	}()

	go func() {
		<-c.ctx.Done()
		log.Info("Shutting down the REST server...")
		c.Server.Shutdown(context.Background())
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()

	// Cached classifications, served from the tables the EFC cache
	// controller maintains
	router.HandleFunc("/efc/span/{span}", c.handlers.GetEFCSpan)
	router.HandleFunc("/efc/latest", c.handlers.GetEFCLatest)
	router.HandleFunc("/pulses/span/{span}", c.handlers.GetPulseSpan)

	// On-demand classification and threshold inspection
	router.HandleFunc("/classify/span/{span}", c.handlers.ClassifySpan)
	router.HandleFunc("/thresholds", c.handlers.GetThresholds)

	router.HandleFunc("/health", c.handlers.GetHealth)

	return router
}

// gaugeByName returns the gauge config for name, or nil if not configured.
func (c *Controller) gaugeByName(name string) *config.GaugeData {
	for i := range c.Gauges {
		if c.Gauges[i].Name == name {
			return &c.Gauges[i]
		}
	}
	return nil
}

// cacheWindowFor picks the smallest precomputed cache window that covers
// the requested number of hours. Returns 0 if no window covers it.
func (c *Controller) cacheWindowFor(hours int) int {
	best := 0
	for _, w := range c.CacheWindows {
		if w >= hours && (best == 0 || w < best) {
			best = w
		}
	}
	return best
}

// fetchLabelSpan retrieves cached classification labels for a gauge over
// the trailing span, using the precomputed window that covers it.
func (c *Controller) fetchLabelSpan(gaugeName string, span time.Duration, window int) ([]database.CachedEFCLabel, error) {
	if span > maxSpan {
		return nil, fmt.Errorf("time span exceeds maximum allowed duration of 1 year")
	}

	var labels []database.CachedEFCLabel
	spanStart := time.Now().Add(-span)
	err := c.DB.Table("efc_labels_cache").
		Where("gaugename = ? AND hours = ? AND bucket >= ?", gaugeName, window, spanStart).
		Order("bucket").
		Find(&labels).Error
	if err != nil {
		return nil, fmt.Errorf("error querying cached labels: %v", err)
	}
	return labels, nil
}

// fetchLatestLabel retrieves the most recent cached label for a gauge in
// the given window, or nil if the cache holds nothing for it.
func (c *Controller) fetchLatestLabel(gaugeName string, window int) (*database.CachedEFCLabel, error) {
	var labels []database.CachedEFCLabel
	err := c.DB.Table("efc_labels_cache").
		Where("gaugename = ? AND hours = ?", gaugeName, window).
		Order("bucket DESC").
		Limit(1).
		Find(&labels).Error
	if err != nil {
		return nil, fmt.Errorf("error querying latest cached label: %v", err)
	}
	if len(labels) == 0 {
		return nil, nil
	}
	return &labels[0], nil
}

// fetchPulseSpan retrieves cached pulses whose extent overlaps the
// trailing span.
func (c *Controller) fetchPulseSpan(gaugeName string, span time.Duration, window int) ([]database.CachedEFCPulse, error) {
	if span > maxSpan {
		return nil, fmt.Errorf("time span exceeds maximum allowed duration of 1 year")
	}

	var pulses []database.CachedEFCPulse
	spanStart := time.Now().Add(-span)
	err := c.DB.Table("efc_pulses_cache").
		Where("gaugename = ? AND hours = ? AND end_time >= ?", gaugeName, window, spanStart).
		Order("start_time").
		Find(&pulses).Error
	if err != nil {
		return nil, fmt.Errorf("error querying cached pulses: %v", err)
	}
	return pulses, nil
}
