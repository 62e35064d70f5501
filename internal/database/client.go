// Package database provides the TimescaleDB client used to fetch discharge
// series and serve cached classification results.
package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hydrograph/riverflow/internal/efc"
	"github.com/hydrograph/riverflow/internal/log"
	"github.com/hydrograph/riverflow/pkg/config"
	"go.uber.org/zap"
)

// Client holds the connection to a TimescaleDB database
type Client struct {
	config *config.ConfigData
	DB     *gorm.DB // Exported so it can be accessed from other packages
	logger *zap.SugaredLogger
}

// NewClient creates a new database client
func NewClient(c *config.ConfigData, logger *zap.SugaredLogger) *Client {
	return &Client{
		config: c,
		logger: logger,
	}
}

// Connect connects to the TimescaleDB database
func (c *Client) Connect() error {
	if c.config.Storage.TimescaleDB == nil || c.config.Storage.TimescaleDB.ConnectionString == "" {
		return fmt.Errorf("no TimescaleDB connection string configured")
	}

	db, err := CreateConnection(c.config.Storage.TimescaleDB.ConnectionString)
	if err != nil {
		return err
	}
	c.DB = db
	return nil
}

// ValidateGauge validates that the gauge name exists in config
func (c *Client) ValidateGauge(name string) bool {
	for _, gauge := range c.config.Gauges {
		if gauge.Name == name {
			return true
		}
	}
	return false
}

// FetchFlowSeries retrieves a gauge's discharge series for the trailing
// window, ordered by bucket time. Windows longer than a week read the
// daily rollup instead of the hourly one.
func (c *Client) FetchFlowSeries(gaugeName string, hours int) (*efc.FlowSeries, error) {
	table := "discharge_1h"
	if hours > 7*24 {
		table = "discharge_1d"
	}

	var buckets []BucketReading
	err := c.DB.Table(table).
		Where("gaugename = ? AND bucket >= NOW() - INTERVAL '1 hour' * ?", gaugeName, hours).
		Order("bucket").
		Find(&buckets).Error
	if err != nil {
		return nil, fmt.Errorf("error querying discharge series for gauge %s: %w", gaugeName, err)
	}

	readings := make([]efc.FlowReading, len(buckets))
	for i, b := range buckets {
		readings[i] = efc.FlowReading{Time: b.Bucket, DischargeCMS: b.DischargeCMS}
	}
	return efc.NewFlowSeries(readings), nil
}

// CreateConnection is a helper function to create a database connection with standard GORM configuration
func CreateConnection(connectionString string) (*gorm.DB, error) {
	// Create a logger for gorm
	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  logger.Warn, // Log level
			IgnoreRecordNotFoundError: true,        // Ignore ErrRecordNotFound error for logger
			Colorful:                  true,
		},
	)

	log.Info("connecting to TimescaleDB...")
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		log.Warn("warning: unable to create a TimescaleDB connection:", err)
		return nil, err
	}

	return db, nil
}
