package config

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from the SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	gauges, err := s.GetGauges()
	if err != nil {
		return nil, fmt.Errorf("failed to load gauges: %w", err)
	}
	config.Gauges = gauges

	storage, err := s.GetStorageConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}
	config.Storage = *storage

	controllers, err := s.GetControllers()
	if err != nil {
		return nil, fmt.Errorf("failed to load controllers: %w", err)
	}
	config.Controllers = controllers

	return config, nil
}

// GetGauges returns gauge configurations from the database, including any
// explicit per-gauge thresholds
func (s *SQLiteProvider) GetGauges() ([]GaugeData, error) {
	query := `
		SELECT id, name, site_code, river_name, method, step_minutes
		FROM gauges
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
		ORDER BY name
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query gauges: %w", err)
	}
	defer rows.Close()

	var gauges []GaugeData
	var gaugeIDs []int64
	for rows.Next() {
		var gauge GaugeData
		var id int64
		var siteCode, riverName, method sql.NullString
		var stepMinutes sql.NullInt64

		if err := rows.Scan(&id, &gauge.Name, &siteCode, &riverName, &method, &stepMinutes); err != nil {
			return nil, fmt.Errorf("failed to scan gauge: %w", err)
		}

		gauge.SiteCode = siteCode.String
		gauge.RiverName = riverName.String
		gauge.Method = method.String
		gauge.StepMinutes = int(stepMinutes.Int64)

		gauges = append(gauges, gauge)
		gaugeIDs = append(gaugeIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("gauge rows iteration failed: %w", err)
	}

	for i, id := range gaugeIDs {
		thresholds, err := s.getGaugeThresholds(id)
		if err != nil {
			return nil, err
		}
		gauges[i].Thresholds = thresholds
	}

	return gauges, nil
}

// getGaugeThresholds returns the explicit threshold overrides for a gauge,
// or nil if the gauge uses derived thresholds
func (s *SQLiteProvider) getGaugeThresholds(gaugeID int64) (map[string]float64, error) {
	rows, err := s.db.Query(`SELECT key, value FROM gauge_thresholds WHERE gauge_id = ?`, gaugeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query gauge thresholds: %w", err)
	}
	defer rows.Close()

	var thresholds map[string]float64
	for rows.Next() {
		var key string
		var value float64
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan threshold: %w", err)
		}
		if thresholds == nil {
			thresholds = make(map[string]float64)
		}
		thresholds[key] = value
	}
	return thresholds, rows.Err()
}

// GetStorageConfig returns the storage configuration from the database
func (s *SQLiteProvider) GetStorageConfig() (*StorageData, error) {
	storage := &StorageData{}

	var connectionString sql.NullString
	query := `
		SELECT connection_string FROM storage_timescaledb
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
	`
	err := s.db.QueryRow(query).Scan(&connectionString)
	switch {
	case err == sql.ErrNoRows:
		return storage, nil
	case err != nil:
		return nil, fmt.Errorf("failed to query storage config: %w", err)
	}

	if connectionString.Valid && connectionString.String != "" {
		storage.TimescaleDB = &TimescaleDBData{ConnectionString: connectionString.String}
	}
	return storage, nil
}

// GetControllers returns controller configurations from the database
func (s *SQLiteProvider) GetControllers() ([]ControllerData, error) {
	query := `
		SELECT type, listen_addr, http_port, tls_cert_path, tls_key_path,
		       default_gauge, refresh_interval_minutes, windows_hours
		FROM controllers
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
		ORDER BY type
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query controllers: %w", err)
	}
	defer rows.Close()

	var controllers []ControllerData
	for rows.Next() {
		var controller ControllerData
		var listenAddr, certPath, keyPath, defaultGauge, windowsCSV sql.NullString
		var httpPort, refreshMinutes sql.NullInt64

		err := rows.Scan(&controller.Type, &listenAddr, &httpPort, &certPath,
			&keyPath, &defaultGauge, &refreshMinutes, &windowsCSV)
		if err != nil {
			return nil, fmt.Errorf("failed to scan controller: %w", err)
		}

		switch controller.Type {
		case "rest":
			controller.RESTServer = &RESTServerData{
				DefaultListenAddr: listenAddr.String,
				HTTPPort:          int(httpPort.Int64),
				TLSCertPath:       certPath.String,
				TLSKeyPath:        keyPath.String,
				DefaultGauge:      defaultGauge.String,
			}
		case "efc_cache":
			controller.EFCCache = &EFCCacheData{
				RefreshIntervalMinutes: int(refreshMinutes.Int64),
				WindowsHours:           parseWindows(windowsCSV.String),
			}
		}

		controllers = append(controllers, controller)
	}
	return controllers, rows.Err()
}

// parseWindows parses a comma-separated list of window sizes in hours
func parseWindows(csv string) []int {
	var windows []int
	for _, part := range strings.Split(csv, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n <= 0 {
			continue
		}
		windows = append(windows, n)
	}
	return windows
}

// IsReadOnly returns false: SQLite configurations can be modified
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
