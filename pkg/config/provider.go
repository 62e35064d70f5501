// Package config provides configuration loading for riverflow from YAML
// files or SQLite databases behind a common provider interface.
package config

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetGauges() ([]GaugeData, error)
	GetStorageConfig() (*StorageData, error)
	GetControllers() ([]ControllerData, error)

	// Configuration management
	IsReadOnly() bool
	Close() error
}

// Controller type identifiers used in the controllers configuration section
const (
	ControllerTypeRESTServer = "rest"
	ControllerTypeEFCCache   = "efc_cache"
)

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Gauges      []GaugeData      `json:"gauges"`
	Storage     StorageData      `json:"storage,omitempty"`
	Controllers []ControllerData `json:"controllers,omitempty"`
}

// GaugeData holds configuration for a single stream gauge whose discharge
// series is classified
type GaugeData struct {
	Name        string             `json:"name"`
	SiteCode    string             `json:"site_code,omitempty"`
	RiverName   string             `json:"river_name,omitempty"`
	Method      string             `json:"method,omitempty"`       // standard or advanced; advanced when empty
	StepMinutes int                `json:"step_minutes,omitempty"` // sampling interval of the stored series
	Thresholds  map[string]float64 `json:"thresholds,omitempty"`   // explicit thresholds; derived when empty
}

// StorageData holds the configuration for storage backends
type StorageData struct {
	TimescaleDB *TimescaleDBData `json:"timescaledb,omitempty"`
}

// TimescaleDBData holds TimescaleDB connection configuration
type TimescaleDBData struct {
	ConnectionString string `json:"connection_string"`
}

// ControllerData holds the configuration for controller backends
type ControllerData struct {
	Type       string          `json:"type,omitempty"`
	RESTServer *RESTServerData `json:"rest,omitempty"`
	EFCCache   *EFCCacheData   `json:"efc_cache,omitempty"`
}

// RESTServerData holds REST server controller configuration
type RESTServerData struct {
	DefaultListenAddr string `json:"listen_addr,omitempty"`
	HTTPPort          int    `json:"http_port,omitempty"`
	TLSCertPath       string `json:"cert,omitempty"`
	TLSKeyPath        string `json:"key,omitempty"`
	DefaultGauge      string `json:"default_gauge,omitempty"`
}

// EFCCacheData holds EFC cache refresh controller configuration
type EFCCacheData struct {
	RefreshIntervalMinutes int   `json:"refresh_interval_minutes,omitempty"` // defaults to 15
	WindowsHours           []int `json:"windows_hours,omitempty"`            // classification windows; defaults to 720
}
