package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// YAML-tagged mirror structs; converted into the JSON-tagged ConfigData
// structs after unmarshalling
type gaugeYAML struct {
	Name        string             `yaml:"name"`
	SiteCode    string             `yaml:"site_code,omitempty"`
	RiverName   string             `yaml:"river_name,omitempty"`
	Method      string             `yaml:"method,omitempty"`
	StepMinutes int                `yaml:"step_minutes,omitempty"`
	Thresholds  map[string]float64 `yaml:"thresholds,omitempty"`
}

type storageYAML struct {
	TimescaleDB *timescaleDBYAML `yaml:"timescaledb,omitempty"`
}

type timescaleDBYAML struct {
	ConnectionString string `yaml:"connection_string"`
}

type controllerYAML struct {
	Type       string          `yaml:"type,omitempty"`
	RESTServer *restServerYAML `yaml:"rest,omitempty"`
	EFCCache   *efcCacheYAML   `yaml:"efc_cache,omitempty"`
}

type restServerYAML struct {
	DefaultListenAddr string `yaml:"listen_addr,omitempty"`
	HTTPPort          int    `yaml:"http_port,omitempty"`
	TLSCertPath       string `yaml:"cert,omitempty"`
	TLSKeyPath        string `yaml:"key,omitempty"`
	DefaultGauge      string `yaml:"default_gauge,omitempty"`
}

type efcCacheYAML struct {
	RefreshIntervalMinutes int   `yaml:"refresh_interval_minutes,omitempty"`
	WindowsHours           []int `yaml:"windows_hours,omitempty"`
}

// LoadConfig loads the complete configuration from the YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	var yamlConfig struct {
		Gauges      []gaugeYAML      `yaml:"gauges"`
		Storage     storageYAML      `yaml:"storage,omitempty"`
		Controllers []controllerYAML `yaml:"controllers,omitempty"`
	}

	if err := yaml.Unmarshal(cfgFile, &yamlConfig); err != nil {
		return nil, err
	}

	config := &ConfigData{}
	for _, g := range yamlConfig.Gauges {
		config.Gauges = append(config.Gauges, GaugeData{
			Name:        g.Name,
			SiteCode:    g.SiteCode,
			RiverName:   g.RiverName,
			Method:      g.Method,
			StepMinutes: g.StepMinutes,
			Thresholds:  g.Thresholds,
		})
	}
	if yamlConfig.Storage.TimescaleDB != nil {
		config.Storage.TimescaleDB = &TimescaleDBData{
			ConnectionString: yamlConfig.Storage.TimescaleDB.ConnectionString,
		}
	}
	for _, c := range yamlConfig.Controllers {
		controller := ControllerData{Type: c.Type}
		if c.RESTServer != nil {
			controller.RESTServer = &RESTServerData{
				DefaultListenAddr: c.RESTServer.DefaultListenAddr,
				HTTPPort:          c.RESTServer.HTTPPort,
				TLSCertPath:       c.RESTServer.TLSCertPath,
				TLSKeyPath:        c.RESTServer.TLSKeyPath,
				DefaultGauge:      c.RESTServer.DefaultGauge,
			}
		}
		if c.EFCCache != nil {
			controller.EFCCache = &EFCCacheData{
				RefreshIntervalMinutes: c.EFCCache.RefreshIntervalMinutes,
				WindowsHours:           c.EFCCache.WindowsHours,
			}
		}
		config.Controllers = append(config.Controllers, controller)
	}

	y.config = config
	return config, nil
}

// GetGauges returns gauge configurations
func (y *YAMLProvider) GetGauges() ([]GaugeData, error) {
	if y.config == nil {
		if _, err := y.LoadConfig(); err != nil {
			return nil, err
		}
	}
	return y.config.Gauges, nil
}

// GetStorageConfig returns the storage configuration
func (y *YAMLProvider) GetStorageConfig() (*StorageData, error) {
	if y.config == nil {
		if _, err := y.LoadConfig(); err != nil {
			return nil, err
		}
	}
	return &y.config.Storage, nil
}

// GetControllers returns controller configurations
func (y *YAMLProvider) GetControllers() ([]ControllerData, error) {
	if y.config == nil {
		if _, err := y.LoadConfig(); err != nil {
			return nil, err
		}
	}
	return y.config.Controllers, nil
}

// IsReadOnly returns true: YAML configurations are not editable at runtime
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML providers
func (y *YAMLProvider) Close() error {
	return nil
}
