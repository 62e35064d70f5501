package config

import (
	"os"
	"path/filepath"
	"testing"
)

const testConfigYAML = `
gauges:
  - name: animas-durango
    site_code: "09361500"
    river_name: Animas River
    method: advanced
    step_minutes: 1440
  - name: florida-bondad
    method: standard
    thresholds:
      high flow: 42.5
      extreme low flow: 3.1
storage:
  timescaledb:
    connection_string: "host=localhost dbname=riverflow"
controllers:
  - type: rest
    rest:
      http_port: 8090
      default_gauge: animas-durango
  - type: efc_cache
    efc_cache:
      refresh_interval_minutes: 30
      windows_hours: [168, 720]
`

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "riverflow.yaml")
	if err := os.WriteFile(path, []byte(testConfigYAML), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestYAMLProviderLoadConfig(t *testing.T) {
	provider := NewYAMLProvider(writeTestConfig(t))
	defer provider.Close()

	cfg, err := provider.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if len(cfg.Gauges) != 2 {
		t.Fatalf("expected 2 gauges, got %d", len(cfg.Gauges))
	}
	if cfg.Gauges[0].Name != "animas-durango" || cfg.Gauges[0].Method != "advanced" {
		t.Errorf("first gauge parsed incorrectly: %+v", cfg.Gauges[0])
	}
	if cfg.Gauges[0].StepMinutes != 1440 {
		t.Errorf("expected step_minutes 1440, got %d", cfg.Gauges[0].StepMinutes)
	}

	th := cfg.Gauges[1].Thresholds
	if th == nil || th["high flow"] != 42.5 || th["extreme low flow"] != 3.1 {
		t.Errorf("explicit thresholds parsed incorrectly: %v", th)
	}

	if cfg.Storage.TimescaleDB == nil ||
		cfg.Storage.TimescaleDB.ConnectionString != "host=localhost dbname=riverflow" {
		t.Errorf("storage config parsed incorrectly: %+v", cfg.Storage)
	}

	if len(cfg.Controllers) != 2 {
		t.Fatalf("expected 2 controllers, got %d", len(cfg.Controllers))
	}
	rest := cfg.Controllers[0].RESTServer
	if rest == nil || rest.HTTPPort != 8090 || rest.DefaultGauge != "animas-durango" {
		t.Errorf("rest controller parsed incorrectly: %+v", cfg.Controllers[0])
	}
	cache := cfg.Controllers[1].EFCCache
	if cache == nil || cache.RefreshIntervalMinutes != 30 || len(cache.WindowsHours) != 2 {
		t.Errorf("efc_cache controller parsed incorrectly: %+v", cfg.Controllers[1])
	}
}

func TestYAMLProviderSections(t *testing.T) {
	provider := NewYAMLProvider(writeTestConfig(t))
	defer provider.Close()

	gauges, err := provider.GetGauges()
	if err != nil {
		t.Fatalf("GetGauges failed: %v", err)
	}
	if len(gauges) != 2 {
		t.Errorf("expected 2 gauges, got %d", len(gauges))
	}

	if !provider.IsReadOnly() {
		t.Error("YAML provider should be read-only")
	}
}

func TestParseWindows(t *testing.T) {
	tests := []struct {
		input    string
		expected []int
	}{
		{"24,72,168", []int{24, 72, 168}},
		{" 24 , 720 ", []int{24, 720}},
		{"", nil},
		{"abc,24", []int{24}},
	}

	for _, tt := range tests {
		got := parseWindows(tt.input)
		if len(got) != len(tt.expected) {
			t.Errorf("parseWindows(%q): expected %v, got %v", tt.input, tt.expected, got)
			continue
		}
		for i := range got {
			if got[i] != tt.expected[i] {
				t.Errorf("parseWindows(%q): expected %v, got %v", tt.input, tt.expected, got)
				break
			}
		}
	}
}
