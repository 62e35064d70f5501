package restserver

import (
	"time"

	"github.com/hydrograph/riverflow/internal/efc"
)

// LabelReading is one classified time step
type LabelReading struct {
	Time      time.Time `json:"ts"`
	FlowClass string    `json:"class"`
}

// EFCSpanResponse carries cached classification labels over a span
type EFCSpanResponse struct {
	Gauge       string         `json:"gauge"`
	Method      string         `json:"method"`
	WindowHours int            `json:"window_hours"`
	Labels      []LabelReading `json:"labels"`
}

// EFCLatestResponse carries the most recent cached label for a gauge
type EFCLatestResponse struct {
	Gauge      string    `json:"gauge"`
	Time       time.Time `json:"ts"`
	FlowClass  string    `json:"class"`
	ComputedAt time.Time `json:"computed_at"`
}

// PulseReading is one cached high-flow pulse
type PulseReading struct {
	StartTime     time.Time `json:"start"`
	EndTime       time.Time `json:"end"`
	FlowClass     string    `json:"class"`
	PeakCMS       float64   `json:"peak_cms"`
	DurationSteps int       `json:"duration_steps"`
}

// PulseSpanResponse carries cached pulses over a span
type PulseSpanResponse struct {
	Gauge       string         `json:"gauge"`
	WindowHours int            `json:"window_hours"`
	Pulses      []PulseReading `json:"pulses"`
}

// ClassifyResponse carries an on-demand classification run with its
// diagnostics
type ClassifyResponse struct {
	Gauge                 string             `json:"gauge"`
	Method                string             `json:"method"`
	DerivedThresholds     bool               `json:"derived_thresholds"`
	Thresholds            map[string]float64 `json:"thresholds"`
	ActiveOptionalClasses []string           `json:"active_optional_classes,omitempty"`
	Labels                []LabelReading     `json:"labels"`
}

// ThresholdsResponse carries the effective thresholds for a gauge plus a
// range report against the series the handler inspected
type ThresholdsResponse struct {
	Gauge      string               `json:"gauge"`
	Method     string               `json:"method"`
	Derived    bool                 `json:"derived"`
	Thresholds map[string]float64   `json:"thresholds"`
	Report     []efc.ThresholdRange `json:"report"`
}

// HealthResponse reports service liveness
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
