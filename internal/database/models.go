package database

import "time"

// BucketReading represents an aggregated discharge reading fetched from a
// TimescaleDB continuous aggregate
type BucketReading struct {
	Bucket       time.Time `gorm:"column:bucket"`
	GaugeName    string    `gorm:"column:gaugename"`
	DischargeCMS float64   `gorm:"column:discharge_cms"`
	StageMM      float64   `gorm:"column:stage_mm"`
	WaterTempC   float64   `gorm:"column:watertemp_c"`
}

// TableName implements the Tabler interface for the BucketReading struct
func (BucketReading) TableName() string {
	return "discharge_1h"
}

// CachedEFCLabel represents one classified time step in the EFC label cache,
// refreshed periodically by the EFC cache controller
type CachedEFCLabel struct {
	GaugeName  string    `gorm:"column:gaugename"`
	Hours      int       `gorm:"column:hours"`
	Bucket     time.Time `gorm:"column:bucket"`
	FlowClass  string    `gorm:"column:flow_class"`
	ComputedAt time.Time `gorm:"column:computed_at"`
}

// TableName implements the Tabler interface for the CachedEFCLabel struct
func (CachedEFCLabel) TableName() string {
	return "efc_labels_cache"
}

// CachedEFCPulse represents a classified high-flow pulse in the pulse cache
type CachedEFCPulse struct {
	GaugeName       string    `gorm:"column:gaugename"`
	Hours           int       `gorm:"column:hours"`
	StartTime       time.Time `gorm:"column:start_time"`
	EndTime         time.Time `gorm:"column:end_time"`
	FlowClass       string    `gorm:"column:flow_class"`
	PeakDischargeMS float64   `gorm:"column:peak_discharge_cms"`
	DurationSteps   int       `gorm:"column:duration_steps"`
	ComputedAt      time.Time `gorm:"column:computed_at"`
}

// TableName implements the Tabler interface for the CachedEFCPulse struct
func (CachedEFCPulse) TableName() string {
	return "efc_pulses_cache"
}
