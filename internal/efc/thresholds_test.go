package efc

import (
	"math"
	"testing"
	"time"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= epsilon
}

func TestQuantileType7(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	tests := []struct {
		name     string
		p        float64
		expected float64
	}{
		{"p=0 returns minimum", 0, 1},
		{"p=1 returns maximum", 1, 10},
		{"p=0.10 interpolates", 0.10, 1.9},
		{"p=0.50 interpolates", 0.50, 5.5},
		{"p=0.75 interpolates", 0.75, 7.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := QuantileType7(sorted, tt.p)
			if !almostEqual(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestQuantileType6(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	tests := []struct {
		name     string
		p        float64
		expected float64
	}{
		{"p=0 clamps to minimum", 0, 1},
		{"p=1 clamps to maximum", 1, 10},
		{"p=0.10 interpolates", 0.10, 1.1},
		{"p=0.50 interpolates", 0.50, 5.5},
		{"p=0.90 interpolates", 0.90, 9.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := QuantileType6(sorted, tt.p)
			if !almostEqual(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestQuantileSingleValue(t *testing.T) {
	sorted := []float64{42}
	if got := QuantileType7(sorted, 0.5); !almostEqual(got, 42) {
		t.Errorf("type 7: expected 42, got %v", got)
	}
	if got := QuantileType6(sorted, 0.5); !almostEqual(got, 42) {
		t.Errorf("type 6: expected 42, got %v", got)
	}
}

// yearlySeries builds a series with the given values spread across years,
// two values per calendar year starting at 2018
func yearlySeries(values []float64) *FlowSeries {
	readings := make([]FlowReading, len(values))
	for i, v := range values {
		year := 2018 + i/2
		month := time.Month(1 + 6*(i%2))
		readings[i] = FlowReading{
			Time:         time.Date(year, month, 1, 0, 0, 0, 0, time.UTC),
			DischargeCMS: v,
		}
	}
	return NewFlowSeries(readings)
}

func TestYearlyMaxima(t *testing.T) {
	series := yearlySeries([]float64{1, 4, 8, 2, 3, 6, 10, 5})

	maxima := YearlyMaxima(series)
	expected := []float64{4, 8, 6, 10} // 2018..2021, in year order

	if len(maxima) != len(expected) {
		t.Fatalf("expected %d yearly maxima, got %d", len(expected), len(maxima))
	}
	for i, v := range expected {
		if !almostEqual(maxima[i], v) {
			t.Errorf("year %d: expected maximum %v, got %v", 2018+i, v, maxima[i])
		}
	}
}

func TestDefaultThresholdsStandard(t *testing.T) {
	series := yearlySeries([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})

	thresholds, err := DefaultThresholds(series, MethodStandard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(thresholds) != 2 {
		t.Errorf("expected 2 thresholds, got %d: %v", len(thresholds), thresholds)
	}
	if !almostEqual(thresholds[KeyHighFlow], 7.75) {
		t.Errorf("high flow: expected 7.75, got %v", thresholds[KeyHighFlow])
	}
	if !almostEqual(thresholds[KeyExtremeLowFlow], 1.9) {
		t.Errorf("extreme low flow: expected 1.9, got %v", thresholds[KeyExtremeLowFlow])
	}
}

func TestDefaultThresholdsAdvanced(t *testing.T) {
	// All values sorted: [1 2 3 4 5 6 8 10]; yearly maxima sorted: [4 6 8 10]
	series := yearlySeries([]float64{1, 4, 8, 2, 3, 6, 10, 5})

	thresholds, err := DefaultThresholds(series, MethodAdvanced)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := ThresholdSet{
		KeyHighFlow:          6.5, // Q7 at 0.75
		KeyLowFlow:           4.5, // Q7 at 0.50
		KeyExtremeLowFlow:    1.7, // Q7 at 0.10
		KeyHighFlowStartRate: 1.25,
		KeyHighFlowEndRate:   0.9,
		KeySmallFloodMinPeak: 7,  // Q6 of maxima at 0.50
		KeyLargeFloodMinPeak: 10, // Q6 of maxima at 0.90, clamped to maximum
	}

	if len(thresholds) != len(expected) {
		t.Errorf("expected %d thresholds, got %d: %v", len(expected), len(thresholds), thresholds)
	}
	for key, want := range expected {
		got, ok := thresholds[key]
		if !ok {
			t.Errorf("missing threshold %q", key)
			continue
		}
		if !almostEqual(got, want) {
			t.Errorf("%s: expected %v, got %v", key, want, got)
		}
	}
}

func TestDefaultThresholdsEmptySeries(t *testing.T) {
	series := NewFlowSeries(nil)
	if _, err := DefaultThresholds(series, MethodStandard); err == nil {
		t.Error("expected error for empty series, got nil")
	}
}
