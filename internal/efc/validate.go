package efc

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// ThresholdRange is one row of a threshold validation report
type ThresholdRange struct {
	Key        string  `json:"key"`
	Value      float64 `json:"value"`
	SeriesMin  float64 `json:"series_min"`
	SeriesMax  float64 `json:"series_max"`
	BelowRange bool    `json:"below_range"`
	AboveRange bool    `json:"above_range"`
}

// ValidateThresholds checks every threshold in the set against the observed
// value range of the series and reports, per key, whether the threshold
// falls outside it. The report is diagnostic: an out-of-range threshold is
// a warning for the operator, never a classification failure. Rows are
// sorted by key for stable output.
func ValidateThresholds(thresholds ThresholdSet, flow []float64) []ThresholdRange {
	var seriesMin, seriesMax float64
	if len(flow) > 0 {
		seriesMin = floats.Min(flow)
		seriesMax = floats.Max(flow)
	}

	keys := make([]string, 0, len(thresholds))
	for key := range thresholds {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	report := make([]ThresholdRange, 0, len(keys))
	for _, key := range keys {
		row := ThresholdRange{
			Key:       key,
			Value:     thresholds[key],
			SeriesMin: seriesMin,
			SeriesMax: seriesMax,
		}
		if len(flow) > 0 {
			row.BelowRange = row.Value < seriesMin
			row.AboveRange = row.Value > seriesMax
		}
		report = append(report, row)
	}
	return report
}
