package efc

import (
	"fmt"
	"strings"
	"time"
)

// FlowClass is the environmental flow component label assigned to a single
// time step of a discharge series.
type FlowClass string

const (
	// ClassLowFlow indicates baseline low-flow conditions
	ClassLowFlow FlowClass = "low flow"
	// ClassLowFlowPulse indicates an extreme low-flow excursion
	ClassLowFlowPulse FlowClass = "low flow pulse"
	// ClassAscendingLimb indicates rising flow within a pulse (intermediate state, advanced method only)
	ClassAscendingLimb FlowClass = "ascending limb"
	// ClassDescendingLimb indicates falling flow within a pulse (intermediate state, advanced method only)
	ClassDescendingLimb FlowClass = "descending limb"
	// ClassHighFlowPulse indicates a high-flow pulse below flood magnitude
	ClassHighFlowPulse FlowClass = "high flow pulse"
	// ClassSmallFlood indicates a pulse peaking above the small-flood threshold
	ClassSmallFlood FlowClass = "small flood"
	// ClassLargeFlood indicates a pulse peaking above the large-flood threshold
	ClassLargeFlood FlowClass = "large flood"
)

// Threshold keys recognized by the classifiers. Keys a method does not
// recognize are ignored by classification but preserved for reporting.
const (
	KeyHighFlow          = "high flow"
	KeyLowFlow           = "low flow"
	KeyHighFlowStartRate = "high flow start rate"
	KeyHighFlowEndRate   = "high flow end rate"
	KeySmallFloodMinPeak = "small flood minimum peak flow"
	KeyLargeFloodMinPeak = "large flood minimum peak flow"
	KeyExtremeLowFlow    = "extreme low flow"
)

// ThresholdSet maps a threshold key to its numeric value. Values share the
// unit of the discharge series except the two rate keys, which are
// dimensionless step-over-step ratios.
type ThresholdSet map[string]float64

// Clone returns a copy of the threshold set
func (t ThresholdSet) Clone() ThresholdSet {
	out := make(ThresholdSet, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Method selects the classification algorithm
type Method string

const (
	// MethodStandard is the single-pass threshold bucket classifier
	MethodStandard Method = "standard"
	// MethodAdvanced is the three-pass stateful limb/pulse classifier
	MethodAdvanced Method = "advanced"
)

// ParseMethod validates a method name case-insensitively
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(s)) {
	case MethodStandard:
		return MethodStandard, nil
	case MethodAdvanced:
		return MethodAdvanced, nil
	}
	return "", fmt.Errorf("unknown classification method %q: valid methods are %q and %q",
		s, MethodStandard, MethodAdvanced)
}

// requiredKeys lists the threshold keys each method refuses to run without
var requiredKeys = map[Method][]string{
	MethodStandard: {KeyHighFlow},
	MethodAdvanced: {KeyHighFlow, KeyLowFlow, KeyHighFlowStartRate, KeyHighFlowEndRate},
}

// checkRequired verifies that every required key for the method is present.
// The error names the complete required-key set so a misconfigured caller
// sees everything that is expected, not just the first missing key.
func checkRequired(method Method, thresholds ThresholdSet) error {
	var missing []string
	for _, key := range requiredKeys[method] {
		if _, ok := thresholds[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("method %q requires threshold keys %q: missing %q",
			method, requiredKeys[method], missing)
	}
	return nil
}

// FlowReading represents a single discharge observation
type FlowReading struct {
	Time         time.Time
	DischargeCMS float64
}

// FlowSeries is an ordered discharge series with one value per time step.
// Timestamps are assumed strictly increasing and evenly spaced; the series
// does not verify either. Classifiers treat it as immutable input.
type FlowSeries struct {
	readings []FlowReading
}

// NewFlowSeries creates a series from ordered readings
func NewFlowSeries(readings []FlowReading) *FlowSeries {
	return &FlowSeries{readings: readings}
}

// NewFlowSeriesFromValues creates a series from parallel timestamp and value
// slices. The slices must be the same length.
func NewFlowSeriesFromValues(times []time.Time, values []float64) (*FlowSeries, error) {
	if len(times) != len(values) {
		return nil, fmt.Errorf("timestamp/value length mismatch: %d timestamps, %d values",
			len(times), len(values))
	}
	readings := make([]FlowReading, len(times))
	for i := range times {
		readings[i] = FlowReading{Time: times[i], DischargeCMS: values[i]}
	}
	return &FlowSeries{readings: readings}, nil
}

// Len returns the number of time steps in the series
func (s *FlowSeries) Len() int {
	return len(s.readings)
}

// Reading returns the observation at index i
func (s *FlowSeries) Reading(i int) FlowReading {
	return s.readings[i]
}

// Values returns a fresh slice of the discharge values in time order
func (s *FlowSeries) Values() []float64 {
	values := make([]float64, len(s.readings))
	for i, r := range s.readings {
		values[i] = r.DischargeCMS
	}
	return values
}

// Times returns a fresh slice of the timestamps in time order
func (s *FlowSeries) Times() []time.Time {
	times := make([]time.Time, len(s.readings))
	for i, r := range s.readings {
		times[i] = r.Time
	}
	return times
}

// ClassifiedSeries is the classifier output: one label per input time step,
// aligned index-for-index with the input series.
type ClassifiedSeries struct {
	Times  []time.Time
	Labels []FlowClass
}

// Len returns the number of labeled time steps
func (c *ClassifiedSeries) Len() int {
	return len(c.Labels)
}
