package efc

import (
	"fmt"
	"math"
	"sort"
)

// Rate-based transition guards for the advanced method. These are fixed
// hydrograph-shape constants, not statistics of the series: a step-over-step
// rise of more than 25% opens a pulse, a drop below 90% of the previous
// value turns an ascending limb over into recession.
const (
	DefaultHighFlowStartRate = 1.25
	DefaultHighFlowEndRate   = 0.9
)

// QuantileType7 computes the linear-interpolation quantile (R type 7,
// numpy default) of a sorted sample: position h = (n-1)*p, interpolated
// between the bracketing order statistics and clamped at the ends.
func QuantileType7(sorted []float64, p float64) float64 {
	return interpolateAt(sorted, float64(len(sorted)-1)*p)
}

// QuantileType6 computes the Weibull plotting-position quantile (R type 6):
// position h = (n+1)*p - 1, interpolated and clamped like QuantileType7.
// Hydrology uses this estimator for flood-frequency statistics on annual
// maxima.
func QuantileType6(sorted []float64, p float64) float64 {
	return interpolateAt(sorted, float64(len(sorted)+1)*p-1)
}

// interpolateAt evaluates a sorted sample at fractional 0-indexed position h
func interpolateAt(sorted []float64, h float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if h <= 0 {
		return sorted[0]
	}
	if h >= float64(n-1) {
		return sorted[n-1]
	}
	lo := int(math.Floor(h))
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// YearlyMaxima returns the maximum discharge for each calendar year present
// in the series, ordered by year
func YearlyMaxima(series *FlowSeries) []float64 {
	maxByYear := make(map[int]float64)
	var years []int
	for i := 0; i < series.Len(); i++ {
		r := series.Reading(i)
		year := r.Time.Year()
		current, seen := maxByYear[year]
		if !seen {
			maxByYear[year] = r.DischargeCMS
			years = append(years, year)
		} else if r.DischargeCMS > current {
			maxByYear[year] = r.DischargeCMS
		}
	}
	sort.Ints(years)

	maxima := make([]float64, len(years))
	for i, year := range years {
		maxima[i] = maxByYear[year]
	}
	return maxima
}

// DefaultThresholds derives the named threshold set for a method from the
// statistical distribution of the series.
//
// standard:
//
//	high flow        = Q7(flow, 0.75)
//	extreme low flow = Q7(flow, 0.10)
//
// advanced additionally:
//
//	low flow                      = Q7(flow, 0.50)
//	high flow start rate          = 1.25 (fixed)
//	high flow end rate            = 0.9  (fixed)
//	small flood minimum peak flow = Q6(yearly maxima, 0.50)
//	large flood minimum peak flow = Q6(yearly maxima, 0.90)
func DefaultThresholds(series *FlowSeries, method Method) (ThresholdSet, error) {
	if series.Len() == 0 {
		return nil, fmt.Errorf("cannot derive default thresholds from an empty series")
	}

	sorted := series.Values()
	sort.Float64s(sorted)

	thresholds := ThresholdSet{
		KeyHighFlow:       QuantileType7(sorted, 0.75),
		KeyExtremeLowFlow: QuantileType7(sorted, 0.10),
	}

	switch method {
	case MethodStandard:
		return thresholds, nil
	case MethodAdvanced:
		maxima := YearlyMaxima(series)
		sort.Float64s(maxima)

		thresholds[KeyLowFlow] = QuantileType7(sorted, 0.50)
		thresholds[KeyHighFlowStartRate] = DefaultHighFlowStartRate
		thresholds[KeyHighFlowEndRate] = DefaultHighFlowEndRate
		thresholds[KeySmallFloodMinPeak] = QuantileType6(maxima, 0.50)
		thresholds[KeyLargeFloodMinPeak] = QuantileType6(maxima, 0.90)
		return thresholds, nil
	}
	return nil, fmt.Errorf("unknown classification method %q: valid methods are %q and %q",
		method, MethodStandard, MethodAdvanced)
}
