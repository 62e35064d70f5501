// Package efc classifies river discharge series into environmental flow
// component labels (baseline low flow, high-flow pulses, floods) using
// named numeric thresholds. Thresholds may be supplied explicitly or
// derived from the quantile statistics of the series.
package efc

import (
	"github.com/hydrograph/riverflow/internal/log"
)

// Diagnostics describes which optional classes a classification run had
// active, based on the optional keys present in the threshold set. It is
// advisory output and never alters the classification itself.
type Diagnostics struct {
	Method                Method       `json:"method"`
	DerivedThresholds     bool         `json:"derived_thresholds"`
	ActiveOptionalClasses []FlowClass  `json:"active_optional_classes"`
	Thresholds            ThresholdSet `json:"thresholds"`
}

// optionalClasses maps optional threshold keys to the class they activate,
// in reporting order
var optionalClasses = []struct {
	key   string
	class FlowClass
}{
	{KeySmallFloodMinPeak, ClassSmallFlood},
	{KeyLargeFloodMinPeak, ClassLargeFlood},
	{KeyExtremeLowFlow, ClassLowFlowPulse},
}

// Classify labels every time step of the series with the selected method.
// The method name is matched case-insensitively against "standard" and
// "advanced". A nil or empty threshold set is replaced by DefaultThresholds
// for the same method. The returned series carries the input timestamps in
// the input order, one label per step.
func Classify(series *FlowSeries, method string, thresholds ThresholdSet) (*ClassifiedSeries, *Diagnostics, error) {
	m, err := ParseMethod(method)
	if err != nil {
		return nil, nil, err
	}

	derived := false
	if len(thresholds) == 0 {
		thresholds, err = DefaultThresholds(series, m)
		if err != nil {
			return nil, nil, err
		}
		derived = true
	}

	flow := series.Values()

	var labels []FlowClass
	switch m {
	case MethodStandard:
		labels, err = ClassifyStandard(flow, thresholds)
	case MethodAdvanced:
		labels, err = ClassifyAdvanced(flow, thresholds)
	}
	if err != nil {
		return nil, nil, err
	}

	diag := &Diagnostics{
		Method:            m,
		DerivedThresholds: derived,
		Thresholds:        thresholds.Clone(),
	}
	for _, oc := range optionalClasses {
		if _, ok := thresholds[oc.key]; ok {
			diag.ActiveOptionalClasses = append(diag.ActiveOptionalClasses, oc.class)
		}
	}
	log.Debugf("EFC classification: method=%s, steps=%d, derived_thresholds=%v, active optional classes=%v",
		m, series.Len(), derived, diag.ActiveOptionalClasses)

	return &ClassifiedSeries{Times: series.Times(), Labels: labels}, diag, nil
}
