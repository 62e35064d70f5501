package efc

import "sort"

// highTier pairs an optional high-flow threshold with the label it assigns
type highTier struct {
	value float64
	class FlowClass
}

// highTiers collects the high-flow tiers present in the threshold set,
// sorted ascending by threshold value. The required high-flow key maps to
// the generic pulse class; the flood keys refine it.
func highTiers(thresholds ThresholdSet) []highTier {
	tiers := []highTier{{value: thresholds[KeyHighFlow], class: ClassHighFlowPulse}}
	if v, ok := thresholds[KeySmallFloodMinPeak]; ok {
		tiers = append(tiers, highTier{value: v, class: ClassSmallFlood})
	}
	if v, ok := thresholds[KeyLargeFloodMinPeak]; ok {
		tiers = append(tiers, highTier{value: v, class: ClassLargeFlood})
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].value < tiers[j].value })
	return tiers
}

// ClassifyStandard assigns one label per time step by threshold bucket.
// Each value receives the class of the highest tier whose threshold it
// reaches, or low flow if it reaches none. The extreme-low override runs
// last and wins over any high-tier label when the thresholds overlap.
func ClassifyStandard(flow []float64, thresholds ThresholdSet) ([]FlowClass, error) {
	if err := checkRequired(MethodStandard, thresholds); err != nil {
		return nil, err
	}

	tiers := highTiers(thresholds)
	extremeLow, hasExtremeLow := thresholds[KeyExtremeLowFlow]

	labels := make([]FlowClass, len(flow))
	for i, v := range flow {
		labels[i] = bucketClass(v, tiers)
		if hasExtremeLow && v <= extremeLow {
			labels[i] = ClassLowFlowPulse
		}
	}
	return labels, nil
}

// bucketClass picks the class of the highest tier with threshold <= v
func bucketClass(v float64, tiers []highTier) FlowClass {
	class := ClassLowFlow
	for _, tier := range tiers {
		if v >= tier.value {
			class = tier.class
		}
	}
	return class
}
