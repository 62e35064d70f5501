package efc

// limbState is the hydrograph state tracked by the first pass of the
// advanced classifier
type limbState int

const (
	stateLowFlow limbState = iota
	stateAscendingLimb
	stateDescendingLimb
)

// advancedParams holds the required advanced-method thresholds in struct
// form so the transition function does not repeat map lookups per step
type advancedParams struct {
	lowFlow   float64
	highFlow  float64
	startRate float64
	endRate   float64
}

// pulse is a maximal contiguous run of limb-state indices, characterized by
// its peak discharge. end is exclusive.
type pulse struct {
	start int
	end   int
	peak  float64
}

// initialState classifies the first time step, which has no previous value
// to compare rates against
func initialState(v float64, p advancedParams) limbState {
	switch {
	case v > p.lowFlow && v > p.highFlow:
		return stateAscendingLimb
	case v > p.lowFlow:
		return stateDescendingLimb
	}
	return stateLowFlow
}

// nextState advances the limb state machine one step. Transitions compare
// the current value against the previous raw value and the previous state;
// the rate guards give the machine its hysteresis. Guard order matters and
// the first match wins.
func nextState(prev limbState, prevVal, v float64, p advancedParams) limbState {
	switch prev {
	case stateLowFlow:
		if v > p.highFlow || v > prevVal*p.startRate {
			return stateAscendingLimb
		}
		return stateLowFlow

	case stateAscendingLimb:
		if v < p.lowFlow {
			return stateLowFlow
		}
		if v < prevVal*p.endRate {
			return stateDescendingLimb
		}
		return stateAscendingLimb

	case stateDescendingLimb:
		if v < p.lowFlow {
			return stateLowFlow
		}
		if v > prevVal*p.startRate {
			return stateAscendingLimb
		}
		if v > p.highFlow {
			return stateDescendingLimb
		}
		if v < prevVal*p.endRate {
			return stateLowFlow
		}
		return stateDescendingLimb
	}
	return stateLowFlow
}

// limbStates runs the pass-1 state machine over the whole series
func limbStates(flow []float64, p advancedParams) []limbState {
	states := make([]limbState, len(flow))
	if len(flow) == 0 {
		return states
	}
	states[0] = initialState(flow[0], p)
	for i := 1; i < len(flow); i++ {
		states[i] = nextState(states[i-1], flow[i-1], flow[i], p)
	}
	return states
}

// groupPulses partitions the state sequence into maximal contiguous limb
// runs, recording each run's index range and peak discharge
func groupPulses(flow []float64, states []limbState) []pulse {
	var pulses []pulse
	inPulse := false
	var current pulse

	for i, st := range states {
		limb := st == stateAscendingLimb || st == stateDescendingLimb
		switch {
		case limb && !inPulse:
			current = pulse{start: i, peak: flow[i]}
			inPulse = true
		case limb:
			if flow[i] > current.peak {
				current.peak = flow[i]
			}
		case inPulse:
			current.end = i
			pulses = append(pulses, current)
			inPulse = false
		}
	}
	if inPulse {
		current.end = len(states)
		pulses = append(pulses, current)
	}
	return pulses
}

// floodTiers collects the optional flood thresholds present in the set,
// sorted ascending so the last tier a peak exceeds is the one that sticks
func floodTiers(thresholds ThresholdSet) []highTier {
	var tiers []highTier
	if v, ok := thresholds[KeySmallFloodMinPeak]; ok {
		tiers = append(tiers, highTier{value: v, class: ClassSmallFlood})
	}
	if v, ok := thresholds[KeyLargeFloodMinPeak]; ok {
		tiers = append(tiers, highTier{value: v, class: ClassLargeFlood})
	}
	if len(tiers) == 2 && tiers[0].value > tiers[1].value {
		tiers[0], tiers[1] = tiers[1], tiers[0]
	}
	return tiers
}

// ClassifyAdvanced runs the three-pass stateful classifier:
//
//  1. a sequential limb state machine with rate-based hysteresis,
//  2. grouping of limb runs into pulses, classified by peak discharge
//     against the optional flood thresholds,
//  3. an extreme-low override that relabels any step at or below the
//     extreme-low threshold, even inside an already-classified flood pulse.
//
// The intermediate limb states never appear in the output.
func ClassifyAdvanced(flow []float64, thresholds ThresholdSet) ([]FlowClass, error) {
	if err := checkRequired(MethodAdvanced, thresholds); err != nil {
		return nil, err
	}

	params := advancedParams{
		lowFlow:   thresholds[KeyLowFlow],
		highFlow:  thresholds[KeyHighFlow],
		startRate: thresholds[KeyHighFlowStartRate],
		endRate:   thresholds[KeyHighFlowEndRate],
	}

	states := limbStates(flow, params)
	pulses := groupPulses(flow, states)
	tiers := floodTiers(thresholds)

	labels := make([]FlowClass, len(flow))
	for i := range labels {
		labels[i] = ClassLowFlow
	}
	for _, pl := range pulses {
		class := ClassHighFlowPulse
		for _, tier := range tiers {
			if pl.peak > tier.value {
				class = tier.class
			}
		}
		for i := pl.start; i < pl.end; i++ {
			labels[i] = class
		}
	}

	if extremeLow, ok := thresholds[KeyExtremeLowFlow]; ok {
		for i, v := range flow {
			if v <= extremeLow {
				labels[i] = ClassLowFlowPulse
			}
		}
	}
	return labels, nil
}
