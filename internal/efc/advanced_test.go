package efc

import (
	"strings"
	"testing"
)

// baseline thresholds used across advanced-method tests
func advancedThresholds() ThresholdSet {
	return ThresholdSet{
		KeyLowFlow:           2,
		KeyHighFlow:          5,
		KeyHighFlowStartRate: 1.25,
		KeyHighFlowEndRate:   0.9,
	}
}

func TestClassifyAdvanced(t *testing.T) {
	tests := []struct {
		name       string
		flow       []float64
		thresholds ThresholdSet
		expected   []FlowClass
	}{
		{
			name:       "single pulse rising over high flow then receding",
			flow:       []float64{1, 1, 6, 10, 6, 1, 1},
			thresholds: advancedThresholds(),
			expected: []FlowClass{
				ClassLowFlow, ClassLowFlow,
				ClassHighFlowPulse, ClassHighFlowPulse, ClassHighFlowPulse,
				ClassLowFlow, ClassLowFlow,
			},
		},
		{
			name:       "constant series below low flow",
			flow:       []float64{1, 1, 1, 1},
			thresholds: advancedThresholds(),
			expected:   []FlowClass{ClassLowFlow, ClassLowFlow, ClassLowFlow, ClassLowFlow},
		},
		{
			name: "pulse peak above small flood threshold relabels whole pulse",
			flow: []float64{1, 6, 7, 8.4, 10, 8.9, 8.2, 7.5, 1},
			thresholds: func() ThresholdSet {
				th := advancedThresholds()
				th[KeySmallFloodMinPeak] = 8
				th[KeyLargeFloodMinPeak] = 15
				return th
			}(),
			expected: []FlowClass{
				ClassLowFlow,
				ClassSmallFlood, ClassSmallFlood, ClassSmallFlood, ClassSmallFlood,
				ClassSmallFlood, ClassSmallFlood, ClassSmallFlood,
				ClassLowFlow,
			},
		},
		{
			name: "pulse peak above large flood threshold",
			flow: []float64{1, 6, 20, 1},
			thresholds: func() ThresholdSet {
				th := advancedThresholds()
				th[KeySmallFloodMinPeak] = 8
				th[KeyLargeFloodMinPeak] = 15
				return th
			}(),
			expected: []FlowClass{
				ClassLowFlow, ClassLargeFlood, ClassLargeFlood, ClassLowFlow,
			},
		},
		{
			name: "extreme low override relabels steps inside a pulse",
			flow: []float64{1, 6, 10, 1},
			thresholds: func() ThresholdSet {
				th := advancedThresholds()
				th[KeyExtremeLowFlow] = 6
				return th
			}(),
			expected: []FlowClass{
				ClassLowFlowPulse, ClassLowFlowPulse, ClassHighFlowPulse, ClassLowFlowPulse,
			},
		},
		{
			name: "rate guard opens a pulse below the high flow threshold",
			flow: []float64{2, 2.6, 2.5, 2.24, 0.5},
			thresholds: ThresholdSet{
				KeyLowFlow:           1,
				KeyHighFlow:          10,
				KeyHighFlowStartRate: 1.25,
				KeyHighFlowEndRate:   0.9,
			},
			// index 0 starts on the descending limb (above low, at or below
			// high), 1 jumps more than 25%, 3 drops more than 10%, 4 falls
			// below low flow
			expected: []FlowClass{
				ClassHighFlowPulse, ClassHighFlowPulse, ClassHighFlowPulse, ClassHighFlowPulse,
				ClassLowFlow,
			},
		},
		{
			name: "descending limb ends by rate of recession",
			flow: []float64{5, 4},
			thresholds: ThresholdSet{
				KeyLowFlow:           1,
				KeyHighFlow:          10,
				KeyHighFlowStartRate: 1.25,
				KeyHighFlowEndRate:   0.9,
			},
			// 4 < 5*0.9 ends the pulse even though 4 is still above low flow
			expected: []FlowClass{ClassHighFlowPulse, ClassLowFlow},
		},
		{
			name: "slow recession stays in the pulse",
			flow: []float64{5, 4.8},
			thresholds: ThresholdSet{
				KeyLowFlow:           1,
				KeyHighFlow:          10,
				KeyHighFlowStartRate: 1.25,
				KeyHighFlowEndRate:   0.9,
			},
			expected: []FlowClass{ClassHighFlowPulse, ClassHighFlowPulse},
		},
		{
			name:       "empty series",
			flow:       nil,
			thresholds: advancedThresholds(),
			expected:   []FlowClass{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels, err := ClassifyAdvanced(tt.flow, tt.thresholds)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(labels) != len(tt.flow) {
				t.Fatalf("expected %d labels, got %d", len(tt.flow), len(labels))
			}
			for i, want := range tt.expected {
				if labels[i] != want {
					t.Errorf("index %d (flow=%v): expected %q, got %q", i, tt.flow[i], want, labels[i])
				}
			}
		})
	}
}

func TestClassifyAdvancedLimbStates(t *testing.T) {
	// State sequence for the worked single-pulse hydrograph
	flow := []float64{1, 1, 6, 10, 6, 1, 1}
	params := advancedParams{lowFlow: 2, highFlow: 5, startRate: 1.25, endRate: 0.9}

	states := limbStates(flow, params)
	expected := []limbState{
		stateLowFlow, stateLowFlow,
		stateAscendingLimb, stateAscendingLimb,
		stateDescendingLimb,
		stateLowFlow, stateLowFlow,
	}

	for i, want := range expected {
		if states[i] != want {
			t.Errorf("index %d: expected state %d, got %d", i, want, states[i])
		}
	}
}

func TestClassifyAdvancedPulseGrouping(t *testing.T) {
	flow := []float64{1, 6, 10, 6, 1, 1, 7, 1}
	params := advancedParams{lowFlow: 2, highFlow: 5, startRate: 1.25, endRate: 0.9}

	pulses := groupPulses(flow, limbStates(flow, params))
	if len(pulses) != 2 {
		t.Fatalf("expected 2 pulses, got %d: %+v", len(pulses), pulses)
	}
	if pulses[0].start != 1 || pulses[0].end != 4 || !almostEqual(pulses[0].peak, 10) {
		t.Errorf("first pulse: expected [1,4) peak 10, got [%d,%d) peak %v",
			pulses[0].start, pulses[0].end, pulses[0].peak)
	}
	if pulses[1].start != 6 || pulses[1].end != 7 || !almostEqual(pulses[1].peak, 7) {
		t.Errorf("second pulse: expected [6,7) peak 7, got [%d,%d) peak %v",
			pulses[1].start, pulses[1].end, pulses[1].peak)
	}
}

func TestClassifyAdvancedMissingRequiredKeys(t *testing.T) {
	th := advancedThresholds()
	delete(th, KeyHighFlow)

	_, err := ClassifyAdvanced([]float64{1, 2, 3}, th)
	if err == nil {
		t.Fatal("expected configuration error, got nil")
	}
	// The error names the complete required-key set for the method
	for _, key := range []string{KeyHighFlow, KeyLowFlow, KeyHighFlowStartRate, KeyHighFlowEndRate} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error should name required key %q: %v", key, err)
		}
	}
}

func TestClassifyAdvancedNoIntermediateStatesInOutput(t *testing.T) {
	flow := []float64{1, 6, 7, 8, 6.5, 1, 3, 4, 1}
	labels, err := ClassifyAdvanced(flow, advancedThresholds())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, label := range labels {
		if label == ClassAscendingLimb || label == ClassDescendingLimb {
			t.Errorf("index %d: intermediate limb state %q leaked into output", i, label)
		}
	}
}
