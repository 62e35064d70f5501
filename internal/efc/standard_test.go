package efc

import (
	"strings"
	"testing"
)

func TestClassifyStandard(t *testing.T) {
	tests := []struct {
		name       string
		flow       []float64
		thresholds ThresholdSet
		expected   []FlowClass
	}{
		{
			name:       "required key only",
			flow:       []float64{1, 5, 10},
			thresholds: ThresholdSet{KeyHighFlow: 5},
			expected:   []FlowClass{ClassLowFlow, ClassHighFlowPulse, ClassHighFlowPulse},
		},
		{
			name: "flood tiers pick highest threshold not exceeding value",
			flow: []float64{4, 5, 8, 12, 20},
			thresholds: ThresholdSet{
				KeyHighFlow:          5,
				KeySmallFloodMinPeak: 8,
				KeyLargeFloodMinPeak: 12,
			},
			expected: []FlowClass{
				ClassLowFlow, ClassHighFlowPulse, ClassSmallFlood, ClassLargeFlood, ClassLargeFlood,
			},
		},
		{
			name: "extreme low override runs last and wins over high tiers",
			flow: []float64{5.5, 7, 3},
			thresholds: ThresholdSet{
				KeyHighFlow:       5,
				KeyExtremeLowFlow: 6,
			},
			expected: []FlowClass{ClassLowFlowPulse, ClassHighFlowPulse, ClassLowFlowPulse},
		},
		{
			name:       "empty series",
			flow:       nil,
			thresholds: ThresholdSet{KeyHighFlow: 5},
			expected:   []FlowClass{},
		},
		{
			name: "unrecognized keys are ignored",
			flow: []float64{1, 10},
			thresholds: ThresholdSet{
				KeyHighFlow:          5,
				KeyLowFlow:           2, // advanced-only key
				KeyHighFlowStartRate: 1.25,
			},
			expected: []FlowClass{ClassLowFlow, ClassHighFlowPulse},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels, err := ClassifyStandard(tt.flow, tt.thresholds)
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

func TestClassifyStandardMissingRequiredKey(t *testing.T) {
	_, err := ClassifyStandard([]float64{1, 2, 3}, ThresholdSet{KeyExtremeLowFlow: 1})
	if err == nil {
		t.Fatal("expected configuration error, got nil")
	}
	if !strings.Contains(err.Error(), KeyHighFlow) {
		t.Errorf("error should name the missing key %q: %v", KeyHighFlow, err)
	}
}

func TestClassifyStandardBoundaryIsInclusive(t *testing.T) {
	// flow == threshold counts as reaching the tier
	labels, err := ClassifyStandard([]float64{5}, ThresholdSet{KeyHighFlow: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if labels[0] != ClassHighFlowPulse {
		t.Errorf("expected %q at threshold boundary, got %q", ClassHighFlowPulse, labels[0])
	}
}
