package efccache

import (
	"strings"
	"testing"
	"time"

	"github.com/hydrograph/riverflow/internal/efc"
)

func hourlyReadings(values []float64) []efc.FlowReading {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	readings := make([]efc.FlowReading, len(values))
	for i, v := range values {
		readings[i] = efc.FlowReading{Time: start.Add(time.Duration(i) * time.Hour), DischargeCMS: v}
	}
	return readings
}

func classifiedFrom(readings []efc.FlowReading, labels []efc.FlowClass) *efc.ClassifiedSeries {
	times := make([]time.Time, len(readings))
	for i, r := range readings {
		times[i] = r.Time
	}
	return &efc.ClassifiedSeries{Times: times, Labels: labels}
}

func TestPulseSummaries(t *testing.T) {
	readings := hourlyReadings([]float64{1, 6, 10, 6, 1, 1, 20, 1})
	classified := classifiedFrom(readings, []efc.FlowClass{
		efc.ClassLowFlow,
		efc.ClassHighFlowPulse, efc.ClassHighFlowPulse, efc.ClassHighFlowPulse,
		efc.ClassLowFlow, efc.ClassLowFlow,
		efc.ClassLargeFlood,
		efc.ClassLowFlow,
	})

	pulses := pulseSummaries(readings, classified)
	if len(pulses) != 2 {
		t.Fatalf("expected 2 pulses, got %d: %+v", len(pulses), pulses)
	}

	if pulses[0].FlowClass != efc.ClassHighFlowPulse || pulses[0].Steps != 3 || pulses[0].PeakCMS != 10 {
		t.Errorf("first pulse = %+v, want high flow pulse, 3 steps, peak 10", pulses[0])
	}
	if !pulses[0].StartTime.Equal(readings[1].Time) || !pulses[0].EndTime.Equal(readings[3].Time) {
		t.Errorf("first pulse extent = [%v, %v], want [%v, %v]",
			pulses[0].StartTime, pulses[0].EndTime, readings[1].Time, readings[3].Time)
	}
	if pulses[1].FlowClass != efc.ClassLargeFlood || pulses[1].Steps != 1 || pulses[1].PeakCMS != 20 {
		t.Errorf("second pulse = %+v, want large flood, 1 step, peak 20", pulses[1])
	}
}

func TestPulseSummariesSplitsAdjacentClasses(t *testing.T) {
	// Back-to-back steps with different pulse labels are separate pulses
	readings := hourlyReadings([]float64{6, 20})
	classified := classifiedFrom(readings, []efc.FlowClass{
		efc.ClassHighFlowPulse, efc.ClassLargeFlood,
	})

	pulses := pulseSummaries(readings, classified)
	if len(pulses) != 2 {
		t.Fatalf("expected 2 pulses, got %d: %+v", len(pulses), pulses)
	}
}

func TestBuildLabelInsert(t *testing.T) {
	readings := hourlyReadings([]float64{1, 6, 1})
	classified := classifiedFrom(readings, []efc.FlowClass{
		efc.ClassLowFlow, efc.ClassHighFlowPulse, efc.ClassLowFlow,
	})

	query, args := buildLabelInsert("animas-durango", 720, classified)

	// One statement, three value tuples, four parameters per row
	if got := strings.Count(query, "NOW()"); got != 3 {
		t.Errorf("expected 3 value tuples in query, got %d: %s", got, query)
	}
	if !strings.Contains(query, "($9, $10, $11, $12, NOW())") {
		t.Errorf("expected final tuple placeholders $9..$12, got: %s", query)
	}
	if len(args) != 12 {
		t.Fatalf("expected 12 args, got %d", len(args))
	}
	if args[0] != "animas-durango" || args[1] != 720 {
		t.Errorf("first row args = %v, %v; want gauge name and window", args[0], args[1])
	}
	if args[7] != string(efc.ClassHighFlowPulse) {
		t.Errorf("second row class arg = %v, want %q", args[7], efc.ClassHighFlowPulse)
	}
}

func TestBuildPulseInsert(t *testing.T) {
	readings := hourlyReadings([]float64{1, 6, 10, 1})
	classified := classifiedFrom(readings, []efc.FlowClass{
		efc.ClassLowFlow, efc.ClassHighFlowPulse, efc.ClassHighFlowPulse, efc.ClassLowFlow,
	})
	pulses := pulseSummaries(readings, classified)
	if len(pulses) != 1 {
		t.Fatalf("expected 1 pulse, got %d", len(pulses))
	}

	query, args := buildPulseInsert("animas-durango", 720, pulses)

	if !strings.Contains(query, "($1, $2, $3, $4, $5, $6, $7, NOW())") {
		t.Errorf("expected placeholders $1..$7, got: %s", query)
	}
	if len(args) != 7 {
		t.Fatalf("expected 7 args, got %d", len(args))
	}
	if args[4] != string(efc.ClassHighFlowPulse) || args[5] != 10.0 || args[6] != 2 {
		t.Errorf("pulse args = %v, want class %q, peak 10, 2 steps", args[4:], efc.ClassHighFlowPulse)
	}
}
