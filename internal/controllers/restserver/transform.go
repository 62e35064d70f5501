package restserver

import (
	"github.com/hydrograph/riverflow/internal/database"
	"github.com/hydrograph/riverflow/internal/efc"
)

// transformLabels converts cached label rows into response readings
func transformLabels(labels []database.CachedEFCLabel) []LabelReading {
	out := make([]LabelReading, 0, len(labels))
	for _, l := range labels {
		out = append(out, LabelReading{
			Time:      l.Bucket,
			FlowClass: l.FlowClass,
		})
	}
	return out
}

// transformPulses converts cached pulse rows into response readings
func transformPulses(pulses []database.CachedEFCPulse) []PulseReading {
	out := make([]PulseReading, 0, len(pulses))
	for _, p := range pulses {
		out = append(out, PulseReading{
			StartTime:     p.StartTime,
			EndTime:       p.EndTime,
			FlowClass:     p.FlowClass,
			PeakCMS:       p.PeakDischargeMS,
			DurationSteps: p.DurationSteps,
		})
	}
	return out
}

// transformClassified converts a classified series into response readings
func transformClassified(classified *efc.ClassifiedSeries) []LabelReading {
	out := make([]LabelReading, 0, classified.Len())
	for i := 0; i < classified.Len(); i++ {
		out = append(out, LabelReading{
			Time:      classified.Times[i],
			FlowClass: string(classified.Labels[i]),
		})
	}
	return out
}
