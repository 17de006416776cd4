// Package summary computes per-channel statistics over a completed
// run, printed at shutdown.
package summary

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ChannelSummary describes one channel's numeric samples. Over-limit
// cycles never enter the sample set.
type ChannelSummary struct {
	Label   string
	Samples int
	Min     float64
	Max     float64
	Mean    float64
}

// ForChannel summarizes one channel's non-OL samples.
func ForChannel(label string, samples []float64) ChannelSummary {
	s := ChannelSummary{Label: label, Samples: len(samples)}
	if len(samples) == 0 {
		return s
	}
	s.Min = floats.Min(samples)
	s.Max = floats.Max(samples)
	s.Mean = stat.Mean(samples, nil)
	return s
}

func (s ChannelSummary) String() string {
	if s.Samples == 0 {
		return fmt.Sprintf("%s: no samples", s.Label)
	}
	return fmt.Sprintf("%s: n=%d min=%.1f max=%.1f mean=%.2f",
		s.Label, s.Samples, s.Min, s.Max, s.Mean)
}
