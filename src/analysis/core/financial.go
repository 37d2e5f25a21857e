package core

import (
	"math"
	"time"

	"bubble-model/src/models"
)

// TrajectorySummary describes the shape of a simulated price path.
type TrajectorySummary struct {
	Start         float64   `json:"start"`
	End           float64   `json:"end"`
	Peak          float64   `json:"peak"`
	PeakTime      time.Time `json:"peak_time"`
	Trough        float64   `json:"trough"`
	TroughTime    time.Time `json:"trough_time"`
	ChangePercent float64   `json:"change_percent"`
	Drawdown      float64   `json:"drawdown"` // peak to final value, as a fraction of peak
}

// -----------------------------------------------------------------------------

// Summarize computes start/end/peak/trough of a series, ignoring non-finite values.
func Summarize(series models.MTimeSeries) TrajectorySummary {
	var s TrajectorySummary
	first := true
	for i, v := range series.Values {
		if !isFinite(v) {
			continue
		}
		t := series.Times[i]
		if first {
			s.Start, s.Peak, s.Trough = v, v, v
			s.PeakTime, s.TroughTime = t, t
			first = false
		}
		if v > s.Peak {
			s.Peak, s.PeakTime = v, t
		}
		if v < s.Trough {
			s.Trough, s.TroughTime = v, t
		}
		s.End = v
	}
	if first {
		return s
	}
	s.ChangePercent = CalculateChangePercent(s.End, s.Start)
	if s.Peak != 0 {
		s.Drawdown = math.Max(0, (s.Peak-s.End)/s.Peak)
	}
	return s
}

// -----------------------------------------------------------------------------

// CalculateChangePercent calculates percentage change.
func CalculateChangePercent(current, previous float64) float64 {
	if previous == 0 {
		return 0.0
	}
	return (current - previous) / previous
}
