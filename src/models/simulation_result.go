package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// MSimulationResult is the output of one simulator run.
type MSimulationResult struct {
	RunID        uuid.UUID            `json:"run_id"`
	Params       MModelParameters     `json:"params"`
	Series       MTimeSeries          `json:"series"`
	IntegerTimes []int                `json:"integer_times"`
	Noise        []float64            `json:"noise"`
	Warnings     []MNumericDegeneracy `json:"warnings,omitempty"`
	StartedAt    time.Time            `json:"started_at"`
	Elapsed      time.Duration        `json:"elapsed"`
	Fit          *MFitStatistics      `json:"fit,omitempty"`
}

// MNumericDegeneracy reports non-finite values in a completed trajectory.
type MNumericDegeneracy struct {
	FirstTime    time.Time `json:"first_time"`
	FirstInteger int       `json:"first_integer"`
	Count        int       `json:"count"`
}

// MFitStatistics compares a simulated series with an observed one over their common dates.
type MFitStatistics struct {
	Points      int     `json:"points"`
	RMSE        float64 `json:"rmse"`
	MAE         float64 `json:"mae"`
	MaxAbsError float64 `json:"max_abs_error"`
	Correlation float64 `json:"correlation"`
}

// Degenerate reports whether any value in the trajectory is non-finite.
func (r *MSimulationResult) Degenerate() bool {
	return len(r.Warnings) > 0
}

// MRunSummary is the stored header of a run, without the trajectory.
type MRunSummary struct {
	RunID      uuid.UUID        `json:"run_id"`
	Params     MModelParameters `json:"params"`
	Points     int              `json:"points"`
	FinalPrice *float64         `json:"final_price"` // nil when not finite
	Degenerate bool             `json:"degenerate"`
	StartedAt  time.Time        `json:"started_at"`
	ElapsedMs  float64          `json:"elapsed_ms"`
}

// Summary builds the stored header for this run.
func (r *MSimulationResult) Summary() MRunSummary {
	s := MRunSummary{
		RunID:      r.RunID,
		Params:     r.Params,
		Points:     len(r.Series.Values),
		Degenerate: r.Degenerate(),
		StartedAt:  r.StartedAt,
		ElapsedMs:  float64(r.Elapsed.Microseconds()) / 1000,
	}
	if n := len(r.Series.Values); n > 0 {
		last := r.Series.Values[n-1]
		if !math.IsNaN(last) && !math.IsInf(last, 0) {
			s.FinalPrice = &last
		}
	}
	return s
}
