package utils

import (
	"sort"
	"time"

	"bubble-model/src/helpers"
	"bubble-model/src/models"
)

// -----------------------------------------------------------------------------

// FilterDates returns the timestamps inside the inclusive range, in input order.
// The input slice is not modified.
func FilterDates(times []time.Time, r models.MDateRange) []time.Time {
	out := make([]time.Time, 0, len(times))
	for _, t := range times {
		if InRange(t, r) {
			out = append(out, t)
		}
	}
	return out
}

// InRange reports whether t lies inside the inclusive range.
func InRange(t time.Time, r models.MDateRange) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && t.After(*r.End) {
		return false
	}
	return true
}

// -----------------------------------------------------------------------------

// TimeAxis maps a strictly increasing calendar axis onto t0, t0+1, ..., t0+n-1.
type TimeAxis struct {
	times []time.Time
	t0    int
}

// NewTimeAxis copies times and checks they are strictly increasing.
func NewTimeAxis(times []time.Time, t0 int) (*TimeAxis, error) {
	for i := 1; i < len(times); i++ {
		if !times[i].After(times[i-1]) {
			return nil, helpers.NewMisalignedAxisError("", "calendar axis not strictly increasing at position %d (%s after %s)",
				i, times[i].Format(time.RFC3339), times[i-1].Format(time.RFC3339))
		}
	}
	cp := make([]time.Time, len(times))
	copy(cp, times)
	return &TimeAxis{times: cp, t0: t0}, nil
}

// -----------------------------------------------------------------------------

func (a *TimeAxis) Len() int { return len(a.times) }

func (a *TimeAxis) T0() int { return a.t0 }

// Last returns the integer time of the final step.
func (a *TimeAxis) Last() int { return a.t0 + len(a.times) - 1 }

// Position converts an integer time into a 0-based slice position.
func (a *TimeAxis) Position(t int) int { return t - a.t0 }

// -----------------------------------------------------------------------------

// IndexOf returns the integer time assigned to ts. Absent timestamps fail
// with an AxisLookupError.
func (a *TimeAxis) IndexOf(ts time.Time) (int, error) {
	i := sort.Search(len(a.times), func(j int) bool {
		return !a.times[j].Before(ts)
	})
	if i == len(a.times) || !a.times[i].Equal(ts) {
		return 0, helpers.NewAxisLookupError(ts)
	}
	return a.t0 + i, nil
}

// TimeAt returns the calendar time for integer time t.
func (a *TimeAxis) TimeAt(t int) (time.Time, error) {
	pos := a.Position(t)
	if pos < 0 || pos >= len(a.times) {
		return time.Time{}, helpers.NewValidationError("integer time %d outside axis [%d, %d]", t, a.t0, a.Last())
	}
	return a.times[pos], nil
}

// Integers returns t0 ... t0+n-1.
func (a *TimeAxis) Integers() []int {
	out := make([]int, len(a.times))
	for i := range out {
		out[i] = a.t0 + i
	}
	return out
}

// Times returns a copy of the calendar axis.
func (a *TimeAxis) Times() []time.Time {
	out := make([]time.Time, len(a.times))
	copy(out, a.times)
	return out
}
