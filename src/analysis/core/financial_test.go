package core

import (
	"math"
	"testing"
	"time"

	"bubble-model/src/models"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	d := func(m int) time.Time { return time.Date(2006, time.Month(m), 1, 0, 0, 0, 0, time.UTC) }
	series := models.MTimeSeries{
		Times:  []time.Time{d(1), d(2), d(3), d(4)},
		Values: []float64{100, 180, 90, 120},
	}

	s := Summarize(series)
	assert.Equal(t, 100.0, s.Start)
	assert.Equal(t, 120.0, s.End)
	assert.Equal(t, 180.0, s.Peak)
	assert.True(t, s.PeakTime.Equal(d(2)))
	assert.Equal(t, 90.0, s.Trough)
	assert.InDelta(t, 0.2, s.ChangePercent, 1e-12)
	assert.InDelta(t, 60.0/180.0, s.Drawdown, 1e-12)

	assert.Zero(t, Summarize(models.MTimeSeries{}).Peak)
}

func TestSummarizeSkipsNonFinite(t *testing.T) {
	times := make([]time.Time, 5)
	for i := range times {
		times[i] = time.Date(2004, time.January+time.Month(i), 1, 0, 0, 0, 0, time.UTC)
	}
	s := Summarize(models.MTimeSeries{Times: times, Values: []float64{100, 140, math.NaN(), 80, 120}})

	assert.Equal(t, 100.0, s.Start)
	assert.Equal(t, 120.0, s.End)
	assert.Equal(t, 140.0, s.Peak)
	assert.True(t, s.PeakTime.Equal(times[1]))
	assert.Equal(t, 80.0, s.Trough)
	assert.True(t, s.TroughTime.Equal(times[3]))
	assert.InDelta(t, 0.2, s.ChangePercent, 1e-12)
	assert.InDelta(t, 20.0/140, s.Drawdown, 1e-12)
}

func TestSummarizeAllNonFinite(t *testing.T) {
	s := Summarize(models.MTimeSeries{
		Times:  []time.Time{time.Unix(0, 0), time.Unix(1, 0)},
		Values: []float64{math.Inf(1), math.NaN()},
	})
	assert.Equal(t, TrajectorySummary{}, s)
}

func TestCalculateChangePercent(t *testing.T) {
	assert.Equal(t, 0.5, CalculateChangePercent(150, 100))
	assert.Equal(t, 0.0, CalculateChangePercent(1, 0))
}
