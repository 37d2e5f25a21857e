package utils

import (
	"errors"
	"testing"
	"time"

	"bubble-model/src/helpers"
	"bubble-model/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func monthly(year int, month time.Month, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = time.Date(year, month+time.Month(i), 1, 0, 0, 0, 0, time.UTC)
	}
	return out
}

func ptr(t time.Time) *time.Time { return &t }

func TestFilterDates(t *testing.T) {
	times := monthly(2004, time.January, 12)

	tests := []struct {
		name  string
		r     models.MDateRange
		first time.Time
		n     int
	}{
		{"unbounded", models.MDateRange{}, times[0], 12},
		{"start only", models.MDateRange{Start: ptr(times[3])}, times[3], 9},
		{"end only", models.MDateRange{End: ptr(times[4])}, times[0], 5},
		{"both inclusive", models.MDateRange{Start: ptr(times[2]), End: ptr(times[2])}, times[2], 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterDates(times, tt.r)
			require.Len(t, got, tt.n)
			assert.True(t, got[0].Equal(tt.first))
		})
	}

	assert.Empty(t, FilterDates(times, models.MDateRange{Start: ptr(times[5]), End: ptr(times[1])}))
	assert.Len(t, times, 12, "input must not be modified")
}

func TestTimeAxisRoundTrip(t *testing.T) {
	times := monthly(2004, time.January, 24)
	axis, err := NewTimeAxis(times, 7)
	require.NoError(t, err)

	assert.Equal(t, 24, axis.Len())
	assert.Equal(t, 7, axis.T0())
	assert.Equal(t, 30, axis.Last())

	for _, ts := range times {
		i, err := axis.IndexOf(ts)
		require.NoError(t, err)
		back, err := axis.TimeAt(i)
		require.NoError(t, err)
		assert.True(t, back.Equal(ts))
	}

	ints := axis.Integers()
	assert.Equal(t, 7, ints[0])
	assert.Equal(t, 30, ints[len(ints)-1])
	assert.Equal(t, 0, axis.Position(7))
}

func TestTimeAxisLookupMissing(t *testing.T) {
	axis, err := NewTimeAxis(monthly(2004, time.January, 6), 0)
	require.NoError(t, err)

	_, err = axis.IndexOf(time.Date(2004, 2, 15, 0, 0, 0, 0, time.UTC))
	var lookup *helpers.AxisLookupError
	require.True(t, errors.As(err, &lookup))

	_, err = axis.IndexOf(time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.True(t, errors.As(err, &lookup))

	_, err = axis.TimeAt(6)
	var validation *helpers.ValidationError
	assert.True(t, errors.As(err, &validation))
}

func TestTimeAxisRejectsUnordered(t *testing.T) {
	times := monthly(2004, time.January, 3)
	times[1], times[2] = times[2], times[1]

	_, err := NewTimeAxis(times, 0)
	var misaligned *helpers.MisalignedAxisError
	assert.True(t, errors.As(err, &misaligned))

	dup := []time.Time{times[0], times[0]}
	_, err = NewTimeAxis(dup, 0)
	assert.True(t, errors.As(err, &misaligned))
}

func TestTimeAxisCopiesInput(t *testing.T) {
	times := monthly(2004, time.January, 3)
	axis, err := NewTimeAxis(times, 0)
	require.NoError(t, err)

	times[0] = time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)
	got, err := axis.TimeAt(0)
	require.NoError(t, err)
	assert.Equal(t, 2004, got.Year())
}
