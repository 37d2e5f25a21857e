package helpers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKindsMatchWithAs(t *testing.T) {
	err := NewMissingCoefficientError("bonds")

	var missing *MissingCoefficientError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "bonds", missing.Asset)
	assert.Contains(t, err.Error(), "bonds")

	var lookup *AxisLookupError
	assert.False(t, errors.As(err, &lookup))
}

func TestAxisLookupErrorCarriesTime(t *testing.T) {
	ts := time.Date(2007, 6, 1, 0, 0, 0, 0, time.UTC)
	err := NewAxisLookupError(ts)

	var lookup *AxisLookupError
	require.True(t, errors.As(err, &lookup))
	assert.True(t, lookup.Time.Equal(ts))
}

func TestBubbleModelErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewDatabaseError("save run", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "save run: disk full", err.Error())
}

func TestRetryWithBackoff(t *testing.T) {
	calls := 0
	got, err := RetryWithBackoff(context.Background(), nil, "fetch", 3, time.Millisecond, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoffExhausted(t *testing.T) {
	cause := errors.New("down")
	_, err := RetryWithBackoff(context.Background(), nil, "fetch", 2, time.Millisecond, func() (string, error) {
		return "", cause
	})

	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.ErrorIs(t, err, cause)
}

func TestRetryWithBackoffCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RetryWithBackoff(ctx, nil, "fetch", 5, time.Hour, func() (int, error) {
		return 0, errors.New("nope")
	})
	assert.ErrorIs(t, err, context.Canceled)
}
