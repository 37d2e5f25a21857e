package analysis

import (
	"errors"
	"math/rand"
	"testing"

	"bubble-model/src/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateNoiseZeroLevel(t *testing.T) {
	noise, err := GenerateNoise(6, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 1, 1, 1, 1}, noise)
}

func TestGenerateNoiseBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	noise, err := GenerateNoise(10000, 0.05, rng)
	require.NoError(t, err)
	require.Len(t, noise, 10000)

	lo, hi := 2.0, 0.0
	for _, v := range noise {
		assert.GreaterOrEqual(t, v, 0.95)
		assert.LessOrEqual(t, v, 1.05)
		lo = min(lo, v)
		hi = max(hi, v)
	}
	// both halves of the interval get used
	assert.Less(t, lo, 0.96)
	assert.Greater(t, hi, 1.04)
}

func TestGenerateNoiseSeeded(t *testing.T) {
	seed := int64(2015)
	a, err := GenerateNoise(50, 0.01, NewNoiseSource(&seed))
	require.NoError(t, err)
	b, err := GenerateNoise(50, 0.01, NewNoiseSource(&seed))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerateNoiseInvalid(t *testing.T) {
	var validation *helpers.ValidationError

	_, err := GenerateNoise(5, -0.1, nil)
	assert.True(t, errors.As(err, &validation))

	_, err = GenerateNoise(-1, 0, nil)
	assert.True(t, errors.As(err, &validation))

	_, err = GenerateNoise(5, 0.1, nil)
	assert.True(t, errors.As(err, &validation))
}
