package analysis

import (
	"math"
	"math/rand"
	"time"

	"bubble-model/src/helpers"
)

// -----------------------------------------------------------------------------

// NewNoiseSource returns a random source for one run. A nil seed draws a
// time-based seed, so only seeded runs are reproducible.
func NewNoiseSource(seed *int64) *rand.Rand {
	if seed != nil {
		return rand.New(rand.NewSource(*seed))
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// -----------------------------------------------------------------------------

// GenerateNoise returns n IID multipliers uniform in [1-level, 1+level].
// level == 0 yields all ones and does not consume rng.
func GenerateNoise(n int, level float64, rng *rand.Rand) ([]float64, error) {
	if n < 0 {
		return nil, helpers.NewValidationError("noise length must be >= 0, got %d", n)
	}
	if level < 0 || math.IsNaN(level) || math.IsInf(level, 0) {
		return nil, helpers.NewValidationError("noise level must be a finite value >= 0, got %v", level)
	}

	noise := make([]float64, n)
	if level == 0 {
		for i := range noise {
			noise[i] = 1
		}
		return noise, nil
	}
	if rng == nil {
		return nil, helpers.NewValidationError("noise level %v needs a random source", level)
	}

	for i := range noise {
		noise[i] = 1 + (2*rng.Float64()-1)*level
	}
	return noise, nil
}
