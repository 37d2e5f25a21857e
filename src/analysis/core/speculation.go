package core

import "bubble-model/src/helpers"

// -----------------------------------------------------------------------------

// ResolveGains returns the gain for each named asset, in the order given.
// Every asset needs an entry in k; extra keys are ignored.
func ResolveGains(names []string, k map[string]float64) ([]float64, error) {
	gains := make([]float64, len(names))
	for i, name := range names {
		g, ok := k[name]
		if !ok {
			return nil, helpers.NewMissingCoefficientError(name)
		}
		gains[i] = g
	}
	return gains, nil
}

// -----------------------------------------------------------------------------

// SpeculationDelta is the speculative term added to P[pos+1]:
//
//	kSP*(P[pos]-P[pos-1]) + sum_j gains[j]*(assets[j][pos]-assets[j][pos-1])
//
// pos is a slice position and must be >= 1.
func SpeculationDelta(prices []float64, pos int, kSP float64, assets [][]float64, gains []float64) float64 {
	delta := kSP * (prices[pos] - prices[pos-1])
	for j, col := range assets {
		delta += gains[j] * (col[pos] - col[pos-1])
	}
	return delta
}
