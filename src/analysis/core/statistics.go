package core

import (
	"math"
	"time"

	"bubble-model/src/models"
)

// -----------------------------------------------------------------------------

// CalculateMeanStd computes mean and population standard deviation.
func CalculateMeanStd(data []float64) (float64, float64) {
	if len(data) == 0 {
		return 0, 0
	}

	sum := 0.0
	for _, v := range data {
		sum += v
	}
	mean := sum / float64(len(data))

	if len(data) == 1 {
		return mean, 0
	}

	varianceSum := 0.0
	for _, v := range data {
		varianceSum += (v - mean) * (v - mean)
	}
	std := math.Sqrt(varianceSum / float64(len(data)))
	return mean, std
}

// -----------------------------------------------------------------------------

// CalculateCorrelation computes Pearson correlation coefficient.
// Mismatched lengths, fewer than two points or zero variance give 0.
func CalculateCorrelation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 0
	}

	n := float64(len(x))

	_, stdX := CalculateMeanStd(x)
	_, stdY := CalculateMeanStd(y)
	if stdX == 0 || stdY == 0 {
		return 0
	}

	sumX, sumY, sumXY, sumX2, sumY2 := 0.0, 0.0, 0.0, 0.0, 0.0
	for i := 0; i < len(x); i++ {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
		sumY2 += y[i] * y[i]
	}

	numerator := (n * sumXY) - (sumX * sumY)
	denominator := math.Sqrt(((n * sumX2) - (sumX * sumX)) * ((n * sumY2) - (sumY * sumY)))
	if denominator == 0 {
		return 0
	}

	result := numerator / denominator
	if math.IsNaN(result) {
		return 0
	}
	return result
}

// -----------------------------------------------------------------------------

// CompareSeries aligns simulated and observed on their common timestamps and
// computes error statistics. Non-finite pairs are skipped.
func CompareSeries(simulated, observed models.MTimeSeries) models.MFitStatistics {
	obs := make(map[time.Time]float64, len(observed.Times))
	for i, t := range observed.Times {
		obs[t.UTC()] = observed.Values[i]
	}

	var sim, ref []float64
	for i, t := range simulated.Times {
		o, ok := obs[t.UTC()]
		if !ok {
			continue
		}
		s := simulated.Values[i]
		if !isFinite(s) || !isFinite(o) {
			continue
		}
		sim = append(sim, s)
		ref = append(ref, o)
	}

	stats := models.MFitStatistics{Points: len(sim)}
	if len(sim) == 0 {
		return stats
	}

	sq, abs := 0.0, 0.0
	for i := range sim {
		d := sim[i] - ref[i]
		sq += d * d
		abs += math.Abs(d)
		if math.Abs(d) > stats.MaxAbsError {
			stats.MaxAbsError = math.Abs(d)
		}
	}
	n := float64(len(sim))
	stats.RMSE = math.Sqrt(sq / n)
	stats.MAE = abs / n
	stats.Correlation = CalculateCorrelation(sim, ref)
	return stats
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
