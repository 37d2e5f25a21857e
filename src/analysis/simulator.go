package analysis

import (
	"context"
	"math"
	"math/rand"
	"time"

	"bubble-model/src/analysis/core"
	"bubble-model/src/helpers"
	"bubble-model/src/logger"
	"bubble-model/src/models"
	"bubble-model/src/utils"

	"github.com/google/uuid"
)

// Simulator runs the recursive price-feedback model over an asset table.
type Simulator struct {
	Logger *logger.Logger

	// NoiseSource builds the random source for a run; tests may replace it.
	NoiseSource func(seed *int64) *rand.Rand
}

// -----------------------------------------------------------------------------

func NewSimulator(log *logger.Logger) *Simulator {
	return &Simulator{
		Logger:      log,
		NoiseSource: NewNoiseSource,
	}
}

// -----------------------------------------------------------------------------

// runPlan is everything the recurrence needs, resolved and validated up front.
type runPlan struct {
	axis     *utils.TimeAxis
	startPos int
	assets   [][]float64
	gains    []float64
	noise    []float64
}

// -----------------------------------------------------------------------------

// Run simulates one full trajectory. All validation happens before the first
// step; on error no result is returned. ctx is only checked before the run.
func (s *Simulator) Run(ctx context.Context, params models.MModelParameters, table *models.MAssetTable) (*models.MSimulationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	startedAt := time.Now()
	params = CloneParameters(params)

	plan, err := s.plan(params, table)
	if err != nil {
		return nil, err
	}

	prices := recur(params, plan)

	result := &models.MSimulationResult{
		RunID:  uuid.New(),
		Params: params,
		Series: models.MTimeSeries{
			Name:   "simulated",
			Times:  plan.axis.Times(),
			Values: prices,
		},
		IntegerTimes: plan.axis.Integers(),
		Noise:        plan.noise,
		StartedAt:    startedAt,
	}

	if w, ok := findDegeneracy(prices, plan.axis); ok {
		result.Warnings = append(result.Warnings, w)
		s.Logger.Warning("Run %s produced %d non-finite values, first at %s (t=%d)",
			result.RunID, w.Count, w.FirstTime.Format(time.DateOnly), w.FirstInteger)
	}

	result.Elapsed = time.Since(startedAt)
	s.Logger.Debug("Run %s finished: %d steps, speculation from t=%d, %v",
		result.RunID, plan.axis.Len(), plan.axis.T0()+plan.startPos, result.Elapsed)
	return result, nil
}

// -----------------------------------------------------------------------------

func (s *Simulator) plan(params models.MModelParameters, table *models.MAssetTable) (*runPlan, error) {
	if err := ValidateParameters(params); err != nil {
		return nil, err
	}
	if err := utils.ValidateAssetTable(table); err != nil {
		return nil, err
	}

	axis, err := utils.NewTimeAxis(table.Times, params.T0)
	if err != nil {
		return nil, err
	}
	if axis.Len() < 2 {
		return nil, helpers.NewValidationError("need at least 2 time steps, got %d", axis.Len())
	}

	start, err := axis.IndexOf(params.SpeculationStart)
	if err != nil {
		return nil, err
	}
	if mp := params.MagicPrice; mp != nil && axis.Position(start)+mp.Offset >= axis.Len() {
		return nil, helpers.NewValidationError("magic_price offset %d from %s falls past the last time step",
			mp.Offset, params.SpeculationStart.Format(time.DateOnly))
	}

	names := table.Names()
	gains, err := core.ResolveGains(names, params.K)
	if err != nil {
		return nil, err
	}
	assets := make([][]float64, len(names))
	for i, name := range names {
		assets[i] = table.Columns[name]
	}

	noise, err := GenerateNoise(axis.Len(), params.NoiseLevel, s.NoiseSource(params.Seed))
	if err != nil {
		return nil, err
	}

	return &runPlan{
		axis:     axis,
		startPos: axis.Position(start),
		assets:   assets,
		gains:    gains,
		noise:    noise,
	}, nil
}

// -----------------------------------------------------------------------------

// recur walks the recurrence over slice positions; position i is integer time t0+i.
//
//	P[0], P[1]  = a + b*t^2
//	P[i+1]      = k_c(t)*noise[i] + (1-k_sd)*P[i]
//	            + speculation delta       when i >= startPos
//
// The magic price replaces the stored value at startPos+Offset during the first
// active step at or after that position, after the base term of that step has
// read the computed value and before the speculation delta reads it.
func recur(p models.MModelParameters, plan *runPlan) []float64 {
	n := plan.axis.Len()
	t0 := plan.axis.T0()

	prices := make([]float64, n)
	prices[0] = core.EquilibriumPrice(p.A, p.B, t0)
	prices[1] = core.EquilibriumPrice(p.A, p.B, t0+1)

	magicPos := -1
	if p.MagicPrice != nil {
		magicPos = plan.startPos + p.MagicPrice.Offset
	}
	magicDone := false

	for i := 1; i < n-1; i++ {
		t := t0 + i
		kc := core.MarginalTerm(p.A, p.B, p.KSD, t) * plan.noise[i]
		prices[i+1] = kc + (1-p.KSD)*prices[i]

		if i < plan.startPos {
			continue
		}
		if magicPos >= 0 && !magicDone && i >= magicPos {
			prices[magicPos] = p.MagicPrice.Value
			magicDone = true
		}
		prices[i+1] += core.SpeculationDelta(prices, i, p.KSP, plan.assets, plan.gains)
	}

	// Targets the loop never reached (the final value, or any position when
	// n == 2) are written after it; no later step reads them.
	if magicPos >= 0 && !magicDone && magicPos < n {
		prices[magicPos] = p.MagicPrice.Value
	}

	return prices
}

// -----------------------------------------------------------------------------

func findDegeneracy(prices []float64, axis *utils.TimeAxis) (models.MNumericDegeneracy, bool) {
	var w models.MNumericDegeneracy
	for i, v := range prices {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			continue
		}
		if w.Count == 0 {
			w.FirstInteger = axis.T0() + i
			w.FirstTime, _ = axis.TimeAt(w.FirstInteger)
		}
		w.Count++
	}
	return w, w.Count > 0
}
