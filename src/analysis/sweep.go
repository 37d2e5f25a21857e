package analysis

import (
	"context"
	"sync"
	"time"

	"bubble-model/src/helpers"
	"bubble-model/src/models"

	"golang.org/x/sync/errgroup"
)

// DefaultSweepConcurrency is used when the sweep config leaves concurrency unset.
const DefaultSweepConcurrency = 4

// SweepOutcome holds the results of a sweep in grid order.
type SweepOutcome struct {
	Results []*models.MSimulationResult
	Metrics models.MProcessingMetrics
}

// -----------------------------------------------------------------------------

// ExpandGrid builds the cartesian product k_sp x k_sd x noise_level x seed.
// An empty axis keeps the base value.
func ExpandGrid(base models.MModelParameters, grid models.MSweepConfig) []models.MModelParameters {
	kSPs := grid.KSP
	if len(kSPs) == 0 {
		kSPs = []float64{base.KSP}
	}
	kSDs := grid.KSD
	if len(kSDs) == 0 {
		kSDs = []float64{base.KSD}
	}
	levels := grid.NoiseLevels
	if len(levels) == 0 {
		levels = []float64{base.NoiseLevel}
	}

	var out []models.MModelParameters
	for _, ksp := range kSPs {
		for _, ksd := range kSDs {
			for _, level := range levels {
				if len(grid.Seeds) == 0 {
					p := CloneParameters(base)
					p.KSP, p.KSD, p.NoiseLevel = ksp, ksd, level
					out = append(out, p)
					continue
				}
				for _, seed := range grid.Seeds {
					p := CloneParameters(base)
					p.KSP, p.KSD, p.NoiseLevel = ksp, ksd, level
					s := seed
					p.Seed = &s
					out = append(out, p)
				}
			}
		}
	}
	return out
}

// -----------------------------------------------------------------------------

// Sweep runs every grid cell against the same asset table with bounded
// concurrency. Each run is single-threaded; cancellation is honoured between
// runs. onResult, if set, is called once per finished run and never
// concurrently. The first error stops the sweep.
func (s *Simulator) Sweep(
	ctx context.Context,
	base models.MModelParameters,
	grid models.MSweepConfig,
	table *models.MAssetTable,
	onResult func(*models.MSimulationResult) error,
) (*SweepOutcome, error) {
	cells := ExpandGrid(base, grid)
	if len(cells) == 0 {
		return nil, helpers.NewValidationError("sweep grid is empty")
	}

	limit := grid.Concurrency
	if limit <= 0 {
		limit = DefaultSweepConcurrency
	}

	started := time.Now()
	results := make([]*models.MSimulationResult, len(cells))
	var cbMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, params := range cells {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := s.Run(gctx, params, table)
			if err != nil {
				return err
			}
			results[i] = res

			if onResult == nil {
				return nil
			}
			cbMu.Lock()
			defer cbMu.Unlock()
			return onResult(res)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	outcome := &SweepOutcome{Results: results}
	outcome.Metrics.Runs = len(results)
	for _, r := range results {
		if r.Degenerate() {
			outcome.Metrics.DegenerateRuns++
		}
	}
	outcome.Metrics.ElapsedSeconds = time.Since(started).Seconds()

	s.Logger.Info("Sweep finished: %d runs (%d degenerate) in %.3fs",
		outcome.Metrics.Runs, outcome.Metrics.DegenerateRuns, outcome.Metrics.ElapsedSeconds)
	return outcome, nil
}
