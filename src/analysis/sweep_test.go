package analysis

import (
	"context"
	"errors"
	"math"
	"testing"

	"bubble-model/src/helpers"
	"bubble-model/src/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandGrid(t *testing.T) {
	base := handParams(months(1)[0])
	base.NoiseLevel = 0.02

	cells := ExpandGrid(base, models.MSweepConfig{
		KSP:   []float64{1, 2},
		KSD:   []float64{0.1, 0.2, 0.3},
		Seeds: []int64{7, 8},
	})
	require.Len(t, cells, 12)
	assert.Equal(t, 1.0, cells[0].KSP)
	assert.Equal(t, 0.1, cells[0].KSD)
	assert.Equal(t, int64(7), *cells[0].Seed)
	assert.Equal(t, int64(8), *cells[1].Seed)
	assert.Equal(t, 0.02, cells[5].NoiseLevel)
	assert.Equal(t, 2.0, cells[11].KSP)

	cells[0].K["x"] = 100
	assert.Equal(t, 0.5, base.K["x"])

	single := ExpandGrid(base, models.MSweepConfig{})
	require.Len(t, single, 1)
	assert.Nil(t, single[0].Seed)
}

func TestSweepRunsEveryCell(t *testing.T) {
	table := singleAssetTable(3, 1, 4, 1, 5, 9, 2, 6)
	base := handParams(table.Times[2])

	seen := map[uuid.UUID]bool{}
	outcome, err := testSimulator().Sweep(context.Background(), base, models.MSweepConfig{
		KSP:         []float64{0, 0.5, 1, 1.5},
		KSD:         []float64{0.1, 0.5},
		Concurrency: 3,
	}, table, func(r *models.MSimulationResult) error {
		seen[r.RunID] = true
		return nil
	})
	require.NoError(t, err)
	require.Len(t, outcome.Results, 8)
	assert.Len(t, seen, 8)
	assert.Equal(t, 8, outcome.Metrics.Runs)
	assert.Zero(t, outcome.Metrics.DegenerateRuns)

	// results keep grid order and match a direct run
	direct, err := testSimulator().Run(context.Background(), ExpandGrid(base, models.MSweepConfig{
		KSP: []float64{0, 0.5, 1, 1.5},
		KSD: []float64{0.1, 0.5},
	})[5], table)
	require.NoError(t, err)
	assert.Equal(t, direct.Series.Values, outcome.Results[5].Series.Values)
}

func TestSweepCountsDegenerateRuns(t *testing.T) {
	table := singleAssetTable(1, 2, 3, 4)
	base := handParams(table.Times[1])
	base.A = math.MaxFloat64
	base.B = math.MaxFloat64

	outcome, err := testSimulator().Sweep(context.Background(), base, models.MSweepConfig{KSP: []float64{1, 2}}, table, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.Metrics.DegenerateRuns)
}

func TestSweepStopsOnError(t *testing.T) {
	table := singleAssetTable(1, 2, 3, 4)
	base := handParams(table.Times[1])

	// k_sd 2 fails validation
	_, err := testSimulator().Sweep(context.Background(), base, models.MSweepConfig{KSD: []float64{0.1, 2}}, table, nil)
	var validation *helpers.ValidationError
	assert.True(t, errors.As(err, &validation))

	boom := errors.New("store down")
	_, err = testSimulator().Sweep(context.Background(), base, models.MSweepConfig{KSP: []float64{1, 2, 3}, Concurrency: 1}, table,
		func(*models.MSimulationResult) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestSweepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	table := singleAssetTable(1, 2, 3, 4)
	out, err := testSimulator().Sweep(ctx, handParams(table.Times[1]), models.MSweepConfig{KSP: []float64{1, 2}}, table, nil)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, context.Canceled)
}
