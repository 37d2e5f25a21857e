package analysis

import (
	"context"
	"sync"

	"bubble-model/src/analysis/core"
	"bubble-model/src/interfaces"
	"bubble-model/src/logger"
	"bubble-model/src/models"
)

// AnalysisFacade ties the simulator to its surroundings: the asset source,
// the observed series used for fit statistics, run storage and listeners.
// DB, Exchanger and Observed are optional.
type AnalysisFacade struct {
	Simulator *Simulator
	Assets    interfaces.IAssetSource
	DB        interfaces.IDatabase
	Exchanger interfaces.IDataExchanger
	Observed  *models.MTimeSeries
	Logger    *logger.Logger

	tableMu sync.Mutex
	table   *models.MAssetTable
}

// -----------------------------------------------------------------------------

func NewAnalysisFacade(sim *Simulator, assets interfaces.IAssetSource, log *logger.Logger) *AnalysisFacade {
	return &AnalysisFacade{
		Simulator: sim,
		Assets:    assets,
		Logger:    log,
	}
}

// -----------------------------------------------------------------------------

// Table loads the asset table once and reuses it. A failed load is retried on
// the next call.
func (a *AnalysisFacade) Table(ctx context.Context) (*models.MAssetTable, error) {
	a.tableMu.Lock()
	defer a.tableMu.Unlock()

	if a.table != nil {
		return a.table, nil
	}
	table, err := a.Assets.LoadAssets(ctx)
	if err != nil {
		return nil, err
	}
	source := a.Assets.Name()
	if chain, ok := a.Assets.(interface{ Served() string }); ok {
		source = chain.Served()
	}
	a.Logger.Info("Asset table loaded from %s: %d steps, assets %v", source, len(table.Times), table.Names())
	a.table = table
	return table, nil
}

// -----------------------------------------------------------------------------

// Simulate runs one parameter set and publishes the result.
func (a *AnalysisFacade) Simulate(ctx context.Context, params models.MModelParameters) (*models.MSimulationResult, error) {
	table, err := a.Table(ctx)
	if err != nil {
		return nil, err
	}

	result, err := a.Simulator.Run(ctx, params, table)
	if err != nil {
		return nil, err
	}
	if err := a.publish(ctx, result); err != nil {
		return nil, err
	}

	a.Logger.Info("Run %s: %d steps, final price %.4f", result.RunID, len(result.Series.Values), lastValue(result))
	return result, nil
}

// -----------------------------------------------------------------------------

// Sweep runs the grid and publishes every finished run as it completes.
func (a *AnalysisFacade) Sweep(ctx context.Context, base models.MModelParameters, grid models.MSweepConfig) (*SweepOutcome, error) {
	table, err := a.Table(ctx)
	if err != nil {
		return nil, err
	}

	return a.Simulator.Sweep(ctx, base, grid, table, func(r *models.MSimulationResult) error {
		return a.publish(ctx, r)
	})
}

// -----------------------------------------------------------------------------

// publish attaches fit statistics, stores the run and notifies listeners.
func (a *AnalysisFacade) publish(ctx context.Context, r *models.MSimulationResult) error {
	if a.Observed != nil {
		fit := core.CompareSeries(r.Series, *a.Observed)
		r.Fit = &fit
	}

	if a.DB != nil {
		if err := a.DB.SaveRun(ctx, r); err != nil {
			return err
		}
	}

	if a.Exchanger != nil {
		a.Exchanger.Broadcast(r.Summary())
	}
	return nil
}

// -----------------------------------------------------------------------------

func lastValue(r *models.MSimulationResult) float64 {
	if n := len(r.Series.Values); n > 0 {
		return r.Series.Values[n-1]
	}
	return 0
}
