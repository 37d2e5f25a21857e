package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"bubble-model/src/analysis"
	"bubble-model/src/analysis/core"
	datasource "bubble-model/src/data_source"
	"bubble-model/src/models"

	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate one trajectory",
		Long: `Run the model once with the configured parameters. Flags override
single parameters; --preset replaces the configured model first.`,
		Example: `  bubble-model run --preset corrected
  bubble-model run --k-sp 1.3 --noise 0.01 --seed 42 --out simulated.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			noStore, _ := cmd.Flags().GetBool("no-store")
			a, err := newApp(cmd, !noStore)
			if err != nil {
				return err
			}
			defer a.Close()

			params, err := paramsFromFlags(cmd, a.Config.Model)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			result, err := a.Facade.Simulate(ctx, params)
			if err != nil {
				return err
			}

			if out, _ := cmd.Flags().GetString("out"); out != "" {
				if err := datasource.SaveSeriesFile(out, result.Series, "Price"); err != nil {
					return err
				}
				a.Logger.Info("Trajectory written to %s", out)
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			return printRun(cmd.OutOrStdout(), result, jsonOut)
		},
	}

	addParamFlags(cmd)
	cmd.Flags().String("out", "", "Write the trajectory as CSV to this path")
	cmd.Flags().Bool("no-store", false, "Do not save the run to the database")
	return cmd
}

// -----------------------------------------------------------------------------

func addParamFlags(cmd *cobra.Command) {
	cmd.Flags().String("preset", "", "Start from a published parameter set: reported, corrected or noisy")
	cmd.Flags().Float64("k-sp", 0, "Auto-speculation gain")
	cmd.Flags().Float64("k-sd", 0, "Decay coefficient in [0, 1]")
	cmd.Flags().Float64("noise", 0, "Noise level on the equilibrium term")
	cmd.Flags().Int64("seed", 0, "Seed for the noise generator")
	cmd.Flags().Float64("magic", 0, "Force the price at the speculation start to this value")
	cmd.Flags().Int("magic-offset", 0, "Steps after the speculation start the magic price applies to (0 or 1)")
	cmd.Flags().String("start", "", "Speculation start date (YYYY-MM-DD)")
}

// -----------------------------------------------------------------------------

// paramsFromFlags applies --preset and then every explicitly set flag.
func paramsFromFlags(cmd *cobra.Command, base models.MModelParameters) (models.MModelParameters, error) {
	params := analysis.CloneParameters(base)
	flags := cmd.Flags()

	if name, _ := flags.GetString("preset"); name != "" {
		p, ok := analysis.Preset(name)
		if !ok {
			return params, fmt.Errorf("unknown preset %q", name)
		}
		params = p
	}

	if flags.Changed("k-sp") {
		params.KSP, _ = flags.GetFloat64("k-sp")
	}
	if flags.Changed("k-sd") {
		params.KSD, _ = flags.GetFloat64("k-sd")
	}
	if flags.Changed("noise") {
		params.NoiseLevel, _ = flags.GetFloat64("noise")
	}
	if flags.Changed("seed") {
		seed, _ := flags.GetInt64("seed")
		params.Seed = &seed
	}
	if flags.Changed("magic") || flags.Changed("magic-offset") {
		if params.MagicPrice == nil {
			params.MagicPrice = &models.MMagicPrice{}
		}
		if flags.Changed("magic") {
			params.MagicPrice.Value, _ = flags.GetFloat64("magic")
		}
		if flags.Changed("magic-offset") {
			params.MagicPrice.Offset, _ = flags.GetInt("magic-offset")
		}
	}
	if flags.Changed("start") {
		s, _ := flags.GetString("start")
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return params, fmt.Errorf("invalid --start: %w", err)
		}
		params.SpeculationStart = t
	}
	return params, nil
}

// -----------------------------------------------------------------------------

type runReport struct {
	Run     models.MRunSummary     `json:"run"`
	Summary core.TrajectorySummary `json:"summary"`
	Fit     *models.MFitStatistics `json:"fit,omitempty"`
}

func printRun(w io.Writer, r *models.MSimulationResult, jsonOut bool) error {
	report := runReport{Run: r.Summary(), Summary: core.Summarize(r.Series), Fit: r.Fit}
	if jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	s := report.Summary
	fmt.Fprintf(w, "run %s: %d steps in %.3fms\n", r.RunID, len(r.Series.Values), report.Run.ElapsedMs)
	fmt.Fprintf(w, "  start %.4f  end %.4f  change %+.2f%%\n", s.Start, s.End, s.ChangePercent*100)
	fmt.Fprintf(w, "  peak  %.4f on %s  trough %.4f on %s  drawdown %.2f%%\n",
		s.Peak, s.PeakTime.Format(time.DateOnly), s.Trough, s.TroughTime.Format(time.DateOnly), s.Drawdown*100)
	if r.Fit != nil {
		fmt.Fprintf(w, "  fit over %d points: rmse %.4f  mae %.4f  max %.4f  corr %.4f\n",
			r.Fit.Points, r.Fit.RMSE, r.Fit.MAE, r.Fit.MaxAbsError, r.Fit.Correlation)
	}
	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "  warning: %d non-finite values from %s (t=%d)\n",
			warn.Count, warn.FirstTime.Format(time.DateOnly), warn.FirstInteger)
	}
	return nil
}
