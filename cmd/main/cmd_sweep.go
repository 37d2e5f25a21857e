package main

import (
	"encoding/json"
	"fmt"

	"bubble-model/src/models"

	"github.com/spf13/cobra"
)

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the configured parameter grid",
		Long: `Run every combination of the sweep axes in the config (k_sp, k_sd,
noise_levels, seeds). Empty axes keep the model value. Runs execute
concurrently and are stored as they finish.`,
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
			grid := a.Config.Sweep
			if cmd.Flags().Changed("concurrency") {
				grid.Concurrency, _ = cmd.Flags().GetInt("concurrency")
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			outcome, err := a.Facade.Sweep(ctx, params, grid)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				runs := make([]models.MRunSummary, len(outcome.Results))
				for i, r := range outcome.Results {
					runs[i] = r.Summary()
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{"runs": runs, "metrics": outcome.Metrics})
			}

			for _, r := range outcome.Results {
				s := r.Summary()
				final := "n/a"
				if s.FinalPrice != nil {
					final = fmt.Sprintf("%.4f", *s.FinalPrice)
				}
				seed := "-"
				if r.Params.Seed != nil {
					seed = fmt.Sprint(*r.Params.Seed)
				}
				fmt.Fprintf(out, "%s  k_sp=%-8g k_sd=%-8g noise=%-6g seed=%-6s final=%s\n",
					r.RunID, r.Params.KSP, r.Params.KSD, r.Params.NoiseLevel, seed, final)
			}
			fmt.Fprintf(out, "%d runs, %d degenerate, %.3fs\n",
				outcome.Metrics.Runs, outcome.Metrics.DegenerateRuns, outcome.Metrics.ElapsedSeconds)
			return nil
		},
	}

	addParamFlags(cmd)
	cmd.Flags().Int("concurrency", 0, "Runs executed in parallel (default from config)")
	cmd.Flags().Bool("no-store", false, "Do not save runs to the database")
	return cmd
}
