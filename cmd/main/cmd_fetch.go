package main

import (
	"fmt"
	"os"
	"path/filepath"

	datasource "bubble-model/src/data_source"
	"bubble-model/src/data_source/yahoo"
	"bubble-model/src/network"

	"github.com/spf13/cobra"
)

func newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download asset histories from Yahoo Finance into CSV files",
		Long: `Download the raw price history of every configured asset symbol and
write it as <out-dir>/<name>.csv, in the format the csv source reads.
The reciprocal transform is not applied; it stays a load-time option.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			outDir, _ := cmd.Flags().GetString("out-dir")
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}

			cfg := a.Config
			column := cfg.Data.Column
			if column == "" {
				column = datasource.DefaultColumn
			}

			netMgr := network.NewNetworkManager(cfg.Network, a.Logger.Named("Network"))
			src := yahoo.NewYahooFinanceSource(cfg.Data, cfg.Yahoo, netMgr, a.Logger.Named("Yahoo"))

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			for _, asset := range cfg.Data.Assets {
				asset.Invert = false
				ts, err := src.FetchSeries(ctx, asset)
				if err != nil {
					return err
				}
				path := filepath.Join(outDir, asset.Name+".csv")
				if err := datasource.SaveSeriesFile(path, ts, column); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rows -> %s\n", asset.Name, len(ts.Times), path)
			}
			return nil
		},
	}

	cmd.Flags().String("out-dir", "data", "Directory the CSV files are written to")
	return cmd
}
