package main

import (
	"time"

	"bubble-model/src/server"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr, _ := cmd.Flags().GetString("host"); addr != "" {
				a.Config.Host = addr
			}
			if cmd.Flags().Changed("port") {
				a.Config.Port, _ = cmd.Flags().GetInt("port")
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			if days := a.Config.Storage.RetentionDays; days > 0 {
				cutoff := time.Now().AddDate(0, 0, -days)
				n, err := a.DB.CleanupOldRuns(ctx, cutoff)
				if err != nil {
					a.Logger.Error("Retention cleanup failed: %v", err)
				} else if n > 0 {
					a.Logger.Info("Removed %d runs older than %d days", n, days)
				}
			}

			// Load the asset table before accepting requests so a bad
			// data config fails at startup.
			if _, err := a.Facade.Table(ctx); err != nil {
				return err
			}

			srv := server.NewAPIServer(a.Config.MConfig, a.Facade, a.DB, a.Logger.Named("API"))

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				a.Logger.Info("Shutting down")
			}
			if err := srv.Stop(); err != nil {
				return err
			}
			return <-errCh
		},
	}

	cmd.Flags().String("host", "", "Listen address (default from config)")
	cmd.Flags().Int("port", 0, "Listen port (default from config)")
	return cmd
}
