package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"

	"bubble-model/src/analysis"
	"bubble-model/src/config"
	datasource "bubble-model/src/data_source"
	"bubble-model/src/data_source/yahoo"
	"bubble-model/src/interfaces"
	"bubble-model/src/logger"
	"bubble-model/src/network"
	"bubble-model/src/storage"

	"github.com/spf13/cobra"
)

// app is everything a command needs, built from the config file.
type app struct {
	Config *config.Config
	Logger *logger.Logger
	Facade *analysis.AnalysisFacade
	DB     interfaces.IDatabase
}

// -----------------------------------------------------------------------------

// newApp loads the config and wires the components. Storage is opened only
// when withStorage is set; the caller closes it.
func newApp(cmd *cobra.Command, withStorage bool) (*app, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.NewConfig(configPath)
	if err != nil {
		return nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}

	appLogger := logger.NewLoggerTo(cmd.ErrOrStderr(), cfg.LogLevel, cfg.Name)

	// Relative data paths are resolved against the config file's directory.
	baseDir := filepath.Dir(configPath)
	source := newAssetSource(cfg, baseDir, appLogger)

	facade := analysis.NewAnalysisFacade(analysis.NewSimulator(appLogger.Named("Simulator")), source, appLogger.Named("Analysis"))

	if cfg.Observed.Path != "" {
		path := cfg.Observed.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		column := cfg.Observed.Column
		if column == "" {
			column = datasource.DefaultColumn
		}
		observed, err := datasource.LoadSeriesFile(path, "observed", column)
		if err != nil {
			return nil, err
		}
		facade.Observed = &observed
	}

	a := &app{Config: cfg, Logger: appLogger, Facade: facade}

	if withStorage {
		db, err := storage.NewDatabase(cfg.Storage, appLogger.Named("Storage"))
		if err != nil {
			return nil, err
		}
		if err := db.Initialize(); err != nil {
			return nil, err
		}
		a.DB = db
		facade.DB = db
	}
	return a, nil
}

// -----------------------------------------------------------------------------

func newAssetSource(cfg *config.Config, baseDir string, log *logger.Logger) interfaces.IAssetSource {
	local := datasource.NewCSVAssetSource(cfg.Data, baseDir, log.Named("CSV"))
	if cfg.Data.Source != "yahoo" {
		return local
	}

	netMgr := network.NewNetworkManager(cfg.Network, log.Named("Network"))
	remote := yahoo.NewYahooFinanceSource(cfg.Data, cfg.Yahoo, netMgr, log.Named("Yahoo"))
	if !cfg.Data.FallbackCSV {
		return remote
	}
	return datasource.NewMultiSourceManager([]interfaces.IAssetSource{remote, local}, log.Named("Sources"))
}

// -----------------------------------------------------------------------------

func (a *app) Close() {
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error("Failed to close database: %v", err)
		}
	}
}

// -----------------------------------------------------------------------------

// signalContext is cancelled on SIGINT/SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan os.Signal, 1)
	notifySignals(ch)
	go func() {
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		signal.Stop(ch)
		cancel()
	}
}
