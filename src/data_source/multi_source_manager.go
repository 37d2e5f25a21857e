package datasource

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"bubble-model/src/helpers"
	"bubble-model/src/interfaces"
	"bubble-model/src/logger"
	"bubble-model/src/models"
)

// MultiSourceManager loads the asset table from the first source that
// succeeds, in the order the sources were added.
type MultiSourceManager struct {
	Sources []interfaces.IAssetSource
	Logger  *logger.Logger
	mu      sync.RWMutex
	last    string // name of the source that served the last load
}

// -----------------------------------------------------------------------------

func NewMultiSourceManager(sources []interfaces.IAssetSource, log *logger.Logger) *MultiSourceManager {
	return &MultiSourceManager{
		Sources: sources,
		Logger:  log,
	}
}

// -----------------------------------------------------------------------------

// Name lists the chain, e.g. "yahoo>csv".
func (m *MultiSourceManager) Name() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, len(m.Sources))
	for i, s := range m.Sources {
		names[i] = s.Name()
	}
	return strings.Join(names, ">")
}

// -----------------------------------------------------------------------------

// Served returns the name of the source that produced the last table.
func (m *MultiSourceManager) Served() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

// -----------------------------------------------------------------------------

// LoadAssets tries each source in turn. Cancellation stops the chain; any
// other failure moves on to the next source.
func (m *MultiSourceManager) LoadAssets(ctx context.Context) (*models.MAssetTable, error) {
	m.mu.RLock()
	sources := append([]interfaces.IAssetSource(nil), m.Sources...)
	m.mu.RUnlock()

	if len(sources) == 0 {
		return nil, helpers.NewDataSourceError("no asset source configured", nil)
	}

	var errs []error
	for _, src := range sources {
		table, err := src.LoadAssets(ctx)
		if err == nil {
			m.mu.Lock()
			m.last = src.Name()
			m.mu.Unlock()
			return table, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		m.Logger.Warning("Source %s failed, trying next: %v", src.Name(), err)
		errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
	}
	return nil, helpers.NewDataSourceError("every asset source failed", errors.Join(errs...))
}
