package datasource

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"bubble-model/src/helpers"
	"bubble-model/src/interfaces"
	"bubble-model/src/logger"
	"bubble-model/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	name  string
	table *models.MAssetTable
	err   error
	calls int
}

func (s *stubSource) Name() string { return s.name }
func (s *stubSource) LoadAssets(ctx context.Context) (*models.MAssetTable, error) {
	s.calls++
	return s.table, s.err
}

func testTable() *models.MAssetTable {
	return &models.MAssetTable{
		Times:   []time.Time{day(2004, 1, 1), day(2004, 2, 1)},
		Columns: map[string][]float64{"x": {1, 2}},
	}
}

func TestMultiSourceFallback(t *testing.T) {
	remote := &stubSource{name: "yahoo", err: errors.New("blocked")}
	local := &stubSource{name: "csv", table: testTable()}
	m := NewMultiSourceManager([]interfaces.IAssetSource{remote, local}, logger.NewLoggerTo(io.Discard, "INFO", "Sources"))

	assert.Equal(t, "yahoo>csv", m.Name())

	table, err := m.LoadAssets(context.Background())
	require.NoError(t, err)
	assert.Same(t, local.table, table)
	assert.Equal(t, "csv", m.Served())
	assert.Equal(t, 1, remote.calls)
}

func TestMultiSourceFirstWins(t *testing.T) {
	remote := &stubSource{name: "yahoo", table: testTable()}
	local := &stubSource{name: "csv", table: testTable()}
	m := NewMultiSourceManager([]interfaces.IAssetSource{remote, local}, logger.NewLoggerTo(io.Discard, "INFO", "Sources"))

	_, err := m.LoadAssets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "yahoo", m.Served())
	assert.Equal(t, 0, local.calls)
}

func TestMultiSourceAllFail(t *testing.T) {
	m := NewMultiSourceManager([]interfaces.IAssetSource{
		&stubSource{name: "yahoo", err: errors.New("blocked")},
		&stubSource{name: "csv", err: errors.New("missing file")},
	}, logger.NewLoggerTo(io.Discard, "INFO", "Sources"))

	_, err := m.LoadAssets(context.Background())
	var dsErr *helpers.DataSourceError
	require.True(t, errors.As(err, &dsErr))
	assert.ErrorContains(t, err, "blocked")
	assert.ErrorContains(t, err, "missing file")

	_, err = NewMultiSourceManager(nil, logger.NewLoggerTo(io.Discard, "INFO", "Sources")).LoadAssets(context.Background())
	assert.True(t, errors.As(err, &dsErr))
}

func TestMultiSourceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	local := &stubSource{name: "csv", table: testTable()}
	m := NewMultiSourceManager([]interfaces.IAssetSource{
		&stubSource{name: "yahoo", err: context.Canceled},
		local,
	}, logger.NewLoggerTo(io.Discard, "INFO", "Sources"))

	_, err := m.LoadAssets(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, local.calls)
}
