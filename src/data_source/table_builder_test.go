package datasource

import (
	"errors"
	"testing"
	"time"

	"bubble-model/src/helpers"
	"bubble-model/src/models"
	"bubble-model/src/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAssetTableInnerJoin(t *testing.T) {
	series := map[string]models.MTimeSeries{
		"equity": {Times: []time.Time{day(2004, 1, 1), day(2004, 2, 1), day(2004, 3, 1)}, Values: []float64{1, 2, 3}},
		"bonds":  {Times: []time.Time{day(2004, 2, 1), day(2004, 3, 1), day(2004, 4, 1)}, Values: []float64{20, 30, 40}},
	}

	table, err := BuildAssetTable(series, TableOptions{})
	require.NoError(t, err)
	require.Len(t, table.Times, 2)
	assert.True(t, table.Times[0].Equal(day(2004, 2, 1)))
	assert.Equal(t, []float64{2, 3}, table.Columns["equity"])
	assert.Equal(t, []float64{20, 30}, table.Columns["bonds"])
	require.NoError(t, utils.ValidateAssetTable(table))
}

func TestBuildAssetTableTradingDays(t *testing.T) {
	// 2007-06-01 Fri, 06-02 Sat, 06-04 Mon
	series := map[string]models.MTimeSeries{
		"equity": {Times: []time.Time{day(2007, 6, 1), day(2007, 6, 2), day(2007, 6, 4)}, Values: []float64{1, 2, 3}},
	}
	cal := &utils.TradingCalendar{Fallback: true, Timezone: time.UTC}

	table, err := BuildAssetTable(series, TableOptions{Calendar: cal})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3}, table.Columns["equity"])
}

func TestBuildAssetTableErrors(t *testing.T) {
	var dsErr *helpers.DataSourceError
	_, err := BuildAssetTable(nil, TableOptions{})
	assert.True(t, errors.As(err, &dsErr))

	start := day(2010, 1, 1)
	_, err = BuildAssetTable(map[string]models.MTimeSeries{
		"equity": {Times: []time.Time{day(2004, 1, 1)}, Values: []float64{1}},
	}, TableOptions{Range: models.MDateRange{Start: &start}})
	assert.True(t, errors.As(err, &dsErr))

	var misaligned *helpers.MisalignedAxisError
	_, err = BuildAssetTable(map[string]models.MTimeSeries{
		"equity": {Times: []time.Time{day(2004, 1, 1)}, Values: []float64{1, 2}},
	}, TableOptions{})
	assert.True(t, errors.As(err, &misaligned))
}
