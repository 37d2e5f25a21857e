package utils

import (
	"errors"
	"math"
	"testing"
	"time"

	"bubble-model/src/helpers"
	"bubble-model/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() *models.MAssetTable {
	times := monthly(2004, time.January, 5)
	return &models.MAssetTable{
		Times: times,
		Columns: map[string][]float64{
			"equity": {1100, 1120, 1130, 1105, 1140},
			"bonds":  {0.24, 0.25, 0.23, 0.22, 0.21},
		},
	}
}

func TestValidateAssetTable(t *testing.T) {
	require.NoError(t, ValidateAssetTable(sampleTable()))

	short := sampleTable()
	short.Columns["bonds"] = short.Columns["bonds"][:4]
	err := ValidateAssetTable(short)
	var misaligned *helpers.MisalignedAxisError
	require.True(t, errors.As(err, &misaligned))
	assert.Equal(t, "bonds", misaligned.Asset)

	nan := sampleTable()
	nan.Columns["equity"][2] = math.NaN()
	var validation *helpers.ValidationError
	assert.True(t, errors.As(ValidateAssetTable(nan), &validation))

	assert.True(t, errors.As(ValidateAssetTable(nil), &validation))
}

func TestFilterAssetTable(t *testing.T) {
	table := sampleTable()
	start := table.Times[1]
	end := table.Times[3]

	got, err := FilterAssetTable(table, models.MDateRange{Start: &start, End: &end})
	require.NoError(t, err)
	require.Len(t, got.Times, 3)
	assert.Equal(t, []float64{1120, 1130, 1105}, got.Columns["equity"])
	assert.Equal(t, []float64{0.25, 0.23, 0.22}, got.Columns["bonds"])

	// caller's table is untouched
	assert.Len(t, table.Times, 5)
	assert.Len(t, table.Columns["equity"], 5)
}

func TestFilterAssetTableRejectsMisaligned(t *testing.T) {
	table := sampleTable()
	table.Columns["bonds"] = append(table.Columns["bonds"], 0.2)
	start := table.Times[0]

	got, err := FilterAssetTable(table, models.MDateRange{Start: &start})
	var misaligned *helpers.MisalignedAxisError
	require.True(t, errors.As(err, &misaligned), "got %v", err)
	assert.Equal(t, "bonds", misaligned.Asset)
	assert.Nil(t, got)
	assert.Len(t, table.Columns["bonds"], 6)
}
