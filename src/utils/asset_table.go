package utils

import (
	"math"
	"time"

	"bubble-model/src/helpers"
	"bubble-model/src/models"
)

// -----------------------------------------------------------------------------

// ValidateAssetTable checks that every column is aligned with the shared axis
// and that the axis is strictly increasing.
func ValidateAssetTable(table *models.MAssetTable) error {
	if table == nil {
		return helpers.NewValidationError("asset table is nil")
	}
	if _, err := NewTimeAxis(table.Times, 0); err != nil {
		return err
	}
	n := len(table.Times)
	for _, name := range table.Names() {
		col := table.Columns[name]
		if len(col) != n {
			return helpers.NewMisalignedAxisError(name, "asset '%s' has %d values for %d timestamps", name, len(col), n)
		}
		for i, v := range col {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return helpers.NewValidationError("asset '%s' has non-finite value at %s", name, table.Times[i].Format(time.DateOnly))
			}
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

// FilterAssetTable returns a new table restricted to the inclusive date
// range. The input is validated first so a misaligned column is reported,
// never trimmed to fit.
func FilterAssetTable(table *models.MAssetTable, r models.MDateRange) (*models.MAssetTable, error) {
	if err := ValidateAssetTable(table); err != nil {
		return nil, err
	}

	out := &models.MAssetTable{Columns: make(map[string][]float64, len(table.Columns))}
	keep := make([]int, 0, len(table.Times))
	for i, t := range table.Times {
		if InRange(t, r) {
			keep = append(keep, i)
			out.Times = append(out.Times, t)
		}
	}
	for name, col := range table.Columns {
		vals := make([]float64, len(keep))
		for j, i := range keep {
			vals[j] = col[i]
		}
		out.Columns[name] = vals
	}
	return out, nil
}
