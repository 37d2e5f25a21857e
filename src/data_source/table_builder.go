package datasource

import (
	"sort"
	"time"

	"bubble-model/src/helpers"
	"bubble-model/src/models"
	"bubble-model/src/utils"
)

// -----------------------------------------------------------------------------

// TableOptions controls how per-asset series are joined into an asset table.
type TableOptions struct {
	Range    models.MDateRange
	Calendar *utils.TradingCalendar // nil keeps every date
}

// -----------------------------------------------------------------------------

// BuildAssetTable joins the series on the dates present in all of them,
// drops non-trading days when a calendar is set, then applies the date range
// through utils.FilterAssetTable.
// Inputs are not modified.
func BuildAssetTable(series map[string]models.MTimeSeries, opts TableOptions) (*models.MAssetTable, error) {
	if len(series) == 0 {
		return nil, helpers.NewDataSourceError("no asset series to join", nil)
	}

	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)

	lookup := make(map[string]map[time.Time]float64, len(series))
	counts := make(map[time.Time]int)
	for _, name := range names {
		s := series[name]
		if len(s.Times) != len(s.Values) {
			return nil, helpers.NewMisalignedAxisError(name, "series '%s' has %d times and %d values", name, len(s.Times), len(s.Values))
		}
		m := make(map[time.Time]float64, len(s.Times))
		for i, t := range s.Times {
			t = t.UTC()
			if _, dup := m[t]; dup {
				return nil, helpers.NewMisalignedAxisError(name, "series '%s' repeats timestamp %s", name, t.Format(time.DateOnly))
			}
			m[t] = s.Values[i]
			counts[t]++
		}
		lookup[name] = m
	}

	var times []time.Time
	for t, c := range counts {
		if c == len(names) {
			times = append(times, t)
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	if opts.Calendar != nil {
		keep := opts.Calendar.FilterTradingDays(times)
		filtered := make([]time.Time, len(keep))
		for i, k := range keep {
			filtered[i] = times[k]
		}
		times = filtered
	}

	joined := &models.MAssetTable{Times: times, Columns: make(map[string][]float64, len(names))}
	for _, name := range names {
		col := make([]float64, len(times))
		for i, t := range times {
			col[i] = lookup[name][t]
		}
		joined.Columns[name] = col
	}

	table, err := utils.FilterAssetTable(joined, opts.Range)
	if err != nil {
		return nil, err
	}
	if len(table.Times) == 0 {
		return nil, helpers.NewDataSourceError("asset series share no dates in the requested range", nil)
	}
	return table, nil
}
