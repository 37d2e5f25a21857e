package datasource

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	"bubble-model/src/helpers"
	"bubble-model/src/models"
)

// WriteSeries writes a Date column and one value column in the format ReadSeries
// accepts. Non-finite values are written as empty cells.
func WriteSeries(w io.Writer, ts models.MTimeSeries, column string) error {
	if len(ts.Times) != len(ts.Values) {
		return helpers.NewMisalignedAxisError(ts.Name, "%d times but %d values", len(ts.Times), len(ts.Values))
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{dateColumn, column}); err != nil {
		return err
	}
	for i, t := range ts.Times {
		v := ts.Values[i]
		cell := ""
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			cell = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write([]string{t.Format(time.DateOnly), cell}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// -----------------------------------------------------------------------------

// SaveSeriesFile writes ts to path, replacing any existing file.
func SaveSeriesFile(path string, ts models.MTimeSeries, column string) error {
	f, err := os.Create(path)
	if err != nil {
		return helpers.NewDataSourceError(fmt.Sprintf("failed to create '%s'", path), err)
	}
	if err := WriteSeries(f, ts, column); err != nil {
		f.Close()
		return helpers.NewDataSourceError(fmt.Sprintf("failed to write '%s'", path), err)
	}
	if err := f.Close(); err != nil {
		return helpers.NewDataSourceError(fmt.Sprintf("failed to write '%s'", path), err)
	}
	return nil
}
