package datasource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"bubble-model/src/helpers"
	"bubble-model/src/logger"
	"bubble-model/src/models"
	"bubble-model/src/utils"
)

// DefaultColumn is the price column used when the config does not name one.
const DefaultColumn = "Adj Close"

// dateColumn is the index column every price file carries.
const dateColumn = "Date"

var dateLayouts = []string{
	time.DateOnly,
	time.DateTime,
	time.RFC3339,
	"01/02/2006",
}

// -----------------------------------------------------------------------------

// CSVAssetSource loads asset prices from per-asset CSV files (Yahoo export format).
type CSVAssetSource struct {
	Config  models.MDataConfig
	BaseDir string
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewCSVAssetSource(cfg models.MDataConfig, baseDir string, log *logger.Logger) *CSVAssetSource {
	return &CSVAssetSource{
		Config:  cfg,
		BaseDir: baseDir,
		Logger:  log,
	}
}

// -----------------------------------------------------------------------------

func (s *CSVAssetSource) Name() string {
	return "csv"
}

// -----------------------------------------------------------------------------

// LoadAssets reads every configured file, applies the reciprocal transform
// where requested and joins the result.
func (s *CSVAssetSource) LoadAssets(ctx context.Context) (*models.MAssetTable, error) {
	column := s.Config.Column
	if column == "" {
		column = DefaultColumn
	}

	series := make(map[string]models.MTimeSeries, len(s.Config.Assets))
	for _, asset := range s.Config.Assets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := asset.Path
		if !filepath.IsAbs(path) && s.BaseDir != "" {
			path = filepath.Join(s.BaseDir, path)
		}

		ts, err := LoadSeriesFile(path, asset.Name, column)
		if err != nil {
			return nil, err
		}
		if asset.Invert {
			ts = InvertSeries(ts)
		}
		s.Logger.Info("Loaded %s from %s: %d rows", asset.Name, path, len(ts.Times))
		series[asset.Name] = ts
	}

	opts := TableOptions{Range: s.Config.Range}
	if s.Config.TradingDaysOnly {
		opts.Calendar = utils.GetCalendar(s.Config.Calendar)
	}
	return BuildAssetTable(series, opts)
}

// -----------------------------------------------------------------------------

// LoadSeriesFile opens path and reads one price column from it.
func LoadSeriesFile(path, name, column string) (models.MTimeSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.MTimeSeries{}, helpers.NewDataSourceError(fmt.Sprintf("failed to open '%s'", path), err)
	}
	defer f.Close()

	ts, err := ReadSeries(f, name, column)
	if err != nil {
		return models.MTimeSeries{}, helpers.NewDataSourceError(fmt.Sprintf("failed to read '%s'", path), err)
	}
	return ts, nil
}

// -----------------------------------------------------------------------------

// ReadSeries parses a CSV with a Date column and the named value column.
// Rows with a missing value ("", "null", "NaN", ".") are skipped; the result
// is sorted by date.
func ReadSeries(r io.Reader, name, column string) (models.MTimeSeries, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return models.MTimeSeries{}, fmt.Errorf("read header: %w", err)
	}

	dateIdx, valueIdx := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")) {
		case dateColumn:
			dateIdx = i
		case column:
			valueIdx = i
		}
	}
	if dateIdx < 0 {
		return models.MTimeSeries{}, fmt.Errorf("missing '%s' column", dateColumn)
	}
	if valueIdx < 0 {
		return models.MTimeSeries{}, fmt.Errorf("missing '%s' column", column)
	}

	type row struct {
		t time.Time
		v float64
	}
	var rows []row
	seen := make(map[time.Time]bool)

	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return models.MTimeSeries{}, fmt.Errorf("line %d: %w", line, err)
		}

		t, err := parseDate(rec[dateIdx])
		if err != nil {
			return models.MTimeSeries{}, fmt.Errorf("line %d: %w", line, err)
		}

		raw := strings.TrimSpace(rec[valueIdx])
		if isMissing(raw) {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.MTimeSeries{}, fmt.Errorf("line %d: bad value %q: %w", line, raw, err)
		}

		if seen[t] {
			return models.MTimeSeries{}, fmt.Errorf("line %d: duplicate date %s", line, t.Format(time.DateOnly))
		}
		seen[t] = true
		rows = append(rows, row{t: t, v: v})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].t.Before(rows[j].t) })

	ts := models.MTimeSeries{
		Name:   name,
		Times:  make([]time.Time, len(rows)),
		Values: make([]float64, len(rows)),
	}
	for i, r := range rows {
		ts.Times[i] = r.t
		ts.Values[i] = r.v
	}
	return ts, nil
}

// -----------------------------------------------------------------------------

// InvertSeries returns 1/value for every point, dropping zeros.
func InvertSeries(ts models.MTimeSeries) models.MTimeSeries {
	out := models.MTimeSeries{Name: ts.Name}
	for i, v := range ts.Values {
		if v == 0 {
			continue
		}
		out.Times = append(out.Times, ts.Times[i])
		out.Values = append(out.Values, 1/v)
	}
	return out
}

// -----------------------------------------------------------------------------

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

func isMissing(s string) bool {
	switch strings.ToLower(s) {
	case "", "null", "nan", ".", "na":
		return true
	}
	return false
}
