package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"bubble-model/src/models"

	"github.com/google/uuid"
)

// runRecord is one row of the runs table, shared by both backends.
type runRecord struct {
	ID         string
	Params     []byte
	Points     int
	FinalPrice sql.NullFloat64
	Degenerate bool
	StartedAt  int64 // unix nanoseconds
	ElapsedNs  int64
	Fit        []byte // nil when no observed series was compared
	Warnings   []byte
}

// pointRow is one trajectory step.
type pointRow struct {
	Position    int
	Time        int64 // unix seconds
	IntegerTime int
	Price       sql.NullFloat64 // NULL for NaN/Inf
	Noise       float64
}

// -----------------------------------------------------------------------------

func newRunRecord(r *models.MSimulationResult) (runRecord, error) {
	params, err := json.Marshal(r.Params)
	if err != nil {
		return runRecord{}, fmt.Errorf("encode params: %w", err)
	}
	warnings, err := json.Marshal(r.Warnings)
	if err != nil {
		return runRecord{}, fmt.Errorf("encode warnings: %w", err)
	}

	rec := runRecord{
		ID:         r.RunID.String(),
		Params:     params,
		Points:     len(r.Series.Values),
		Degenerate: r.Degenerate(),
		StartedAt:  r.StartedAt.UnixNano(),
		ElapsedNs:  int64(r.Elapsed),
		Warnings:   warnings,
	}
	if n := len(r.Series.Values); n > 0 {
		rec.FinalPrice = nullable(r.Series.Values[n-1])
	}
	if r.Fit != nil {
		// Statistics of an overflowing run can be Inf; those are not stored.
		if fit, err := json.Marshal(r.Fit); err == nil {
			rec.Fit = fit
		}
	}
	return rec, nil
}

// -----------------------------------------------------------------------------

func pointRows(r *models.MSimulationResult) []pointRow {
	rows := make([]pointRow, len(r.Series.Values))
	for i, v := range r.Series.Values {
		rows[i] = pointRow{
			Position:    i,
			Time:        r.Series.Times[i].Unix(),
			IntegerTime: r.IntegerTimes[i],
			Price:       nullable(v),
		}
		if i < len(r.Noise) {
			rows[i].Noise = r.Noise[i]
		}
	}
	return rows
}

// -----------------------------------------------------------------------------

func (rec runRecord) summary() (models.MRunSummary, error) {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return models.MRunSummary{}, fmt.Errorf("bad run id %q: %w", rec.ID, err)
	}

	s := models.MRunSummary{
		RunID:      id,
		Points:     rec.Points,
		Degenerate: rec.Degenerate,
		StartedAt:  time.Unix(0, rec.StartedAt).UTC(),
		ElapsedMs:  float64(rec.ElapsedNs) / 1e6,
	}
	if err := json.Unmarshal(rec.Params, &s.Params); err != nil {
		return models.MRunSummary{}, fmt.Errorf("decode params: %w", err)
	}
	if rec.FinalPrice.Valid {
		v := rec.FinalPrice.Float64
		s.FinalPrice = &v
	}
	return s, nil
}

// -----------------------------------------------------------------------------

// result rebuilds a full run; NULL prices come back as NaN.
func (rec runRecord) result(points []pointRow) (*models.MSimulationResult, error) {
	sum, err := rec.summary()
	if err != nil {
		return nil, err
	}

	r := &models.MSimulationResult{
		RunID:        sum.RunID,
		Params:       sum.Params,
		Series:       models.MTimeSeries{Name: "simulated"},
		IntegerTimes: make([]int, len(points)),
		Noise:        make([]float64, len(points)),
		StartedAt:    sum.StartedAt,
		Elapsed:      time.Duration(rec.ElapsedNs),
	}
	r.Series.Times = make([]time.Time, len(points))
	r.Series.Values = make([]float64, len(points))
	for i, p := range points {
		r.Series.Times[i] = time.Unix(p.Time, 0).UTC()
		r.IntegerTimes[i] = p.IntegerTime
		r.Noise[i] = p.Noise
		r.Series.Values[i] = math.NaN()
		if p.Price.Valid {
			r.Series.Values[i] = p.Price.Float64
		}
	}

	if len(rec.Warnings) > 0 {
		if err := json.Unmarshal(rec.Warnings, &r.Warnings); err != nil {
			return nil, fmt.Errorf("decode warnings: %w", err)
		}
	}
	if len(rec.Fit) > 0 {
		r.Fit = &models.MFitStatistics{}
		if err := json.Unmarshal(rec.Fit, r.Fit); err != nil {
			return nil, fmt.Errorf("decode fit: %w", err)
		}
	}
	return r, nil
}

// -----------------------------------------------------------------------------

func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// -----------------------------------------------------------------------------

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (runRecord, error) {
	var rec runRecord
	var fit []byte
	err := s.Scan(&rec.ID, &rec.Params, &rec.Points, &rec.FinalPrice, &rec.Degenerate,
		&rec.StartedAt, &rec.ElapsedNs, &fit, &rec.Warnings)
	if len(fit) > 0 {
		rec.Fit = fit
	}
	return rec, err
}

const runColumns = "run_id, params, points, final_price, degenerate, started_at, elapsed_ns, fit, warnings"

// jsonArg stores JSON as text; nil stays NULL.
func jsonArg(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}
