package server

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"bubble-model/src/analysis/core"
	"bubble-model/src/helpers"
	"bubble-model/src/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// runView is the JSON form of a run. Non-finite prices become null.
type runView struct {
	RunID        uuid.UUID                   `json:"run_id"`
	Params       models.MModelParameters     `json:"params"`
	Times        []string                    `json:"times"`
	IntegerTimes []int                       `json:"integer_times"`
	Values       []*float64                  `json:"values"`
	Noise        []float64                   `json:"noise"`
	Warnings     []models.MNumericDegeneracy `json:"warnings"`
	Summary      core.TrajectorySummary      `json:"summary"`
	Fit          *models.MFitStatistics      `json:"fit,omitempty"`
	StartedAt    time.Time                   `json:"started_at"`
	ElapsedMs    float64                     `json:"elapsed_ms"`
}

// -----------------------------------------------------------------------------

func newRunView(r *models.MSimulationResult) runView {
	v := runView{
		RunID:        r.RunID,
		Params:       r.Params,
		Times:        make([]string, len(r.Series.Times)),
		IntegerTimes: r.IntegerTimes,
		Values:       make([]*float64, len(r.Series.Values)),
		Noise:        r.Noise,
		Warnings:     r.Warnings,
		Summary:      core.Summarize(r.Series),
		Fit:          finiteFit(r.Fit),
		StartedAt:    r.StartedAt,
		ElapsedMs:    float64(r.Elapsed.Microseconds()) / 1000,
	}
	if v.Warnings == nil {
		v.Warnings = []models.MNumericDegeneracy{}
	}
	for i, t := range r.Series.Times {
		v.Times[i] = t.Format(time.DateOnly)
	}
	for i, x := range r.Series.Values {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			v.Values[i] = &x
		}
	}
	return v
}

// -----------------------------------------------------------------------------

func finiteFit(f *models.MFitStatistics) *models.MFitStatistics {
	if f == nil {
		return nil
	}
	for _, x := range []float64{f.RMSE, f.MAE, f.MaxAbsError, f.Correlation} {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
	}
	return f
}

// -----------------------------------------------------------------------------

// respondError maps the error kinds to HTTP status codes.
func (s *APIServer) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	var (
		validation  *helpers.ValidationError
		axis        *helpers.AxisLookupError
		coefficient *helpers.MissingCoefficientError
		misaligned  *helpers.MisalignedAxisError
		dataSource  *helpers.DataSourceError
		network     *helpers.NetworkError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &axis), errors.As(err, &coefficient):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &misaligned), errors.As(err, &dataSource), errors.As(err, &network):
		status = http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		s.Logger.Error("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
