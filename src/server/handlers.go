package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"bubble-model/src/analysis"
	"bubble-model/src/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// simulateRequest selects the parameters of a run. Params overrides single
// fields of the preset (or of the configured model when no preset is given).
// speculation_start may be given as YYYY-MM-DD or RFC 3339. A non-null sweep
// runs the grid instead of a single run.
type simulateRequest struct {
	Preset string               `json:"preset"`
	Params json.RawMessage      `json:"params"`
	Sweep  *models.MSweepConfig `json:"sweep"`
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *APIServer) getHealth(c *gin.Context) {
	s.stateMutex.RLock()
	timestamp := s.latestState.Timestamp
	runs := s.latestState.ProcessingMetrics.Runs
	s.stateMutex.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"connections":   s.connectionCount(),
		"latest_update": timestamp,
		"runs":          runs,
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getMetrics(c *gin.Context) {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()

	c.JSON(http.StatusOK, s.latestState.ProcessingMetrics)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getConfig(c *gin.Context) {
	assets := make([]string, 0, len(s.Config.Data.Assets))
	for _, a := range s.Config.Data.Assets {
		assets = append(assets, a.Name)
	}

	c.JSON(http.StatusOK, gin.H{
		"model":   s.Config.Model,
		"presets": []string{"reported", "corrected", "noisy"},
		"source":  s.Config.Data.Source,
		"assets":  assets,
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) postSimulate(c *gin.Context) {
	var req simulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	params, err := s.resolveParams(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if req.Sweep != nil {
		outcome, err := s.Facade.Sweep(ctx, params, *req.Sweep)
		if err != nil {
			s.respondError(c, err)
			return
		}
		summaries := make([]models.MRunSummary, len(outcome.Results))
		for i, r := range outcome.Results {
			summaries[i] = r.Summary()
		}
		c.JSON(http.StatusCreated, gin.H{"runs": summaries, "metrics": outcome.Metrics})
		return
	}

	result, err := s.Facade.Simulate(ctx, params)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newRunView(result))
}

// -----------------------------------------------------------------------------

func (s *APIServer) resolveParams(req simulateRequest) (models.MModelParameters, error) {
	params := analysis.CloneParameters(s.Config.Model)
	if req.Preset != "" {
		p, ok := analysis.Preset(req.Preset)
		if !ok {
			return params, errors.New("unknown preset '" + req.Preset + "'")
		}
		params = p
	}
	if len(req.Params) > 0 && string(req.Params) != "null" {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return params, errors.New("invalid params: " + err.Error())
		}
	}
	return params, nil
}

// -----------------------------------------------------------------------------

func (s *APIServer) listRuns(c *gin.Context) {
	if s.DB == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage is disabled"})
		return
	}

	limit := historySize
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	runs, err := s.DB.ListRuns(c.Request.Context(), limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if runs == nil {
		runs = []models.MRunSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getRun(c *gin.Context) {
	if s.DB == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage is disabled"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
		return
	}

	result, err := s.DB.GetRun(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, newRunView(result))
}
