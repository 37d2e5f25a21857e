package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bubble-model/src/analysis"
	"bubble-model/src/logger"
	"bubble-model/src/models"
	"bubble-model/src/storage"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticAssets struct{ table *models.MAssetTable }

func (s staticAssets) Name() string { return "static" }
func (s staticAssets) LoadAssets(ctx context.Context) (*models.MAssetTable, error) {
	return s.table, nil
}

func month(i int) time.Time {
	return time.Date(2004, time.January+time.Month(i), 1, 0, 0, 0, 0, time.UTC)
}

func newTestServer(t *testing.T) *APIServer {
	t.Helper()
	log := logger.NewLoggerTo(io.Discard, "ERROR", "API")

	db := storage.NewSQLiteDB(models.MStorageConfig{DBType: "sqlite", DBPath: filepath.Join(t.TempDir(), "runs.db")}, log)
	require.NoError(t, db.Initialize())
	t.Cleanup(func() { db.Close() })

	table := &models.MAssetTable{
		Times:   []time.Time{month(0), month(1), month(2), month(3)},
		Columns: map[string][]float64{"x": {1, 3, 6, 10}},
	}
	cfg := &models.MConfig{
		Host: "127.0.0.1",
		Port: 8080,
		Model: models.MModelParameters{
			A: 10, B: 1, KSD: 0.5, KSP: 2,
			K:                map[string]float64{"x": 0.5},
			SpeculationStart: month(1),
		},
		Data: models.MDataConfig{Source: "csv", Assets: []models.MAssetSource{{Name: "x"}}},
	}

	facade := analysis.NewAnalysisFacade(analysis.NewSimulator(log), staticAssets{table}, log)
	facade.DB = db
	s := NewAPIServer(cfg, facade, db, log)
	t.Cleanup(func() { s.Stop() })
	return s
}

func do(t *testing.T, s *APIServer, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w, out := do(t, s, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, float64(0), out["connections"])
}

func TestSimulateStoresRun(t *testing.T) {
	s := newTestServer(t)

	w, out := do(t, s, http.MethodPost, "/api/simulate", `{}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, []interface{}{10.0, 11.0, 17.0, 34.0}, out["values"])
	assert.Equal(t, []interface{}{"2004-01-01", "2004-02-01", "2004-03-01", "2004-04-01"}, out["times"])
	id := out["run_id"].(string)

	w, out = do(t, s, http.MethodGet, "/api/runs", "")
	require.Equal(t, http.StatusOK, w.Code)
	runs := out["runs"].([]interface{})
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].(map[string]interface{})["run_id"])

	w, out = do(t, s, http.MethodGet, "/api/runs/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{10.0, 11.0, 17.0, 34.0}, out["values"])

	w, out = do(t, s, http.MethodGet, "/api/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, out["runs"])
}

func TestSimulateParamOverrides(t *testing.T) {
	s := newTestServer(t)

	w, out := do(t, s, http.MethodPost, "/api/simulate", `{"params": {"magic_price": {"value": 20, "offset": 1}}}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, []interface{}{10.0, 11.0, 20.0, 40.0}, out["values"])
}

func TestSimulateDateOnlyStart(t *testing.T) {
	s := newTestServer(t)

	w, out := do(t, s, http.MethodPost, "/api/simulate", `{"params": {"speculation_start": "2004-03-01"}}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	// no speculation until step 2: P2 = 8.5 + 5.5, P3 = 12 + 7 + 2*3 + 0.5*3
	assert.Equal(t, []interface{}{10.0, 11.0, 14.0, 26.5}, out["values"])
}

func TestSimulateSweep(t *testing.T) {
	s := newTestServer(t)

	w, out := do(t, s, http.MethodPost, "/api/simulate", `{"sweep": {"k_sp": [0, 1, 2], "concurrency": 2}}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Len(t, out["runs"].([]interface{}), 3)
	assert.Equal(t, 3.0, out["metrics"].(map[string]interface{})["runs"])

	_, out = do(t, s, http.MethodGet, "/api/runs?limit=2", "")
	assert.Len(t, out["runs"].([]interface{}), 2)
}

func TestSimulateErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed body", `{`, http.StatusBadRequest},
		{"unknown preset", `{"preset": "bogus"}`, http.StatusBadRequest},
		{"bad params", `{"params": "nope"}`, http.StatusBadRequest},
		{"invalid k_sd", `{"params": {"k_sd": 2}}`, http.StatusUnprocessableEntity},
		{"start off axis", `{"params": {"speculation_start": "2010-01-01T00:00:00Z"}}`, http.StatusUnprocessableEntity},
		{"preset without gain for x", `{"preset": "reported", "params": {"speculation_start": "2004-02-01T00:00:00Z"}}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, out := do(t, s, http.MethodPost, "/api/simulate", tt.body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestGetRunErrors(t *testing.T) {
	s := newTestServer(t)

	w, _ := do(t, s, http.MethodGet, "/api/runs/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, s, http.MethodGet, "/api/runs/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, s, http.MethodGet, "/api/runs?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunViewNullsNonFinite(t *testing.T) {
	r := &models.MSimulationResult{
		Series: models.MTimeSeries{
			Times:  []time.Time{month(0), month(1), month(2)},
			Values: []float64{1, math.Inf(1), math.NaN()},
		},
		Fit: &models.MFitStatistics{RMSE: math.Inf(1)},
	}
	v := newRunView(r)

	require.NotNil(t, v.Values[0])
	assert.Nil(t, v.Values[1])
	assert.Nil(t, v.Values[2])
	assert.Nil(t, v.Fit)

	_, err := json.Marshal(v)
	assert.NoError(t, err)
}

func TestWebSocketAnnouncesRuns(t *testing.T) {
	s := newTestServer(t)
	go s.handleWebsockets()

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg models.MLatestData
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "INITIAL", msg.Type)
	assert.Empty(t, msg.Runs)

	resp, err := http.Post(srv.URL+"/api/simulate", "application/json", bytes.NewBufferString(`{}`))
	require.NoError(t, err)
	var created map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "UPDATE", msg.Type)
	require.Len(t, msg.Runs, 1)
	assert.Equal(t, created["run_id"], msg.Runs[0].RunID.String())
	assert.Equal(t, 1, msg.ProcessingMetrics.Runs)

	require.NoError(t, conn.WriteJSON(models.MClientCommand{Command: "history", Limit: 10}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "HISTORY", msg.Type)
	require.Len(t, msg.Runs, 1)
	require.NotNil(t, msg.Runs[0].FinalPrice)
	assert.Equal(t, 34.0, *msg.Runs[0].FinalPrice)

	require.NoError(t, conn.WriteJSON(models.MClientCommand{Command: "subscribe"}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "ERROR", msg.Type)
	assert.Contains(t, msg.Error, "subscribe")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"command": `)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "ERROR", msg.Type)
	assert.Contains(t, msg.Error, "malformed")

	// the connection survives both
	require.NoError(t, conn.WriteJSON(models.MClientCommand{Command: "history"}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "HISTORY", msg.Type)
}
