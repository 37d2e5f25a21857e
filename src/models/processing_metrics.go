package models

// MProcessingMetrics summarises a batch of simulation runs.
type MProcessingMetrics struct {
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Runs           int     `json:"runs"`
	DegenerateRuns int     `json:"degenerate_runs"`
}
