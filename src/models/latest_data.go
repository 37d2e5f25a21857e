package models

// -----------------------------------------------------------------------------
// Server State Structure
// -----------------------------------------------------------------------------

// MLatestData is what websocket clients receive: the runs finished since the
// last message ("UPDATE"), the recent history on connect ("INITIAL"), the
// answer to a history command ("HISTORY") or a rejected command ("ERROR").
type MLatestData struct {
	Type              string             `json:"type"`
	Error             string             `json:"error,omitempty"`
	Runs              []MRunSummary      `json:"runs"`
	Timestamp         int64              `json:"timestamp"`
	ProcessingMetrics MProcessingMetrics `json:"processing_metrics"`
}

// -----------------------------------------------------------------------------
// MClientCommand for client messages
// -----------------------------------------------------------------------------

type MClientCommand struct {
	Command string `json:"command"` // "history"
	Limit   int    `json:"limit"`
}
