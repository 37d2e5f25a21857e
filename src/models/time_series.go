package models

import "time"

// MTimeSeries is a calendar-indexed series, strictly increasing in time.
type MTimeSeries struct {
	Name   string      `json:"name"`
	Times  []time.Time `json:"times"`
	Values []float64   `json:"values"`
}

// MDateRange is an inclusive [Start, End] filter; a nil bound is unbounded.
type MDateRange struct {
	Start *time.Time `yaml:"start" json:"start,omitempty"`
	End   *time.Time `yaml:"end" json:"end,omitempty"`
}
