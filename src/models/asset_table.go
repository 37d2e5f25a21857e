package models

import (
	"sort"
	"time"
)

// MAssetTable holds auxiliary asset prices on one shared calendar axis.
// Every column must have exactly len(Times) values.
type MAssetTable struct {
	Times   []time.Time          `json:"times"`
	Columns map[string][]float64 `json:"columns"`
}

// -----------------------------------------------------------------------------

// Names returns the asset names in sorted order.
func (t *MAssetTable) Names() []string {
	names := make([]string, 0, len(t.Columns))
	for name := range t.Columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
