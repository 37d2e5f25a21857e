package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// MModelParameters holds every input of one simulation run.
//
//   - A, B: equilibrium curve a + b*t^2
//   - KSD: decay coefficient, 1-KSD is the damping factor (0 <= KSD <= 1)
//   - KSP: auto-speculation gain
//   - K: per-asset speculation gain, must cover every asset column
//   - SpeculationStart: calendar time present in the asset axis
//   - T0: integer assigned to the first time step
type MModelParameters struct {
	A                float64            `yaml:"a" json:"a"`
	B                float64            `yaml:"b" json:"b"`
	KSD              float64            `yaml:"k_sd" json:"k_sd"`
	KSP              float64            `yaml:"k_sp" json:"k_sp"`
	K                map[string]float64 `yaml:"k" json:"k"`
	SpeculationStart time.Time          `yaml:"speculation_start" json:"speculation_start"`
	T0               int                `yaml:"t0" json:"t0"`
	MagicPrice       *MMagicPrice       `yaml:"magic_price,omitempty" json:"magic_price,omitempty"`
	NoiseLevel       float64            `yaml:"noise_level" json:"noise_level"`
	Seed             *int64             `yaml:"seed,omitempty" json:"seed,omitempty"`
}

// MMagicPrice forces the stored price at SpeculationStart+Offset to Value.
// Offset is 0 (the activation boundary) or 1 (the step after it).
type MMagicPrice struct {
	Value  float64 `yaml:"value" json:"value"`
	Offset int     `yaml:"offset" json:"offset"`
}

// UnmarshalJSON accepts speculation_start as a date ("2007-06-01") as well as
// RFC 3339. A missing key leaves the current value in place, so a request can
// overlay single fields on a preset.
func (p *MModelParameters) UnmarshalJSON(data []byte) error {
	type plain MModelParameters
	aux := struct {
		*plain
		SpeculationStart *string `json:"speculation_start"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.SpeculationStart == nil {
		return nil
	}

	s := *aux.SpeculationStart
	for _, layout := range []string{time.DateOnly, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			p.SpeculationStart = t
			return nil
		}
	}
	return fmt.Errorf("speculation_start: %q is neither YYYY-MM-DD nor RFC 3339", s)
}
