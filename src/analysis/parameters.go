package analysis

import (
	"math"
	"sort"
	"time"

	"bubble-model/src/helpers"
	"bubble-model/src/models"
)

// -----------------------------------------------------------------------------

// ValidateParameters checks ranges that do not depend on the asset table.
func ValidateParameters(p models.MModelParameters) error {
	scalars := []struct {
		name  string
		value float64
	}{{"a", p.A}, {"b", p.B}, {"k_sd", p.KSD}, {"k_sp", p.KSP}, {"noise_level", p.NoiseLevel}}
	for _, s := range scalars {
		if math.IsNaN(s.value) || math.IsInf(s.value, 0) {
			return helpers.NewValidationError("%s must be finite, got %v", s.name, s.value)
		}
	}
	if p.KSD < 0 || p.KSD > 1 {
		return helpers.NewValidationError("k_sd must be in [0, 1] so that 1-k_sd is a damping factor, got %v", p.KSD)
	}
	if p.NoiseLevel < 0 {
		return helpers.NewValidationError("noise_level must be >= 0, got %v", p.NoiseLevel)
	}
	if p.SpeculationStart.IsZero() {
		return helpers.NewValidationError("speculation_start is required")
	}

	names := make([]string, 0, len(p.K))
	for name := range p.K {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if v := p.K[name]; math.IsNaN(v) || math.IsInf(v, 0) {
			return helpers.NewValidationError("k[%s] must be finite, got %v", name, v)
		}
	}

	if mp := p.MagicPrice; mp != nil {
		if math.IsNaN(mp.Value) || math.IsInf(mp.Value, 0) {
			return helpers.NewValidationError("magic_price.value must be finite, got %v", mp.Value)
		}
		if mp.Offset != 0 && mp.Offset != 1 {
			return helpers.NewValidationError("magic_price.offset must be 0 or 1, got %d", mp.Offset)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

// CloneParameters deep-copies the pointer and map fields.
func CloneParameters(p models.MModelParameters) models.MModelParameters {
	out := p
	if p.K != nil {
		out.K = make(map[string]float64, len(p.K))
		for k, v := range p.K {
			out.K[k] = v
		}
	}
	if p.MagicPrice != nil {
		mp := *p.MagicPrice
		out.MagicPrice = &mp
	}
	if p.Seed != nil {
		seed := *p.Seed
		out.Seed = &seed
	}
	return out
}

// -----------------------------------------------------------------------------
// Published parameter sets (doi: 10.1073/pnas.1413108112)
// -----------------------------------------------------------------------------

// PaperSpeculationStart is the first month speculators act in the paper's run.
var PaperSpeculationStart = time.Date(2007, 6, 1, 0, 0, 0, 0, time.UTC)

// PaperRange is the monthly window the paper's figures cover.
var PaperRange = func() models.MDateRange {
	start := time.Date(2004, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2012, 1, 31, 0, 0, 0, 0, time.UTC)
	return models.MDateRange{Start: &start, End: &end}
}

// ReportedParameters returns the values printed in the paper.
func ReportedParameters() models.MModelParameters {
	return models.MModelParameters{
		A:                113,
		B:                0.011,
		KSD:              0.093,
		KSP:              1.27,
		K:                map[string]float64{"equity": -0.085, "bonds": -48.2},
		SpeculationStart: PaperSpeculationStart,
	}
}

// CorrectedParameters returns the values that reproduce the paper's figures.
func CorrectedParameters() models.MModelParameters {
	p := ReportedParameters()
	p.KSD = 0.09256
	p.KSP = 1.2725
	p.K = map[string]float64{"equity": -0.085033, "bonds": -48.2}
	p.MagicPrice = &models.MMagicPrice{Value: 140.45, Offset: 0}
	return p
}

// NoisyParameters is CorrectedParameters with 1% noise on the equilibrium term.
func NoisyParameters() models.MModelParameters {
	p := CorrectedParameters()
	p.NoiseLevel = 1e-2
	return p
}

// Preset looks up a named parameter set: "reported", "corrected" or "noisy".
func Preset(name string) (models.MModelParameters, bool) {
	switch name {
	case "reported":
		return ReportedParameters(), true
	case "corrected":
		return CorrectedParameters(), true
	case "noisy":
		return NoisyParameters(), true
	}
	return models.MModelParameters{}, false
}
