// Package simulation turns a seed and a pharmacy parameter preset into a
// year of patients, visits and events. Every stochastic decision is drawn
// from one run-wide source in a fixed order, so the produced dataset is a
// pure function of (seed, pharmacy, year, mode).
package simulation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnknownPharmacy = errors.New("unknown pharmacy preset")
	ErrInvalidMode     = errors.New("invalid mode")
	ErrEmptyInventory  = errors.New("inventory is empty")
)

// Mode selects the dataset size.
type Mode string

const (
	// ModeFull simulates every day of the year at realistic volume.
	ModeFull Mode = "full"
	// ModeCompact produces the small fixed-size dataset with two
	// hand-authored edge-case visits.
	ModeCompact Mode = "compact"
)

// ParseMode accepts "full", "compact" and the legacy alias "mini".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "full":
		return ModeFull, nil
	case "compact", "mini":
		return ModeCompact, nil
	default:
		return "", fmt.Errorf("%w: %q (want full or compact)", ErrInvalidMode, s)
	}
}

// Strategy is the counting process used to draw daily visit volume.
type Strategy int

const (
	// StrategyPoisson draws a pure Poisson count.
	StrategyPoisson Strategy = iota
	// StrategyNegativeBinomial draws a Gamma-mixed Poisson count.
	StrategyNegativeBinomial
)

func (s Strategy) String() string {
	if s == StrategyNegativeBinomial {
		return "negative_binomial"
	}
	return "poisson"
}

// Dispersion pairs the counting strategy with its overdispersion parameter.
// K is only meaningful for StrategyNegativeBinomial.
type Dispersion struct {
	Strategy Strategy
	K        float64
}

// Poisson returns the pure Poisson dispersion.
func Poisson() Dispersion { return Dispersion{Strategy: StrategyPoisson} }

// NegativeBinomial returns a Gamma-mixed Poisson dispersion with shape k.
func NegativeBinomial(k float64) Dispersion {
	return Dispersion{Strategy: StrategyNegativeBinomial, K: k}
}

// Parameters are the fixed per-pharmacy simulation constants.
type Parameters struct {
	Pharmacy        string
	MuBase          float64
	Dispersion      Dispersion
	PNewVisit       float64
	PMultiIntent    float64
	InitialPatients int
	// DOWFactors is indexed Monday=0 ... Sunday=6.
	DOWFactors [7]float64
	// MonthFactors is indexed January=0 ... December=11.
	MonthFactors [12]float64
}

// Fixed constants that are not part of a preset.
const (
	PrescriptionProbability = 0.18
	CompactPatients         = 20
	CompactVisits           = 60
	CompactLowInfoIndex     = 2
	CompactRedFlagIndex     = 3
)

var presets = map[string]Parameters{
	// Paris 15e: Sunday closed, moderate overdispersion, ~92% returning visits.
	"paris15": {
		Pharmacy:        "paris15",
		MuBase:          210.0,
		Dispersion:      NegativeBinomial(400.0),
		PNewVisit:       0.08,
		PMultiIntent:    0.60,
		InitialPatients: 5250,
		DOWFactors:      [7]float64{1.00, 1.00, 1.00, 1.00, 1.00, 0.75, 0.00},
		MonthFactors:    [12]float64{1.20, 1.15, 1.10, 1.00, 1.05, 0.95, 0.90, 0.85, 1.05, 1.10, 1.15, 1.20},
	},
}

// Preset looks up the parameters of a named pharmacy.
func Preset(name string) (Parameters, error) {
	p, ok := presets[name]
	if !ok {
		return Parameters{}, fmt.Errorf("%w: %q", ErrUnknownPharmacy, name)
	}
	return p, nil
}

// Presets lists the known pharmacy names.
func Presets() []string {
	out := make([]string, 0, len(presets))
	for name := range presets {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// DayMean returns the expected visit count for a day given its weekday
// (Monday=0) and month (1-12).
func (p Parameters) DayMean(weekday, month int) float64 {
	return p.MuBase * p.DOWFactors[weekday] * p.MonthFactors[month-1]
}
