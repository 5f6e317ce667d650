// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package grammar

import (
	"fmt"
	"math"
	"time"

	"github.com/pdiddy/applicability-engine/pkg/types"
)

// Binary alphabet for interval discretization.
const (
	SymbolShort = "short"
	SymbolLong  = "long"

	discretizationRule = "median_threshold"
)

// SymbolData is the payload of a Symbol input.
type SymbolData struct {
	Symbols   []string `json:"symbols" yaml:"symbols"`
	Alphabet  []string `json:"alphabet" yaml:"alphabet"`
	Threshold float64  `json:"threshold" yaml:"threshold"`
}

// BuildSymbols discretizes intervals into short/long symbols. An interval
// strictly below the median interval is short; anything else is long. The
// rule and threshold are recorded in provenance.
func BuildSymbols(src Source, channel string, at time.Time) (types.Input, error) {
	var tr tracer
	pulse, ok, err := src.Resolve(methodPulses, channel)
	if err != nil {
		return types.Input{}, err
	}
	alphabet := []string{SymbolShort, SymbolLong}
	rule := map[string]any{"method": discretizationRule, "alphabet": alphabet}

	if !ok {
		tr.record("discretization", rule)
		return unavailable(types.FamilySymbol, tr.provenance(at), nil, notInResults(methodPulses)), nil
	}
	tr.consult(src, methodPulses)

	positions, _ := pulse.Floats("pulse_positions")
	if len(positions) < 3 {
		tr.record("discretization", rule)
		return unavailable(types.FamilySymbol, tr.provenance(at),
			map[string]float64{"num_events": float64(len(positions))},
			fmt.Sprintf("only %d event(s), need at least 3", len(positions))), nil
	}

	intervals := diff(positions)
	if !allFinite(intervals) {
		tr.record("discretization", rule)
		return unavailable(types.FamilySymbol, tr.provenance(at),
			map[string]float64{"num_events": float64(len(positions))},
			"pulse positions give non-finite intervals"), nil
	}
	threshold := median(intervals)
	rule["threshold"] = threshold
	tr.record("discretization", rule)

	symbols := make([]string, len(intervals))
	var short, long int
	for i, iv := range intervals {
		if iv < threshold {
			symbols[i] = SymbolShort
			short++
		} else {
			symbols[i] = SymbolLong
			long++
		}
	}
	total := float64(len(symbols))
	pShort := float64(short) / total
	pLong := float64(long) / total

	var entropy float64
	for _, p := range []float64{pShort, pLong} {
		if p > 0 {
			entropy -= p * math.Log2(p)
		}
	}

	return types.Input{
		Family:    types.FamilySymbol,
		Available: true,
		Data: SymbolData{
			Symbols:   symbols,
			Alphabet:  alphabet,
			Threshold: threshold,
		},
		Metrics: map[string]float64{
			"num_symbols":              total,
			"symbol_entropy":           entropy,
			"ratio_short":              pShort,
			"ratio_long":               pLong,
			"discretization_threshold": threshold,
		},
		Provenance: tr.provenance(at),
	}, nil
}
