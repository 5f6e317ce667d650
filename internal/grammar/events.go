// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package grammar

import (
	"fmt"
	"math"
	"time"

	"github.com/pdiddy/applicability-engine/pkg/types"
)

// EventData is the payload of an Event input.
type EventData struct {
	Positions []float64 `json:"positions" yaml:"positions"`
}

// BuildEvents builds the E family from pulse_detection.
// At least two events are needed for the family to exist.
func BuildEvents(src Source, channel string, at time.Time) (types.Input, error) {
	var tr tracer
	pulse, ok, err := src.Resolve(methodPulses, channel)
	if err != nil {
		return types.Input{}, err
	}
	if !ok {
		return unavailable(types.FamilyEvent, tr.provenance(at), nil, notInResults(methodPulses)), nil
	}
	tr.consult(src, methodPulses)

	positions, _ := pulse.Floats("pulse_positions")
	count := len(positions)
	if n, ok := pulse.Int("num_pulses"); ok {
		count = n
	}

	var notes []string
	intervals := diff(positions)
	metrics := map[string]float64{"num_events": float64(count)}

	derive := len(intervals) > 0
	if derive && !(strictlyIncreasing(positions) && allFinite(intervals)) {
		derive = false
		notes = append(notes, "pulse positions are not strictly increasing with finite intervals; interval statistics not derived")
	}
	report := func(name string, v float64) {
		if !setFinite(metrics, name, v) {
			notes = append(notes, fmt.Sprintf("%s is not finite; omitted", name))
		}
	}

	if v, ok := pulse.Float("interval_mean"); ok {
		report("interval_mean", v)
	} else if derive {
		report("interval_mean", mean(intervals))
	}
	if v, ok := pulse.Float("interval_std"); ok {
		report("interval_std", v)
	} else if derive {
		report("interval_std", stddev(intervals))
	}

	if v, ok := pulse.Float("regularity_score"); ok {
		report("regularity_score", v)
	} else if derive {
		report("regularity_score", math.Max(0, 1-coefficientOfVariation(intervals)))
		notes = append(notes, "regularity_score derived from pulse positions as max(0, 1-cv)")
	}

	prov := tr.provenance(at)
	if count < 2 {
		notes = append(notes, fmt.Sprintf("only %d event(s), need at least 2", count))
		return unavailable(types.FamilyEvent, prov, metrics, notes...), nil
	}

	return types.Input{
		Family:     types.FamilyEvent,
		Available:  true,
		Data:       EventData{Positions: positions},
		Metrics:    metrics,
		Notes:      notes,
		Provenance: prov,
	}, nil
}
