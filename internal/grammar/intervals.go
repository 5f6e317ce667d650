// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package grammar

import (
	"fmt"
	"time"

	"github.com/pdiddy/applicability-engine/pkg/types"
)

// IntervalData is the payload of an Interval input.
type IntervalData struct {
	Intervals []float64 `json:"intervals" yaml:"intervals"`
}

// BuildIntervals builds the Δ family: successive differences of the
// pulse_detection positions.
func BuildIntervals(src Source, channel string, at time.Time) (types.Input, error) {
	var tr tracer
	pulse, ok, err := src.Resolve(methodPulses, channel)
	if err != nil {
		return types.Input{}, err
	}
	if !ok {
		return unavailable(types.FamilyInterval, tr.provenance(at), nil, notInResults(methodPulses)), nil
	}
	tr.consult(src, methodPulses)
	prov := tr.provenance(at)

	positions, _ := pulse.Floats("pulse_positions")
	if len(positions) < 2 {
		return unavailable(types.FamilyInterval, prov,
			map[string]float64{"num_events": float64(len(positions))},
			fmt.Sprintf("only %d event(s), need at least 2 for intervals", len(positions))), nil
	}

	intervals := diff(positions)
	if !allFinite(intervals) {
		return unavailable(types.FamilyInterval, prov,
			map[string]float64{"num_events": float64(len(positions))},
			"pulse positions give non-finite intervals"), nil
	}

	var notes []string
	lo, hi := minMax(intervals)
	metrics := map[string]float64{"num_intervals": float64(len(intervals))}
	for _, st := range []struct {
		name string
		v    float64
	}{
		{"interval_mean", mean(intervals)},
		{"interval_std", stddev(intervals)},
		{"interval_min", lo},
		{"interval_max", hi},
	} {
		if !setFinite(metrics, st.name, st.v) {
			notes = append(notes, fmt.Sprintf("%s is not finite; omitted", st.name))
		}
	}
	switch {
	case !strictlyIncreasing(positions):
		notes = append(notes, "pulse positions are not strictly increasing; coefficient_of_variation omitted")
	case !setFinite(metrics, "coefficient_of_variation", coefficientOfVariation(intervals)):
		notes = append(notes, "coefficient_of_variation is not finite; omitted")
	}

	return types.Input{
		Family:     types.FamilyInterval,
		Available:  true,
		Data:       IntervalData{Intervals: intervals},
		Metrics:    metrics,
		Notes:      notes,
		Provenance: prov,
	}, nil
}
