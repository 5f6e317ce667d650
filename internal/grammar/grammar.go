// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package grammar builds the six canonical input families from a
// measurement document and assembles them into per-channel bundles.
//
// Builders observe only. They report counts, distributions and discretization
// rules as metrics, and mark an Input unavailable with a factual note when
// the underlying measurement is absent. They never compare a metric to an
// applicability threshold; that belongs to the evaluator.
package grammar

import (
	"time"

	"github.com/pdiddy/applicability-engine/internal/measure"
	"github.com/pdiddy/applicability-engine/pkg/types"
)

// BuilderVersion tags every Input this package produces.
const BuilderVersion = "1.0.0"

// Measurement method names consulted by the builders.
const (
	methodPulses      = "pulse_detection"
	methodSpectrogram = "spectrogram"
	methodLocalEnt    = "local_entropy"
	methodBandStab    = "band_stability"
	methodSTFT        = "stft"
)

// Source is the read-only measurement view the builders consume.
// *measure.Accessor implements it.
type Source interface {
	Resolve(name, channel string) (measure.Result, bool, error)
	Measurements(name string) (map[string]measure.Result, bool)
	ParametersOf(name string) (map[string]any, error)
	CheckChannel(channel string) error
	SampleRate() int
	Source() string
}

// tracer accumulates provenance while a builder consults measurements.
type tracer struct {
	methods []string
	params  map[string]map[string]any
}

// consult records that name was used and copies its declared parameters.
func (t *tracer) consult(src Source, name string) {
	for _, m := range t.methods {
		if m == name {
			return
		}
	}
	t.methods = append(t.methods, name)
	p, err := src.ParametersOf(name)
	if err != nil || len(p) == 0 {
		return
	}
	cp := make(map[string]any, len(p))
	for k, v := range p {
		cp[k] = v
	}
	t.record(name, cp)
}

// record stores builder-side parameters such as a discretization rule.
func (t *tracer) record(key string, params map[string]any) {
	if t.params == nil {
		t.params = make(map[string]map[string]any)
	}
	t.params[key] = params
}

func (t *tracer) provenance(at time.Time) types.Provenance {
	methods := t.methods
	if methods == nil {
		methods = []string{}
	}
	params := t.params
	if params == nil {
		params = map[string]map[string]any{}
	}
	return types.Provenance{
		Methods:        methods,
		Params:         params,
		BuilderVersion: BuilderVersion,
		CreatedAt:      at,
	}
}

// unavailable builds an Input marked unavailable. metrics may be nil.
func unavailable(f types.Family, prov types.Provenance, metrics map[string]float64, notes ...string) types.Input {
	if metrics == nil {
		metrics = map[string]float64{}
	}
	return types.Input{
		Family:     f,
		Available:  false,
		Metrics:    metrics,
		Notes:      notes,
		Provenance: prov,
	}
}

func notInResults(name string) string {
	return name + " not in measurement results"
}
