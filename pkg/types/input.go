// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Provenance binds a derived artifact to the measurements it was built from.
// Two Inputs with equal provenance were built from the same measurement
// methods with the same declared parameters by the same builder version.
type Provenance struct {
	// Methods lists the measurement-method names consulted, in lookup order.
	Methods []string `json:"methods" yaml:"methods"`

	// Params holds the parameters/metrics pulled from each consulted method,
	// plus builder-side rules (e.g. "discretization") recorded for traceability.
	Params map[string]map[string]any `json:"params" yaml:"params"`

	// BuilderVersion tags the builder implementation that produced the artifact.
	BuilderVersion string `json:"builder_version" yaml:"builder_version"`

	// CreatedAt is the creation timestamp.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Input is one family's built representation for one channel. It carries
// facts only: metrics are observations, never judgments. Inputs are values;
// nothing downstream of a builder modifies them.
type Input struct {
	// Family identifies which of the six families this Input represents.
	Family Family `json:"family" yaml:"family"`

	// Available is the factual presence of usable data.
	Available bool `json:"available" yaml:"available"`

	// Data is the opaque payload (events, intervals, vectors, ...). May be nil.
	Data any `json:"data,omitempty" yaml:"data,omitempty"`

	// Metrics maps metric names to factual numeric values.
	Metrics map[string]float64 `json:"metrics" yaml:"metrics"`

	// Notes are factual observations and limitations. An unavailable Input
	// always has at least one note explaining why.
	Notes []string `json:"notes" yaml:"notes"`

	// Provenance documents where this Input came from.
	Provenance Provenance `json:"provenance" yaml:"provenance"`
}

// Metric returns the named metric and whether it was reported.
func (in Input) Metric(name string) (float64, bool) {
	v, ok := in.Metrics[name]
	return v, ok
}

// Reason summarizes why an Input is unavailable: its notes joined with
// ", ", or "unavailable" when it carries none.
func (in Input) Reason() string {
	if len(in.Notes) == 0 {
		return "unavailable"
	}
	return strings.Join(in.Notes, ", ")
}

// Check verifies the Input invariants: valid family, a note when
// unavailable, and a payload or metrics when available.
func (in Input) Check() error {
	if !in.Family.Valid() {
		return fmt.Errorf("invalid family %q", in.Family)
	}
	if !in.Available && len(in.Notes) == 0 {
		return fmt.Errorf("family %s: unavailable input carries no note", in.Family)
	}
	if in.Available && in.Data == nil && len(in.Metrics) == 0 {
		return fmt.Errorf("family %s: available input carries neither data nor metrics", in.Family)
	}
	return nil
}

// MetricNames returns the metric names in sorted order.
func (in Input) MetricNames() []string {
	names := make([]string, 0, len(in.Metrics))
	for k := range in.Metrics {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Bundle holds the six Inputs built for one channel. All six families are
// always present, available or not.
type Bundle struct {
	// Channel identifies the measured channel ("left", "right", "difference", ...).
	Channel string `json:"channel" yaml:"channel"`

	// Source references the measurement document the bundle was built from.
	Source string `json:"source" yaml:"source"`

	// AssembledAt is the assembly timestamp shared by all six Inputs.
	AssembledAt time.Time `json:"assembled_at" yaml:"assembled_at"`

	// Inputs maps each family to its Input.
	Inputs map[Family]Input `json:"inputs" yaml:"inputs"`
}

// NewBundle checks that inputs holds exactly the six canonical families,
// each keyed under its own family, and returns the Bundle.
func NewBundle(channel, source string, at time.Time, inputs map[Family]Input) (Bundle, error) {
	var missing, extra []string
	for _, f := range families {
		if _, ok := inputs[f]; !ok {
			missing = append(missing, string(f))
		}
	}
	for f, in := range inputs {
		if !f.Valid() {
			extra = append(extra, string(f))
			continue
		}
		if in.Family != f {
			return Bundle{}, fmt.Errorf("bundle %s: input keyed %s reports family %s", channel, f, in.Family)
		}
		if err := in.Check(); err != nil {
			return Bundle{}, fmt.Errorf("bundle %s: %w", channel, err)
		}
	}
	if len(missing) > 0 || len(extra) > 0 {
		sort.Strings(extra)
		var parts []string
		if len(missing) > 0 {
			parts = append(parts, "missing: "+strings.Join(missing, ","))
		}
		if len(extra) > 0 {
			parts = append(parts, "extra: "+strings.Join(extra, ","))
		}
		return Bundle{}, fmt.Errorf("bundle %s must hold exactly E,Δ,S,V,M,R (%s)", channel, strings.Join(parts, "; "))
	}
	return Bundle{
		Channel:     channel,
		Source:      source,
		AssembledAt: at,
		Inputs:      inputs,
	}, nil
}

// Input returns the Input for f and whether the bundle holds it.
func (b Bundle) Input(f Family) (Input, bool) {
	in, ok := b.Inputs[f]
	return in, ok
}

// AvailableFamilies returns the families with available inputs in canonical order.
func (b Bundle) AvailableFamilies() []Family {
	var out []Family
	for _, f := range families {
		if b.Inputs[f].Available {
			out = append(out, f)
		}
	}
	return out
}
