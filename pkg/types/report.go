// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// EvaluatorVersion tags the evaluation logic recorded in report provenance.
const EvaluatorVersion = "1.0.0"

// EvaluationProvenance records everything needed to reproduce a Report from
// the same measurement document and parameters.
type EvaluationProvenance struct {
	EvaluatorVersion string              `json:"evaluator_version" yaml:"evaluator_version"`
	ParamsVersion    string              `json:"params_version" yaml:"params_version"`
	Params           ApplicabilityParams `json:"params" yaml:"params"`

	// MethodSource names the requirement document that declared the method.
	MethodSource string `json:"method_source" yaml:"method_source"`

	// Channel and BundleSource identify the evaluated bundle.
	Channel      string `json:"channel" yaml:"channel"`
	BundleSource string `json:"bundle_source" yaml:"bundle_source"`

	// Timestamp is the bundle's assembly timestamp. The evaluator never reads
	// the wall clock.
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Report is the evaluator's judgment for one (method, bundle, params) triple.
// Reports are never merged, re-scored, or modified after creation.
type Report struct {
	MethodID string `json:"method_id" yaml:"method_id"`
	Category string `json:"family" yaml:"family"`
	Label    string `json:"label" yaml:"label"`
	Status   Status `json:"status" yaml:"status"`

	// RequiredInputs lists the required families in canonical order.
	RequiredInputs []Family `json:"required_inputs" yaml:"required_inputs"`

	// MissingInputs maps each unavailable required family to its reason.
	MissingInputs map[Family]string `json:"missing_inputs" yaml:"missing_inputs"`

	// UnstableInputs maps each required family that failed a threshold to
	// a diagnostic reason.
	UnstableInputs map[Family]string `json:"unstable_inputs" yaml:"unstable_inputs"`

	// Diagnostics are factual notes in evaluation order.
	Diagnostics []string `json:"diagnostics" yaml:"diagnostics"`

	Provenance EvaluationProvenance `json:"provenance" yaml:"provenance"`
}

// IsApplicable reports whether the method can be attempted.
func (r Report) IsApplicable() bool {
	return r.Status == StatusApplicable
}

// Summary returns a one-line "method: status" summary.
func (r Report) Summary() string {
	return fmt.Sprintf("%s: %s", r.MethodID, r.Status)
}

// ChannelResult holds one channel's bundle and its reports sorted by method ID.
type ChannelResult struct {
	Channel string   `json:"channel" yaml:"channel"`
	Bundle  Bundle   `json:"bundle" yaml:"bundle"`
	Reports []Report `json:"reports" yaml:"reports"`
}

// RunResult is the output of one pipeline run over a measurement document.
type RunResult struct {
	// RunID uniquely identifies the run in the run store.
	RunID string `json:"run_id" yaml:"run_id"`

	// Source is the measurement document path.
	Source string `json:"source" yaml:"source"`

	// CatalogVersion is the requirement catalog's schema version.
	CatalogVersion string `json:"catalog_version" yaml:"catalog_version"`

	Params ApplicabilityParams `json:"params" yaml:"params"`

	// CreatedAt is the wall-clock time the run finished.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// Channels lists per-channel results in channel order of the document.
	Channels []ChannelResult `json:"channels" yaml:"channels"`
}

// Channel returns the result for name.
func (r *RunResult) Channel(name string) (ChannelResult, bool) {
	for _, c := range r.Channels {
		if c.Channel == name {
			return c, true
		}
	}
	return ChannelResult{}, false
}

// StatusCounts tallies reports by status across all channels.
func (r *RunResult) StatusCounts() map[Status]int {
	counts := make(map[Status]int)
	for _, c := range r.Channels {
		for _, rep := range c.Reports {
			counts[rep.Status]++
		}
	}
	return counts
}
