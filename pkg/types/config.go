// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"math"
)

// ParamsVersion tags the threshold semantics of ApplicabilityParams.
const ParamsVersion = "1.0.0"

// ApplicabilityParams holds every threshold the evaluator applies. No
// threshold may live anywhere else: builders report facts and the catalog
// declares needs, only these values decide "good enough".
type ApplicabilityParams struct {
	// MinRegularity is the minimum event regularity_score (0 irregular, 1 regular).
	MinRegularity float64 `json:"min_regularity" yaml:"min_regularity" mapstructure:"min_regularity"`

	// MaxCV is the maximum coefficient of variation (std/mean) of intervals.
	MaxCV float64 `json:"max_cv" yaml:"max_cv" mapstructure:"max_cv"`

	// MinSymbolBalance is the minimum ratio of the minority symbol class.
	MinSymbolBalance float64 `json:"min_symbol_balance" yaml:"min_symbol_balance" mapstructure:"min_symbol_balance"`

	// MinVectorSources is the minimum number of independent vector sources.
	MinVectorSources int `json:"min_vector_sources" yaml:"min_vector_sources" mapstructure:"min_vector_sources"`

	// MinMatrixWindows is the minimum number of time windows of a full matrix.
	MinMatrixWindows int `json:"min_matrix_windows" yaml:"min_matrix_windows" mapstructure:"min_matrix_windows"`

	// AcceptMatrixProxies accepts time-series proxies in place of full
	// time-frequency matrices. Off by default: proxies and full matrices are
	// not equivalent.
	AcceptMatrixProxies bool `json:"accept_matrix_proxies" yaml:"accept_matrix_proxies" mapstructure:"accept_matrix_proxies"`

	// MinRelationTypes is the minimum number of relation types.
	MinRelationTypes int `json:"min_relation_types" yaml:"min_relation_types" mapstructure:"min_relation_types"`
}

// DefaultParams returns the documented defaults.
func DefaultParams() ApplicabilityParams {
	return ApplicabilityParams{
		MinRegularity:       0.1,
		MaxCV:               1.0,
		MinSymbolBalance:    0.2,
		MinVectorSources:    3,
		MinMatrixWindows:    10,
		AcceptMatrixProxies: false,
		MinRelationTypes:    1,
	}
}

// Validate rejects thresholds that cannot be compared meaningfully.
func (p ApplicabilityParams) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"min_regularity", p.MinRegularity},
		{"max_cv", p.MaxCV},
		{"min_symbol_balance", p.MinSymbolBalance},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%s must be a finite number, got %v", f.name, f.v)
		}
		if f.v < 0 {
			return fmt.Errorf("%s must be non-negative, got %v", f.name, f.v)
		}
	}
	if p.MinRegularity > 1 {
		return fmt.Errorf("min_regularity must be at most 1, got %v", p.MinRegularity)
	}
	if p.MinSymbolBalance > 0.5 {
		return fmt.Errorf("min_symbol_balance must be at most 0.5 for a binary alphabet, got %v", p.MinSymbolBalance)
	}
	if p.MinVectorSources < 0 {
		return fmt.Errorf("min_vector_sources must be non-negative, got %d", p.MinVectorSources)
	}
	if p.MinMatrixWindows < 0 {
		return fmt.Errorf("min_matrix_windows must be non-negative, got %d", p.MinMatrixWindows)
	}
	if p.MinRelationTypes < 0 {
		return fmt.Errorf("min_relation_types must be non-negative, got %d", p.MinRelationTypes)
	}
	return nil
}

// EngineConfig holds settings for a full evaluation run.
type EngineConfig struct {
	// CatalogDir is the requirement catalog directory. Empty selects the
	// embedded default catalog.
	CatalogDir string `json:"catalog_dir" yaml:"catalog_dir" mapstructure:"catalog_dir"`

	// Channels is an allow-list of channels to evaluate. Empty evaluates
	// every channel the measurement document declares.
	Channels []string `json:"channels" yaml:"channels" mapstructure:"channels"`

	// Reproducible stamps bundles with the measurement document's own
	// timestamp instead of the wall clock, so repeated runs over the same
	// document produce byte-identical reports (default true).
	Reproducible bool `json:"reproducible" yaml:"reproducible" mapstructure:"reproducible"`

	// Workers bounds concurrent method evaluations per channel (default 4).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// Params are the explicit thresholds.
	Params ApplicabilityParams `json:"params" yaml:"params" mapstructure:"params"`
}

// StoreConfig holds settings for the persisted run store.
type StoreConfig struct {
	// Dir is the directory holding runs.db and exports.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// MaxResults is the default number of runs listed (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}
