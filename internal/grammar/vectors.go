// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package grammar

import (
	"fmt"
	"time"

	"github.com/pdiddy/applicability-engine/pkg/types"
)

// vectorSource maps one measurement method to the feature keys it
// contributes to the vector.
type vectorSource struct {
	method   string
	features []string
}

// vectorSources is the fixed feature table. Its order defines the layout of
// VectorData.Values.
var vectorSources = []vectorSource{
	{"shannon_entropy", []string{"shannon_entropy", "normalized_entropy"}},
	{"local_entropy", []string{"mean_entropy", "std_entropy"}},
	{"compression_ratio", []string{"compression_ratio"}},
	{"am_detection", []string{"modulation_depth", "modulation_index"}},
	{"fm_detection", []string{"frequency_deviation"}},
	{"fft_global", []string{"peak_frequency", "spectral_energy"}},
	{"peak_detection", []string{"num_peaks"}},
	{"spectral_centroid", []string{"centroid_mean"}},
	{"spectral_bandwidth", []string{"bandwidth_mean"}},
	{"spectral_flatness", []string{"flatness_mean"}},
	{"band_stability", []string{"stability"}},
	{"harmonic_analysis", []string{"harmonic_ratio"}},
}

// VectorFeatures returns the fixed feature layout as "method.feature".
func VectorFeatures() []string {
	var out []string
	for _, vs := range vectorSources {
		for _, f := range vs.features {
			out = append(out, vs.method+"."+f)
		}
	}
	return out
}

// VectorData is the payload of a Vector input. Values has one slot per
// VectorFeatures entry; Present marks which slots were measured.
type VectorData struct {
	Sources  []string  `json:"sources" yaml:"sources"`
	Features []string  `json:"features" yaml:"features"`
	Values   []float64 `json:"values" yaml:"values"`
	Present  []bool    `json:"present" yaml:"present"`
}

// BuildVectors aggregates every available statistical or spectral summary
// into a fixed-length feature vector.
func BuildVectors(src Source, channel string, at time.Time) (types.Input, error) {
	var tr tracer
	data := VectorData{Sources: []string{}, Features: VectorFeatures()}
	var numFeatures int

	for _, vs := range vectorSources {
		r, ok, err := src.Resolve(vs.method, channel)
		if err != nil {
			return types.Input{}, err
		}
		if ok {
			tr.consult(src, vs.method)
			data.Sources = append(data.Sources, vs.method)
		}
		for _, f := range vs.features {
			var v float64
			var have bool
			if ok {
				v, have = r.Float(f)
			}
			if have {
				numFeatures++
			}
			data.Values = append(data.Values, v)
			data.Present = append(data.Present, have)
		}
	}

	prov := tr.provenance(at)
	if len(data.Sources) == 0 {
		return unavailable(types.FamilyVector, prov, nil, "no vector analyses in measurement results"), nil
	}

	return types.Input{
		Family:    types.FamilyVector,
		Available: true,
		Data:      data,
		Metrics: map[string]float64{
			"num_sources":  float64(len(data.Sources)),
			"num_features": float64(numFeatures),
		},
		Notes:      []string{fmt.Sprintf("%d vector source(s)", len(data.Sources))},
		Provenance: prov,
	}, nil
}
