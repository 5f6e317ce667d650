// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package grammar

import (
	"fmt"
	"time"

	"github.com/pdiddy/applicability-engine/internal/measure"
	"github.com/pdiddy/applicability-engine/pkg/types"
)

// Proxy summarizes a time-series stand-in for a time-frequency matrix.
type Proxy struct {
	Type          string `json:"type" yaml:"type"`
	NumWindows    int    `json:"num_windows,omitempty" yaml:"num_windows,omitempty"`
	NumBands      int    `json:"num_bands,omitempty" yaml:"num_bands,omitempty"`
	NumTimeFrames int    `json:"num_time_frames,omitempty" yaml:"num_time_frames,omitempty"`
	NumFreqBins   int    `json:"num_freq_bins,omitempty" yaml:"num_freq_bins,omitempty"`
}

// FullMatrix is a complete time-frequency map.
type FullMatrix struct {
	Frames        int         `json:"frames" yaml:"frames"`
	Bins          int         `json:"bins" yaml:"bins"`
	HopLength     int         `json:"hop_length,omitempty" yaml:"hop_length,omitempty"`
	Normalization string      `json:"normalization,omitempty" yaml:"normalization,omitempty"`
	Values        [][]float64 `json:"values" yaml:"values"`
}

// MatrixData is the payload of a Matrix input. Exactly one of Full and
// Proxies is populated.
type MatrixData struct {
	Full    *FullMatrix      `json:"full,omitempty" yaml:"full,omitempty"`
	Proxies map[string]Proxy `json:"proxies,omitempty" yaml:"proxies,omitempty"`
}

const proxyLimitation = "LIMITATION: proxies only, not full time-frequency matrices"

// BuildMatrices builds the M family. A spectrogram measurement yields a full
// matrix; otherwise local_entropy, band_stability and stft summaries are
// collected as proxies and the limitation is recorded.
func BuildMatrices(src Source, channel string, at time.Time) (types.Input, error) {
	var tr tracer

	sg, ok, err := src.Resolve(methodSpectrogram, channel)
	if err != nil {
		return types.Input{}, err
	}
	if ok {
		if values, isMatrix := sg.Matrix("values"); isMatrix && len(values) > 0 && len(values[0]) > 0 {
			tr.consult(src, methodSpectrogram)
			return fullMatrix(sg, values, tr.provenance(at)), nil
		}
	}

	proxies := make(map[string]Proxy)
	var windows, bins int

	if r, ok, err := src.Resolve(methodLocalEnt, channel); err != nil {
		return types.Input{}, err
	} else if ok {
		tr.consult(src, methodLocalEnt)
		n, _ := r.Int("num_windows")
		proxies[methodLocalEnt] = Proxy{Type: "time_series", NumWindows: n}
		windows = max(windows, n)
	}
	if r, ok, err := src.Resolve(methodBandStab, channel); err != nil {
		return types.Input{}, err
	} else if ok {
		tr.consult(src, methodBandStab)
		proxies[methodBandStab] = Proxy{Type: "band_summary", NumBands: r.Len()}
	}
	if r, ok, err := src.Resolve(methodSTFT, channel); err != nil {
		return types.Input{}, err
	} else if ok {
		tr.consult(src, methodSTFT)
		frames, _ := r.Int("num_time_frames")
		nb, _ := r.Int("num_freq_bins")
		proxies["stft_stats"] = Proxy{Type: "matrix_statistics", NumTimeFrames: frames, NumFreqBins: nb}
		windows = max(windows, frames)
		bins = nb
	}

	tr.record("LIMITATION", map[string]any{
		"type":     "no_full_matrices",
		"reason":   "measurement results carry no spectrogram values",
		"strategy": "using time-series proxies",
	})
	prov := tr.provenance(at)

	if len(proxies) == 0 {
		return unavailable(types.FamilyMatrix, prov, nil,
			"no time-frequency data",
			"LIMITATION: full matrices not in measurement results"), nil
	}

	metrics := map[string]float64{
		"num_proxies":   float64(len(proxies)),
		"is_proxy_only": 1,
	}
	if windows > 0 {
		metrics["num_windows"] = float64(windows)
	}
	if bins > 0 {
		metrics["num_freq_bins"] = float64(bins)
	}

	return types.Input{
		Family:    types.FamilyMatrix,
		Available: true,
		Data:      MatrixData{Proxies: proxies},
		Metrics:   metrics,
		Notes: []string{
			fmt.Sprintf("%d time-series proxy/proxies", len(proxies)),
			proxyLimitation,
		},
		Provenance: prov,
	}, nil
}

func fullMatrix(sg measure.Result, values [][]float64, prov types.Provenance) types.Input {
	m := &FullMatrix{
		Frames: len(values),
		Bins:   len(values[0]),
		Values: values,
	}
	m.HopLength, _ = sg.Int("hop_length")
	m.Normalization, _ = sg.String("normalization")

	return types.Input{
		Family:    types.FamilyMatrix,
		Available: true,
		Data:      MatrixData{Full: m},
		Metrics: map[string]float64{
			"num_proxies":   0,
			"num_windows":   float64(m.Frames),
			"num_freq_bins": float64(m.Bins),
			"is_proxy_only": 0,
		},
		Notes:      []string{fmt.Sprintf("full time-frequency matrix %dx%d", m.Frames, m.Bins)},
		Provenance: prov,
	}
}
