// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package measure reads measurement documents and exposes a read-only,
// typed view over them: resolve a named measurement for a channel, and
// read the parameters a measurement method declared.
package measure

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const resultsFile = "results.json"

// Document mirrors the upstream measurement document. Unrecognized fields
// are ignored so the reader keeps working as the upstream format evolves.
type Document struct {
	// Timestamp is when the measurements were taken (ISO 8601).
	Timestamp string `json:"timestamp"`

	Metadata Metadata `json:"metadata"`

	// Results maps group names ("temporal", "spectral", ...) to entries.
	Results map[string][]Entry `json:"results"`
}

// Metadata describes the measured signal.
type Metadata struct {
	SampleRate    int            `json:"sample_rate"`
	Channels      []string       `json:"channels"`
	AudioInfo     AudioInfo      `json:"audio_info"`
	AudioFile     string         `json:"audio_file"`
	ConfigVersion string         `json:"config_version"`
	Preprocessing map[string]any `json:"preprocessing"`
}

// AudioInfo is the recorded signal format.
type AudioInfo struct {
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	Duration   float64 `json:"duration"`
	Frames     int     `json:"frames"`
	Format     string  `json:"format"`
	Subtype    string  `json:"subtype"`
}

// Entry is one measurement method's output: per-channel results plus the
// parameters/metrics the method declared.
type Entry struct {
	Method       string            `json:"method"`
	Measurements map[string]Result `json:"measurements"`
	Metrics      map[string]any    `json:"metrics"`
}

// Load reads a measurement document from path. A directory is accepted when
// it contains results.json.
func Load(path string) (*Document, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading measurement document: %w", err)
	}
	if info.IsDir() {
		path = filepath.Join(path, resultsFile)
		if _, err := os.Stat(path); err != nil {
			return nil, "", fmt.Errorf("directory does not contain %s: %w", resultsFile, err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading measurement document %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return doc, path, nil
}

// Parse decodes and structurally checks a measurement document.
func Parse(data []byte) (*Document, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing measurement document: %w", err)
	}
	if _, ok := raw["metadata"]; !ok {
		return nil, fmt.Errorf("missing required field: metadata")
	}
	if _, ok := raw["results"]; !ok {
		return nil, fmt.Errorf("missing required field: results")
	}

	var groups map[string]json.RawMessage
	if err := json.Unmarshal(raw["results"], &groups); err != nil {
		return nil, fmt.Errorf("results must be an object: %w", err)
	}
	for name, g := range groups {
		var list []json.RawMessage
		if err := json.Unmarshal(g, &list); err != nil {
			return nil, fmt.Errorf("results.%s must be a list", name)
		}
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing measurement document: %w", err)
	}
	return &doc, nil
}
