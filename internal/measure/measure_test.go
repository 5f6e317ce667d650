// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package measure

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openFixture(t *testing.T) *Accessor {
	t.Helper()
	a, err := Open(filepath.Join("testdata", "results.json"))
	require.NoError(t, err)
	return a
}

func writeDoc(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "results.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// --- Load / Parse ---

func TestLoadFileAndDirectory(t *testing.T) {
	doc, path, err := Load(filepath.Join("testdata", "results.json"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "results.json"), path)
	assert.Equal(t, 44100, doc.Metadata.SampleRate)

	doc2, path2, err := Load("testdata")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", resultsFile), path2)
	assert.Equal(t, doc.Timestamp, doc2.Timestamp)
}

func TestLoadDirectoryWithoutResults(t *testing.T) {
	_, _, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not contain results.json")
}

func TestParseStructuralErrors(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		errMsg string
	}{
		{"not json", `{`, "parsing measurement document"},
		{"missing metadata", `{"results": {}}`, "missing required field: metadata"},
		{"missing results", `{"metadata": {}}`, "missing required field: results"},
		{"group not a list", `{"metadata": {}, "results": {"temporal": {"method": "x"}}}`, "results.temporal must be a list"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestParseToleratesUnknownFields(t *testing.T) {
	doc, err := Parse([]byte(`{
		"schema": "sat/3",
		"metadata": {"channels": ["left"], "future_field": {"a": 1}},
		"results": {"temporal": [{"method": "envelope", "measurements": {"left": {"rms": 0.1}}, "extra": true}]}
	}`))
	require.NoError(t, err)
	a, err := New(doc, "inline")
	require.NoError(t, err)
	r, ok, err := a.Resolve("envelope", "left")
	require.NoError(t, err)
	require.True(t, ok)
	v, _ := r.Float("rms")
	assert.Equal(t, 0.1, v)
}

// --- Resolve ---

func TestResolve(t *testing.T) {
	a := openFixture(t)

	r, ok, err := a.Resolve("pulse_detection", "left")
	require.NoError(t, err)
	require.True(t, ok)
	n, ok := r.Int("num_pulses")
	require.True(t, ok)
	assert.Equal(t, 7, n)

	// Method run, but not for this channel: absence, not an error.
	_, ok, err = a.Resolve("local_entropy", "right")
	require.NoError(t, err)
	assert.False(t, ok)

	// Method never run: absence, not an error.
	_, ok, err = a.Resolve("fm_detection", "left")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolveNotFound(t *testing.T) {
	a := openFixture(t)

	tests := []struct {
		name    string
		method  string
		channel string
		kind    string
	}{
		{"undeclared channel", "pulse_detection", "center", "channel"},
		{"empty channel", "pulse_detection", "", "channel"},
		{"empty measurement name", "", "left", "measurement"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := a.Resolve(tt.method, tt.channel)
			var nf *NotFoundError
			require.True(t, errors.As(err, &nf), "want *NotFoundError, got %v", err)
			assert.Equal(t, tt.kind, nf.Kind)
		})
	}
}

func TestMeasurementsIncludesPairs(t *testing.T) {
	a := openFixture(t)
	m, ok := a.Measurements("cross_correlation")
	require.True(t, ok)
	assert.Contains(t, m, "left_vs_right")

	_, ok = a.Measurements("phase_difference")
	assert.False(t, ok)
}

func TestParametersOf(t *testing.T) {
	a := openFixture(t)

	p, err := a.ParametersOf("pulse_detection")
	require.NoError(t, err)
	assert.Equal(t, 0.6, p["threshold"])

	p, err = a.ParametersOf("compression_ratio")
	require.NoError(t, err)
	assert.Empty(t, p)

	_, err = a.ParametersOf("nope")
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "measurement", nf.Kind)
}

func TestMetadataHelpers(t *testing.T) {
	a := openFixture(t)
	assert.Equal(t, []string{"left", "right", "difference"}, a.Channels())
	assert.Equal(t, 44100, a.SampleRate())
	assert.Equal(t, 12.5, a.Duration())

	ts, ok := a.Timestamp()
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC), ts)

	assert.Contains(t, a.Methods(), "stft")
	assert.Equal(t, []string{"pulse_detection"}, a.MethodsByGroup()["temporal"])

	s := a.Summary()
	assert.Equal(t, a.Source(), s.Source)
	assert.Len(t, s.Methods, len(a.Methods()))
}

func TestDefaultChannels(t *testing.T) {
	path := writeDoc(t, t.TempDir(), `{"metadata": {}, "results": {}}`)
	a, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"left", "right"}, a.Channels())
	_, ok := a.Timestamp()
	assert.False(t, ok)
}

// --- Result getters ---

func TestResultGetters(t *testing.T) {
	r := Result{
		"n":      float64(3),
		"flag":   true,
		"xs":     []any{1.0, 2.0, 3.5},
		"bad":    []any{1.0, "x"},
		"grid":   []any{[]any{1.0, 2.0}, []any{3.0, 4.0}},
		"ragged": []any{[]any{1.0}, []any{3.0, 4.0}},
		"name":   "hann",
		"nested": map[string]any{"a": 1.0},
	}

	n, ok := r.Int("n")
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	f, ok := r.Float("flag")
	assert.True(t, ok)
	assert.Equal(t, 1.0, f)

	xs, ok := r.Floats("xs")
	assert.True(t, ok)
	assert.Equal(t, []float64{1, 2, 3.5}, xs)

	_, ok = r.Floats("bad")
	assert.False(t, ok)

	grid, ok := r.Matrix("grid")
	assert.True(t, ok)
	assert.Equal(t, [][]float64{{1, 2}, {3, 4}}, grid)

	_, ok = r.Matrix("ragged")
	assert.False(t, ok)

	s, ok := r.String("name")
	assert.True(t, ok)
	assert.Equal(t, "hann", s)

	m, ok := r.Map("nested")
	assert.True(t, ok)
	assert.Equal(t, 1.0, m["a"])

	_, ok = r.Float("missing")
	assert.False(t, ok)
	assert.Equal(t, 8, r.Len())
}
