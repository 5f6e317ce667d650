// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/applicability-engine/pkg/types"
)

const twoDocIndex = `schema_version: "1.0"
input_families: [E, Δ, S, V, M, R]
matrices:
  - file: a.yaml
    family: time_domain
  - file: b.yaml
    family: modulation
`

func methodYAML(id, label string, levels map[string]string) string {
	s := "  " + id + ":\n    label: " + label + "\n    requires:\n"
	for _, f := range []string{"E", "Δ", "S", "V", "M", "R"} {
		if l, ok := levels[f]; ok {
			s += "      " + f + ": " + l + "\n"
		}
	}
	return s
}

func allLevels(level string) map[string]string {
	return map[string]string{"E": level, "Δ": level, "S": level, "V": level, "M": level, "R": level}
}

func memberYAML(version, family string, methods ...string) string {
	s := "schema_version: " + version + "\nfamily: " + family + "\nmethods:\n"
	for _, m := range methods {
		s += m
	}
	return s
}

// writeCatalog lays out files in a temp directory and returns its path.
func writeCatalog(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func validFiles() map[string]string {
	return map[string]string{
		indexFile: twoDocIndex,
		"a.yaml":  memberYAML(`"1.0"`, "time_domain", methodYAML("morse", "Morse", map[string]string{"E": "required", "Δ": "required", "S": "optional", "V": "not_applicable", "M": "not_applicable", "R": "not_applicable"})),
		"b.yaml":  memberYAML("1.2", "modulation", methodYAML("am", "AM", allLevels("optional"))),
	}
}

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "1.0", c.SchemaVersion)
	assert.Equal(t, 12, c.Len())

	m, err := c.Method("duration_based_morse_like")
	require.NoError(t, err)
	assert.Equal(t, "time_domain", m.Category)
	assert.Equal(t, "time_domain.yaml", m.Source)
	assert.Equal(t, []types.Family{types.FamilyEvent, types.FamilyInterval, types.FamilySymbol}, m.Required())

	am, err := c.Method("amplitude_modulation_am")
	require.NoError(t, err)
	assert.Equal(t, []types.Family{types.FamilyVector}, am.Required())
	assert.Equal(t, []types.Family{types.FamilyMatrix}, am.Optional())

	for _, id := range c.IDs() {
		assert.Len(t, c.Methods[id].Requires, 6, id)
	}
	assert.Equal(t, []string{"frequency_domain", "inter_channel", "modulation", "time_domain", "time_frequency"}, c.Categories())
}

func TestDefaultIsIdempotent(t *testing.T) {
	a, err := Default()
	require.NoError(t, err)
	b, err := Default()
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestLoadDirectoryFallsBackToEmbeddedSchema(t *testing.T) {
	c, err := Load(writeCatalog(t, validFiles()))
	require.NoError(t, err)
	assert.Equal(t, []string{"am", "morse"}, c.IDs())
	assert.Equal(t, "b.yaml", c.Methods["am"].Source)
}

func TestLoadMissingDirectory(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestLoadFiveFamiliesIsValidationError(t *testing.T) {
	files := validFiles()
	files["a.yaml"] = memberYAML(`"1.0"`, "time_domain",
		methodYAML("five", "Five", map[string]string{"E": "required", "Δ": "required", "S": "optional", "V": "optional", "M": "optional"}))

	c, err := Load(writeCatalog(t, files))
	assert.Nil(t, c)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "want *ValidationError, got %v", err)
	assert.Equal(t, "a.yaml", ve.File)
}

func TestLoadDuplicateMethod(t *testing.T) {
	files := validFiles()
	files["b.yaml"] = memberYAML("1", "modulation",
		methodYAML("am", "AM", allLevels("optional")),
		methodYAML("morse", "Morse again", allLevels("optional")))

	c, err := Load(writeCatalog(t, files))
	assert.Nil(t, c, "no partial catalog on duplicate")
	var de *DuplicateMethodError
	require.True(t, errors.As(err, &de), "want *DuplicateMethodError, got %v", err)
	assert.Equal(t, "morse", de.ID)
	assert.Equal(t, "b.yaml", de.File)
	assert.Equal(t, "a.yaml", de.Previous)
}

func TestLoadVersionErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"member major 2", "b.yaml", memberYAML(`"2.0"`, "modulation", methodYAML("am", "AM", allLevels("optional")))},
		{"member garbage", "b.yaml", memberYAML(`"one"`, "modulation", methodYAML("am", "AM", allLevels("optional")))},
		{"index major 0", indexFile, `schema_version: "0.9"
matrices:
  - file: a.yaml
    family: time_domain
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := validFiles()
			files[tt.file] = tt.content
			_, err := Load(writeCatalog(t, files))
			var ve *VersionError
			require.True(t, errors.As(err, &ve), "want *VersionError, got %v", err)
			assert.Equal(t, tt.file, ve.File)
		})
	}
}

func TestLoadValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unknown level", "b.yaml", memberYAML("1", "modulation", methodYAML("am", "AM", allLevels("mandatory")))},
		{"family mismatch", "b.yaml", memberYAML("1", "frequency_domain", methodYAML("am", "AM", allLevels("optional")))},
		{"no methods", "b.yaml", "schema_version: 1\nfamily: modulation\nmethods: {}\n"},
		{"missing schema_version", "b.yaml", "family: modulation\nmethods:\n" + methodYAML("am", "AM", allLevels("optional"))},
		{"root not mapping", "b.yaml", "- just\n- a list\n"},
		{"empty matrices", indexFile, "schema_version: \"1.0\"\nmatrices: []\n"},
		{"bad family list", indexFile, "schema_version: \"1.0\"\ninput_families: [E, S]\nmatrices:\n  - file: a.yaml\n    family: time_domain\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := validFiles()
			files[tt.file] = tt.content
			c, err := Load(writeCatalog(t, files))
			assert.Nil(t, c)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "want *ValidationError, got %v", err)
		})
	}
}

func TestLoadMissingMemberFile(t *testing.T) {
	files := validFiles()
	delete(files, "b.yaml")
	_, err := Load(writeCatalog(t, files))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b.yaml")
}

func TestLoadFSUsesProvidedSchema(t *testing.T) {
	// A stricter schema that requires a description on every document.
	strict := `{"type": "object", "required": ["schema_version", "family", "methods", "description"]}`
	fsys := fstest.MapFS{}
	for name, content := range validFiles() {
		fsys[name] = &fstest.MapFile{Data: []byte(content)}
	}
	fsys[schemaFile] = &fstest.MapFile{Data: []byte(strict)}

	_, err := LoadFS(fsys)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "want *ValidationError, got %v", err)
	assert.Contains(t, ve.Reason, "schema validation failed")
}

func TestLoadFSBadSchema(t *testing.T) {
	fsys := fstest.MapFS{}
	for name, content := range validFiles() {
		fsys[name] = &fstest.MapFile{Data: []byte(content)}
	}
	fsys[schemaFile] = &fstest.MapFile{Data: []byte(`{not json`)}
	_, err := LoadFS(fsys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), schemaFile)
}

func TestEmbeddedFSHasIndex(t *testing.T) {
	_, err := EmbeddedFS().Open(indexFile)
	assert.NoError(t, err)
}

func TestCheckVersion(t *testing.T) {
	for _, v := range []string{"1", "1.0", "1.3", "1.0.2"} {
		assert.NoError(t, checkVersion("x", v), v)
	}
	for _, v := range []string{"", "2", "0.9", "v1", "one"} {
		assert.Error(t, checkVersion("x", v), v)
	}
}

func TestToJSONValue(t *testing.T) {
	in := map[string]any{
		"n":    1,
		"list": []any{2, "x"},
		"m":    map[any]any{3: true},
	}
	want := map[string]any{
		"n":    1.0,
		"list": []any{2.0, "x"},
		"m":    map[string]any{"3": true},
	}
	assert.Equal(t, want, toJSONValue(in))
}
