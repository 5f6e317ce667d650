// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog loads the declarative requirement catalog: an index
// document listing member documents, each declaring, per decoding method,
// the requirement level of every input family.
//
// Adding or changing a method means editing a YAML document; no evaluator
// code changes. Loading is idempotent and returns either a complete catalog
// or an error, never a partial catalog.
package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/applicability-engine/pkg/types"
)

const (
	indexFile  = "_index.yaml"
	schemaFile = "matrix.schema.json"

	// SupportedMajorVersion is the only schema_version major accepted.
	SupportedMajorVersion = 1
)

//go:embed all:matrices
var embedded embed.FS

// indexDoc mirrors _index.yaml.
type indexDoc struct {
	SchemaVersion any          `yaml:"schema_version"`
	InputFamilies []string     `yaml:"input_families"`
	Matrices      []indexEntry `yaml:"matrices"`
}

type indexEntry struct {
	File   string `yaml:"file"`
	Family string `yaml:"family"`
}

// memberDoc mirrors one member requirement document.
type memberDoc struct {
	SchemaVersion any                  `yaml:"schema_version"`
	Family        string               `yaml:"family"`
	Description   string               `yaml:"description"`
	Methods       map[string]methodDoc `yaml:"methods"`
}

type methodDoc struct {
	Label    string            `yaml:"label"`
	Requires map[string]string `yaml:"requires"`
}

// Load reads the catalog rooted at dir. When dir has no matrix.schema.json
// the embedded schema is used.
func Load(dir string) (*types.Catalog, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("opening catalog directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("catalog path %s is not a directory", dir)
	}
	return LoadFS(os.DirFS(dir))
}

// Default loads the catalog embedded in the binary.
func Default() (*types.Catalog, error) {
	sub, err := fs.Sub(embedded, "matrices")
	if err != nil {
		return nil, fmt.Errorf("opening embedded catalog: %w", err)
	}
	return LoadFS(sub)
}

// EmbeddedFS returns the embedded catalog documents, rooted at the index.
func EmbeddedFS() fs.FS {
	sub, _ := fs.Sub(embedded, "matrices")
	return sub
}

// LoadFS reads the catalog from fsys, whose root holds _index.yaml.
func LoadFS(fsys fs.FS) (*types.Catalog, error) {
	idx, version, err := readIndex(fsys)
	if err != nil {
		return nil, err
	}

	schema, err := loadSchema(fsys)
	if err != nil {
		return nil, err
	}

	methods := make(map[string]types.MethodRequirements)
	for _, entry := range idx.Matrices {
		if err := loadMember(fsys, entry, schema, methods); err != nil {
			return nil, err
		}
	}

	return &types.Catalog{SchemaVersion: version, Methods: methods}, nil
}

func readIndex(fsys fs.FS) (indexDoc, string, error) {
	var idx indexDoc
	data, err := fs.ReadFile(fsys, indexFile)
	if err != nil {
		return idx, "", fmt.Errorf("reading %s: %w", indexFile, err)
	}
	if err := yaml.Unmarshal(data, &idx); err != nil {
		return idx, "", &ValidationError{File: indexFile, Reason: fmt.Sprintf("invalid YAML: %v", err)}
	}

	version := versionString(idx.SchemaVersion)
	if version == "" {
		version = "1.0"
	}
	if err := checkVersion(indexFile, version); err != nil {
		return idx, "", err
	}

	if len(idx.InputFamilies) > 0 {
		if err := checkFamilyList(idx.InputFamilies); err != nil {
			return idx, "", err
		}
	}

	if len(idx.Matrices) == 0 {
		return idx, "", &ValidationError{File: indexFile, Reason: "'matrices' must be a non-empty list"}
	}
	for i, e := range idx.Matrices {
		if strings.TrimSpace(e.File) == "" {
			return idx, "", &ValidationError{File: indexFile, Reason: fmt.Sprintf("matrices[%d]: 'file' must be a non-empty string", i)}
		}
		if strings.TrimSpace(e.Family) == "" {
			return idx, "", &ValidationError{File: indexFile, Reason: fmt.Sprintf("matrices[%d]: 'family' must be a non-empty string", i)}
		}
	}
	return idx, version, nil
}

// checkFamilyList requires the index to declare exactly the canonical six
// families in canonical order.
func checkFamilyList(list []string) error {
	canonical := types.AllFamilies()
	if len(list) != len(canonical) {
		return &ValidationError{File: indexFile, Reason: fmt.Sprintf("input_families must list the six families E, Δ, S, V, M, R; got %v", list)}
	}
	for i, s := range list {
		f, err := types.ParseFamily(s)
		if err != nil || f != canonical[i] {
			return &ValidationError{File: indexFile, Reason: fmt.Sprintf("input_families[%d] is %q, want %q", i, s, canonical[i])}
		}
	}
	return nil
}

func loadSchema(fsys fs.FS) (*jsonschema.Resolved, error) {
	data, err := fs.ReadFile(fsys, schemaFile)
	if errors.Is(err, fs.ErrNotExist) {
		data, err = embedded.ReadFile("matrices/" + schemaFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", schemaFile, err)
	}
	return compileSchema(data)
}

// loadMember validates one member document and merges its methods into
// methods. Nothing is merged when the document has any error.
func loadMember(fsys fs.FS, entry indexEntry, schema *jsonschema.Resolved, methods map[string]types.MethodRequirements) error {
	data, err := fs.ReadFile(fsys, entry.File)
	if err != nil {
		return fmt.Errorf("reading matrix document referenced in %s: %w", indexFile, err)
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return &ValidationError{File: entry.File, Reason: fmt.Sprintf("invalid YAML: %v", err)}
	}
	if _, ok := raw.(map[string]any); !ok {
		return &ValidationError{File: entry.File, Reason: "YAML root must be a mapping"}
	}

	// Version first: a future-major document may legitimately fail today's schema.
	var doc memberDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return &ValidationError{File: entry.File, Reason: fmt.Sprintf("decoding document: %v", err)}
	}
	if doc.SchemaVersion == nil {
		return &ValidationError{File: entry.File, Reason: "missing schema_version"}
	}
	if err := checkVersion(entry.File, versionString(doc.SchemaVersion)); err != nil {
		return err
	}

	if err := schema.Validate(toJSONValue(raw)); err != nil {
		return &ValidationError{File: entry.File, Reason: fmt.Sprintf("schema validation failed: %v", err)}
	}

	if doc.Family != entry.Family {
		return &ValidationError{File: entry.File, Reason: fmt.Sprintf("family mismatch: index says %q but document says %q", entry.Family, doc.Family)}
	}
	if len(doc.Methods) == 0 {
		return &ValidationError{File: entry.File, Reason: "'methods' must be a non-empty mapping"}
	}

	ids := make([]string, 0, len(doc.Methods))
	for id := range doc.Methods {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	parsed := make([]types.MethodRequirements, 0, len(ids))
	for _, id := range ids {
		if prev, ok := methods[id]; ok {
			return &DuplicateMethodError{ID: id, File: entry.File, Previous: prev.Source}
		}
		m, err := parseMethod(entry, id, doc.Methods[id])
		if err != nil {
			return err
		}
		parsed = append(parsed, m)
	}
	for _, m := range parsed {
		methods[m.ID] = m
	}
	return nil
}

func parseMethod(entry indexEntry, id string, md methodDoc) (types.MethodRequirements, error) {
	if strings.TrimSpace(md.Label) == "" {
		return types.MethodRequirements{}, &ValidationError{File: entry.File, Method: id, Reason: "missing label"}
	}
	requires := make(map[types.Family]types.RequirementLevel, 6)
	for key, level := range md.Requires {
		f, err := types.ParseFamily(key)
		if err != nil {
			return types.MethodRequirements{}, &ValidationError{File: entry.File, Method: id, Reason: err.Error()}
		}
		if _, dup := requires[f]; dup {
			return types.MethodRequirements{}, &ValidationError{File: entry.File, Method: id, Reason: fmt.Sprintf("family %s declared twice", f)}
		}
		l := types.RequirementLevel(level)
		if !l.Valid() {
			return types.MethodRequirements{}, &ValidationError{File: entry.File, Method: id, Reason: fmt.Sprintf("family %s: unknown requirement level %q", f, level)}
		}
		requires[f] = l
	}
	var missing []string
	for _, f := range types.AllFamilies() {
		if _, ok := requires[f]; !ok {
			missing = append(missing, string(f))
		}
	}
	if len(missing) > 0 {
		return types.MethodRequirements{}, &ValidationError{File: entry.File, Method: id, Reason: "missing requirement for families " + strings.Join(missing, ", ")}
	}

	return types.MethodRequirements{
		ID:       id,
		Category: entry.Family,
		Label:    md.Label,
		Requires: requires,
		Source:   entry.File,
	}, nil
}

// versionString renders a YAML scalar (string or number) as a version.
func versionString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// checkVersion accepts any version whose major component is
// SupportedMajorVersion.
func checkVersion(file, version string) error {
	major, _, _ := strings.Cut(version, ".")
	n, err := strconv.Atoi(major)
	if err != nil || n != SupportedMajorVersion {
		return &VersionError{File: file, Version: version}
	}
	return nil
}
