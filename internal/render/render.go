// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render turns run results into presentation formats: JSON and
// YAML documents, a Markdown report, and terminal tables. It only reads the
// results; nothing here judges applicability.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/applicability-engine/pkg/types"
)

// Format names an output format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "md"
	FormatTable    Format = "table"
)

// Formats lists the supported formats.
var Formats = []Format{FormatJSON, FormatYAML, FormatMarkdown, FormatTable}

// ParseFormat accepts a format name; "markdown" is an alias for "md".
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatYAML, FormatMarkdown, FormatTable:
		return f, nil
	case "markdown":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown format %q (want json, yaml, md, or table)", s)
}

// JSON writes v as indented JSON followed by a newline.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// YAML writes v as a YAML document.
func YAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding YAML: %w", err)
	}
	return nil
}

// Run writes run to w in format f. Markdown is written raw; use Terminal to
// style it for a console.
func Run(w io.Writer, f Format, run *types.RunResult, title string) error {
	switch f {
	case FormatJSON:
		return JSON(w, run)
	case FormatYAML:
		return YAML(w, run)
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(run, title))
		return err
	case FormatTable:
		_, err := io.WriteString(w, RunTable(run))
		return err
	}
	return fmt.Errorf("unknown format %q", f)
}
