// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdiddy/applicability-engine/pkg/types"
)

// Export file names.
const (
	RunFile    = "run.json"
	ReportFile = "report.md"
)

// Exported lists the files written by Export.
type Exported struct {
	Run    string `json:"run"`
	Report string `json:"report"`
}

// Export writes run as run.json and its Markdown report as report.md into
// dir, creating it if needed.
func Export(dir string, run *types.RunResult, title string) (Exported, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Exported{}, fmt.Errorf("creating export dir: %w", err)
	}

	var buf bytes.Buffer
	if err := JSON(&buf, run); err != nil {
		return Exported{}, err
	}
	out := Exported{
		Run:    filepath.Join(dir, RunFile),
		Report: filepath.Join(dir, ReportFile),
	}
	if err := os.WriteFile(out.Run, buf.Bytes(), 0o644); err != nil {
		return Exported{}, fmt.Errorf("writing %s: %w", out.Run, err)
	}
	if err := WriteMarkdown(out.Report, Markdown(run, title)); err != nil {
		return Exported{}, err
	}
	return out, nil
}
