// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/applicability-engine/pkg/types"
)

// DefaultTitle heads reports when no title is given.
const DefaultTitle = "Applicability Report"

// Markdown renders run as a human-readable report: run header, then per
// channel the input availability, the applicability table, and diagnostics.
func Markdown(run *types.RunResult, title string) string {
	if title == "" {
		title = DefaultTitle
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)

	if run.Source != "" {
		fmt.Fprintf(&b, "- Source: `%s`\n", run.Source)
	}
	if run.CatalogVersion != "" {
		fmt.Fprintf(&b, "- Catalog schema_version: `%s`\n", run.CatalogVersion)
	}
	if run.RunID != "" {
		fmt.Fprintf(&b, "- Run: `%s`\n", run.RunID)
	}
	if !run.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "- Created: %s\n", run.CreatedAt.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "- Params: %s\n\n", paramsLine(run.Params))

	if len(run.Channels) == 0 {
		b.WriteString("_No channels produced._\n")
		return b.String()
	}

	for _, ch := range run.Channels {
		fmt.Fprintf(&b, "## Channel: %s\n\n", ch.Channel)
		writeInputs(&b, ch.Bundle)
		writeReports(&b, ch.Reports)
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func paramsLine(p types.ApplicabilityParams) string {
	return fmt.Sprintf("min_regularity=%v, max_cv=%v, min_symbol_balance=%v, min_vector_sources=%d, min_matrix_windows=%d, accept_matrix_proxies=%t, min_relation_types=%d",
		p.MinRegularity, p.MaxCV, p.MinSymbolBalance, p.MinVectorSources, p.MinMatrixWindows, p.AcceptMatrixProxies, p.MinRelationTypes)
}

func writeInputs(b *strings.Builder, bundle types.Bundle) {
	b.WriteString("### Inputs\n\n")
	if len(bundle.Inputs) == 0 {
		b.WriteString("_No inputs assembled._\n\n")
		return
	}
	b.WriteString("| family | available | metrics | notes |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, f := range types.AllFamilies() {
		in, ok := bundle.Input(f)
		if !ok {
			continue
		}
		fmt.Fprintf(b, "| %s (%s) | %s | %s | %s |\n",
			f, f.Name(), yesNo(in.Available), cell(metricsCell(in)), cell(strings.Join(in.Notes, "; ")))
	}
	b.WriteString("\n")
}

func metricsCell(in types.Input) string {
	names := in.MetricNames()
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("%s=%s", n, formatMetric(in.Metrics[n]))
	}
	return strings.Join(parts, ", ")
}

func formatMetric(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.4g", v)
}

func writeReports(b *strings.Builder, reports []types.Report) {
	b.WriteString("### Applicability\n\n")
	if len(reports) == 0 {
		b.WriteString("_No applicability reports._\n\n")
		return
	}
	sorted := sortedReports(reports)

	b.WriteString("| method_id | status | missing_required | unstable_required |\n")
	b.WriteString("|---|---:|---:|---:|\n")
	for _, r := range sorted {
		fmt.Fprintf(b, "| `%s` | `%s` | %s | %s |\n",
			r.MethodID, r.Status, familyList(r.MissingInputs), familyList(r.UnstableInputs))
	}
	b.WriteString("\n")

	var diag strings.Builder
	for _, r := range sorted {
		if len(r.Diagnostics) == 0 {
			continue
		}
		fmt.Fprintf(&diag, "- `%s`: %s\n", r.MethodID, strings.Join(r.Diagnostics, "; "))
	}
	if diag.Len() > 0 {
		b.WriteString("### Diagnostics\n\n")
		b.WriteString(diag.String())
		b.WriteString("\n")
	}
}

func sortedReports(reports []types.Report) []types.Report {
	out := make([]types.Report, len(reports))
	copy(out, reports)
	sort.SliceStable(out, func(i, j int) bool { return out[i].MethodID < out[j].MethodID })
	return out
}

// familyList renders the keys of m in canonical order, or "-" when empty.
func familyList(m map[types.Family]string) string {
	keys := sortedFamilies(m)
	if len(keys) == 0 {
		return "-"
	}
	parts := make([]string, len(keys))
	for i, f := range keys {
		parts[i] = string(f)
	}
	return strings.Join(parts, ", ")
}

func sortedFamilies(m map[types.Family]string) []types.Family {
	var out []types.Family
	for _, f := range types.AllFamilies() {
		if _, ok := m[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", `\|`)
}

// WriteMarkdown writes text to path, creating parent directories.
func WriteMarkdown(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
