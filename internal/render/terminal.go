// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/pdiddy/applicability-engine/pkg/types"
)

// Glamour style names accepted by Terminal.
const (
	StyleAuto  = "auto"
	StyleNoTTY = "notty"
)

// DefaultWrap is the terminal word-wrap width.
const DefaultWrap = 100

// Terminal styles Markdown for a console. style is a glamour standard style
// ("dark", "light", "notty", ...) or "auto" to follow the terminal.
func Terminal(md, style string, wrap int) (string, error) {
	if wrap <= 0 {
		wrap = DefaultWrap
	}
	opt := glamour.WithStandardStyle(style)
	if style == "" || style == StyleAuto {
		opt = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(opt, glamour.WithWordWrap(wrap))
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	statusColors = map[types.Status]lipgloss.Color{
		types.StatusApplicable:       lipgloss.Color("42"),
		types.StatusMissingInputs:    lipgloss.Color("203"),
		types.StatusUnderconstrained: lipgloss.Color("214"),
	}
)

// newTable returns a bordered table; statusCol, when >= 0, is colored by status.
func newTable(headers []string, rows [][]string, statusCol int) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == statusCol && row >= 0 && row < len(rows) {
				if c, ok := statusColors[types.Status(rows[row][col])]; ok {
					return cellStyle.Foreground(c)
				}
			}
			return cellStyle
		})
	return t.String()
}

// ReportTable renders one channel's reports as a terminal table.
func ReportTable(reports []types.Report) string {
	rows := make([][]string, 0, len(reports))
	for _, r := range sortedReports(reports) {
		rows = append(rows, []string{
			r.MethodID,
			r.Category,
			string(r.Status),
			familyList(r.MissingInputs),
			familyList(r.UnstableInputs),
		})
	}
	return newTable([]string{"METHOD", "FAMILY", "STATUS", "MISSING", "UNSTABLE"}, rows, 2)
}

// RunTable renders every channel of run, each under a heading line.
func RunTable(run *types.RunResult) string {
	if len(run.Channels) == 0 {
		return "no channels\n"
	}
	var b strings.Builder
	for i, ch := range run.Channels {
		if i > 0 {
			b.WriteString("\n")
		}
		counts := make(map[types.Status]int)
		for _, r := range ch.Reports {
			counts[r.Status]++
		}
		fmt.Fprintf(&b, "channel %s: %d applicable, %d missing_inputs, %d underconstrained\n",
			ch.Channel, counts[types.StatusApplicable], counts[types.StatusMissingInputs], counts[types.StatusUnderconstrained])
		b.WriteString(ReportTable(ch.Reports))
		b.WriteString("\n")
	}
	return b.String()
}

// InputsTable renders a bundle's six inputs.
func InputsTable(bundle types.Bundle) string {
	rows := make([][]string, 0, len(bundle.Inputs))
	for _, f := range types.AllFamilies() {
		in, ok := bundle.Input(f)
		if !ok {
			continue
		}
		rows = append(rows, []string{
			fmt.Sprintf("%s %s", f, f.Name()),
			yesNo(in.Available),
			orDash(metricsCell(in)),
			orDash(strings.Join(in.Notes, "; ")),
		})
	}
	return newTable([]string{"FAMILY", "AVAILABLE", "METRICS", "NOTES"}, rows, -1)
}

// CatalogTable renders the methods of c grouped by category.
func CatalogTable(c *types.Catalog) string {
	var rows [][]string
	for _, cat := range c.Categories() {
		for _, m := range c.ByCategory(cat) {
			row := []string{m.ID, m.Category}
			for _, f := range types.AllFamilies() {
				row = append(row, levelMark(m.Level(f)))
			}
			rows = append(rows, row)
		}
	}
	headers := []string{"METHOD", "CATEGORY"}
	for _, f := range types.AllFamilies() {
		headers = append(headers, string(f))
	}
	return newTable(headers, rows, -1)
}

func levelMark(l types.RequirementLevel) string {
	switch l {
	case types.LevelRequired:
		return "req"
	case types.LevelOptional:
		return "opt"
	}
	return "-"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
