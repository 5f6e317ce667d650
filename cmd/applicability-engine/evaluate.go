// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/applicability-engine/internal/applicability"
	"github.com/pdiddy/applicability-engine/internal/render"
	"github.com/pdiddy/applicability-engine/pkg/types"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <results.json | dir>",
	Short: "Evaluate every catalog method against a measurement document",
	Long: `Evaluate builds the six input families for each channel of the
measurement document and checks every method in the catalog against them.

Output formats are table (default), md, json, and yaml. Markdown is styled
when written to a terminal. Use --out to also write run.json and report.md
to a directory, and --save to record the run in the run store.`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().StringP("format", "f", string(render.FormatTable), "output format: table, md, json, or yaml")
	evaluateCmd.Flags().String("title", render.DefaultTitle, "report title for Markdown output")
	evaluateCmd.Flags().String("style", render.StyleAuto, "Markdown terminal style (auto, dark, light, notty)")
	evaluateCmd.Flags().String("out", "", "also export run.json and report.md to this directory")
	evaluateCmd.Flags().Bool("save", false, "record the run in the run store")
	evaluateCmd.Flags().Bool("applicable-only", false, "list only applicable methods")

	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	format, err := formatFlag(cmd)
	if err != nil {
		return err
	}

	e, err := newEngine()
	if err != nil {
		return err
	}
	run, err := e.Run(context.Background(), args[0])
	if err != nil {
		return err
	}

	title, _ := cmd.Flags().GetString("title")
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		exported, err := render.Export(out, run, title)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "exported %s and %s\n", exported.Run, exported.Report)
	}
	if save, _ := cmd.Flags().GetBool("save"); save {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Save(context.Background(), run); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "saved run %s\n", run.RunID)
	}

	if only, _ := cmd.Flags().GetBool("applicable-only"); only {
		run = applicableOnly(run)
	}
	style, _ := cmd.Flags().GetString("style")
	return writeRun(cmd.OutOrStdout(), format, run, title, style)
}

// applicableOnly returns a copy of run listing only applicable reports.
func applicableOnly(run *types.RunResult) *types.RunResult {
	out := *run
	out.Channels = make([]types.ChannelResult, len(run.Channels))
	for i, ch := range run.Channels {
		ch.Reports = applicability.FilterApplicable(ch.Reports)
		out.Channels[i] = ch
	}
	return &out
}

func formatFlag(cmd *cobra.Command) (render.Format, error) {
	s, _ := cmd.Flags().GetString("format")
	return render.ParseFormat(s)
}

// writeRun renders run, styling Markdown when w is a terminal.
func writeRun(w io.Writer, format render.Format, run *types.RunResult, title, style string) error {
	if format != render.FormatMarkdown || !isTerminal(w) {
		return render.Run(w, format, run, title)
	}
	styled, err := render.Terminal(render.Markdown(run, title), style, render.DefaultWrap)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, styled)
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice != 0
}
