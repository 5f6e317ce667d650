// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/applicability-engine/internal/measure"
	"github.com/pdiddy/applicability-engine/internal/render"
)

var inputsCmd = &cobra.Command{
	Use:   "inputs <results.json | dir>",
	Short: "Show the input families built for each channel",
	Long: `Inputs assembles the six input families (E, Δ, S, V, M, R) for each
channel without evaluating any method. Use it to see which families are
available, which metrics they report, and why unavailable ones are missing.`,
	Args: cobra.ExactArgs(1),
	RunE: runInputs,
}

func init() {
	inputsCmd.Flags().StringP("format", "f", string(render.FormatTable), "output format: table, json, or yaml")
	inputsCmd.Flags().Bool("summary", false, "print the measurement document summary first")

	rootCmd.AddCommand(inputsCmd)
}

func runInputs(cmd *cobra.Command, args []string) error {
	format, err := formatFlag(cmd)
	if err != nil {
		return err
	}
	e, err := newEngine()
	if err != nil {
		return err
	}
	bundles, err := e.Bundles(args[0])
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()

	if summary, _ := cmd.Flags().GetBool("summary"); summary {
		acc, err := measure.Open(args[0])
		if err != nil {
			return err
		}
		s := acc.Summary()
		fmt.Fprintf(w, "source:      %s\n", s.Source)
		fmt.Fprintf(w, "timestamp:   %s\n", s.Timestamp)
		fmt.Fprintf(w, "sample rate: %d Hz, duration %.3fs\n", s.SampleRate, s.Duration)
		fmt.Fprintf(w, "channels:    %s\n", strings.Join(s.Channels, ", "))
		fmt.Fprintf(w, "methods:     %d\n\n", len(s.Methods))
	}

	switch format {
	case render.FormatJSON:
		return render.JSON(w, bundles)
	case render.FormatYAML:
		return render.YAML(w, bundles)
	case render.FormatTable:
		for i, b := range bundles {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "channel %s: available %s\n", b.Channel, familiesLabel(b.AvailableFamilies()))
			fmt.Fprintln(w, render.InputsTable(b))
		}
		return nil
	}
	return fmt.Errorf("format %s is not supported for inputs", format)
}
