// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/applicability-engine/internal/render"
	"github.com/pdiddy/applicability-engine/internal/runstore"
	"github.com/pdiddy/applicability-engine/pkg/types"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Query runs recorded with evaluate --save",
	Long: `Runs manages the SQLite run store. Runs are recorded by evaluate --save
and watch --save. Any command taking a run ID also accepts a unique prefix.`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs, newest first",
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a stored run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsReportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Query stored reports by run, channel, method, or status",
	RunE:  runRunsReports,
}

var runsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored reports to YAML or JSON",
	Long: `Export writes the stored reports (or a filtered subset) to export.yaml
or export.json in the store directory. Supports the same filter flags as
reports.`,
	RunE: runRunsExport,
}

var runsDiffCmd = &cobra.Command{
	Use:   "diff <from-run> <to-run>",
	Short: "List methods whose status changed between two runs",
	Args:  cobra.ExactArgs(2),
	RunE:  runRunsDiff,
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a stored run and its reports",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsDelete,
}

func runRunsList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.ListRuns(context.Background(), limit)
	if err != nil {
		return err
	}
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return render.JSON(cmd.OutOrStdout(), runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs stored.")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tCREATED\tCHANNELS\tAPPLICABLE\tMISSING\tUNDERCONSTRAINED\tSOURCE")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Channels,
			r.Applicable, r.MissingInputs, r.Underconstrained, r.Source)
	}
	return tw.Flush()
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	format, err := formatFlag(cmd)
	if err != nil {
		return err
	}
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.Run(context.Background(), args[0])
	if err != nil {
		return err
	}
	title, _ := cmd.Flags().GetString("title")
	style, _ := cmd.Flags().GetString("style")
	return writeRun(cmd.OutOrStdout(), format, run, title, style)
}

func runRunsReports(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	rows, err := store.Reports(context.Background(), reportQueryFromFlags(cmd))
	if err != nil {
		return err
	}
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return render.JSON(cmd.OutOrStdout(), rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No reports found.")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tCHANNEL\tMETHOD\tSTATUS\tMISSING\tUNSTABLE")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(r.RunID), r.Channel, r.MethodID, r.Status,
			familiesLabel(keys(r.MissingInputs)), familiesLabel(keys(r.UnstableInputs)))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d reports\n", len(rows))
	return nil
}

func runRunsExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	opts := reportQueryFromFlags(cmd)
	var path string
	switch format {
	case "yaml", "":
		path, err = store.ExportYAML(context.Background(), opts)
	case "json":
		path, err = store.ExportJSON(context.Background(), opts)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Exported to", path)
	return nil
}

func runRunsDiff(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	changes, err := store.Diff(context.Background(), args[0], args[1])
	if err != nil {
		return err
	}
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return render.JSON(cmd.OutOrStdout(), changes)
	}
	if len(changes) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No status changes.")
		return nil
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CHANNEL\tMETHOD\tFROM\tTO")
	for _, c := range changes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Channel, c.MethodID, orNone(c.From), orNone(c.To))
	}
	return tw.Flush()
}

func runRunsDelete(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Deleted", args[0])
	return nil
}

// --- shared helpers ---

func reportQueryFromFlags(cmd *cobra.Command) runstore.QueryOptions {
	runID, _ := cmd.Flags().GetString("run")
	channel, _ := cmd.Flags().GetString("report-channel")
	method, _ := cmd.Flags().GetString("method")
	category, _ := cmd.Flags().GetString("category")
	status, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")

	return runstore.QueryOptions{
		RunID:      runID,
		Channel:    channel,
		MethodID:   method,
		Category:   category,
		Status:     types.Status(status),
		MaxResults: limit,
	}
}

func keys(m map[types.Family]string) []types.Family {
	var out []types.Family
	for _, f := range types.AllFamilies() {
		if _, ok := m[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func orNone(s types.Status) string {
	if s == "" {
		return "(none)"
	}
	return string(s)
}

func init() {
	runsListCmd.Flags().Int("limit", 0, "maximum runs to list (0 = use default)")
	runsListCmd.Flags().Bool("json", false, "output as JSON")

	runsShowCmd.Flags().StringP("format", "f", string(render.FormatTable), "output format: table, md, json, or yaml")
	runsShowCmd.Flags().String("title", render.DefaultTitle, "report title for Markdown output")
	runsShowCmd.Flags().String("style", render.StyleAuto, "Markdown terminal style")

	for _, c := range []*cobra.Command{runsReportsCmd, runsExportCmd} {
		c.Flags().String("run", "", "filter by run ID or prefix")
		c.Flags().String("report-channel", "", "filter by channel")
		c.Flags().String("method", "", "filter by method ID")
		c.Flags().String("category", "", "filter by method category")
		c.Flags().String("status", "", "filter by status: applicable, missing_inputs, underconstrained")
		c.Flags().Int("limit", 0, "maximum reports (0 = use default)")
	}
	runsReportsCmd.Flags().Bool("json", false, "output as JSON")
	runsExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	runsDiffCmd.Flags().Bool("json", false, "output as JSON")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsReportsCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.AddCommand(runsDiffCmd)
	runsCmd.AddCommand(runsDeleteCmd)
	rootCmd.AddCommand(runsCmd)
}
