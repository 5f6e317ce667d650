// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/applicability-engine/internal/engine"
	"github.com/pdiddy/applicability-engine/internal/render"
	"github.com/pdiddy/applicability-engine/pkg/types"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and validate the requirement catalog",
	Long: `Catalog works with the requirement catalog: an _index.yaml listing
member documents, each declaring for every method the level (required,
optional, not_applicable) of all six input families.

Without --catalog the embedded default catalog is used.`,
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog methods and their family requirements",
	RunE:  runCatalogList,
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Load a catalog directory and report any error",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCatalogValidate,
}

func init() {
	catalogListCmd.Flags().StringP("format", "f", string(render.FormatTable), "output format: table, json, or yaml")
	catalogListCmd.Flags().String("category", "", "list only methods of this category")

	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogValidateCmd)
	rootCmd.AddCommand(catalogCmd)
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	format, err := formatFlag(cmd)
	if err != nil {
		return err
	}
	c, err := engine.LoadCatalog(viper.GetString("catalog_dir"))
	if err != nil {
		return err
	}
	if category, _ := cmd.Flags().GetString("category"); category != "" {
		c = filterCategory(c, category)
	}

	w := cmd.OutOrStdout()
	switch format {
	case render.FormatJSON:
		return render.JSON(w, c)
	case render.FormatYAML:
		return render.YAML(w, c)
	case render.FormatTable:
		fmt.Fprintf(w, "catalog schema_version %s, %d methods\n", c.SchemaVersion, c.Len())
		fmt.Fprintln(w, render.CatalogTable(c))
		return nil
	}
	return fmt.Errorf("format %s is not supported for catalog list", format)
}

func filterCategory(c *types.Catalog, category string) *types.Catalog {
	out := &types.Catalog{SchemaVersion: c.SchemaVersion, Methods: make(map[string]types.MethodRequirements)}
	for _, m := range c.ByCategory(category) {
		out.Methods[m.ID] = m
	}
	return out
}

func runCatalogValidate(cmd *cobra.Command, args []string) error {
	dir := viper.GetString("catalog_dir")
	if len(args) > 0 {
		dir = args[0]
	}
	c, err := engine.LoadCatalog(dir)
	if err != nil {
		return err
	}
	label := dir
	if label == "" {
		label = "embedded catalog"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok, schema_version %s, %d methods in %d categories\n",
		label, c.SchemaVersion, c.Len(), len(c.Categories()))
	return nil
}

func familiesLabel(fs []types.Family) string {
	if len(fs) == 0 {
		return "none"
	}
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = string(f)
	}
	return strings.Join(parts, ", ")
}
