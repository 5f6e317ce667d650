// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/applicability-engine/internal/grammar"
	"github.com/pdiddy/applicability-engine/pkg/types"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of applicability-engine",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("applicability-engine %s (builder %s, evaluator %s, params %s)\n",
			version, grammar.BuilderVersion, types.EvaluatorVersion, types.ParamsVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
