// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/applicability-engine/internal/render"
	"github.com/pdiddy/applicability-engine/pkg/types"
)

var fixture = filepath.Join("..", "..", "internal", "measure", "testdata", "results.json")

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	})
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

// resetFlags restores every flag to its default between executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func TestEngineConfigDefaults(t *testing.T) {
	cfg, err := engineConfig()
	require.NoError(t, err)
	assert.Equal(t, types.DefaultParams(), cfg.Params)
	assert.True(t, cfg.Reproducible)
	assert.Empty(t, cfg.CatalogDir)
	assert.Positive(t, cfg.Workers)

	sc, err := storeConfig()
	require.NoError(t, err)
	assert.Equal(t, defaultStoreDir, sc.Dir)
	assert.Equal(t, defaultMaxResults, sc.MaxResults)
}

func TestEngineConfigMergesFlagsAndEnv(t *testing.T) {
	initConfig()
	t.Setenv("APPLICABILITY_ENGINE_PARAMS_MIN_REGULARITY", "0.6")
	t.Setenv("APPLICABILITY_ENGINE_STORE_MAX_RESULTS", "7")
	t.Cleanup(func() { resetFlags(rootCmd) })
	flags := rootCmd.PersistentFlags()
	require.NoError(t, flags.Set("max-cv", "0.45"))
	require.NoError(t, flags.Set("accept-matrix-proxies", "true"))
	require.NoError(t, flags.Set("workers", "3"))

	cfg, err := engineConfig()
	require.NoError(t, err)
	want := types.DefaultParams()
	want.MinRegularity = 0.6
	want.MaxCV = 0.45
	want.AcceptMatrixProxies = true
	assert.Equal(t, want, cfg.Params)
	assert.Equal(t, 3, cfg.Workers)

	sc, err := storeConfig()
	require.NoError(t, err)
	assert.Equal(t, 7, sc.MaxResults)
}

func TestEvaluateJSONAndExport(t *testing.T) {
	outDir := t.TempDir()
	stdout := execute(t, "evaluate", fixture, "--format", "json", "--out", outDir)

	var run types.RunResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &run))
	assert.Len(t, run.Channels, 3)
	assert.Equal(t, "1.0", run.CatalogVersion)

	for _, name := range []string{render.RunFile, render.ReportFile} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, name)
	}
}

func TestEvaluateSaveThenListRuns(t *testing.T) {
	storeDir := t.TempDir()
	execute(t, "evaluate", fixture, "--format", "yaml", "--save", "--store-dir", storeDir)

	out := execute(t, "runs", "list", "--store-dir", storeDir, "--json")
	var runs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.EqualValues(t, 3, runs[0]["channels"])
}

func TestCatalogValidateEmbedded(t *testing.T) {
	out := execute(t, "catalog", "validate")
	assert.Contains(t, out, "embedded catalog: ok, schema_version 1.0")
}

func TestApplicableOnly(t *testing.T) {
	run := &types.RunResult{RunID: "r", Channels: []types.ChannelResult{{
		Channel: "left",
		Reports: []types.Report{
			{MethodID: "a", Status: types.StatusApplicable},
			{MethodID: "b", Status: types.StatusMissingInputs},
		},
	}}}
	got := applicableOnly(run)
	require.Len(t, got.Channels[0].Reports, 1)
	assert.Equal(t, "a", got.Channels[0].Reports[0].MethodID)
	assert.Len(t, run.Channels[0].Reports, 2, "input run must not change")
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "none", familiesLabel(nil))
	assert.Equal(t, "E, Δ", familiesLabel([]types.Family{types.FamilyEvent, types.FamilyInterval}))
	assert.Equal(t, "abcdefgh", shortID("abcdefgh-1234"))
	assert.Equal(t, "(none)", orNone(""))
	assert.False(t, isTerminal(&bytes.Buffer{}))
	assert.Equal(t, []types.Family{types.FamilyEvent, types.FamilyMatrix},
		keys(map[types.Family]string{types.FamilyMatrix: "x", types.FamilyEvent: "y"}))
}
