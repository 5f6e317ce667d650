// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/applicability-engine/internal/applicability"
	"github.com/pdiddy/applicability-engine/internal/engine"
	"github.com/pdiddy/applicability-engine/internal/runstore"
	"github.com/pdiddy/applicability-engine/pkg/types"
)

const (
	defaultStoreDir   = ".applicability-engine"
	defaultMaxResults = 20
)

// flagKeys maps persistent flags to their configuration keys.
var flagKeys = map[string]string{
	"catalog":               "catalog_dir",
	"channel":               "channels",
	"reproducible":          "reproducible",
	"workers":               "workers",
	"store-dir":             "store.dir",
	"min-regularity":        "params.min_regularity",
	"max-cv":                "params.max_cv",
	"min-symbol-balance":    "params.min_symbol_balance",
	"min-vector-sources":    "params.min_vector_sources",
	"min-matrix-windows":    "params.min_matrix_windows",
	"accept-matrix-proxies": "params.accept_matrix_proxies",
	"min-relation-types":    "params.min_relation_types",
}

func registerEngineFlags(flags *pflag.FlagSet) {
	p := types.DefaultParams()

	flags.String("catalog", "", "requirement catalog directory (default: embedded catalog)")
	flags.StringSlice("channel", nil, "channels to evaluate (default: all declared channels)")
	flags.Bool("reproducible", true, "stamp bundles with the document timestamp instead of the wall clock")
	flags.Int("workers", applicability.DefaultWorkers, "concurrent method evaluations per channel")
	flags.String("store-dir", defaultStoreDir, "run store directory")

	flags.Float64("min-regularity", p.MinRegularity, "minimum event regularity score")
	flags.Float64("max-cv", p.MaxCV, "maximum interval coefficient of variation")
	flags.Float64("min-symbol-balance", p.MinSymbolBalance, "minimum minority symbol ratio")
	flags.Int("min-vector-sources", p.MinVectorSources, "minimum number of vector sources")
	flags.Int("min-matrix-windows", p.MinMatrixWindows, "minimum time windows of a full matrix")
	flags.Bool("accept-matrix-proxies", p.AcceptMatrixProxies, "accept time-series proxies for full matrices")
	flags.Int("min-relation-types", p.MinRelationTypes, "minimum number of relation types")

	for name, key := range flagKeys {
		_ = viper.BindPFlag(key, flags.Lookup(name))
	}
	viper.SetDefault("store.max_results", defaultMaxResults)
}

// engineConfig decodes the engine settings from flags, environment, and the
// config file, in that order of precedence. Keys resolve one by one, so a
// changed param flag overrides the file's params section.
func engineConfig() (types.EngineConfig, error) {
	cfg := types.EngineConfig{Params: types.DefaultParams()}
	if err := viper.Unmarshal(&cfg); err != nil {
		return types.EngineConfig{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

func storeConfig() (types.StoreConfig, error) {
	var c struct {
		Store types.StoreConfig `mapstructure:"store"`
	}
	if err := viper.Unmarshal(&c); err != nil {
		return types.StoreConfig{}, fmt.Errorf("decoding store config: %w", err)
	}
	return c.Store, nil
}

func newEngine() (*engine.Engine, error) {
	cfg, err := engineConfig()
	if err != nil {
		return nil, err
	}
	logger.Debug("engine config",
		zap.String("catalog", cfg.CatalogDir),
		zap.Strings("channels", cfg.Channels),
		zap.Bool("reproducible", cfg.Reproducible),
		zap.Any("params", cfg.Params))
	return engine.New(cfg, logger)
}

func openStore() (*runstore.Store, error) {
	cfg, err := storeConfig()
	if err != nil {
		return nil, err
	}
	return runstore.NewStore(cfg, logger)
}
