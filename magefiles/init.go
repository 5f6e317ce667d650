//go:build mage

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
)

const (
	configFile = "applicability-engine.yaml"
	storeDir   = ".applicability-engine"
)

const defaultConfig = `# applicability-engine configuration
catalog_dir: ""        # empty uses the embedded catalog
channels: []           # empty evaluates every declared channel
reproducible: true
workers: 4

params:
  min_regularity: 0.1
  max_cv: 1.0
  min_symbol_balance: 0.2
  min_vector_sources: 3
  min_matrix_windows: 10
  accept_matrix_proxies: false
  min_relation_types: 1

store:
  dir: .applicability-engine
  max_results: 20
`

// Init creates the run store directory and a default config file. An
// existing config file is left alone.
func Init() error {
	if err := os.MkdirAll(storeDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", storeDir, err)
	}
	fmt.Println("  ", storeDir)

	if _, err := os.Stat(configFile); err == nil {
		fmt.Println("  ", configFile, "(exists, kept)")
	} else {
		if err := os.WriteFile(configFile, []byte(defaultConfig), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", configFile, err)
		}
		fmt.Println("  ", configFile)
	}
	fmt.Println("Project initialized.")
	return nil
}
