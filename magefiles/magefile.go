//go:build mage

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main contains Mage build targets for applicability-engine
// developer tooling.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir     = "bin"
	binName    = "applicability-engine"
	cmdPkg     = "./cmd/applicability-engine"
	catalogDir = "internal/catalog/matrices"
	fixture    = "internal/measure/testdata/results.json"
)

// Default target when mage runs without arguments.
var Default = Build

func binPath() string { return filepath.Join(binDir, binName) }

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || version == "" {
		version = "dev"
	}
	ldflags := "-X main.version=" + version
	if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", binPath(), cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s (%s)\n", binPath(), version)
	return nil
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "-count=1", "./...")
}

// Cover writes a coverage profile to bin/coverage.out and prints totals.
func Cover() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return err
	}
	profile := filepath.Join(binDir, "coverage.out")
	if err := sh.RunV("go", "test", "-coverprofile="+profile, "./..."); err != nil {
		return err
	}
	return sh.RunV("go", "tool", "cover", "-func="+profile)
}

// Vet runs go vet over the module.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Check runs vet and tests.
func Check() {
	mg.SerialDeps(Vet, Test)
}

// Catalog validates the catalog sources with the built binary.
func Catalog() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "catalog", "validate", catalogDir)
}

// Evaluate runs the built binary against the test fixture and prints the
// applicability table.
func Evaluate() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "evaluate", fixture)
}

// Clean removes build output.
func Clean() error {
	return sh.Rm(binDir)
}
