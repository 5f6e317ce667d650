//go:build mage

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/applicability-engine/internal/catalog"
)

// treeStats tallies the project sources.
type treeStats struct {
	prodLines int
	testLines int
	docWords  int
}

// Stats prints project metrics: Go production/test LOC, catalog methods,
// and documentation word count.
func Stats() error {
	st, err := collectStats(".")
	if err != nil {
		return err
	}
	cat, err := catalog.Load(catalogDir)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	fmt.Printf("Lines of code (Go, production): %d\n", st.prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", st.testLines)
	fmt.Printf("Catalog methods:                 %d\n", cat.Len())
	fmt.Printf("Words (documentation):           %d\n", st.docWords)
	return nil
}

// skipDir reports whether a directory is outside the project sources.
func skipDir(name string) bool {
	return name != "." && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == binDir)
}

// collectStats walks root once, counting non-blank Go lines and the words of
// Markdown and YAML documents.
func collectStats(root string) (treeStats, error) {
	var st treeStats
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		switch filepath.Ext(path) {
		case ".go":
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			if strings.HasSuffix(path, "_test.go") {
				st.testLines += nonBlankLines(data)
			} else {
				st.prodLines += nonBlankLines(data)
			}
		case ".md", ".yaml", ".yml":
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			st.docWords += len(bytes.Fields(data))
		}
		return nil
	})
	return st, err
}

func nonBlankLines(data []byte) int {
	n := 0
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) > 0 {
			n++
		}
	}
	return n
}
