//go:build mage

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNonBlankLines(t *testing.T) {
	assert.Equal(t, 0, nonBlankLines(nil))
	assert.Equal(t, 2, nonBlankLines([]byte("package x\n\n \t\r\nfunc f() {}")))
	assert.Equal(t, 1, nonBlankLines([]byte("a\r\n")))
}

func TestCollectStats(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.go"), "package a\n\nvar x = 1\n")
	writeFile(t, filepath.Join(root, "a_test.go"), "package a\n")
	writeFile(t, filepath.Join(root, "README.md"), "# Title\n\nfour words in here\n")
	writeFile(t, filepath.Join(root, "cfg.yaml"), "key: value\n")
	writeFile(t, filepath.Join(root, "_skip", "b.go"), "package b\nvar y = 2\n")
	writeFile(t, filepath.Join(root, ".hidden", "notes.md"), "ignored words\n")
	writeFile(t, filepath.Join(root, binDir, "c.go"), "package c\n")

	st, err := collectStats(root)
	require.NoError(t, err)
	assert.Equal(t, treeStats{prodLines: 2, testLines: 1, docWords: 8}, st)
}

func TestCollectStatsMissingRoot(t *testing.T) {
	_, err := collectStats(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}
