// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import "fmt"

// ValidationError reports a requirement document that fails structural
// validation. Method is empty when the problem is document-level.
type ValidationError struct {
	File   string
	Method string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("catalog %s: method %q: %s", e.File, e.Method, e.Reason)
	}
	return fmt.Sprintf("catalog %s: %s", e.File, e.Reason)
}

// DuplicateMethodError reports a method ID declared by more than one
// document.
type DuplicateMethodError struct {
	ID       string
	File     string
	Previous string
}

func (e *DuplicateMethodError) Error() string {
	return fmt.Sprintf("catalog %s: duplicate method_id %q (already defined in %s)", e.File, e.ID, e.Previous)
}

// VersionError reports a schema_version outside the supported range.
type VersionError struct {
	File    string
	Version string
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("catalog %s: unsupported schema_version %q (supported: %d.x)", e.File, e.Version, SupportedMajorVersion)
}
