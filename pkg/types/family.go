// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the applicability engine:
// input families and their built representations (Input, Bundle), the
// requirement catalog (MethodRequirements, Catalog), explicit thresholds
// (ApplicabilityParams), and evaluation output (Report, RunResult).
package types

import (
	"fmt"
	"strings"
)

// Family is one of the six fixed categories of observable structure.
// The set is closed: Event, Interval, Symbol, Vector, Matrix, Relation.
type Family string

const (
	FamilyEvent    Family = "E"
	FamilyInterval Family = "Δ"
	FamilySymbol   Family = "S"
	FamilyVector   Family = "V"
	FamilyMatrix   Family = "M"
	FamilyRelation Family = "R"
)

// families holds the canonical order used everywhere output must be stable.
var families = [6]Family{
	FamilyEvent,
	FamilyInterval,
	FamilySymbol,
	FamilyVector,
	FamilyMatrix,
	FamilyRelation,
}

var familyNames = map[Family]string{
	FamilyEvent:    "event",
	FamilyInterval: "interval",
	FamilySymbol:   "symbol",
	FamilyVector:   "vector",
	FamilyMatrix:   "matrix",
	FamilyRelation: "relation",
}

// AllFamilies returns the six families in canonical order. The returned
// slice is a fresh copy.
func AllFamilies() []Family {
	out := make([]Family, len(families))
	copy(out, families[:])
	return out
}

// Valid reports whether f is one of the six canonical families.
func (f Family) Valid() bool {
	_, ok := familyNames[f]
	return ok
}

// Name returns the long lowercase name of the family (e.g. "interval").
func (f Family) Name() string {
	if n, ok := familyNames[f]; ok {
		return n
	}
	return string(f)
}

// Index returns the position of f in canonical order, or -1.
func (f Family) Index() int {
	for i, c := range families {
		if c == f {
			return i
		}
	}
	return -1
}

// ParseFamily accepts a family symbol ("Δ"), its ASCII alias ("D"), or its
// long name ("interval"), case-insensitively for the latter two.
func ParseFamily(s string) (Family, error) {
	s = strings.TrimSpace(s)
	if f := Family(s); f.Valid() {
		return f, nil
	}
	lower := strings.ToLower(s)
	if lower == "d" || lower == "delta" {
		return FamilyInterval, nil
	}
	for f, name := range familyNames {
		if lower == name || strings.ToUpper(s) == string(f) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown input family %q: must be one of E, Δ, S, V, M, R", s)
}

// RequirementLevel is a method's declared need for one family.
type RequirementLevel string

const (
	LevelRequired      RequirementLevel = "required"
	LevelOptional      RequirementLevel = "optional"
	LevelNotApplicable RequirementLevel = "not_applicable"
)

// Valid reports whether l is one of the three allowed levels.
func (l RequirementLevel) Valid() bool {
	switch l {
	case LevelRequired, LevelOptional, LevelNotApplicable:
		return true
	}
	return false
}

// Status is the evaluator's classification outcome for one method.
type Status string

const (
	StatusApplicable       Status = "applicable"
	StatusMissingInputs    Status = "missing_inputs"
	StatusUnderconstrained Status = "underconstrained"

	// StatusNotApplicable is reserved for structural incompatibilities.
	// The threshold-based evaluator never emits it.
	StatusNotApplicable Status = "not_applicable"
)

// AllStatuses returns every declared status in reporting order.
func AllStatuses() []Status {
	return []Status{StatusApplicable, StatusMissingInputs, StatusUnderconstrained, StatusNotApplicable}
}
