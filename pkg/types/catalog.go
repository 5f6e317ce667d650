// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"sort"
)

// MethodRequirements declares which input families one decoding method needs.
// It is descriptive data loaded from a requirement document; it holds no logic.
type MethodRequirements struct {
	// ID is the unique method identifier.
	ID string `json:"method_id" yaml:"method_id"`

	// Category is the method family tag (e.g. "time_domain").
	Category string `json:"family" yaml:"family"`

	// Label is the human-readable method name.
	Label string `json:"label" yaml:"label"`

	// Requires maps every one of the six families to a requirement level.
	Requires map[Family]RequirementLevel `json:"requires" yaml:"requires"`

	// Source names the requirement document the method was loaded from.
	Source string `json:"source_file" yaml:"source_file"`
}

// Level returns the declared level for f. An undeclared family reports
// not_applicable; the loader guarantees all six are declared.
func (m MethodRequirements) Level(f Family) RequirementLevel {
	if l, ok := m.Requires[f]; ok {
		return l
	}
	return LevelNotApplicable
}

// Required returns the families at level required, in canonical order.
func (m MethodRequirements) Required() []Family {
	return m.atLevel(LevelRequired)
}

// Optional returns the families at level optional, in canonical order.
func (m MethodRequirements) Optional() []Family {
	return m.atLevel(LevelOptional)
}

func (m MethodRequirements) atLevel(level RequirementLevel) []Family {
	out := []Family{}
	for _, f := range families {
		if m.Requires[f] == level {
			out = append(out, f)
		}
	}
	return out
}

// Catalog is the merged set of all method requirements, keyed by method ID.
// It is built once and shared read-only across evaluations.
type Catalog struct {
	// SchemaVersion is the index document's schema version.
	SchemaVersion string `json:"schema_version" yaml:"schema_version"`

	// Methods maps method IDs to their requirements.
	Methods map[string]MethodRequirements `json:"methods" yaml:"methods"`
}

// Method returns the requirements for id.
func (c *Catalog) Method(id string) (MethodRequirements, error) {
	m, ok := c.Methods[id]
	if !ok {
		return MethodRequirements{}, fmt.Errorf("method %q not in catalog", id)
	}
	return m, nil
}

// IDs returns all method IDs in sorted order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.Methods))
	for id := range c.Methods {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of methods.
func (c *Catalog) Len() int {
	return len(c.Methods)
}

// ByCategory returns the methods whose category equals category, sorted by ID.
func (c *Catalog) ByCategory(category string) []MethodRequirements {
	var out []MethodRequirements
	for _, id := range c.IDs() {
		if m := c.Methods[id]; m.Category == category {
			out = append(out, m)
		}
	}
	return out
}

// Categories returns the distinct method categories in sorted order.
func (c *Catalog) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range c.Methods {
		if !seen[m.Category] {
			seen[m.Category] = true
			out = append(out, m.Category)
		}
	}
	sort.Strings(out)
	return out
}
