// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package grammar

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/applicability-engine/internal/measure"
	"github.com/pdiddy/applicability-engine/pkg/types"
)

// relationMethods are the inter-channel analyses the R family draws on.
var relationMethods = []string{
	"cross_correlation",
	"phase_difference",
	"time_delay",
	"lr_difference",
}

const pairSeparator = "_vs_"

// Relation holds one relation type's results keyed by channel or pair.
type Relation map[string]measure.Result

// RelationData is the payload of a Relation input.
type RelationData struct {
	Relations  map[string]Relation `json:"relations" yaml:"relations"`
	Pairs      []string            `json:"pairs" yaml:"pairs"`
	SampleRate int                 `json:"sample_rate" yaml:"sample_rate"`
}

// BuildRelations builds the R family. For every relation method the
// channel's own result is merged with the global pair entries (keys such as
// "left_vs_right"); the channel's entry wins on a key collision.
func BuildRelations(src Source, channel string, at time.Time) (types.Input, error) {
	if err := src.CheckChannel(channel); err != nil {
		return types.Input{}, err
	}

	var tr tracer
	relations := make(map[string]Relation)
	pairSet := make(map[string]bool)

	for _, method := range relationMethods {
		rel := Relation{}
		if all, ok := src.Measurements(method); ok {
			for key, r := range all {
				if strings.Contains(key, pairSeparator) {
					rel[key] = r
					pairSet[key] = true
				}
			}
		}
		r, ok, err := src.Resolve(method, channel)
		if err != nil {
			return types.Input{}, err
		}
		if ok {
			rel[channel] = r
		}
		if len(rel) == 0 {
			continue
		}
		tr.consult(src, method)
		relations[method] = rel
	}

	pairs := make([]string, 0, len(pairSet))
	for p := range pairSet {
		pairs = append(pairs, p)
	}
	sort.Strings(pairs)

	if len(relations) > 0 {
		tr.record("alignment", map[string]any{
			"sample_rate": src.SampleRate(),
			"pairs":       pairs,
		})
	}
	prov := tr.provenance(at)

	if len(relations) == 0 {
		return unavailable(types.FamilyRelation, prov, nil, "no inter-channel analyses in measurement results"), nil
	}

	return types.Input{
		Family:    types.FamilyRelation,
		Available: true,
		Data: RelationData{
			Relations:  relations,
			Pairs:      pairs,
			SampleRate: src.SampleRate(),
		},
		Metrics: map[string]float64{
			"num_relation_types": float64(len(relations)),
			"num_pairs":          float64(len(pairs)),
		},
		Notes:      []string{fmt.Sprintf("%d relation type(s)", len(relations))},
		Provenance: prov,
	}, nil
}
