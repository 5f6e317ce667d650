// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package applicability

import (
	"fmt"
	"math"

	"github.com/pdiddy/applicability-engine/pkg/types"
)

// stability is the outcome of applying one family's thresholds.
type stability struct {
	stable bool
	reason string
	// notes are recorded even when the input is stable.
	notes []string
}

func pass(notes ...string) stability { return stability{stable: true, notes: notes} }

func fail(format string, args ...any) stability {
	return stability{reason: fmt.Sprintf(format, args...)}
}

func absent(metric string) stability {
	return fail("metric %s not reported", metric)
}

// thresholdMetrics lists the metrics each family's thresholds read.
var thresholdMetrics = map[types.Family][]string{
	types.FamilyEvent:    {"regularity_score"},
	types.FamilyInterval: {"coefficient_of_variation"},
	types.FamilySymbol:   {"ratio_short", "ratio_long"},
	types.FamilyVector:   {"num_sources"},
	types.FamilyMatrix:   {"is_proxy_only", "num_windows"},
	types.FamilyRelation: {"num_relation_types"},
}

// checkStability applies the thresholds for in's family. All boundaries are
// inclusive: a metric equal to its threshold passes. A NaN or infinite
// threshold metric never passes.
func checkStability(in types.Input, p types.ApplicabilityParams) stability {
	m := in.Metrics
	for _, name := range thresholdMetrics[in.Family] {
		if v, ok := m[name]; ok && (math.IsNaN(v) || math.IsInf(v, 0)) {
			return fail("metric %s is not finite", name)
		}
	}
	switch in.Family {
	case types.FamilyEvent:
		reg, ok := m["regularity_score"]
		if !ok {
			return absent("regularity_score")
		}
		if reg < p.MinRegularity {
			return fail("low regularity %.3f < %v", reg, p.MinRegularity)
		}

	case types.FamilyInterval:
		cv, ok := m["coefficient_of_variation"]
		if !ok {
			return absent("coefficient_of_variation")
		}
		if cv > p.MaxCV {
			return fail("high CV %.3f > %v", cv, p.MaxCV)
		}

	case types.FamilySymbol:
		short, okS := m["ratio_short"]
		long, okL := m["ratio_long"]
		if !okS || !okL {
			return absent("ratio_short/ratio_long")
		}
		if bal := math.Min(short, long); bal < p.MinSymbolBalance {
			return fail("unbalanced %.3f < %v", bal, p.MinSymbolBalance)
		}

	case types.FamilyVector:
		n, ok := m["num_sources"]
		if !ok {
			return absent("num_sources")
		}
		if int(n) < p.MinVectorSources {
			return fail("insufficient sources %d < %d", int(n), p.MinVectorSources)
		}

	case types.FamilyMatrix:
		return checkMatrix(m, p)

	case types.FamilyRelation:
		n, ok := m["num_relation_types"]
		if !ok {
			return absent("num_relation_types")
		}
		if int(n) < p.MinRelationTypes {
			return fail("insufficient types %d < %d", int(n), p.MinRelationTypes)
		}
	}
	return pass()
}

// checkMatrix: with accept_matrix_proxies the input passes and proxy use is
// noted. Otherwise proxies fail and a full matrix needs min_matrix_windows.
func checkMatrix(m map[string]float64, p types.ApplicabilityParams) stability {
	proxyOnly := m["is_proxy_only"] > 0.5
	if p.AcceptMatrixProxies {
		if proxyOnly {
			return pass("M: using time-series proxies (accepted by accept_matrix_proxies)")
		}
		return pass()
	}
	if proxyOnly {
		return fail("using time-series proxies only, not full time-frequency matrices (set accept_matrix_proxies to allow)")
	}
	w, ok := m["num_windows"]
	if !ok {
		return absent("num_windows")
	}
	if int(w) < p.MinMatrixWindows {
		return fail("insufficient windows %d < %d", int(w), p.MinMatrixWindows)
	}
	return pass()
}
