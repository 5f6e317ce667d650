// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package applicability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pdiddy/applicability-engine/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var assembledAt = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

// healthyInputs returns six available inputs whose metrics sit comfortably
// inside the default thresholds.
func healthyInputs() map[types.Family]types.Input {
	metrics := map[types.Family]map[string]float64{
		types.FamilyEvent:    {"num_events": 12, "regularity_score": 0.9},
		types.FamilyInterval: {"num_intervals": 11, "coefficient_of_variation": 0.2},
		types.FamilySymbol:   {"ratio_short": 0.5, "ratio_long": 0.5},
		types.FamilyVector:   {"num_sources": 5},
		types.FamilyMatrix:   {"is_proxy_only": 0, "num_windows": 50},
		types.FamilyRelation: {"num_relation_types": 2},
	}
	out := make(map[types.Family]types.Input, 6)
	for f, m := range metrics {
		out[f] = types.Input{Family: f, Available: true, Metrics: m}
	}
	return out
}

func makeBundle(t *testing.T, mutate func(map[types.Family]types.Input)) types.Bundle {
	t.Helper()
	inputs := healthyInputs()
	if mutate != nil {
		mutate(inputs)
	}
	b, err := types.NewBundle("left", "results.json", assembledAt, inputs)
	require.NoError(t, err)
	return b
}

func setMetric(f types.Family, name string, v float64) func(map[types.Family]types.Input) {
	return func(m map[types.Family]types.Input) {
		in := m[f]
		metrics := make(map[string]float64, len(in.Metrics))
		for k, x := range in.Metrics {
			metrics[k] = x
		}
		metrics[name] = v
		in.Metrics = metrics
		m[f] = in
	}
}

func unavailable(f types.Family, note string) func(map[types.Family]types.Input) {
	return func(m map[types.Family]types.Input) {
		m[f] = types.Input{Family: f, Notes: []string{note}, Metrics: map[string]float64{}}
	}
}

// method builds requirements with every family not_applicable except the
// given overrides.
func method(id string, levels map[types.Family]types.RequirementLevel) types.MethodRequirements {
	req := make(map[types.Family]types.RequirementLevel, 6)
	for _, f := range types.AllFamilies() {
		req[f] = types.LevelNotApplicable
	}
	for f, l := range levels {
		req[f] = l
	}
	return types.MethodRequirements{ID: id, Category: "time_domain", Label: id, Requires: req, Source: "time_domain.yaml"}
}

func requires(fs ...types.Family) map[types.Family]types.RequirementLevel {
	m := make(map[types.Family]types.RequirementLevel, len(fs))
	for _, f := range fs {
		m[f] = types.LevelRequired
	}
	return m
}

// --- Scenarios ---

func TestScenarioLowRegularityIsUnderconstrained(t *testing.T) {
	b := makeBundle(t, setMetric(types.FamilyEvent, "regularity_score", 0.05))
	r, err := Evaluate(method("morse", requires(types.FamilyEvent, types.FamilyInterval)), b, types.DefaultParams())
	require.NoError(t, err)

	assert.Equal(t, types.StatusUnderconstrained, r.Status)
	assert.Contains(t, r.UnstableInputs, types.FamilyEvent)
	assert.NotContains(t, r.UnstableInputs, types.FamilyInterval)
	assert.Empty(t, r.MissingInputs)
}

func TestScenarioUnavailableEventIsMissing(t *testing.T) {
	b := makeBundle(t, unavailable(types.FamilyEvent, "pulse_detection not in measurement results"))
	r, err := Evaluate(method("pulses", requires(types.FamilyEvent)), b, types.DefaultParams())
	require.NoError(t, err)

	assert.Equal(t, types.StatusMissingInputs, r.Status)
	assert.Equal(t, map[types.Family]string{types.FamilyEvent: "pulse_detection not in measurement results"}, r.MissingInputs)
	assert.Empty(t, r.UnstableInputs)
}

func TestScenarioAllHealthyIsApplicable(t *testing.T) {
	r, err := Evaluate(method("morse", requires(types.FamilyEvent, types.FamilyInterval)), makeBundle(t, nil), types.DefaultParams())
	require.NoError(t, err)

	assert.Equal(t, types.StatusApplicable, r.Status)
	assert.True(t, r.IsApplicable())
	assert.Empty(t, r.MissingInputs)
	assert.Empty(t, r.UnstableInputs)
	assert.Equal(t, []types.Family{types.FamilyEvent, types.FamilyInterval}, r.RequiredInputs)
}

// --- Status priority ---

func TestMissingTakesPriorityOverUnstable(t *testing.T) {
	b := makeBundle(t, func(m map[types.Family]types.Input) {
		unavailable(types.FamilyEvent, "gone")(m)
		setMetric(types.FamilyInterval, "coefficient_of_variation", 5)(m)
	})
	r, err := Evaluate(method("m", requires(types.FamilyEvent, types.FamilyInterval)), b, types.DefaultParams())
	require.NoError(t, err)

	assert.Equal(t, types.StatusMissingInputs, r.Status)
	assert.Contains(t, r.MissingInputs, types.FamilyEvent)
	assert.Contains(t, r.UnstableInputs, types.FamilyInterval)
}

func TestNotApplicableFamiliesIgnored(t *testing.T) {
	b := makeBundle(t, func(m map[types.Family]types.Input) {
		unavailable(types.FamilyMatrix, "no time-frequency data")(m)
		setMetric(types.FamilyVector, "num_sources", 0)(m)
	})
	r, err := Evaluate(method("m", requires(types.FamilyEvent)), b, types.DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, types.StatusApplicable, r.Status)
	assert.Empty(t, r.Diagnostics)
}

func TestOptionalFamiliesOnlyDiagnose(t *testing.T) {
	b := makeBundle(t, func(m map[types.Family]types.Input) {
		unavailable(types.FamilySymbol, "only 2 event(s), need at least 3")(m)
		setMetric(types.FamilyVector, "num_sources", 1)(m)
	})
	levels := requires(types.FamilyEvent)
	levels[types.FamilySymbol] = types.LevelOptional
	levels[types.FamilyVector] = types.LevelOptional

	r, err := Evaluate(method("m", levels), b, types.DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, types.StatusApplicable, r.Status)
	assert.Empty(t, r.MissingInputs)
	assert.Empty(t, r.UnstableInputs)
	assert.Equal(t, []string{
		"optional S: unavailable - only 2 event(s), need at least 3",
		"optional V: insufficient sources 1 < 3",
	}, r.Diagnostics)
}

// --- Thresholds ---

func TestThresholdBoundaries(t *testing.T) {
	p := types.DefaultParams()
	tests := []struct {
		name   string
		family types.Family
		metric string
		value  float64
		stable bool
	}{
		{"regularity at threshold", types.FamilyEvent, "regularity_score", p.MinRegularity, true},
		{"regularity just below", types.FamilyEvent, "regularity_score", p.MinRegularity - 1e-9, false},
		{"cv at threshold", types.FamilyInterval, "coefficient_of_variation", p.MaxCV, true},
		{"cv just above", types.FamilyInterval, "coefficient_of_variation", p.MaxCV + 1e-9, false},
		{"balance at threshold", types.FamilySymbol, "ratio_short", p.MinSymbolBalance, true},
		{"balance just below", types.FamilySymbol, "ratio_short", p.MinSymbolBalance - 1e-9, false},
		{"sources at threshold", types.FamilyVector, "num_sources", float64(p.MinVectorSources), true},
		{"sources below", types.FamilyVector, "num_sources", float64(p.MinVectorSources - 1), false},
		{"windows at threshold", types.FamilyMatrix, "num_windows", float64(p.MinMatrixWindows), true},
		{"windows below", types.FamilyMatrix, "num_windows", float64(p.MinMatrixWindows - 1), false},
		{"relations at threshold", types.FamilyRelation, "num_relation_types", float64(p.MinRelationTypes), true},
		{"relations below", types.FamilyRelation, "num_relation_types", float64(p.MinRelationTypes - 1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := makeBundle(t, setMetric(tt.family, tt.metric, tt.value))
			r, err := Evaluate(method("m", requires(tt.family)), b, p)
			require.NoError(t, err)
			if tt.stable {
				assert.Equal(t, types.StatusApplicable, r.Status, r.Diagnostics)
			} else {
				assert.Equal(t, types.StatusUnderconstrained, r.Status)
				assert.Contains(t, r.UnstableInputs, tt.family)
			}
		})
	}
}

func TestMatrixProxies(t *testing.T) {
	proxies := makeBundle(t, func(m map[types.Family]types.Input) {
		m[types.FamilyMatrix] = types.Input{
			Family:    types.FamilyMatrix,
			Available: true,
			Metrics:   map[string]float64{"is_proxy_only": 1, "num_proxies": 2, "num_windows": 3},
		}
	})
	mr := method("chirp", requires(types.FamilyMatrix))

	r, err := Evaluate(mr, proxies, types.DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, types.StatusUnderconstrained, r.Status)
	assert.Contains(t, r.UnstableInputs[types.FamilyMatrix], "proxies only")

	p := types.DefaultParams()
	p.AcceptMatrixProxies = true
	r, err = Evaluate(mr, proxies, p)
	require.NoError(t, err)
	assert.Equal(t, types.StatusApplicable, r.Status)
	assert.Contains(t, r.Diagnostics, "M: using time-series proxies (accepted by accept_matrix_proxies)")
	assert.True(t, r.Provenance.Params.AcceptMatrixProxies)
}

func TestMissingMetricIsUnstable(t *testing.T) {
	b := makeBundle(t, func(m map[types.Family]types.Input) {
		m[types.FamilyEvent] = types.Input{Family: types.FamilyEvent, Available: true, Metrics: map[string]float64{"num_events": 4}}
	})
	r, err := Evaluate(method("m", requires(types.FamilyEvent)), b, types.DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, types.StatusUnderconstrained, r.Status)
	assert.Equal(t, "metric regularity_score not reported", r.UnstableInputs[types.FamilyEvent])
}

func TestNonFiniteMetricIsUnstable(t *testing.T) {
	cases := []struct {
		family types.Family
		metric string
		value  float64
	}{
		{types.FamilyEvent, "regularity_score", math.NaN()},
		{types.FamilyEvent, "regularity_score", math.Inf(1)},
		{types.FamilyInterval, "coefficient_of_variation", math.NaN()},
		{types.FamilyInterval, "coefficient_of_variation", math.Inf(-1)},
		{types.FamilySymbol, "ratio_short", math.NaN()},
		{types.FamilyVector, "num_sources", math.Inf(1)},
		{types.FamilyMatrix, "num_windows", math.NaN()},
		{types.FamilyRelation, "num_relation_types", math.Inf(1)},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s/%s=%v", tc.family, tc.metric, tc.value), func(t *testing.T) {
			b := makeBundle(t, setMetric(tc.family, tc.metric, tc.value))
			r, err := Evaluate(method("m", requires(tc.family)), b, types.DefaultParams())
			require.NoError(t, err)
			assert.Equal(t, types.StatusUnderconstrained, r.Status)
			assert.Equal(t, "metric "+tc.metric+" is not finite", r.UnstableInputs[tc.family])
		})
	}
}

// --- Determinism & provenance ---

func TestEvaluateIsDeterministic(t *testing.T) {
	b := makeBundle(t, setMetric(types.FamilySymbol, "ratio_long", 0.1))
	m := method("m", requires(types.FamilyEvent, types.FamilySymbol, types.FamilyVector))

	first, err := Evaluate(m, b, types.DefaultParams())
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Evaluate(m, b, types.DefaultParams())
		require.NoError(t, err)
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("report changed between calls (-first +again):\n%s", diff)
		}
	}

	a, err := json.Marshal(first)
	require.NoError(t, err)
	again, _ := Evaluate(m, b, types.DefaultParams())
	c, err := json.Marshal(again)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(c))
}

func TestProvenance(t *testing.T) {
	p := types.DefaultParams()
	p.MinVectorSources = 7
	r, err := Evaluate(method("m", requires(types.FamilyEvent)), makeBundle(t, nil), p)
	require.NoError(t, err)

	prov := r.Provenance
	assert.Equal(t, types.EvaluatorVersion, prov.EvaluatorVersion)
	assert.Equal(t, types.ParamsVersion, prov.ParamsVersion)
	assert.Equal(t, p, prov.Params)
	assert.Equal(t, "time_domain.yaml", prov.MethodSource)
	assert.Equal(t, "left", prov.Channel)
	assert.Equal(t, "results.json", prov.BundleSource)
	assert.Equal(t, assembledAt, prov.Timestamp)
}

// --- Contract errors ---

func TestContractErrors(t *testing.T) {
	good := makeBundle(t, nil)
	tests := []struct {
		name   string
		method types.MethodRequirements
		bundle types.Bundle
		params types.ApplicabilityParams
	}{
		{"bundle lacks family", method("m", requires(types.FamilyEvent)), func() types.Bundle {
			b := good
			b.Inputs = map[types.Family]types.Input{types.FamilyEvent: good.Inputs[types.FamilyEvent]}
			return b
		}(), types.DefaultParams()},
		{"unknown level", func() types.MethodRequirements {
			m := method("m", nil)
			m.Requires[types.FamilyEvent] = "mandatory"
			return m
		}(), good, types.DefaultParams()},
		{"method missing family", func() types.MethodRequirements {
			m := method("m", nil)
			delete(m.Requires, types.FamilyRelation)
			return m
		}(), good, types.DefaultParams()},
		{"invalid params", method("m", nil), good, func() types.ApplicabilityParams {
			p := types.DefaultParams()
			p.MinVectorSources = -1
			return p
		}()},
		{"empty id", types.MethodRequirements{}, good, types.DefaultParams()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.method, tt.bundle, tt.params)
			var ce *ContractError
			require.True(t, errors.As(err, &ce), "want *ContractError, got %v", err)
		})
	}
}

// --- EvaluateAll ---

func testCatalog() *types.Catalog {
	c := &types.Catalog{SchemaVersion: "1.0", Methods: map[string]types.MethodRequirements{}}
	for _, m := range []types.MethodRequirements{
		method("zeta", requires(types.FamilyEvent)),
		method("alpha", requires(types.FamilyMatrix)),
		method("mid", requires(types.FamilyVector, types.FamilyRelation)),
	} {
		c.Methods[m.ID] = m
	}
	return c
}

func TestEvaluateAllSortedAndStable(t *testing.T) {
	b := makeBundle(t, unavailable(types.FamilyMatrix, "no time-frequency data"))
	one, err := EvaluateAll(context.Background(), testCatalog(), b, types.DefaultParams(), 1)
	require.NoError(t, err)
	many, err := EvaluateAll(context.Background(), testCatalog(), b, types.DefaultParams(), 8)
	require.NoError(t, err)

	require.Len(t, one, 3)
	assert.Equal(t, "alpha", one[0].MethodID)
	assert.Equal(t, "mid", one[1].MethodID)
	assert.Equal(t, "zeta", one[2].MethodID)
	if diff := cmp.Diff(one, many); diff != "" {
		t.Errorf("worker count changed results (-1 +8):\n%s", diff)
	}

	counts := CountByStatus(one)
	assert.Equal(t, 2, counts[types.StatusApplicable])
	assert.Equal(t, 1, counts[types.StatusMissingInputs])
	assert.Equal(t, 0, counts[types.StatusNotApplicable])

	applicable := FilterApplicable(one)
	require.Len(t, applicable, 2)
	assert.Equal(t, "mid", applicable[0].MethodID)
}

func TestEvaluateAllPropagatesContractError(t *testing.T) {
	c := testCatalog()
	bad := method("broken", nil)
	bad.Requires[types.FamilySymbol] = "sometimes"
	c.Methods[bad.ID] = bad

	reports, err := EvaluateAll(context.Background(), c, makeBundle(t, nil), types.DefaultParams(), 2)
	assert.Nil(t, reports)
	var ce *ContractError
	assert.True(t, errors.As(err, &ce))
}

func TestEvaluateAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := EvaluateAll(ctx, testCatalog(), makeBundle(t, nil), types.DefaultParams(), 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluateAllNilCatalog(t *testing.T) {
	_, err := EvaluateAll(context.Background(), nil, makeBundle(t, nil), types.DefaultParams(), 0)
	var ce *ContractError
	assert.True(t, errors.As(err, &ce))
}
