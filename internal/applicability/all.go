// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package applicability

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/applicability-engine/pkg/types"
)

// DefaultWorkers bounds EvaluateAll when workers <= 0.
const DefaultWorkers = 4

// EvaluateAll evaluates every catalog method against bundle using at most
// workers goroutines. Reports are returned sorted by method ID regardless
// of completion order. The first contract error cancels the rest.
func EvaluateAll(ctx context.Context, catalog *types.Catalog, bundle types.Bundle, params types.ApplicabilityParams, workers int) ([]types.Report, error) {
	if catalog == nil {
		return nil, &ContractError{Reason: "nil catalog"}
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}

	ids := catalog.IDs()
	reports := make([]types.Report, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, id := range ids {
		method := catalog.Methods[id]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := Evaluate(method, bundle, params)
			if err != nil {
				return err
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// FilterApplicable returns the applicable reports, preserving order.
func FilterApplicable(reports []types.Report) []types.Report {
	var out []types.Report
	for _, r := range reports {
		if r.IsApplicable() {
			out = append(out, r)
		}
	}
	return out
}

// CountByStatus tallies reports by status. Every declared status has an
// entry, including zero counts.
func CountByStatus(reports []types.Report) map[types.Status]int {
	counts := make(map[types.Status]int, len(types.AllStatuses()))
	for _, s := range types.AllStatuses() {
		counts[s] = 0
	}
	for _, r := range reports {
		counts[r.Status]++
	}
	return counts
}
