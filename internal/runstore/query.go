// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package runstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/applicability-engine/pkg/types"
)

// QueryOptions filters stored reports. Empty fields match everything.
type QueryOptions struct {
	// RunID restricts results to one run (full ID or unique prefix).
	RunID string

	Channel  string
	MethodID string
	Category string
	Status   types.Status

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// ReportRow is a stored report with the run and channel it belongs to.
type ReportRow struct {
	RunID          string                  `json:"run_id" yaml:"run_id"`
	Channel        string                  `json:"channel" yaml:"channel"`
	MethodID       string                  `json:"method_id" yaml:"method_id"`
	Category       string                  `json:"family" yaml:"family"`
	Status         types.Status            `json:"status" yaml:"status"`
	MissingInputs  map[types.Family]string `json:"missing_inputs" yaml:"missing_inputs"`
	UnstableInputs map[types.Family]string `json:"unstable_inputs" yaml:"unstable_inputs"`
	Diagnostics    []string                `json:"diagnostics" yaml:"diagnostics"`
}

// Reports returns stored reports matching opts, ordered by run creation
// time (newest first), channel, and method ID.
func (s *Store) Reports(ctx context.Context, opts QueryOptions) ([]ReportRow, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT r.run_id, r.channel, r.method_id, r.category, r.status,
			r.missing_inputs, r.unstable_inputs, r.diagnostics
		FROM reports r
		JOIN runs ON runs.id = r.run_id
		WHERE 1=1`)

	if opts.RunID != "" {
		id, err := s.ResolveID(ctx, opts.RunID)
		if err != nil {
			return nil, err
		}
		qb.WriteString(` AND r.run_id = ?`)
		args = append(args, id)
	}
	if opts.Channel != "" {
		qb.WriteString(` AND r.channel = ?`)
		args = append(args, opts.Channel)
	}
	if opts.MethodID != "" {
		qb.WriteString(` AND r.method_id = ?`)
		args = append(args, opts.MethodID)
	}
	if opts.Category != "" {
		qb.WriteString(` AND r.category = ?`)
		args = append(args, opts.Category)
	}
	if opts.Status != "" {
		qb.WriteString(` AND r.status = ?`)
		args = append(args, string(opts.Status))
	}
	qb.WriteString(` ORDER BY runs.created_at DESC, r.run_id, r.channel, r.method_id LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying reports: %w", err)
	}
	defer rows.Close()

	var out []ReportRow
	for rows.Next() {
		var (
			r                          ReportRow
			status                     string
			missing, unstable, diagRaw string
		)
		if err := rows.Scan(&r.RunID, &r.Channel, &r.MethodID, &r.Category, &status,
			&missing, &unstable, &diagRaw); err != nil {
			return nil, fmt.Errorf("scanning report: %w", err)
		}
		r.Status = types.Status(status)
		if err := json.Unmarshal([]byte(missing), &r.MissingInputs); err != nil {
			return nil, fmt.Errorf("decoding missing inputs: %w", err)
		}
		if err := json.Unmarshal([]byte(unstable), &r.UnstableInputs); err != nil {
			return nil, fmt.Errorf("decoding unstable inputs: %w", err)
		}
		if err := json.Unmarshal([]byte(diagRaw), &r.Diagnostics); err != nil {
			return nil, fmt.Errorf("decoding diagnostics: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Change is a method whose status differs between two runs. From or To is
// empty when the method or channel appears in only one run.
type Change struct {
	Channel  string       `json:"channel" yaml:"channel"`
	MethodID string       `json:"method_id" yaml:"method_id"`
	From     types.Status `json:"from" yaml:"from"`
	To       types.Status `json:"to" yaml:"to"`
}

// Diff compares the statuses of two stored runs, sorted by channel and
// method ID. Unchanged methods are omitted.
func (s *Store) Diff(ctx context.Context, fromID, toID string) ([]Change, error) {
	from, err := s.Run(ctx, fromID)
	if err != nil {
		return nil, err
	}
	to, err := s.Run(ctx, toID)
	if err != nil {
		return nil, err
	}
	return DiffRuns(from, to), nil
}

type reportKey struct {
	channel, method string
}

// DiffRuns compares the statuses of two runs.
func DiffRuns(from, to *types.RunResult) []Change {
	before := statuses(from)
	after := statuses(to)

	var out []Change
	for k, b := range before {
		if a := after[k]; a != b {
			out = append(out, Change{Channel: k.channel, MethodID: k.method, From: b, To: a})
		}
	}
	for k, a := range after {
		if _, ok := before[k]; !ok {
			out = append(out, Change{Channel: k.channel, MethodID: k.method, To: a})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Channel != out[j].Channel {
			return out[i].Channel < out[j].Channel
		}
		return out[i].MethodID < out[j].MethodID
	})
	return out
}

func statuses(run *types.RunResult) map[reportKey]types.Status {
	m := make(map[reportKey]types.Status)
	for _, ch := range run.Channels {
		for _, r := range ch.Reports {
			m[reportKey{ch.Channel, r.MethodID}] = r.Status
		}
	}
	return m
}
