// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package applicability judges whether decoding methods can be attempted
// against a bundle of built inputs. It is the only place thresholds are
// applied: builders report facts, the catalog declares needs, and Evaluate
// compares the two using ApplicabilityParams.
package applicability

import (
	"fmt"

	"github.com/pdiddy/applicability-engine/pkg/types"
)

// ContractError reports a malformed method, bundle or parameter set. It
// signals a programming fault upstream, never a classification outcome.
type ContractError struct {
	MethodID string
	Reason   string
}

func (e *ContractError) Error() string {
	if e.MethodID == "" {
		return "applicability contract violation: " + e.Reason
	}
	return fmt.Sprintf("applicability contract violation for %s: %s", e.MethodID, e.Reason)
}

// Evaluate classifies one method against one bundle.
//
// Required families that are unavailable are missing; required families that
// are available but fail their threshold are unstable. Optional families add
// diagnostics only. Status is missing_inputs if anything is missing, else
// underconstrained if anything is unstable, else applicable.
//
// Evaluate is pure: the report timestamp is the bundle's assembly time, so
// identical arguments always yield an identical Report.
func Evaluate(method types.MethodRequirements, bundle types.Bundle, params types.ApplicabilityParams) (types.Report, error) {
	if err := params.Validate(); err != nil {
		return types.Report{}, &ContractError{MethodID: method.ID, Reason: "invalid params: " + err.Error()}
	}
	if err := checkContract(method, bundle); err != nil {
		return types.Report{}, err
	}

	required := method.Required()
	missing := map[types.Family]string{}
	unstable := map[types.Family]string{}
	diagnostics := []string{}

	for _, f := range required {
		in := bundle.Inputs[f]
		if !in.Available {
			reason := in.Reason()
			missing[f] = reason
			diagnostics = append(diagnostics, fmt.Sprintf("%s: unavailable - %s", f, reason))
			continue
		}
		res := checkStability(in, params)
		diagnostics = append(diagnostics, res.notes...)
		if !res.stable {
			unstable[f] = res.reason
			diagnostics = append(diagnostics, fmt.Sprintf("%s: %s", f, res.reason))
		}
	}

	for _, f := range method.Optional() {
		in := bundle.Inputs[f]
		if !in.Available {
			diagnostics = append(diagnostics, fmt.Sprintf("optional %s: unavailable - %s", f, in.Reason()))
			continue
		}
		if res := checkStability(in, params); !res.stable {
			diagnostics = append(diagnostics, fmt.Sprintf("optional %s: %s", f, res.reason))
		}
	}

	status := types.StatusApplicable
	switch {
	case len(missing) > 0:
		status = types.StatusMissingInputs
	case len(unstable) > 0:
		status = types.StatusUnderconstrained
	}

	return types.Report{
		MethodID:       method.ID,
		Category:       method.Category,
		Label:          method.Label,
		Status:         status,
		RequiredInputs: required,
		MissingInputs:  missing,
		UnstableInputs: unstable,
		Diagnostics:    diagnostics,
		Provenance: types.EvaluationProvenance{
			EvaluatorVersion: types.EvaluatorVersion,
			ParamsVersion:    types.ParamsVersion,
			Params:           params,
			MethodSource:     method.Source,
			Channel:          bundle.Channel,
			BundleSource:     bundle.Source,
			Timestamp:        bundle.AssembledAt,
		},
	}, nil
}

func checkContract(method types.MethodRequirements, bundle types.Bundle) error {
	if method.ID == "" {
		return &ContractError{Reason: "method has no id"}
	}
	for _, f := range types.AllFamilies() {
		level, ok := method.Requires[f]
		if !ok {
			return &ContractError{MethodID: method.ID, Reason: fmt.Sprintf("no requirement level for family %s", f)}
		}
		if !level.Valid() {
			return &ContractError{MethodID: method.ID, Reason: fmt.Sprintf("unknown requirement level %q for family %s", level, f)}
		}
		in, ok := bundle.Inputs[f]
		if !ok {
			return &ContractError{MethodID: method.ID, Reason: fmt.Sprintf("bundle %s lacks family %s", bundle.Channel, f)}
		}
		if in.Family != f {
			return &ContractError{MethodID: method.ID, Reason: fmt.Sprintf("bundle %s: input keyed %s reports family %s", bundle.Channel, f, in.Family)}
		}
	}
	return nil
}
