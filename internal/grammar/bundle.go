// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package grammar

import (
	"fmt"
	"time"

	"github.com/pdiddy/applicability-engine/pkg/types"
)

// BuildFunc is the signature shared by the six family builders.
type BuildFunc func(src Source, channel string, at time.Time) (types.Input, error)

// builders is the fixed, canonical-order builder list. There is no registry.
var builders = []struct {
	family types.Family
	build  BuildFunc
}{
	{types.FamilyEvent, BuildEvents},
	{types.FamilyInterval, BuildIntervals},
	{types.FamilySymbol, BuildSymbols},
	{types.FamilyVector, BuildVectors},
	{types.FamilyMatrix, BuildMatrices},
	{types.FamilyRelation, BuildRelations},
}

// Assemble runs all six builders for channel and returns the bundle. Every
// builder runs regardless of what earlier ones found. Any builder error
// aborts assembly; no partial bundle is returned.
func Assemble(src Source, channel string, at time.Time) (types.Bundle, error) {
	if err := src.CheckChannel(channel); err != nil {
		return types.Bundle{}, err
	}
	inputs := make(map[types.Family]types.Input, len(builders))
	for _, b := range builders {
		in, err := b.build(src, channel, at)
		if err != nil {
			return types.Bundle{}, fmt.Errorf("building %s inputs for channel %s: %w", b.family.Name(), channel, err)
		}
		inputs[b.family] = in
	}
	return types.NewBundle(channel, src.Source(), at, inputs)
}

// AssembleAll assembles one bundle per channel, in the order given.
func AssembleAll(src Source, channels []string, at time.Time) ([]types.Bundle, error) {
	bundles := make([]types.Bundle, 0, len(channels))
	for _, ch := range channels {
		b, err := Assemble(src, ch, at)
		if err != nil {
			return nil, err
		}
		bundles = append(bundles, b)
	}
	return bundles, nil
}
