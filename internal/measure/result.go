// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package measure

import "math"

// Result is one measurement method's output for one channel. The payload is
// deliberately untyped to absorb variation in the upstream format; the
// getters below do the type checking.
type Result map[string]any

// Float returns key as a float64. JSON numbers, ints and bools convert.
func (r Result) Float(key string) (float64, bool) {
	return toFloat(r[key])
}

// Int returns key truncated to an int.
func (r Result) Int(key string) (int, bool) {
	f, ok := r.Float(key)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// Floats returns key as a []float64. Non-numeric elements make ok false.
func (r Result) Floats(key string) ([]float64, bool) {
	switch v := r[key].(type) {
	case []float64:
		return append([]float64(nil), v...), true
	case []any:
		out := make([]float64, 0, len(v))
		for _, e := range v {
			f, ok := toFloat(e)
			if !ok {
				return nil, false
			}
			out = append(out, f)
		}
		return out, true
	}
	return nil, false
}

// Matrix returns key as a rectangular [][]float64.
func (r Result) Matrix(key string) ([][]float64, bool) {
	rows, ok := r[key].([]any)
	if !ok {
		return nil, false
	}
	out := make([][]float64, 0, len(rows))
	width := -1
	for _, row := range rows {
		cells, ok := row.([]any)
		if !ok {
			return nil, false
		}
		if width >= 0 && len(cells) != width {
			return nil, false
		}
		width = len(cells)
		vals := make([]float64, 0, len(cells))
		for _, c := range cells {
			f, ok := toFloat(c)
			if !ok {
				return nil, false
			}
			vals = append(vals, f)
		}
		out = append(out, vals)
	}
	return out, true
}

// String returns key as a string.
func (r Result) String(key string) (string, bool) {
	s, ok := r[key].(string)
	return s, ok
}

// Map returns key as a nested object.
func (r Result) Map(key string) (map[string]any, bool) {
	m, ok := r[key].(map[string]any)
	return m, ok
}

// Len returns the number of top-level keys.
func (r Result) Len() int { return len(r) }

func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case bool:
		if n {
			f = 1
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
