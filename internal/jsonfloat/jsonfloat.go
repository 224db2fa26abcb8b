// Package jsonfloat carries scores that may be NaN or infinite through JSON,
// which has no encoding for them. Non-finite values travel as null.
package jsonfloat

import "math"

// Ptr returns &v, or nil when v is NaN or infinite.
func Ptr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Ptrs maps Ptr over vs. A nil slice stays nil.
func Ptrs(vs []float64) []*float64 {
	if vs == nil {
		return nil
	}
	out := make([]*float64, len(vs))
	for i, v := range vs {
		out[i] = Ptr(v)
	}
	return out
}

// Value reverses Ptr: nil decodes as NaN.
func Value(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

// Values maps Value over ps. A nil slice stays nil.
func Values(ps []*float64) []float64 {
	if ps == nil {
		return nil
	}
	out := make([]float64, len(ps))
	for i, p := range ps {
		out[i] = Value(p)
	}
	return out
}
