package dataset

import (
	"fmt"
	"math"
	"sort"
)

// #region constructor
// New validates shape and returns a dataset. Rows are not copied.
func New(features [][]float64, target []float64, integerTarget bool) (*Dataset, error) {
	ds := &Dataset{
		Features:      features,
		Target:        target,
		IntegerTarget: integerTarget,
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

// FromLabels builds a dataset from integer class labels.
func FromLabels(features [][]float64, labels []int) (*Dataset, error) {
	target := make([]float64, len(labels))
	for i, l := range labels {
		target[i] = float64(l)
	}
	return New(features, target, true)
}

// #endregion constructor

// #region validate
// Validate checks N >= 1, F >= 1, rectangular rows and matching target length.
func (d *Dataset) Validate() error {
	if len(d.Features) == 0 || len(d.Features[0]) == 0 {
		return ErrEmpty
	}
	if len(d.Features) != len(d.Target) {
		return fmt.Errorf("%w: %d rows, %d targets", ErrShapeMismatch, len(d.Features), len(d.Target))
	}
	f := len(d.Features[0])
	for i, row := range d.Features {
		if len(row) != f {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrRagged, i, len(row), f)
		}
	}
	return nil
}

// #endregion validate

// #region accessors
// NSamples returns the number of rows.
func (d *Dataset) NSamples() int { return len(d.Features) }

// NFeatures returns the number of columns.
func (d *Dataset) NFeatures() int {
	if len(d.Features) == 0 {
		return 0
	}
	return len(d.Features[0])
}

// Column returns a copy of feature column j.
func (d *Dataset) Column(j int) []float64 {
	col := make([]float64, len(d.Features))
	for i, row := range d.Features {
		col[i] = row[j]
	}
	return col
}

// HasNaN reports whether any feature or target value is NaN.
func (d *Dataset) HasNaN() bool {
	for _, row := range d.Features {
		for _, v := range row {
			if math.IsNaN(v) {
				return true
			}
		}
	}
	for _, v := range d.Target {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

// DistinctTargets returns the sorted distinct target values.
func (d *Dataset) DistinctTargets() []float64 {
	seen := make(map[float64]struct{}, len(d.Target))
	var out []float64
	for _, v := range d.Target {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Float64s(out)
	return out
}

// #endregion accessors

// #region subset
// Subset returns a dataset view over the given row indices. Rows are shared,
// not copied; callers must not mutate them.
func (d *Dataset) Subset(idx []int) *Dataset {
	sub := &Dataset{
		Features:      make([][]float64, len(idx)),
		Target:        make([]float64, len(idx)),
		IntegerTarget: d.IntegerTarget,
		FeatureNames:  d.FeatureNames,
		TargetName:    d.TargetName,
	}
	for k, i := range idx {
		sub.Features[k] = d.Features[i]
		sub.Target[k] = d.Target[i]
	}
	return sub
}

// WithFeatures returns a shallow copy of d carrying a different feature matrix.
func (d *Dataset) WithFeatures(features [][]float64) *Dataset {
	cp := *d
	cp.Features = features
	return &cp
}

// #endregion subset
