// Package validation selects the cross-validation strategy for a target and
// runs cross-validation over independent model clones.
package validation

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/danielpatrickdp/model-critic/internal/dataset"
	"github.com/danielpatrickdp/model-critic/internal/thresholds"
)

// #region infer
// InferProblemType reports classification when the target is integer-typed or
// has at most maxDistinct distinct values, regression otherwise.
func InferProblemType(ds *dataset.Dataset, maxDistinct int) ProblemType {
	if ds.IntegerTarget || len(ds.DistinctTargets()) <= maxDistinct {
		return Classification
	}
	return Regression
}

// #endregion infer

// #region make-cv
// Splitter partitions a dataset into folds.
type Splitter interface {
	Name() string
	NSplits() int
	Split(ds *dataset.Dataset) ([]Fold, error)
}

// FromThresholds derives selection options from the shared thresholds.
func FromThresholds(t thresholds.Thresholds) Options {
	return Options{
		NSplits:     t.CVSplits,
		RandomState: t.CVRandomState,
		MaxDistinct: t.ClassificationMaxDistinct,
	}
}

// MakeCV picks a stratified splitter for classification and a plain shuffled
// splitter for regression. The same target always yields the same splitter.
func MakeCV(ds *dataset.Dataset, opts Options) (Splitter, ProblemType) {
	problem := InferProblemType(ds, opts.MaxDistinct)
	if problem == Classification {
		return &StratifiedKFold{Splits: opts.NSplits, Shuffle: true, RandomState: opts.RandomState}, problem
	}
	return &KFold{Splits: opts.NSplits, Shuffle: true, RandomState: opts.RandomState}, problem
}

// #endregion make-cv

// #region kfold
// KFold splits rows into contiguous chunks of a (optionally shuffled) permutation.
type KFold struct {
	Splits      int
	Shuffle     bool
	RandomState int64
}

func (k *KFold) Name() string { return "KFold" }

func (k *KFold) NSplits() int { return k.Splits }

func (k *KFold) Split(ds *dataset.Dataset) ([]Fold, error) {
	n := ds.NSamples()
	if n < k.Splits || k.Splits < 2 {
		return nil, fmt.Errorf("%w: %d samples, %d folds", ErrTooFewSamples, n, k.Splits)
	}

	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	if k.Shuffle {
		rng := newRand(k.RandomState)
		rng.Shuffle(n, func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })
	}

	assign := make([]int, n)
	start := 0
	for f := 0; f < k.Splits; f++ {
		size := n / k.Splits
		if f < n%k.Splits {
			size++
		}
		for _, i := range perm[start : start+size] {
			assign[i] = f
		}
		start += size
	}
	return foldsFromAssignment(assign, k.Splits), nil
}

// #endregion kfold

// #region stratified
// StratifiedKFold deals each class's rows round-robin across folds so every
// fold keeps roughly the overall class proportions.
type StratifiedKFold struct {
	Splits      int
	Shuffle     bool
	RandomState int64
}

func (s *StratifiedKFold) Name() string { return "StratifiedKFold" }

func (s *StratifiedKFold) NSplits() int { return s.Splits }

func (s *StratifiedKFold) Split(ds *dataset.Dataset) ([]Fold, error) {
	n := ds.NSamples()
	if n < s.Splits || s.Splits < 2 {
		return nil, fmt.Errorf("%w: %d samples, %d folds", ErrTooFewSamples, n, s.Splits)
	}

	// NaN never equals itself as a map key, so missing labels form their
	// own stratum, dealt last.
	byClass := map[float64][]int{}
	var missing []int
	for i, v := range ds.Target {
		if math.IsNaN(v) {
			missing = append(missing, i)
			continue
		}
		byClass[v] = append(byClass[v], i)
	}
	classes := make([]float64, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Float64s(classes)
	strata := make([][]int, 0, len(classes)+1)
	for _, c := range classes {
		strata = append(strata, byClass[c])
	}
	if len(missing) > 0 {
		strata = append(strata, missing)
	}

	rng := newRand(s.RandomState)
	assign := make([]int, n)
	next := 0
	for _, members := range strata {
		if s.Shuffle {
			rng.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })
		}
		for _, i := range members {
			assign[i] = next % s.Splits
			next++
		}
	}
	return foldsFromAssignment(assign, s.Splits), nil
}

// #endregion stratified

// #region helpers
func foldsFromAssignment(assign []int, k int) []Fold {
	folds := make([]Fold, k)
	for i, f := range assign {
		for g := range folds {
			if g == f {
				folds[g].Test = append(folds[g].Test, i)
			} else {
				folds[g].Train = append(folds[g].Train, i)
			}
		}
	}
	return folds
}

func newRand(seed int64) *rand.Rand {
	s := uint64(seed)
	return rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))
}

// #endregion helpers
