package validation

import (
	"context"
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/danielpatrickdp/model-critic/internal/dataset"
	"github.com/danielpatrickdp/model-critic/internal/estimator"
	"github.com/danielpatrickdp/model-critic/internal/estimator/estimatortest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rows(n int) [][]float64 {
	X := make([][]float64, n)
	for i := range X {
		X[i] = []float64{float64(i)}
	}
	return X
}

func floatTarget(n int) []float64 {
	y := make([]float64, n)
	for i := range y {
		y[i] = float64(i) * 0.37
	}
	return y
}

func TestInferProblemType(t *testing.T) {
	tests := []struct {
		name    string
		target  []float64
		integer bool
		want    ProblemType
	}{
		{"integer typed with many values", floatTarget(50), true, Classification},
		{"twenty distinct floats", floatTarget(20), false, Classification},
		{"twenty one distinct floats", floatTarget(21), false, Regression},
		{"binary floats", []float64{0.5, 1.5, 0.5, 1.5}, false, Classification},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := dataset.New(rows(len(tt.target)), tt.target, tt.integer)
			require.NoError(t, err)
			assert.Equal(t, tt.want, InferProblemType(ds, 20))
		})
	}
}

func TestMakeCVIsDeterministic(t *testing.T) {
	ds, err := dataset.New(rows(30), floatTarget(30), false)
	require.NoError(t, err)

	s1, p1 := MakeCV(ds, DefaultOptions())
	s2, p2 := MakeCV(ds, DefaultOptions())
	assert.Equal(t, Regression, p1)
	assert.Equal(t, p1, p2)
	assert.Equal(t, "KFold", s1.Name())

	f1, err := s1.Split(ds)
	require.NoError(t, err)
	f2, err := s2.Split(ds)
	require.NoError(t, err)
	assert.Equal(t, f1, f2)
}

func TestMakeCVStratifiedForLabels(t *testing.T) {
	ds, err := dataset.FromLabels(rows(6), []int{0, 1, 0, 1, 0, 1})
	require.NoError(t, err)

	s, p := MakeCV(ds, DefaultOptions())
	assert.Equal(t, Classification, p)
	assert.Equal(t, "StratifiedKFold", s.Name())
	assert.Equal(t, 3, s.NSplits())
}

func TestKFoldPartitionsRows(t *testing.T) {
	ds, err := dataset.New(rows(10), floatTarget(10), false)
	require.NoError(t, err)

	folds, err := (&KFold{Splits: 3, Shuffle: true, RandomState: 42}).Split(ds)
	require.NoError(t, err)
	require.Len(t, folds, 3)

	var all []int
	sizes := []int{}
	for _, f := range folds {
		assert.Len(t, f.Train, 10-len(f.Test))
		all = append(all, f.Test...)
		sizes = append(sizes, len(f.Test))
	}
	sort.Ints(all)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, all)
	assert.ElementsMatch(t, []int{4, 3, 3}, sizes)
}

func TestStratifiedKeepsProportions(t *testing.T) {
	labels := make([]int, 90)
	for i := range labels {
		if i < 60 {
			labels[i] = 0
		} else {
			labels[i] = 1
		}
	}
	ds, err := dataset.FromLabels(rows(90), labels)
	require.NoError(t, err)

	folds, err := (&StratifiedKFold{Splits: 3, Shuffle: true, RandomState: 42}).Split(ds)
	require.NoError(t, err)

	for _, f := range folds {
		var ones int
		for _, i := range f.Test {
			if ds.Target[i] == 1 {
				ones++
			}
		}
		assert.Len(t, f.Test, 30)
		assert.Equal(t, 10, ones)
	}
}

func TestStratifiedSpreadsMissingLabels(t *testing.T) {
	target := make([]float64, 12)
	for i := range target {
		if i < 6 {
			target[i] = math.NaN()
		} else {
			target[i] = float64(i % 2)
		}
	}
	ds, err := dataset.New(rows(12), target, false)
	require.NoError(t, err)

	folds, err := (&StratifiedKFold{Splits: 3, Shuffle: true, RandomState: 42}).Split(ds)
	require.NoError(t, err)

	for _, f := range folds {
		var missing int
		for _, i := range f.Test {
			if math.IsNaN(ds.Target[i]) {
				missing++
			}
		}
		assert.Len(t, f.Test, 4)
		assert.Equal(t, 2, missing)
	}
}

func TestSplitTooFewSamples(t *testing.T) {
	ds, err := dataset.FromLabels(rows(2), []int{0, 1})
	require.NoError(t, err)

	_, err = (&StratifiedKFold{Splits: 3}).Split(ds)
	assert.ErrorIs(t, err, ErrTooFewSamples)
	_, err = (&KFold{Splits: 3}).Split(ds)
	assert.ErrorIs(t, err, ErrTooFewSamples)
}

func TestCrossValidateUsesClones(t *testing.T) {
	ds, err := dataset.FromLabels(rows(9), []int{0, 1, 2, 0, 1, 2, 0, 1, 2})
	require.NoError(t, err)
	model := estimatortest.New(0.8)

	scores, err := CrossValidate(context.Background(), model, ds, &KFold{Splits: 3}, Classification)
	require.NoError(t, err)

	assert.Equal(t, []float64{0.8, 0.8, 0.8}, scores)
	assert.False(t, model.Fitted(), "original model must stay untrained")
	assert.Equal(t, int64(3), model.Fits())
	assert.Zero(t, model.Live(), "fold clones are released after scoring")
}

func TestLearningCurveReleasesClones(t *testing.T) {
	ds, err := dataset.FromLabels(rows(30), make([]int, 30))
	require.NoError(t, err)
	model := estimatortest.New(0.5)

	_, err = LearningCurve(context.Background(), model, ds, &KFold{Splits: 3}, Classification, DefaultCurveFractions)
	require.NoError(t, err)
	assert.Equal(t, int64(15), model.Fits())
	assert.Zero(t, model.Live())
}

func TestCrossValidatePropagatesFitErrors(t *testing.T) {
	ds, err := dataset.FromLabels(rows(6), []int{0, 1, 0, 1, 0, 1})
	require.NoError(t, err)
	model := estimatortest.New(1)
	model.FitErr = errors.New("boom")

	_, err = CrossValidate(context.Background(), model, ds, &KFold{Splits: 3}, Classification)
	assert.ErrorContains(t, err, "boom")
}

func TestCrossValidateDefaultMetrics(t *testing.T) {
	X := [][]float64{{0}, {1}, {2}, {10}, {11}, {12}}
	ds, err := dataset.FromLabels(X, []int{0, 0, 0, 1, 1, 1})
	require.NoError(t, err)

	scores, err := CrossValidate(context.Background(), &estimator.NearestCentroid{}, ds,
		&StratifiedKFold{Splits: 3, Shuffle: true, RandomState: 1}, Classification)
	require.NoError(t, err)
	for _, s := range scores {
		assert.Equal(t, 1.0, s)
	}
}

func TestLearningCurve(t *testing.T) {
	ds, err := dataset.FromLabels(rows(30), make([]int, 30))
	require.NoError(t, err)

	points, err := LearningCurve(context.Background(), &estimator.Majority{}, ds,
		&KFold{Splits: 3, Shuffle: true, RandomState: 42}, Classification, DefaultCurveFractions)
	require.NoError(t, err)

	require.Len(t, points, 5)
	assert.Equal(t, 2, points[0].TrainSize)
	assert.Equal(t, 20, points[4].TrainSize)
	for _, p := range points {
		assert.Equal(t, 1.0, p.ValidationScore)
	}
}
