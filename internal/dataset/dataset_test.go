package dataset

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsShapeMismatch(t *testing.T) {
	_, err := New([][]float64{{1}, {2}}, []float64{1}, false)
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestNewRejectsEmpty(t *testing.T) {
	_, err := New(nil, nil, false)
	require.ErrorIs(t, err, ErrEmpty)

	_, err = New([][]float64{{}}, []float64{1}, false)
	require.ErrorIs(t, err, ErrEmpty)
}

func TestNewRejectsRaggedRows(t *testing.T) {
	_, err := New([][]float64{{1, 2}, {3}}, []float64{0, 1}, false)
	require.ErrorIs(t, err, ErrRagged)
}

func TestHasNaN(t *testing.T) {
	ds, err := New([][]float64{{1, 2}, {3, 4}}, []float64{0, 1}, true)
	require.NoError(t, err)
	assert.False(t, ds.HasNaN())

	ds.Target[1] = math.NaN()
	assert.True(t, ds.HasNaN())

	ds.Target[1] = 1
	ds.Features[0][1] = math.NaN()
	assert.True(t, ds.HasNaN())
}

func TestDistinctTargetsSorted(t *testing.T) {
	ds, err := FromLabels([][]float64{{1}, {2}, {3}, {4}}, []int{2, 0, 2, 1})
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 1, 2}, ds.DistinctTargets())
	assert.True(t, ds.IntegerTarget)
}

func TestSubsetSharesRows(t *testing.T) {
	ds, err := FromLabels([][]float64{{1}, {2}, {3}}, []int{0, 1, 0})
	require.NoError(t, err)

	sub := ds.Subset([]int{2, 0})
	assert.Equal(t, [][]float64{{3}, {1}}, sub.Features)
	assert.Equal(t, []float64{0, 0}, sub.Target)
	assert.True(t, sub.IntegerTarget)
}

func TestPearson(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	assert.InDelta(t, 1.0, Pearson(x, []float64{2, 4, 6, 8, 10}), 1e-12)
	assert.InDelta(t, -1.0, Pearson(x, []float64{5, 4, 3, 2, 1}), 1e-12)
	assert.True(t, math.IsNaN(Pearson(x, []float64{3, 3, 3, 3, 3})), "zero variance is undefined")
	assert.True(t, math.IsNaN(Pearson(x, []float64{1})))
}

func TestStdIsPopulation(t *testing.T) {
	assert.InDelta(t, 2.0, Std([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-12)
	assert.InDelta(t, 2.0, MatrixStd([][]float64{{2, 4, 4, 4}, {5, 5, 7, 9}}), 1e-12)
}

func TestReadCSVLastColumnTarget(t *testing.T) {
	in := "a,b,label\n1.5,2,0\n3,4.25,1\n5,6,1\n"

	ds, err := ReadCSV(strings.NewReader(in), "")
	require.NoError(t, err)

	assert.Equal(t, 3, ds.NSamples())
	assert.Equal(t, 2, ds.NFeatures())
	assert.Equal(t, []string{"a", "b"}, ds.FeatureNames)
	assert.Equal(t, "label", ds.TargetName)
	assert.True(t, ds.IntegerTarget)
	assert.Equal(t, []float64{0, 1, 1}, ds.Target)
}

func TestReadCSVNamedFloatTarget(t *testing.T) {
	in := "price,x\n1.5,2\n2.5,4\n"

	ds, err := ReadCSV(strings.NewReader(in), "price")
	require.NoError(t, err)

	assert.False(t, ds.IntegerTarget)
	assert.Equal(t, []float64{1.5, 2.5}, ds.Target)
	assert.Equal(t, [][]float64{{2}, {4}}, ds.Features)
}

func TestReadCSVMissingCellsAreNaN(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader("a,y\n,1\nnan,0\n"), "")
	require.NoError(t, err)
	assert.True(t, ds.HasNaN())
}

func TestReadCSVUnknownTarget(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,y\n1,1\n"), "missing")
	require.Error(t, err)
}
