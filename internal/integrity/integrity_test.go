package integrity

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/danielpatrickdp/model-critic/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leakyDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	n := 40
	X := make([][]float64, n)
	labels := make([]int, n)
	for i := 0; i < n; i++ {
		labels[i] = i % 2
		// column 0 copies the label, column 1 is constant, column 2 is noise-like
		X[i] = []float64{float64(labels[i]), 7, float64((i * 7) % 11)}
	}
	ds, err := dataset.FromLabels(X, labels)
	require.NoError(t, err)
	return ds
}

func TestAnalyzeFlagsTargetCopy(t *testing.T) {
	report, corr := Analyze(leakyDataset(t), DefaultOptions())

	assert.Nil(t, corr)
	assert.Equal(t, 40, report.NSamples)
	assert.Equal(t, 3, report.NFeatures)
	assert.False(t, report.HasNaN)

	leak := report.DataLeakage
	require.True(t, leak.Suspected)
	require.Len(t, leak.Details, 1)
	assert.Equal(t, 0, leak.Details[0].FeatureIndex)
	assert.InDelta(t, 1.0, leak.Details[0].Correlation, 1e-12)
	assert.Equal(t, msgLeakage, leak.Message)
}

func TestAnalyzeSkipsZeroVarianceFeature(t *testing.T) {
	X := [][]float64{{3, 1}, {3, 2}, {3, 1}, {3, 2}, {3, 5}}
	ds, err := dataset.FromLabels(X, []int{0, 1, 0, 1, 0})
	require.NoError(t, err)

	report, _ := Analyze(ds, DefaultOptions())
	for _, f := range report.DataLeakage.Details {
		assert.NotEqual(t, 0, f.FeatureIndex)
	}
	assert.False(t, report.DataLeakage.Suspected)
	assert.Equal(t, msgNoLeakage, report.DataLeakage.Message)
	assert.NotNil(t, report.DataLeakage.Details)
}

func TestAnalyzeConstantTargetIsNotLeakage(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}}
	ds, err := dataset.FromLabels(X, []int{4, 4, 4})
	require.NoError(t, err)

	report, _ := Analyze(ds, DefaultOptions())
	assert.False(t, report.DataLeakage.Suspected)
}

func TestAnalyzeNegativeCorrelation(t *testing.T) {
	X := [][]float64{{10}, {9}, {8}, {7}, {6}}
	ds, err := dataset.New(X, []float64{1, 2, 3, 4, 5}, false)
	require.NoError(t, err)

	report, _ := Analyze(ds, DefaultOptions())
	require.True(t, report.DataLeakage.Suspected)
	assert.InDelta(t, -1.0, report.DataLeakage.Details[0].Correlation, 1e-12)
}

func TestLeakageThresholdIsStrict(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {4}}
	y := []float64{1, 2, 3, 4}
	ds, err := dataset.New(X, y, false)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.LeakageCorrelation = 1.0
	report, _ := Analyze(ds, opts)
	assert.False(t, report.DataLeakage.Suspected, "|r| == threshold must not flag")
}

func TestClassBalanceCountsSumToN(t *testing.T) {
	ds := leakyDataset(t)
	report, _ := Analyze(ds, DefaultOptions())

	cb := report.ClassBalance
	require.True(t, cb.Enumerated)
	assert.Equal(t, map[string]int{"0": 20, "1": 20}, cb.Counts)
}

func TestClassBalanceSentinel(t *testing.T) {
	tests := []struct {
		name     string
		distinct int
		wantEnum bool
	}{
		{"nineteen classes", 19, true},
		{"twenty classes", 20, false},
		{"many classes", 50, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			X := make([][]float64, tt.distinct)
			labels := make([]int, tt.distinct)
			for i := range X {
				X[i] = []float64{float64(i)}
				labels[i] = i
			}
			ds, err := dataset.FromLabels(X, labels)
			require.NoError(t, err)

			report, _ := Analyze(ds, DefaultOptions())
			assert.Equal(t, tt.wantEnum, report.ClassBalance.Enumerated)

			raw, err := json.Marshal(report.ClassBalance)
			require.NoError(t, err)
			if tt.wantEnum {
				assert.Equal(t, byte('{'), raw[0])
			} else {
				assert.JSONEq(t, `"`+TooManyClasses+`"`, string(raw))
			}
		})
	}
}

func TestHasNaNInTarget(t *testing.T) {
	ds, err := dataset.New([][]float64{{1}, {2}}, []float64{0, math.NaN()}, false)
	require.NoError(t, err)

	report, _ := Analyze(ds, DefaultOptions())
	assert.True(t, report.HasNaN)
}

func TestReportJSONRoundTripKeepsSentinel(t *testing.T) {
	in := Report{NSamples: 3, ClassBalance: ClassBalance{}, DataLeakage: Leakage{Details: []LeakageFinding{}}}
	raw, err := json.Marshal(in)
	require.NoError(t, err)

	var out Report
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.False(t, out.ClassBalance.Enumerated)
	assert.Contains(t, string(raw), `"class_balance":"too many classes to enumerate"`)
}

func TestCorrelationMatrix(t *testing.T) {
	opts := DefaultOptions()
	opts.Correlations = true
	_, corr := Analyze(leakyDataset(t), opts)

	require.NotNil(t, corr)
	assert.Equal(t, []string{"feature_0", "feature_1", "feature_2", "target"}, corr.Labels)
	require.Len(t, corr.Values, 4)
	assert.InDelta(t, 1.0, corr.Values[0][3], 1e-12)
	assert.True(t, math.IsNaN(corr.Values[1][3]), "constant column has undefined correlation")
	assert.Equal(t, corr.Values[2][0], corr.Values[0][2])
}
