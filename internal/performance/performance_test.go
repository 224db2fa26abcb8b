package performance

import (
	"context"
	"testing"

	"github.com/danielpatrickdp/model-critic/internal/dataset"
	"github.com/danielpatrickdp/model-critic/internal/estimator/estimatortest"
	"github.com/danielpatrickdp/model-critic/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizePerfectBoundary(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   bool
	}{
		{"exactly threshold", []float64{0.995}, false},
		{"just above", []float64{0.996, 0.996, 0.996}, true},
		{"perfect", []float64{1, 1, 1}, true},
		{"ordinary", []float64{0.7, 0.8, 0.9}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Summarize(tt.scores, "KFold", 0.995)
			assert.Equal(t, tt.want, r.SuspiciouslyPerfect)
			if tt.want {
				assert.Equal(t, msgPerfect, r.Message)
			} else {
				assert.Equal(t, msgNormal, r.Message)
			}
		})
	}
}

func TestSummarizePopulationStd(t *testing.T) {
	r := Summarize([]float64{0.6, 0.8, 1.0}, "StratifiedKFold", 0.995)

	assert.InDelta(t, 0.8, r.CVMeanScore, 1e-12)
	assert.InDelta(t, 0.163299316, r.CVStd, 1e-9)
	assert.Equal(t, "StratifiedKFold", r.ValidationStrategy)
}

func TestEvaluateUsesSplitter(t *testing.T) {
	X := make([][]float64, 12)
	labels := make([]int, 12)
	for i := range X {
		X[i] = []float64{float64(i)}
		labels[i] = i % 2
	}
	ds, err := dataset.FromLabels(X, labels)
	require.NoError(t, err)

	model := estimatortest.New(1.0)
	splitter, problem := validation.MakeCV(ds, validation.DefaultOptions())
	opts := DefaultOptions()
	opts.Problem = problem

	r, err := Evaluate(context.Background(), model, ds, splitter, opts)
	require.NoError(t, err)

	assert.True(t, r.SuspiciouslyPerfect)
	assert.Equal(t, []float64{1, 1, 1}, r.CVScores)
	assert.Equal(t, 0.0, r.CVStd)
	assert.Equal(t, "StratifiedKFold", r.ValidationStrategy)
	assert.False(t, model.Fitted())
}

func TestEvaluateTooFewSamples(t *testing.T) {
	ds, err := dataset.FromLabels([][]float64{{1}, {2}}, []int{0, 1})
	require.NoError(t, err)

	_, err = Evaluate(context.Background(), estimatortest.New(1), ds,
		&validation.KFold{Splits: 3}, DefaultOptions())
	assert.ErrorIs(t, err, validation.ErrTooFewSamples)
}
