package configaudit

import (
	"encoding/json"
	"testing"

	"github.com/danielpatrickdp/model-critic/internal/estimator"
	"github.com/danielpatrickdp/model-critic/internal/estimator/estimatortest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(n int) *int { return &n }

func TestAuditDeepTree(t *testing.T) {
	rs := int64(0)
	model := &estimator.DecisionTree{MaxDepth: 12, RandomState: &rs}

	report := Audit(model, intp(100), intp(4))

	assert.Equal(t, "DecisionTreeClassifier", report.ModelType)
	assert.True(t, report.UsesRandomState)
	assert.Equal(t, len(model.Params()), report.NParams)
	require.Len(t, report.StructuralWarnings, 1)

	w := report.StructuralWarnings[0]
	assert.Equal(t, IssueStructuralOverfitting, w.Issue)
	assert.Equal(t, 12.0, *w.MaxDepth)
	assert.Equal(t, 6, *w.RecommendedMaxDepth)
	assert.Equal(t, msgDepth, w.Message)
}

func TestAuditDepthBoundary(t *testing.T) {
	tests := []struct {
		name     string
		depth    any
		samples  int
		wantWarn bool
	}{
		{"depth equals log2", 6, 64, false},
		{"depth above log2", 7, 64, true},
		{"depth below fractional log2", 6, 100, false},
		{"float depth from remote", 7.0, 100, true},
		{"unset depth", nil, 4, false},
		{"non-numeric depth", "deep", 4, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := estimatortest.New(0.5)
			model.Hyper = map[string]any{"max_depth": tt.depth}

			report := Audit(model, intp(tt.samples), intp(1))
			assert.Equal(t, tt.wantWarn, len(report.StructuralWarnings) == 1)
		})
	}
}

func TestAuditUnknownShape(t *testing.T) {
	model := estimatortest.New(0.5)
	model.Hyper = map[string]any{"max_depth": 50}

	report := Audit(model, nil, nil)
	assert.Empty(t, report.StructuralWarnings)
	assert.False(t, report.UsesRandomState)
	assert.Equal(t, 1, report.NParams)
}

func TestAuditHighFeatureRatio(t *testing.T) {
	report := Audit(&estimator.NearestCentroid{}, intp(10), intp(11))

	require.Len(t, report.StructuralWarnings, 1)
	w := report.StructuralWarnings[0]
	assert.Equal(t, IssueHighFeatureRatio, w.Issue)
	assert.Equal(t, 11, *w.NFeatures)
	assert.Equal(t, 10, *w.NSamples)
	assert.Nil(t, w.MaxDepth)
	assert.Equal(t, []string{msgRatio}, report.Messages())
}

func TestAuditBothWarningsInOrder(t *testing.T) {
	model := &estimator.DecisionTree{MaxDepth: 9}
	report := Audit(model, intp(8), intp(20))

	require.Len(t, report.StructuralWarnings, 2)
	assert.Equal(t, IssueStructuralOverfitting, report.StructuralWarnings[0].Issue)
	assert.Equal(t, IssueHighFeatureRatio, report.StructuralWarnings[1].Issue)
}

func TestAuditJSONOmitsUnusedFields(t *testing.T) {
	report := Audit(&estimator.NearestCentroid{}, intp(10), intp(11))
	raw, err := json.Marshal(report)
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "max_depth")
	assert.Contains(t, string(raw), `"structural_warnings":[{"issue":"high_feature_sample_ratio"`)
}
