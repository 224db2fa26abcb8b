// Package configaudit checks a model's hyperparameters against the size of
// the dataset it will be trained on.
package configaudit

import (
	"math"

	"github.com/danielpatrickdp/model-critic/internal/estimator"
)

const (
	msgDepth = "Tree depth may be too high for dataset size."
	msgRatio = "More features than samples can cause instability."
)

// #region audit
// Audit inspects model.Params(). nSamples and nFeatures may be nil when the
// shape is unknown; zero is treated the same way. Missing hyperparameters are
// normal and never cause a failure.
func Audit(model estimator.Estimator, nSamples, nFeatures *int) Report {
	params := model.Params()
	_, usesRandomState := params["random_state"]

	report := Report{
		ModelType:          model.Name(),
		NParams:            len(params),
		UsesRandomState:    usesRandomState,
		StructuralWarnings: []StructuralWarning{},
	}

	samples := known(nSamples)
	features := known(nFeatures)

	if samples > 0 {
		if depth, ok := estimator.FloatParam(params, "max_depth"); ok {
			limit := math.Log2(float64(samples))
			if depth > limit {
				recommended := int(math.Floor(limit))
				report.StructuralWarnings = append(report.StructuralWarnings, StructuralWarning{
					Issue:               IssueStructuralOverfitting,
					MaxDepth:            &depth,
					RecommendedMaxDepth: &recommended,
					Message:             msgDepth,
				})
			}
		}
	}

	if samples > 0 && features > 0 && features > samples {
		report.StructuralWarnings = append(report.StructuralWarnings, StructuralWarning{
			Issue:     IssueHighFeatureRatio,
			NFeatures: &features,
			NSamples:  &samples,
			Message:   msgRatio,
		})
	}
	return report
}

// #endregion audit

func known(n *int) int {
	if n == nil || *n < 0 {
		return 0
	}
	return *n
}
