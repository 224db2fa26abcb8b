package configaudit

// Warning issue tags.
const (
	IssueStructuralOverfitting = "structural_overfitting_risk"
	IssueHighFeatureRatio      = "high_feature_sample_ratio"
)

// #region report
// Report is the configuration section of a review.
type Report struct {
	ModelType          string              `json:"model_type"`
	NParams            int                 `json:"n_params"`
	UsesRandomState    bool                `json:"uses_random_state"`
	StructuralWarnings []StructuralWarning `json:"structural_warnings"`
}

// StructuralWarning flags a hyperparameter choice that is risky for the
// dataset's size.
type StructuralWarning struct {
	Issue               string   `json:"issue"`
	MaxDepth            *float64 `json:"max_depth,omitempty"`
	RecommendedMaxDepth *int     `json:"recommended_max_depth,omitempty"`
	NFeatures           *int     `json:"n_features,omitempty"`
	NSamples            *int     `json:"n_samples,omitempty"`
	Message             string   `json:"message"`
}

// Messages returns each warning's message in order.
func (r Report) Messages() []string {
	out := make([]string, 0, len(r.StructuralWarnings))
	for _, w := range r.StructuralWarnings {
		out = append(out, w.Message)
	}
	return out
}

// #endregion report
