package verdict

import "github.com/danielpatrickdp/model-critic/internal/robustness"

// RiskLevel grades a review.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Executive verdict labels.
const (
	Unreliable = "Unreliable"
	Risky      = "Risky"
	Acceptable = "Acceptable"
)

// #region signals
// Signals are the detector outputs the verdict and the deploy gate decide on.
type Signals struct {
	Leakage            bool               `json:"leakage"`
	PerfectCV          bool               `json:"perfect_cv"`
	Robustness         robustness.Verdict `json:"robustness"`
	StructuralWarnings []string           `json:"structural_warnings,omitempty"`
}

// Structural reports whether any structural warning fired.
func (s Signals) Structural() bool { return len(s.StructuralWarnings) > 0 }

// Unstable reports a fragile or misleading robustness verdict.
func (s Signals) Unstable() bool {
	return s.Robustness == robustness.Fragile || s.Robustness == robustness.Misleading
}

// #endregion signals

// #region summary
// Executive is the one-glance verdict.
type Executive struct {
	Verdict            string    `json:"verdict"`
	RiskLevel          RiskLevel `json:"risk_level"`
	DeployRecommended  bool      `json:"deploy_recommended"`
	MainReason         string    `json:"main_reason"`
	OneLineExplanation string    `json:"one_line_explanation"`
}

// ModelHealth restates the raw signals for the technical summary.
type ModelHealth struct {
	DataLeakage       bool               `json:"data_leakage"`
	SuspiciousCV      bool               `json:"suspicious_cv"`
	StructuralRisk    bool               `json:"structural_risk"`
	RobustnessVerdict robustness.Verdict `json:"robustness_verdict"`
}

// Technical lists each risk with a matching recommendation.
type Technical struct {
	KeyRisks        []string    `json:"key_risks"`
	ModelHealth     ModelHealth `json:"model_health"`
	Recommendations []string    `json:"recommendations"`
}

// Summary pairs both narratives.
type Summary struct {
	Executive Executive `json:"executive"`
	Technical Technical `json:"technical"`
}

// #endregion summary

// #region scores
// Component score keys.
const (
	ComponentDataIntegrity = "data_integrity"
	ComponentValidation    = "validation"
	ComponentRobustness    = "robustness"
)

// Scores is a coarse 0-100 breakdown. It is not an objective metric.
type Scores struct {
	Global     int            `json:"global"`
	Components map[string]int `json:"components"`
}

// #endregion scores
