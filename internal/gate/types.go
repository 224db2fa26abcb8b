package gate

import "github.com/danielpatrickdp/model-critic/internal/verdict"

// #region blocker-type
// BlockerType enumerates blocking-issue categories.
type BlockerType string

const (
	BlockLeakageWithPerfectCV BlockerType = "leakage_with_perfect_cv"
	BlockMisleadingRobustness BlockerType = "misleading_robustness"
	BlockLeakage              BlockerType = "data_leakage"
	BlockFragile              BlockerType = "fragile_robustness"
	BlockPerfectCV            BlockerType = "perfect_cv"
	BlockStructural           BlockerType = "structural_warnings"
)

// #endregion blocker-type

// #region blocker
// Blocker is one detected reason not to deploy. Hard blockers force high
// risk; soft blockers are only considered when no hard blocker fired.
type Blocker struct {
	Type   BlockerType `json:"type"`
	Hard   bool        `json:"hard"`
	Reason string      `json:"reason"`
}

// #endregion blocker

// #region gate-config
// Config holds the confidence penalties, each applied independently.
type Config struct {
	LeakagePenalty    float64 `yaml:"leakage_penalty" json:"leakage_penalty"`
	PerfectCVPenalty  float64 `yaml:"perfect_cv_penalty" json:"perfect_cv_penalty"`
	RobustnessPenalty float64 `yaml:"robustness_penalty" json:"robustness_penalty"` // fragile or misleading
	StructuralPenalty float64 `yaml:"structural_penalty" json:"structural_penalty"`
}

// DefaultConfig returns the stock penalties.
func DefaultConfig() Config {
	return Config{
		LeakagePenalty:    0.35,
		PerfectCVPenalty:  0.25,
		RobustnessPenalty: 0.25,
		StructuralPenalty: 0.15,
	}
}

// #endregion gate-config

// #region gate-decision
// Decision is the deploy gate's output. Deploy is true iff BlockingIssues
// is empty.
type Decision struct {
	RiskLevel      verdict.RiskLevel `json:"risk_level"`
	Deploy         bool              `json:"deploy"`
	BlockingIssues []string          `json:"blocking_issues"`
	Confidence     float64           `json:"confidence"`
	Blockers       []Blocker         `json:"-"`
}

// #endregion gate-decision
