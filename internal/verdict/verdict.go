// Package verdict turns detector signals into human summaries and a coarse
// numeric score.
package verdict

import (
	"github.com/danielpatrickdp/model-critic/internal/configaudit"
	"github.com/danielpatrickdp/model-critic/internal/integrity"
	"github.com/danielpatrickdp/model-critic/internal/performance"
	"github.com/danielpatrickdp/model-critic/internal/robustness"
)

// FromReports extracts the signals from the four detector reports.
func FromReports(data integrity.Report, cfg configaudit.Report, perf performance.Report, rob robustness.Report) Signals {
	return Signals{
		Leakage:            data.DataLeakage.Suspected,
		PerfectCV:          perf.SuspiciouslyPerfect,
		Robustness:         rob.Verdict,
		StructuralWarnings: cfg.Messages(),
	}
}

// #region summarize
const (
	reasonUnreliable = "Strong evidence of data leakage inflating model performance."
	reasonRisky      = "Structural or robustness-related risks detected."
	reasonAcceptable = "No critical risks detected."

	explainUnreliable = "Although validation accuracy is extremely high, multiple signals indicate that the model does not generalize reliably."
	explainDefault    = "The model shows acceptable behavior under current evaluation heuristics."

	noRisks = "No significant risks detected."
)

// Summarize builds the executive and technical narratives.
func Summarize(s Signals) Summary {
	return Summary{
		Executive: executive(s),
		Technical: technical(s),
	}
}

func executive(s Signals) Executive {
	switch {
	case s.Leakage && s.PerfectCV:
		return Executive{
			Verdict:            Unreliable,
			RiskLevel:          RiskHigh,
			DeployRecommended:  false,
			MainReason:         reasonUnreliable,
			OneLineExplanation: explainUnreliable,
		}
	case s.Unstable() || s.Structural():
		return Executive{
			Verdict:            Risky,
			RiskLevel:          RiskMedium,
			DeployRecommended:  false,
			MainReason:         reasonRisky,
			OneLineExplanation: explainDefault,
		}
	default:
		return Executive{
			Verdict:            Acceptable,
			RiskLevel:          RiskLow,
			DeployRecommended:  true,
			MainReason:         reasonAcceptable,
			OneLineExplanation: explainDefault,
		}
	}
}

func technical(s Signals) Technical {
	risks := []string{}
	recs := []string{}

	if s.Leakage {
		risks = append(risks, "Data leakage suspected due to near-perfect feature-target correlation.")
		recs = append(recs, "Audit and remove features highly correlated with the target.")
	}
	if s.PerfectCV {
		risks = append(risks, "Perfect cross-validation score detected (statistically unlikely).")
		recs = append(recs, "Re-run validation after leakage mitigation.")
	}
	for _, w := range s.StructuralWarnings {
		risks = append(risks, w)
		recs = append(recs, "Reduce model complexity or adjust hyperparameters.")
	}
	switch s.Robustness {
	case robustness.Misleading:
		risks = append(risks, "Robustness metrics are misleading due to inflated baseline performance.")
		recs = append(recs, "Fix baseline performance issues before trusting robustness metrics.")
	case robustness.Fragile:
		risks = append(risks, "Model is fragile under noise perturbations.")
		recs = append(recs, "Consider regularization or simpler model architecture.")
	}

	if len(risks) == 0 {
		risks = []string{noRisks}
	}
	return Technical{
		KeyRisks: risks,
		ModelHealth: ModelHealth{
			DataLeakage:       s.Leakage,
			SuspiciousCV:      s.PerfectCV,
			StructuralRisk:    s.Structural(),
			RobustnessVerdict: s.Robustness,
		},
		Recommendations: recs,
	}
}

// #endregion summarize

// #region score
// Score starts at 100 and subtracts a fixed penalty per positive signal.
// The leakage and robustness penalties are independent.
func Score(s Signals) Scores {
	score := 100
	if s.Leakage {
		score -= 30
	}
	if s.PerfectCV {
		score -= 20
	}
	switch s.Robustness {
	case robustness.Fragile:
		score -= 15
	case robustness.Misleading:
		score -= 25
	}
	if s.Structural() {
		score -= 10
	}

	return Scores{
		Global: clamp(score, 0, 100),
		Components: map[string]int{
			ComponentDataIntegrity: pick(s.Leakage, 0, 100),
			ComponentValidation:    pick(s.PerfectCV, 70, 100),
			ComponentRobustness:    robustnessComponent(s.Robustness),
		},
	}
}

func robustnessComponent(v robustness.Verdict) int {
	switch v {
	case robustness.Fragile:
		return 65
	case robustness.Misleading:
		return 40
	default:
		return 100
	}
}

func pick(cond bool, yes, no int) int {
	if cond {
		return yes
	}
	return no
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

// #endregion score
