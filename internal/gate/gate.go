// Package gate makes the binary deploy decision. Its cascade is stricter than
// the executive verdict: any blocking issue, hard or soft, blocks deploy.
package gate

import (
	"math"

	"github.com/danielpatrickdp/model-critic/internal/robustness"
	"github.com/danielpatrickdp/model-critic/internal/verdict"
)

// #region gate
// Gate evaluates detector signals into a deploy decision.
type Gate struct {
	config Config
}

// NewGate creates a gate with the given configuration.
func NewGate(config Config) *Gate {
	return &Gate{config: config}
}

// Evaluate checks hard blockers first, then soft blockers if none fired.
func (g *Gate) Evaluate(s verdict.Signals) Decision {
	var blockers []Blocker

	// --- Hard blocker pass ---

	// 1. Leakage inflating a perfect CV score
	if s.Leakage && s.PerfectCV {
		blockers = append(blockers, Blocker{
			Type:   BlockLeakageWithPerfectCV,
			Hard:   true,
			Reason: "Data leakage combined with a perfect CV score: reported performance is not trustworthy.",
		})
	}

	// 2. Robustness baseline inflated
	if s.Robustness == robustness.Misleading {
		blockers = append(blockers, Blocker{
			Type:   BlockMisleadingRobustness,
			Hard:   true,
			Reason: "Robustness results are misleading because the baseline score is inflated.",
		})
	}

	// 3. Leakage alone
	if s.Leakage {
		blockers = append(blockers, Blocker{
			Type:   BlockLeakage,
			Hard:   true,
			Reason: "Features highly correlated with the target suggest data leakage.",
		})
	}

	risk := verdict.RiskLow
	if len(blockers) > 0 {
		risk = verdict.RiskHigh
	} else {
		// --- Soft blocker pass ---
		if s.Robustness == robustness.Fragile {
			blockers = append(blockers, Blocker{
				Type:   BlockFragile,
				Reason: "Model performance degrades significantly under input noise.",
			})
		}
		if s.PerfectCV {
			blockers = append(blockers, Blocker{
				Type:   BlockPerfectCV,
				Reason: "Cross-validation score is suspiciously perfect.",
			})
		}
		if s.Structural() {
			blockers = append(blockers, Blocker{
				Type:   BlockStructural,
				Reason: "Model configuration carries structural warnings.",
			})
		}
		if len(blockers) > 0 {
			risk = verdict.RiskMedium
		}
	}

	issues := make([]string, 0, len(blockers))
	for _, b := range blockers {
		issues = append(issues, b.Reason)
	}

	return Decision{
		RiskLevel:      risk,
		Deploy:         len(blockers) == 0,
		BlockingIssues: issues,
		Confidence:     g.confidence(s),
		Blockers:       blockers,
	}
}

// #endregion gate

// #region helpers
// confidence subtracts each applicable penalty from 1, clamps at 0 and
// rounds to two decimals.
func (g *Gate) confidence(s verdict.Signals) float64 {
	c := 1.0
	if s.Leakage {
		c -= g.config.LeakagePenalty
	}
	if s.PerfectCV {
		c -= g.config.PerfectCVPenalty
	}
	if s.Unstable() {
		c -= g.config.RobustnessPenalty
	}
	if s.Structural() {
		c -= g.config.StructuralPenalty
	}
	return round2(math.Max(0, c))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// #endregion helpers
