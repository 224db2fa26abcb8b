// Package replay re-runs recorded detector signals through the verdict and
// the deploy gate, so threshold or penalty changes can be checked against
// known outcomes without re-training any model.
package replay

import (
	"math"

	"github.com/danielpatrickdp/model-critic/internal/gate"
	"github.com/danielpatrickdp/model-critic/internal/verdict"
)

// #region types
// Case is one recorded set of signals.
type Case struct {
	CaseID  string
	Signals verdict.Signals
}

// ReplayConfig holds the gate penalties used for a replay run.
type ReplayConfig struct {
	GateConfig gate.Config
}

// DefaultReplayConfig returns the stock gate penalties.
func DefaultReplayConfig() ReplayConfig {
	return ReplayConfig{GateConfig: gate.DefaultConfig()}
}

// ReplayResult captures the outcome of replaying one case.
type ReplayResult struct {
	CaseID   string
	Summary  verdict.Summary
	Scores   verdict.Scores
	Decision gate.Decision
}

// Expected is the reference outcome of a case. Zero-valued fields are not
// checked.
type Expected struct {
	Verdict    string             `json:"verdict,omitempty"`
	RiskLevel  verdict.RiskLevel  `json:"risk_level,omitempty"`
	Deploy     *bool              `json:"deploy,omitempty"`
	Score      *int               `json:"score,omitempty"`
	Confidence *float64           `json:"confidence,omitempty"`
	Blockers   []gate.BlockerType `json:"blockers,omitempty"`
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalCases int
	Deployable int
	Blocked    int
	ByRisk     map[verdict.RiskLevel]int
}

// #endregion types

// #region replay
// Replay evaluates every case in order. It is pure and deterministic.
func Replay(cases []Case, config ReplayConfig) []ReplayResult {
	g := gate.NewGate(config.GateConfig)
	results := make([]ReplayResult, 0, len(cases))
	for _, c := range cases {
		results = append(results, ReplayResult{
			CaseID:   c.CaseID,
			Summary:  verdict.Summarize(c.Signals),
			Scores:   verdict.Score(c.Signals),
			Decision: g.Evaluate(c.Signals),
		})
	}
	return results
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult) ReplaySummary {
	s := ReplaySummary{
		TotalCases: len(results),
		ByRisk:     map[verdict.RiskLevel]int{},
	}
	for _, r := range results {
		if r.Decision.Deploy {
			s.Deployable++
		} else {
			s.Blocked++
		}
		s.ByRisk[r.Decision.RiskLevel]++
	}
	return s
}

// Check lists how r differs from e. An empty result means a match.
func Check(r ReplayResult, e Expected) []string {
	var diffs []string
	if e.Verdict != "" && r.Summary.Executive.Verdict != e.Verdict {
		diffs = append(diffs, "verdict "+r.Summary.Executive.Verdict+" != "+e.Verdict)
	}
	if e.RiskLevel != "" && r.Decision.RiskLevel != e.RiskLevel {
		diffs = append(diffs, "risk "+string(r.Decision.RiskLevel)+" != "+string(e.RiskLevel))
	}
	if e.Deploy != nil && r.Decision.Deploy != *e.Deploy {
		diffs = append(diffs, "deploy mismatch")
	}
	if e.Score != nil && r.Scores.Global != *e.Score {
		diffs = append(diffs, "score mismatch")
	}
	if e.Confidence != nil && math.Abs(r.Decision.Confidence-*e.Confidence) > 1e-9 {
		diffs = append(diffs, "confidence mismatch")
	}
	if e.Blockers != nil && !sameBlockers(r.Decision.Blockers, e.Blockers) {
		diffs = append(diffs, "blockers mismatch")
	}
	return diffs
}

func sameBlockers(got []gate.Blocker, want []gate.BlockerType) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i].Type != want[i] {
			return false
		}
	}
	return true
}

// #endregion replay
