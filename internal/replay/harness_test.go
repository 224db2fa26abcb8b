package replay

import (
	"reflect"
	"testing"

	"github.com/danielpatrickdp/model-critic/internal/gate"
	"github.com/danielpatrickdp/model-critic/internal/robustness"
	"github.com/danielpatrickdp/model-critic/internal/verdict"
)

func stable() verdict.Signals {
	return verdict.Signals{Robustness: robustness.Stable}
}

func TestReplay_Clean(t *testing.T) {
	results := Replay([]Case{{CaseID: "c1", Signals: stable()}}, DefaultReplayConfig())
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if !r.Decision.Deploy || r.Decision.RiskLevel != verdict.RiskLow {
		t.Errorf("clean signals: deploy=%v risk=%s", r.Decision.Deploy, r.Decision.RiskLevel)
	}
	if r.Scores.Global != 100 {
		t.Errorf("expected score 100, got %d", r.Scores.Global)
	}
	if r.Summary.Executive.Verdict != verdict.Acceptable {
		t.Errorf("expected Acceptable, got %s", r.Summary.Executive.Verdict)
	}
}

func TestReplay_ConfigPassthrough(t *testing.T) {
	s := stable()
	s.Leakage = true
	cfg := DefaultReplayConfig()
	cfg.GateConfig.LeakagePenalty = 0.9

	r := Replay([]Case{{CaseID: "leak", Signals: s}}, cfg)[0]
	if r.Decision.Confidence != 0.1 {
		t.Errorf("expected confidence 0.1, got %v", r.Decision.Confidence)
	}
}

func TestReplay_Summarize(t *testing.T) {
	leak := stable()
	leak.Leakage = true
	fragile := verdict.Signals{Robustness: robustness.Fragile}

	results := Replay([]Case{
		{CaseID: "a", Signals: stable()},
		{CaseID: "b", Signals: leak},
		{CaseID: "c", Signals: fragile},
		{CaseID: "d", Signals: stable()},
	}, DefaultReplayConfig())
	s := Summarize(results)

	if s.TotalCases != 4 || s.Deployable != 2 || s.Blocked != 2 {
		t.Errorf("unexpected summary %+v", s)
	}
	want := map[verdict.RiskLevel]int{verdict.RiskLow: 2, verdict.RiskHigh: 1, verdict.RiskMedium: 1}
	if !reflect.DeepEqual(s.ByRisk, want) {
		t.Errorf("ByRisk = %v, want %v", s.ByRisk, want)
	}
}

func TestCheck_ReportsEachMismatch(t *testing.T) {
	r := Replay([]Case{{CaseID: "x", Signals: stable()}}, DefaultReplayConfig())[0]
	no := false
	score := 50
	diffs := Check(r, Expected{
		Verdict:   verdict.Risky,
		RiskLevel: verdict.RiskHigh,
		Deploy:    &no,
		Score:     &score,
		Blockers:  []gate.BlockerType{gate.BlockLeakage},
	})
	if len(diffs) != 5 {
		t.Errorf("expected 5 diffs, got %v", diffs)
	}
	if d := Check(r, Expected{}); len(d) != 0 {
		t.Errorf("empty expectation should match, got %v", d)
	}
}

func TestReplay_Deterministic(t *testing.T) {
	s := verdict.Signals{Leakage: true, PerfectCV: true, Robustness: robustness.Misleading}
	cases := []Case{{CaseID: "d", Signals: s}}
	a := Replay(cases, DefaultReplayConfig())
	b := Replay(cases, DefaultReplayConfig())
	if !reflect.DeepEqual(a, b) {
		t.Error("replay is not deterministic")
	}
}
