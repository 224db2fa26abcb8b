package replay

import (
	"os"
	"path/filepath"
	"testing"
)

// #region fixture-tests

// runFixture replays a fixture file and reports every case that drifts from
// its expected outcome.
func runFixture(t *testing.T, name string) {
	t.Helper()
	f, err := LoadFixture(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	if len(f.Cases) == 0 {
		t.Fatalf("fixture %s has no cases", name)
	}

	results := Replay(f.ToCases(), f.Config.ToReplayConfig())
	if len(results) != len(f.Cases) {
		t.Fatalf("expected %d results, got %d", len(f.Cases), len(results))
	}
	for i, fc := range f.Cases {
		if results[i].CaseID != fc.CaseID {
			t.Errorf("case %d: expected case_id=%s, got %s", i, fc.CaseID, results[i].CaseID)
		}
		if diffs := Check(results[i], fc.Expected); len(diffs) > 0 {
			t.Errorf("case %s: %v", fc.CaseID, diffs)
		}
	}
}

// TestFixture_GateCases is the regression baseline for verdict, score and
// gate behaviour under default penalties.
func TestFixture_GateCases(t *testing.T) {
	runFixture(t, "gate_cases.json")
}

func TestFixture_StrictPenalties(t *testing.T) {
	runFixture(t, "strict_penalties.json")
}

func TestLoadFixture_NotFound(t *testing.T) {
	_, err := LoadFixture("testdata/nonexistent.json")
	if err == nil {
		t.Fatal("expected error for nonexistent fixture")
	}
}

func TestLoadFixture_Malformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadFixture(path)
	if err == nil {
		t.Fatal("expected error for malformed fixture")
	}
}

// #endregion fixture-tests
