package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/model-critic/internal/gate"
	"github.com/danielpatrickdp/model-critic/internal/verdict"
)

// #region fixture-types
// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string        `json:"description"`
	Config      FixtureConfig `json:"config"`
	Cases       []FixtureCase `json:"cases"`
}

// FixtureConfig overrides gate penalties. Omitted penalties keep defaults.
type FixtureConfig struct {
	GateConfig *gate.Config `json:"gate_config,omitempty"`
}

// FixtureCase pairs recorded signals with the expected outcome.
type FixtureCase struct {
	CaseID   string          `json:"case_id"`
	Signals  verdict.Signals `json:"signals"`
	Expected Expected        `json:"expected"`
}

// #endregion fixture-types

// #region fixture-loader
// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToCase converts a FixtureCase to a Case.
func (fc *FixtureCase) ToCase() Case {
	return Case{CaseID: fc.CaseID, Signals: fc.Signals}
}

// ToReplayConfig applies the fixture's overrides to the defaults.
func (c *FixtureConfig) ToReplayConfig() ReplayConfig {
	cfg := DefaultReplayConfig()
	if c.GateConfig != nil {
		cfg.GateConfig = *c.GateConfig
	}
	return cfg
}

// ToCases returns every case in fixture order.
func (f *Fixture) ToCases() []Case {
	cases := make([]Case, len(f.Cases))
	for i := range f.Cases {
		cases[i] = f.Cases[i].ToCase()
	}
	return cases
}

// #endregion fixture-loader
