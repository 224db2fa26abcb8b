package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/danielpatrickdp/model-critic/internal/config"
	"github.com/danielpatrickdp/model-critic/internal/logging"
	"github.com/danielpatrickdp/model-critic/internal/replay"
	"github.com/danielpatrickdp/model-critic/internal/session"
	"github.com/danielpatrickdp/model-critic/internal/verdict"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to critic.db (DB mode: re-gate logged decisions)")
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	configPath := flag.String("config", "", "config file whose gate penalties apply in DB mode")
	last := flag.Int("last", 100, "DB mode: replay the N most recent decisions")
	flag.Parse()

	if (*dbPath == "" && *fixturePath == "") || (*dbPath != "" && *fixturePath != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --db path/to/critic.db [--config critic.yaml] [--last N]")
		fmt.Fprintln(os.Stderr, "       replay --fixture path/to/fixture.json")
		os.Exit(2)
	}

	var exitCode int
	if *fixturePath != "" {
		exitCode = runFixtureMode(*fixturePath)
	} else {
		exitCode = runDBMode(*dbPath, *configPath, *last)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region db-mode

// runDBMode re-evaluates logged decisions under the current gate config and
// reports any whose outcome would change.
func runDBMode(dbPath, configPath string, last int) int {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 2
	}
	store, err := session.NewSQLiteStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer store.Close()

	entries, err := logging.RecentDecisions(store.DB(), last)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read decision_log: %v\n", err)
		return 2
	}

	var (
		cases    []replay.Case
		expected []replay.Expected
	)
	// oldest first
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.SignalsJSON == "" {
			continue
		}
		var s verdict.Signals
		if err := json.Unmarshal([]byte(e.SignalsJSON), &s); err != nil {
			fmt.Fprintf(os.Stderr, "skip %s: %v\n", shortID(e.RunID), err)
			continue
		}
		deploy := e.Deploy
		cases = append(cases, replay.Case{CaseID: shortID(e.RunID), Signals: s})
		expected = append(expected, replay.Expected{
			RiskLevel: verdict.RiskLevel(e.RiskLevel),
			Deploy:    &deploy,
		})
	}
	if len(cases) == 0 {
		fmt.Fprintln(os.Stderr, "no replayable entries found in decision_log")
		return 2
	}

	results := replay.Replay(cases, replay.ReplayConfig{GateConfig: cfg.Gate})
	return printComparison(results, expected)
}

// #endregion db-mode

// #region output

func runFixtureMode(path string) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}

	results := replay.Replay(f.ToCases(), f.Config.ToReplayConfig())
	expected := make([]replay.Expected, len(f.Cases))
	for i, c := range f.Cases {
		expected[i] = c.Expected
	}
	return printComparison(results, expected)
}

// printComparison outputs a comparison table and returns the exit code.
func printComparison(results []replay.ReplayResult, expected []replay.Expected) int {
	fmt.Printf("%-14s| %-11s| %-6s| %-6s| %5s | %s\n", "Case", "Verdict", "Risk", "Deploy", "Score", "Match")
	fmt.Printf("%-14s+%-12s+%-7s+%-7s+%-7s+%s\n",
		"--------------", "------------", "-------", "-------", "-------", "------")

	matches := 0
	total := min(len(results), len(expected))
	for i := 0; i < total; i++ {
		r := results[i]
		match := "OK"
		if diffs := replay.Check(r, expected[i]); len(diffs) > 0 {
			match = "DIFF " + strings.Join(diffs, "; ")
		} else {
			matches++
		}
		fmt.Printf("%-14s| %-11s| %-6s| %-6t| %5d | %s\n",
			r.CaseID, r.Summary.Executive.Verdict, r.Decision.RiskLevel, r.Decision.Deploy, r.Scores.Global, match)
	}

	s := replay.Summarize(results)
	diverge := total - matches
	fmt.Printf("\nSummary: %d total, %d match, %d diverge (%d deployable, %d blocked)\n",
		total, matches, diverge, s.Deployable, s.Blocked)

	if diverge > 0 {
		return 1
	}
	return 0
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// #endregion output
