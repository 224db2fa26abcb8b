package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/model-critic/internal/logging"
	"github.com/danielpatrickdp/model-critic/internal/replay"
	"github.com/danielpatrickdp/model-critic/internal/session"
	"github.com/danielpatrickdp/model-critic/internal/verdict"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to critic.db")
	last := flag.Int("last", 10, "number of most recent deploy decisions to export")
	outPath := flag.String("out", "", "output fixture JSON path")
	flag.Parse()

	if *dbPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/critic.db --out path/to/fixture.json [--last N]")
		os.Exit(2)
	}

	if err := run(*dbPath, *last, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region extract

func run(dbPath string, last int, outPath string) error {
	store, err := session.NewSQLiteStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	entries, err := logging.RecentDecisions(store.DB(), last)
	if err != nil {
		return err
	}

	var cases []replay.FixtureCase
	// newest first from the log, fixtures read oldest first
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.SignalsJSON == "" {
			continue
		}
		var s verdict.Signals
		if err := json.Unmarshal([]byte(e.SignalsJSON), &s); err != nil {
			continue
		}
		deploy := e.Deploy
		confidence := e.Confidence
		cases = append(cases, replay.FixtureCase{
			CaseID:  e.RunID,
			Signals: s,
			Expected: replay.Expected{
				RiskLevel:  verdict.RiskLevel(e.RiskLevel),
				Deploy:     &deploy,
				Confidence: &confidence,
			},
		})
	}
	if len(cases) == 0 {
		return fmt.Errorf("no decisions with recorded signals in last %d entries", last)
	}

	fmt.Printf("Found %d decisions\n", len(cases))
	fixture := replay.Fixture{
		Description: fmt.Sprintf("Decision log export: %d deploy decisions from %s", len(cases), dbPath),
		Cases:       cases,
	}
	return writeFixture(fixture, outPath)
}

// #endregion extract

// #region output

func writeFixture(f replay.Fixture, path string) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

// #endregion output
