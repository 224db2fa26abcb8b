package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/model-critic/internal/critic"
	"github.com/danielpatrickdp/model-critic/internal/logging"
	"github.com/danielpatrickdp/model-critic/internal/session"
	"github.com/danielpatrickdp/model-critic/internal/verdict"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to critic.db")
	last := flag.Int("last", 20, "show N most recent snapshots or decisions")
	name := flag.String("session", "", "show the snapshot history of one session")
	component := flag.String("component", "", "add one component score column (data_integrity, validation, robustness)")
	decisions := flag.Bool("decisions", false, "list deploy decisions instead of sessions")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/critic.db [--last N] [--session name] [--component key] [--decisions] [--json]")
		os.Exit(2)
	}

	store, err := session.NewSQLiteStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	switch {
	case *decisions:
		err = runDecisionMode(store, *last, *jsonOut)
	case *name != "":
		err = runDetailMode(ctx, store, *name, *last, *component, *jsonOut)
	default:
		err = runListMode(ctx, store, *last, *component, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	SnapshotID string         `json:"snapshot_id"`
	Name       string         `json:"name"`
	Global     int            `json:"global_score"`
	Components map[string]int `json:"components"`
	Verdict    string         `json:"verdict,omitempty"`
	RiskLevel  string         `json:"risk_level,omitempty"`
	CreatedAt  string         `json:"created_at"`
	Component  *int           `json:"component,omitempty"`
}

func toRow(snap session.Snapshot, component string) listRow {
	r := listRow{
		SnapshotID: snap.ID,
		Name:       snap.Name,
		Global:     snap.Scores.Global,
		Components: snap.Scores.Components,
		CreatedAt:  snap.Timestamp.Format("2006-01-02T15:04:05Z"),
	}
	if exec := parseExecutive(snap.Payload); exec != nil {
		r.Verdict = exec.Verdict
		r.RiskLevel = string(exec.RiskLevel)
	}
	if component != "" {
		if v, ok := snap.Scores.Components[component]; ok {
			r.Component = &v
		}
	}
	return r
}

func runListMode(ctx context.Context, store *session.SQLiteStore, last int, component string, jsonOut bool) error {
	snaps, err := store.List(ctx, last)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		fmt.Fprintln(os.Stderr, "no sessions found")
		return nil
	}
	return printRows(snaps, component, jsonOut)
}

func printRows(snaps []session.Snapshot, component string, jsonOut bool) error {
	// store returns newest first, reverse for chronological
	rows := make([]listRow, len(snaps))
	for i, s := range snaps {
		rows[len(snaps)-1-i] = toRow(s, component)
	}
	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-10s  %-20s  %6s  %-10s  %-6s", "Snapshot", "Session", "Global", "Verdict", "Risk")
	if component != "" {
		fmt.Printf("  %-9s", shorten(component, 9))
	}
	fmt.Printf("  %s\n", "Time")
	fmt.Printf("%-10s+-%-20s+-%6s+-%-10s+-%-6s", "----------", "--------------------", "------", "----------", "------")
	if component != "" {
		fmt.Printf("+-%-9s", "---------")
	}
	fmt.Printf("+-%s\n", "--------------------")

	for _, r := range rows {
		fmt.Printf("%-10s  %-20s  %6d  %-10s  %-6s", shortID(r.SnapshotID), shorten(r.Name, 20), r.Global, r.Verdict, r.RiskLevel)
		if component != "" {
			val := "—"
			if r.Component != nil {
				val = fmt.Sprintf("%d", *r.Component)
			}
			fmt.Printf("  %-9s", val)
		}
		fmt.Printf("  %s\n", r.CreatedAt)
	}

	latest := rows[len(rows)-1]
	fmt.Printf("\nComponent scores (latest):\n")
	printComponents(latest.Components)
	return nil
}

// #endregion list-mode

// #region detail-mode

func runDetailMode(ctx context.Context, store *session.SQLiteStore, name string, last int, component string, jsonOut bool) error {
	history, err := store.History(ctx, name, last)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		return fmt.Errorf("%w: %s", session.ErrNotFound, name)
	}
	if !jsonOut {
		if err := printRows(history, component, false); err != nil {
			return err
		}
	}

	latest := history[0]
	var p critic.Payload
	if err := json.Unmarshal(latest.Payload, &p); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	if jsonOut {
		return printJSON(struct {
			Name    string         `json:"name"`
			History int            `json:"history"`
			Scores  verdict.Scores `json:"scores"`
			Payload critic.Payload `json:"payload"`
		}{name, len(history), latest.Scores, p})
	}

	fmt.Printf("\nLatest review:\n")
	fmt.Printf("  Verdict:     %s (%s risk)\n", p.Executive.Verdict, p.Executive.RiskLevel)
	fmt.Printf("  Reason:      %s\n", p.Executive.MainReason)
	fmt.Printf("  Model:       %s\n", p.Details.Config.ModelType)
	fmt.Printf("  CV:          %.4f ± %.4f (%s)\n", p.Performance.CVMeanScore, p.Performance.CVStd, p.Performance.ValidationStrategy)
	fmt.Printf("  Robustness:  %s (drop %.4f)\n", p.Details.Robustness.Verdict, p.Details.Robustness.PerformanceDrop)
	fmt.Printf("\nKey risks:\n")
	for _, r := range p.Technical.KeyRisks {
		fmt.Printf("  - %s\n", r)
	}
	return nil
}

// #endregion detail-mode

// #region decision-mode

type decisionRow struct {
	RunID          string   `json:"run_id"`
	SessionName    string   `json:"session_name,omitempty"`
	ModelType      string   `json:"model_type"`
	RiskLevel      string   `json:"risk_level"`
	Deploy         bool     `json:"deploy"`
	Confidence     float64  `json:"confidence"`
	BlockingIssues []string `json:"blocking_issues,omitempty"`
	CreatedAt      string   `json:"created_at"`
}

func runDecisionMode(store *session.SQLiteStore, last int, jsonOut bool) error {
	entries, err := logging.RecentDecisions(store.DB(), last)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "no decisions found")
		return nil
	}

	rows := make([]decisionRow, len(entries))
	for i, e := range entries {
		rows[len(entries)-1-i] = decisionRow{
			RunID:          e.RunID,
			SessionName:    e.SessionName,
			ModelType:      e.ModelType,
			RiskLevel:      e.RiskLevel,
			Deploy:         e.Deploy,
			Confidence:     e.Confidence,
			BlockingIssues: e.BlockingIssues,
			CreatedAt:      e.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}
	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-10s  %-24s  %-6s  %-6s  %5s  %-16s  %s\n",
		"Run", "Model", "Risk", "Deploy", "Conf", "Session", "Time")
	fmt.Printf("%-10s+-%-24s+-%-6s+-%-6s+-%5s+-%-16s+-%s\n",
		"----------", "------------------------", "------", "------", "-----", "----------------", "--------------------")
	for _, r := range rows {
		fmt.Printf("%-10s  %-24s  %-6s  %-6t  %5.2f  %-16s  %s\n",
			shortID(r.RunID), shorten(r.ModelType, 24), r.RiskLevel, r.Deploy, r.Confidence, shorten(r.SessionName, 16), r.CreatedAt)
		for _, issue := range r.BlockingIssues {
			fmt.Printf("%-10s    ! %s\n", "", issue)
		}
	}
	return nil
}

// #endregion decision-mode

// #region output

func parseExecutive(payload json.RawMessage) *verdict.Executive {
	if len(payload) == 0 {
		return nil
	}
	var p struct {
		Executive *verdict.Executive `json:"executive"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil
	}
	return p.Executive
}

func printComponents(c map[string]int) {
	order := []string{verdict.ComponentDataIntegrity, verdict.ComponentValidation, verdict.ComponentRobustness}
	for _, name := range order {
		if v, ok := c[name]; ok {
			fmt.Printf("  %-15s %d\n", name, v)
		}
	}
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "~"
}

// #endregion output
