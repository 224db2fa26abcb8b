package logging

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// #region log-decision
// LogDecision writes a deploy decision to the decision_log table. A missing
// RunID or CreatedAt is filled in; the RunID used is returned.
func LogDecision(db *sql.DB, entry DecisionEntry) (string, error) {
	if entry.RunID == "" {
		entry.RunID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	var issues any
	if len(entry.BlockingIssues) > 0 {
		b, err := json.Marshal(entry.BlockingIssues)
		if err != nil {
			return "", fmt.Errorf("marshal blocking issues: %w", err)
		}
		issues = string(b)
	}

	deploy := 0
	if entry.Deploy {
		deploy = 1
	}

	_, err := db.Exec(
		`INSERT INTO decision_log (run_id, session_name, model_type, signals_json, risk_level, deploy, confidence, blocking_issues, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID,
		nullIfEmpty(entry.SessionName),
		entry.ModelType,
		nullIfEmpty(entry.SignalsJSON),
		entry.RiskLevel,
		deploy,
		entry.Confidence,
		issues,
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("log decision: %w", err)
	}
	return entry.RunID, nil
}
// #endregion log-decision

// #region recent
// RecentDecisions returns up to limit decisions, newest first.
func RecentDecisions(db *sql.DB, limit int) ([]DecisionEntry, error) {
	rows, err := db.Query(
		`SELECT run_id, session_name, model_type, signals_json, risk_level, deploy, confidence, blocking_issues, created_at
		 FROM decision_log ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var out []DecisionEntry
	for rows.Next() {
		var e DecisionEntry
		var session, signals, issues sql.NullString
		var deploy int
		var created string
		if err := rows.Scan(&e.RunID, &session, &e.ModelType, &signals, &e.RiskLevel, &deploy, &e.Confidence, &issues, &created); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		e.SessionName = session.String
		e.SignalsJSON = signals.String
		e.Deploy = deploy == 1
		if issues.Valid {
			if err := json.Unmarshal([]byte(issues.String), &e.BlockingIssues); err != nil {
				return nil, fmt.Errorf("decode blocking issues: %w", err)
			}
		}
		if e.CreatedAt, err = ParseTime(created); err != nil {
			return nil, fmt.Errorf("decision %s: %w", e.RunID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
// #endregion recent

// #region helpers
// naiveLayout matches isoformat() output without a zone, as written by older
// tools. Such stamps are read as UTC.
const naiveLayout = "2006-01-02T15:04:05.999999"

// ParseTime reads an RFC 3339 timestamp, falling back to a zoneless
// isoformat stamp.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}
	if t, nerr := time.Parse(naiveLayout, s); nerr == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers
