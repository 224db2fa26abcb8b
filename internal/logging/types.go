package logging

import "time"

// #region decision-entry
// DecisionEntry is a single row in the decision_log table.
type DecisionEntry struct {
	RunID          string
	SessionName    string
	ModelType      string
	SignalsJSON    string
	RiskLevel      string // "low" | "medium" | "high"
	Deploy         bool
	Confidence     float64
	BlockingIssues []string
	CreatedAt      time.Time
}
// #endregion decision-entry
