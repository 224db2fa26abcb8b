package server

import (
	"encoding/json"
	"time"

	"github.com/danielpatrickdp/model-critic/internal/critic"
	"github.com/danielpatrickdp/model-critic/internal/estimator"
	"github.com/danielpatrickdp/model-critic/internal/thresholds"
	"github.com/danielpatrickdp/model-critic/internal/verdict"
)

// #region requests
// DatasetInput carries a dataset either as CSV text or as explicit arrays.
type DatasetInput struct {
	CSV    string `json:"csv,omitempty"`
	Target string `json:"target,omitempty"` // CSV label column, default last

	Features      [][]float64 `json:"features,omitempty"`
	Labels        []float64   `json:"labels,omitempty"`
	IntegerTarget bool        `json:"integer_target,omitempty"`
	FeatureNames  []string    `json:"feature_names,omitempty"`
}

// ReviewRequest is the body of every review-running endpoint. Model kind
// "remote" uses the server's gRPC estimator.
type ReviewRequest struct {
	Dataset     DatasetInput   `json:"dataset"`
	Model       estimator.Spec `json:"model"`
	View        string         `json:"view,omitempty"`
	Session     string         `json:"session,omitempty"`
	Previous    string         `json:"previous,omitempty"`
	RandomState *int64         `json:"random_state,omitempty"`

	// Thresholds overrides the non-zero fields of the configured thresholds.
	Thresholds *thresholds.Thresholds `json:"thresholds,omitempty"`
}

// #endregion requests

// #region responses
// DeployResponse is a deploy report plus the decision_log run id, when
// decisions are being recorded.
type DeployResponse struct {
	critic.DeployReport
	RunID string `json:"run_id,omitempty"`
}

// SessionResponse is one stored session.
type SessionResponse struct {
	Name      string          `json:"name"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Scores    verdict.Scores  `json:"scores"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// #endregion responses
