package robustness

import (
	"encoding/json"

	"github.com/danielpatrickdp/model-critic/internal/jsonfloat"
	"github.com/danielpatrickdp/model-critic/internal/validation"
)

// Verdict classifies how a model reacts to input noise.
type Verdict string

const (
	Stable     Verdict = "stable"
	Fragile    Verdict = "fragile"
	Misleading Verdict = "misleading"
)

// #region report
// Report is the robustness section of a review. PerformanceDrop is clean
// minus noisy and may be negative.
type Report struct {
	CVScoreOriginal float64 `json:"cv_score_original"`
	CVScoreNoisy    float64 `json:"cv_score_noisy"`
	PerformanceDrop float64 `json:"performance_drop"`
	Verdict         Verdict `json:"verdict"`
	Message         string  `json:"message"`
}

type reportJSON struct {
	CVScoreOriginal *float64 `json:"cv_score_original"`
	CVScoreNoisy    *float64 `json:"cv_score_noisy"`
	PerformanceDrop *float64 `json:"performance_drop"`
	Verdict         Verdict  `json:"verdict"`
	Message         string   `json:"message"`
}

func (r Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(reportJSON{
		CVScoreOriginal: jsonfloat.Ptr(r.CVScoreOriginal),
		CVScoreNoisy:    jsonfloat.Ptr(r.CVScoreNoisy),
		PerformanceDrop: jsonfloat.Ptr(r.PerformanceDrop),
		Verdict:         r.Verdict,
		Message:         r.Message,
	})
}

func (r *Report) UnmarshalJSON(b []byte) error {
	var w reportJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*r = Report{
		CVScoreOriginal: jsonfloat.Value(w.CVScoreOriginal),
		CVScoreNoisy:    jsonfloat.Value(w.CVScoreNoisy),
		PerformanceDrop: jsonfloat.Value(w.PerformanceDrop),
		Verdict:         w.Verdict,
		Message:         w.Message,
	}
	return nil
}

// #endregion report

// #region options
// Options configures Probe and Classify.
type Options struct {
	NoiseLevel         float64 // noise std as a fraction of the feature matrix std
	FragileDrop        float64
	MisleadingBaseline float64
	RandomState        int64
	Problem            validation.ProblemType
}

// DefaultOptions returns 2% noise, a 0.15 fragility drop and a 0.98
// misleading baseline.
func DefaultOptions() Options {
	return Options{
		NoiseLevel:         0.02,
		FragileDrop:        0.15,
		MisleadingBaseline: 0.98,
		RandomState:        42,
		Problem:            validation.Classification,
	}
}

// #endregion options
