// Package performance cross-validates a model and flags scores that are too
// good to be true.
package performance

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/danielpatrickdp/model-critic/internal/dataset"
	"github.com/danielpatrickdp/model-critic/internal/estimator"
	"github.com/danielpatrickdp/model-critic/internal/jsonfloat"
	"github.com/danielpatrickdp/model-critic/internal/validation"
)

const (
	msgPerfect = "Perfect CV score detected, possible data leakage."
	msgNormal  = "CV performance within expected range."
)

// #region report
// Report is the performance section of a review.
type Report struct {
	CVMeanScore         float64   `json:"cv_mean_score"`
	CVStd               float64   `json:"cv_std"`
	CVScores            []float64 `json:"cv_scores"`
	SuspiciouslyPerfect bool      `json:"suspiciously_perfect"`
	ValidationStrategy  string    `json:"validation_strategy"`
	Message             string    `json:"message"`
}

type reportJSON struct {
	CVMeanScore         *float64   `json:"cv_mean_score"`
	CVStd               *float64   `json:"cv_std"`
	CVScores            []*float64 `json:"cv_scores"`
	SuspiciouslyPerfect bool       `json:"suspiciously_perfect"`
	ValidationStrategy  string     `json:"validation_strategy"`
	Message             string     `json:"message"`
}

// MarshalJSON writes NaN scores as null.
func (r Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(reportJSON{
		CVMeanScore:         jsonfloat.Ptr(r.CVMeanScore),
		CVStd:               jsonfloat.Ptr(r.CVStd),
		CVScores:            jsonfloat.Ptrs(r.CVScores),
		SuspiciouslyPerfect: r.SuspiciouslyPerfect,
		ValidationStrategy:  r.ValidationStrategy,
		Message:             r.Message,
	})
}

func (r *Report) UnmarshalJSON(b []byte) error {
	var w reportJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*r = Report{
		CVMeanScore:         jsonfloat.Value(w.CVMeanScore),
		CVStd:               jsonfloat.Value(w.CVStd),
		CVScores:            jsonfloat.Values(w.CVScores),
		SuspiciouslyPerfect: w.SuspiciouslyPerfect,
		ValidationStrategy:  w.ValidationStrategy,
		Message:             w.Message,
	}
	return nil
}

// Options configures Evaluate.
type Options struct {
	PerfectScore float64 // mean strictly above this is suspicious
	Problem      validation.ProblemType
}

// DefaultOptions flags means above 0.995 on a classification task.
func DefaultOptions() Options {
	return Options{PerfectScore: 0.995, Problem: validation.Classification}
}

// #endregion report

// #region evaluate
// Evaluate runs cross-validation with splitter on clones of model.
func Evaluate(ctx context.Context, model estimator.Estimator, ds *dataset.Dataset, splitter validation.Splitter, opts Options) (Report, error) {
	scores, err := validation.CrossValidate(ctx, model, ds, splitter, opts.Problem)
	if err != nil {
		return Report{}, fmt.Errorf("cross-validate: %w", err)
	}
	return Summarize(scores, splitter.Name(), opts.PerfectScore), nil
}

// Summarize turns fold scores into a report. cv_std is the population
// standard deviation of the fold scores.
func Summarize(scores []float64, strategy string, perfect float64) Report {
	mean := dataset.Mean(scores)
	r := Report{
		CVMeanScore:         mean,
		CVStd:               dataset.Std(scores),
		CVScores:            scores,
		SuspiciouslyPerfect: mean > perfect,
		ValidationStrategy:  strategy,
		Message:             msgNormal,
	}
	if r.SuspiciouslyPerfect {
		r.Message = msgPerfect
	}
	return r
}

// #endregion evaluate
