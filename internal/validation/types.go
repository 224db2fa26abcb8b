package validation

import (
	"encoding/json"
	"errors"

	"github.com/danielpatrickdp/model-critic/internal/jsonfloat"
)

// ErrTooFewSamples is returned when a dataset cannot fill every fold.
var ErrTooFewSamples = errors.New("fewer samples than folds")

// #region problem-type
// ProblemType is the inferred learning task.
type ProblemType string

const (
	Classification ProblemType = "classification"
	Regression     ProblemType = "regression"
)

// #endregion problem-type

// #region fold
// Fold holds row indices for one train/test split.
type Fold struct {
	Train []int
	Test  []int
}

// #endregion fold

// #region options
// Options configures strategy selection.
type Options struct {
	NSplits     int
	RandomState int64
	MaxDistinct int // targets with <= MaxDistinct distinct values are categorical
}

// DefaultOptions returns 3 shuffled folds seeded with 42.
func DefaultOptions() Options {
	return Options{
		NSplits:     3,
		RandomState: 42,
		MaxDistinct: 20,
	}
}

// #endregion options

// #region curve-point
// CurvePoint is one learning-curve sample averaged over folds.
type CurvePoint struct {
	TrainSize       int     `json:"train_size"`
	TrainScore      float64 `json:"train_score"`
	ValidationScore float64 `json:"validation_score"`
}

type curvePointJSON struct {
	TrainSize       int      `json:"train_size"`
	TrainScore      *float64 `json:"train_score"`
	ValidationScore *float64 `json:"validation_score"`
}

func (p CurvePoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(curvePointJSON{
		TrainSize:       p.TrainSize,
		TrainScore:      jsonfloat.Ptr(p.TrainScore),
		ValidationScore: jsonfloat.Ptr(p.ValidationScore),
	})
}

func (p *CurvePoint) UnmarshalJSON(b []byte) error {
	var w curvePointJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*p = CurvePoint{
		TrainSize:       w.TrainSize,
		TrainScore:      jsonfloat.Value(w.TrainScore),
		ValidationScore: jsonfloat.Value(w.ValidationScore),
	}
	return nil
}

// #endregion curve-point
