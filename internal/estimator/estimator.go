// Package estimator defines the trainable-model capability the reviewer
// operates on, plus a handful of local Go implementations.
//
// Every framework binding (local Go code, a remote sidecar serving sklearn or
// torch models) implements Estimator; the review pipeline never branches on
// which framework sits behind it.
package estimator

import (
	"context"
	"errors"
)

// Sentinel errors shared by bindings.
var (
	ErrNotFitted   = errors.New("estimator not fitted")
	ErrUnknownKind = errors.New("unknown estimator kind")
	ErrNoClasses   = errors.New("no training samples")
)

// #region interfaces
// Estimator is a fittable predictive model.
type Estimator interface {
	// Name is the model's type name (e.g. "DecisionTreeClassifier").
	Name() string

	// Params exposes hyperparameters by name. A present key with a nil value
	// means "exposed but unset".
	Params() map[string]any

	// Clone returns an untrained copy with identical hyperparameters.
	Clone() Estimator

	Fit(ctx context.Context, X [][]float64, y []float64) error
	Predict(ctx context.Context, X [][]float64) ([]float64, error)
}

// Scorer is implemented by estimators that define their own CV metric.
type Scorer interface {
	Score(ctx context.Context, X [][]float64, y []float64) (float64, error)
}

// Releaser is implemented by estimators that hold resources after Fit, such
// as a model kept alive on a remote server.
type Releaser interface {
	Release(ctx context.Context) error
}

// Release frees e's fitted state when e is a Releaser.
func Release(ctx context.Context, e Estimator) error {
	if r, ok := e.(Releaser); ok {
		return r.Release(ctx)
	}
	return nil
}

// #endregion interfaces

// #region spec
// Spec names a local estimator and its hyperparameters, as read from CLI
// flags, YAML or HTTP requests.
type Spec struct {
	Kind   string         `json:"kind" yaml:"kind"`
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// FromSpec builds a local estimator.
func FromSpec(s Spec) (Estimator, error) {
	switch s.Kind {
	case "tree", "decision_tree":
		t := &DecisionTree{MinSamplesSplit: 2}
		if v, ok := IntParam(s.Params, "max_depth"); ok {
			t.MaxDepth = v
		}
		if v, ok := IntParam(s.Params, "min_samples_split"); ok {
			t.MinSamplesSplit = v
		}
		if v, ok := IntParam(s.Params, "random_state"); ok {
			rs := int64(v)
			t.RandomState = &rs
		}
		return t, nil
	case "centroid", "nearest_centroid":
		return &NearestCentroid{}, nil
	case "linear", "linear_regression":
		l := &LinearRegression{FitIntercept: true}
		if v, ok := FloatParam(s.Params, "alpha"); ok {
			l.Alpha = v
		}
		return l, nil
	case "majority", "dummy":
		return &Majority{}, nil
	default:
		return nil, ErrUnknownKind
	}
}

// #endregion spec

// #region params
// IntParam reads an integer-valued hyperparameter. Any Go numeric kind is
// accepted; float values must be integral. Nil or non-numeric values report
// false.
func IntParam(params map[string]any, key string) (int, bool) {
	f, ok := FloatParam(params, key)
	if !ok || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// FloatParam reads a numeric hyperparameter as float64.
func FloatParam(params map[string]any, key string) (float64, bool) {
	v, ok := params[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case *int:
		if n == nil {
			return 0, false
		}
		return float64(*n), true
	case *int64:
		if n == nil {
			return 0, false
		}
		return float64(*n), true
	}
	return 0, false
}

// #endregion params
