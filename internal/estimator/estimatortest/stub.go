// Package estimatortest provides scripted estimators for tests.
package estimatortest

import (
	"context"
	"sync/atomic"

	"github.com/danielpatrickdp/model-critic/internal/estimator"
)

// Stub is an Estimator whose CV score is computed by ScoreFn instead of by
// predictions. Clones share ScoreFn and the fit and release counters.
type Stub struct {
	ModelName string
	Hyper     map[string]any
	ScoreFn   func(X [][]float64, y []float64) float64
	FitErr    error

	fits     *atomic.Int64
	releases *atomic.Int64
	fitted   bool
}

// New returns a stub named "StubModel" scoring a constant.
func New(score float64) *Stub {
	return &Stub{
		ModelName: "StubModel",
		Hyper:     map[string]any{},
		ScoreFn:   func([][]float64, []float64) float64 { return score },
	}
}

func (s *Stub) Name() string { return s.ModelName }

func (s *Stub) Params() map[string]any { return s.Hyper }

func (s *Stub) Clone() estimator.Estimator {
	return &Stub{
		ModelName: s.ModelName,
		Hyper:     s.Hyper,
		ScoreFn:   s.ScoreFn,
		FitErr:    s.FitErr,
		fits:      s.counter(),
		releases:  s.releaseCounter(),
	}
}

func (s *Stub) Fit(context.Context, [][]float64, []float64) error {
	if s.FitErr != nil {
		return s.FitErr
	}
	s.counter().Add(1)
	s.fitted = true
	return nil
}

func (s *Stub) Predict(_ context.Context, X [][]float64) ([]float64, error) {
	if !s.fitted {
		return nil, estimator.ErrNotFitted
	}
	return make([]float64, len(X)), nil
}

func (s *Stub) Score(_ context.Context, X [][]float64, y []float64) (float64, error) {
	if !s.fitted {
		return 0, estimator.ErrNotFitted
	}
	return s.ScoreFn(X, y), nil
}

// Release drops the fitted state.
func (s *Stub) Release(context.Context) error {
	if s.fitted {
		s.fitted = false
		s.releaseCounter().Add(1)
	}
	return nil
}

// Live counts fitted instances across this stub and its clones that were
// never released.
func (s *Stub) Live() int64 { return s.counter().Load() - s.releaseCounter().Load() }

// Fitted reports whether this instance (not its clones) was fitted.
func (s *Stub) Fitted() bool { return s.fitted }

// Fits counts Fit calls across this stub and all of its clones.
func (s *Stub) Fits() int64 { return s.counter().Load() }

func (s *Stub) counter() *atomic.Int64 {
	if s.fits == nil {
		s.fits = new(atomic.Int64)
	}
	return s.fits
}

func (s *Stub) releaseCounter() *atomic.Int64 {
	if s.releases == nil {
		s.releases = new(atomic.Int64)
	}
	return s.releases
}

// IntegralFeatures reports whether every feature value is a whole number.
// Tests build clean datasets from integers so noise is detectable.
func IntegralFeatures(X [][]float64) bool {
	for _, row := range X {
		for _, v := range row {
			if v != float64(int64(v)) {
				return false
			}
		}
	}
	return true
}

// NoiseSensitive returns a ScoreFn scoring clean on integral features and
// noisy otherwise.
func NoiseSensitive(clean, noisy float64) func([][]float64, []float64) float64 {
	return func(X [][]float64, _ []float64) float64 {
		if IntegralFeatures(X) {
			return clean
		}
		return noisy
	}
}
