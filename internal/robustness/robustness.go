// Package robustness measures how much a model's cross-validated score drops
// when small Gaussian noise is added to its inputs.
package robustness

import (
	"context"
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/danielpatrickdp/model-critic/internal/dataset"
	"github.com/danielpatrickdp/model-critic/internal/estimator"
	"github.com/danielpatrickdp/model-critic/internal/thresholds"
	"github.com/danielpatrickdp/model-critic/internal/validation"
)

var messages = map[Verdict]string{
	Misleading: "Model appears robust to noise, but original performance is likely inflated due to data leakage.",
	Fragile:    "Model performance degrades significantly under noise.",
	Stable:     "Model shows acceptable robustness to noise.",
}

// FromThresholds derives probe options from the shared thresholds.
func FromThresholds(t thresholds.Thresholds, seed int64, problem validation.ProblemType) Options {
	return Options{
		NoiseLevel:         t.NoiseLevel,
		FragileDrop:        t.FragileDrop,
		MisleadingBaseline: t.MisleadingBaseline,
		RandomState:        seed,
		Problem:            problem,
	}
}

// #region probe
// Probe cross-validates clones of model on the clean dataset and on a noisy
// copy, then classifies the difference. ds is never modified.
func Probe(ctx context.Context, model estimator.Estimator, ds *dataset.Dataset, splitter validation.Splitter, leakageSuspected bool, opts Options) (Report, error) {
	noisy := ds.WithFeatures(Perturb(ds.Features, opts.NoiseLevel, opts.RandomState))

	cleanScores, err := validation.CrossValidate(ctx, model, ds, splitter, opts.Problem)
	if err != nil {
		return Report{}, fmt.Errorf("clean cross-validate: %w", err)
	}
	noisyScores, err := validation.CrossValidate(ctx, model, noisy, splitter, opts.Problem)
	if err != nil {
		return Report{}, fmt.Errorf("noisy cross-validate: %w", err)
	}

	return Classify(dataset.Mean(cleanScores), dataset.Mean(noisyScores), leakageSuspected, opts), nil
}

// Perturb returns a copy of X with N(0, level*std(X)) noise added to every
// cell, where std(X) is taken over the whole matrix.
func Perturb(X [][]float64, level float64, seed int64) [][]float64 {
	s := uint64(seed)
	noise := distuv.Normal{
		Mu:    0,
		Sigma: level * dataset.MatrixStd(X),
		Src:   rand.NewPCG(s, s^0x5851f42d4c957f2d),
	}

	out := make([][]float64, len(X))
	for i, row := range X {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = v + noise.Rand()
		}
	}
	return out
}

// #endregion probe

// #region classify
// Classify applies the verdict cascade; the first matching rule wins:
// leakage with a clean score above the misleading baseline, then a drop
// above the fragility limit, then stable.
func Classify(clean, noisy float64, leakageSuspected bool, opts Options) Report {
	drop := clean - noisy

	verdict := Stable
	switch {
	case leakageSuspected && clean > opts.MisleadingBaseline:
		verdict = Misleading
	case drop > opts.FragileDrop:
		verdict = Fragile
	}

	return Report{
		CVScoreOriginal: clean,
		CVScoreNoisy:    noisy,
		PerformanceDrop: drop,
		Verdict:         verdict,
		Message:         messages[verdict],
	}
}

// #endregion classify
