package validation

import (
	"context"
	"fmt"
	"math"

	"github.com/danielpatrickdp/model-critic/internal/dataset"
	"github.com/danielpatrickdp/model-critic/internal/estimator"
)

// #region cross-validate
// CrossValidate fits an independent clone of model on each training fold and
// returns the per-fold test scores. model itself is never fitted.
func CrossValidate(ctx context.Context, model estimator.Estimator, ds *dataset.Dataset, splitter Splitter, problem ProblemType) ([]float64, error) {
	folds, err := splitter.Split(ds)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, 0, len(folds))
	for i, fold := range folds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		score, err := scoreFold(ctx, model, ds.Subset(fold.Train), ds.Subset(fold.Test), problem)
		if err != nil {
			return nil, fmt.Errorf("fold %d %w", i, err)
		}
		scores = append(scores, score)
	}
	return scores, nil
}

// scoreFold fits a clone on train and scores it on test. The clone is
// released before returning.
func scoreFold(ctx context.Context, model estimator.Estimator, train, test *dataset.Dataset, problem ProblemType) (score float64, err error) {
	clone := model.Clone()
	if err := clone.Fit(ctx, train.Features, train.Target); err != nil {
		return 0, fmt.Errorf("fit: %w", err)
	}
	defer func() {
		if rerr := estimator.Release(ctx, clone); rerr != nil && err == nil {
			err = fmt.Errorf("release: %w", rerr)
		}
	}()
	score, err = Score(ctx, clone, test, problem)
	if err != nil {
		return 0, fmt.Errorf("score: %w", err)
	}
	return score, nil
}

// Score evaluates a fitted model on ds, preferring the model's own metric.
// Otherwise classification uses accuracy and regression uses R².
func Score(ctx context.Context, fitted estimator.Estimator, ds *dataset.Dataset, problem ProblemType) (float64, error) {
	if s, ok := fitted.(estimator.Scorer); ok {
		return s.Score(ctx, ds.Features, ds.Target)
	}
	pred, err := fitted.Predict(ctx, ds.Features)
	if err != nil {
		return 0, err
	}
	if len(pred) != len(ds.Target) {
		return 0, fmt.Errorf("predict returned %d values for %d rows", len(pred), len(ds.Target))
	}
	if problem == Classification {
		return estimator.Accuracy(ds.Target, pred), nil
	}
	return estimator.R2(ds.Target, pred), nil
}

// #endregion cross-validate

// #region learning-curve
// DefaultCurveFractions mirrors linspace(0.1, 1.0, 5).
var DefaultCurveFractions = []float64{0.1, 0.325, 0.55, 0.775, 1.0}

// LearningCurve scores clones trained on growing prefixes of each training
// fold, using the same splitter as CrossValidate so fold membership matches.
func LearningCurve(ctx context.Context, model estimator.Estimator, ds *dataset.Dataset, splitter Splitter, problem ProblemType, fractions []float64) ([]CurvePoint, error) {
	folds, err := splitter.Split(ds)
	if err != nil {
		return nil, err
	}

	points := make([]CurvePoint, len(fractions))
	for fi, fold := range folds {
		test := ds.Subset(fold.Test)
		for pi, frac := range fractions {
			size := int(math.Ceil(frac * float64(len(fold.Train))))
			if size < 1 {
				size = 1
			}
			if size > len(fold.Train) {
				size = len(fold.Train)
			}
			train := ds.Subset(fold.Train[:size])

			trainScore, valScore, err := scoreCurvePoint(ctx, model, train, test, problem)
			if err != nil {
				return nil, fmt.Errorf("fold %d size %d %w", fi, size, err)
			}
			points[pi].TrainSize += size
			points[pi].TrainScore += trainScore
			points[pi].ValidationScore += valScore
		}
	}

	k := float64(len(folds))
	for i := range points {
		points[i].TrainSize = int(math.Round(float64(points[i].TrainSize) / k))
		points[i].TrainScore /= k
		points[i].ValidationScore /= k
	}
	return points, nil
}

func scoreCurvePoint(ctx context.Context, model estimator.Estimator, train, test *dataset.Dataset, problem ProblemType) (trainScore, valScore float64, err error) {
	clone := model.Clone()
	if err := clone.Fit(ctx, train.Features, train.Target); err != nil {
		return 0, 0, fmt.Errorf("fit: %w", err)
	}
	defer func() {
		if rerr := estimator.Release(ctx, clone); rerr != nil && err == nil {
			err = fmt.Errorf("release: %w", rerr)
		}
	}()
	if trainScore, err = Score(ctx, clone, train, problem); err != nil {
		return 0, 0, fmt.Errorf("train score: %w", err)
	}
	if valScore, err = Score(ctx, clone, test, problem); err != nil {
		return 0, 0, fmt.Errorf("validation score: %w", err)
	}
	return trainScore, valScore, nil
}

// #endregion learning-curve
