package dataset

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// #region stats
// Mean returns the arithmetic mean of xs (NaN for empty input).
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return stat.Mean(xs, nil)
}

// Std returns the population standard deviation (ddof=0).
func Std(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return stat.PopStdDev(xs, nil)
}

// MatrixStd returns the population standard deviation over every cell of m.
func MatrixStd(m [][]float64) float64 {
	var cells []float64
	for _, row := range m {
		cells = append(cells, row...)
	}
	return Std(cells)
}

// Pearson returns the Pearson correlation of x and y. The result is NaN when
// either input has zero variance or the lengths differ.
func Pearson(x, y []float64) float64 {
	if len(x) != len(y) || len(x) == 0 {
		return math.NaN()
	}
	if stat.PopStdDev(x, nil) == 0 || stat.PopStdDev(y, nil) == 0 {
		return math.NaN()
	}
	// clamp rounding drift
	return max(-1, min(1, stat.Correlation(x, y, nil)))
}

// #endregion stats
