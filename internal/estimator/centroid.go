package estimator

import (
	"context"
	"math"
	"sort"
)

// NearestCentroid assigns each sample the label of the closest class mean.
type NearestCentroid struct {
	labels    []float64
	centroids [][]float64
}

func (c *NearestCentroid) Name() string { return "NearestCentroid" }

func (c *NearestCentroid) Params() map[string]any {
	return map[string]any{"metric": "euclidean"}
}

func (c *NearestCentroid) Clone() Estimator { return &NearestCentroid{} }

func (c *NearestCentroid) Fit(_ context.Context, X [][]float64, y []float64) error {
	if len(y) == 0 {
		return ErrNoClasses
	}
	f := len(X[0])
	sums := map[float64][]float64{}
	counts := map[float64]int{}
	for i, row := range X {
		s, ok := sums[y[i]]
		if !ok {
			s = make([]float64, f)
			sums[y[i]] = s
		}
		for j, v := range row {
			s[j] += v
		}
		counts[y[i]]++
	}

	c.labels = c.labels[:0]
	for l := range sums {
		c.labels = append(c.labels, l)
	}
	sort.Float64s(c.labels)

	c.centroids = make([][]float64, len(c.labels))
	for k, l := range c.labels {
		cent := sums[l]
		for j := range cent {
			cent[j] /= float64(counts[l])
		}
		c.centroids[k] = cent
	}
	return nil
}

func (c *NearestCentroid) Predict(_ context.Context, X [][]float64) ([]float64, error) {
	if len(c.centroids) == 0 {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(X))
	for i, row := range X {
		best, bestD := 0, math.Inf(1)
		for k, cent := range c.centroids {
			var d float64
			for j, v := range row {
				diff := v - cent[j]
				d += diff * diff
			}
			if d < bestD {
				best, bestD = k, d
			}
		}
		out[i] = c.labels[best]
	}
	return out, nil
}
