package estimator

import "context"

// Majority always predicts the most frequent training label.
type Majority struct {
	label  float64
	fitted bool
}

func (m *Majority) Name() string { return "DummyClassifier" }

func (m *Majority) Params() map[string]any {
	return map[string]any{"strategy": "most_frequent"}
}

func (m *Majority) Clone() Estimator { return &Majority{} }

func (m *Majority) Fit(_ context.Context, _ [][]float64, y []float64) error {
	if len(y) == 0 {
		return ErrNoClasses
	}
	m.label = mostFrequent(y)
	m.fitted = true
	return nil
}

func (m *Majority) Predict(_ context.Context, X [][]float64) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(X))
	for i := range out {
		out[i] = m.label
	}
	return out, nil
}

// mostFrequent breaks ties toward the smaller label so results are stable.
func mostFrequent(y []float64) float64 {
	counts := make(map[float64]int)
	for _, v := range y {
		counts[v]++
	}
	best, bestN := 0.0, -1
	for v, n := range counts {
		if n > bestN || (n == bestN && v < best) {
			best, bestN = v, n
		}
	}
	return best
}
