package estimator

import (
	"context"
	"math/rand/v2"
	"sort"
)

// #region tree
// DecisionTree is a CART classifier using Gini impurity.
type DecisionTree struct {
	MaxDepth        int // 0 means unlimited
	MinSamplesSplit int
	RandomState     *int64 // permutes feature scan order; nil scans in index order

	root *treeNode
}

type treeNode struct {
	leaf      bool
	label     float64
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
}

func (t *DecisionTree) Name() string { return "DecisionTreeClassifier" }

func (t *DecisionTree) Params() map[string]any {
	p := map[string]any{
		"max_depth":         nil,
		"min_samples_split": t.MinSamplesSplit,
		"random_state":      nil,
		"criterion":         "gini",
	}
	if t.MaxDepth > 0 {
		p["max_depth"] = t.MaxDepth
	}
	if t.RandomState != nil {
		p["random_state"] = *t.RandomState
	}
	return p
}

func (t *DecisionTree) Clone() Estimator {
	cp := &DecisionTree{MaxDepth: t.MaxDepth, MinSamplesSplit: t.MinSamplesSplit}
	if t.RandomState != nil {
		rs := *t.RandomState
		cp.RandomState = &rs
	}
	return cp
}

func (t *DecisionTree) Fit(ctx context.Context, X [][]float64, y []float64) error {
	if len(y) == 0 {
		return ErrNoClasses
	}
	idx := make([]int, len(y))
	for i := range idx {
		idx[i] = i
	}
	order := t.featureOrder(len(X[0]))
	root, err := t.grow(ctx, X, y, idx, order, 0)
	if err != nil {
		return err
	}
	t.root = root
	return nil
}

func (t *DecisionTree) Predict(_ context.Context, X [][]float64) ([]float64, error) {
	if t.root == nil {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(X))
	for i, row := range X {
		n := t.root
		for !n.leaf {
			if row[n.feature] <= n.threshold {
				n = n.left
			} else {
				n = n.right
			}
		}
		out[i] = n.label
	}
	return out, nil
}

// #endregion tree

// #region grow
func (t *DecisionTree) grow(ctx context.Context, X [][]float64, y []float64, idx []int, order []int, depth int) (*treeNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	labels := make([]float64, len(idx))
	for k, i := range idx {
		labels[k] = y[i]
	}
	node := &treeNode{leaf: true, label: mostFrequent(labels)}

	minSplit := t.MinSamplesSplit
	if minSplit < 2 {
		minSplit = 2
	}
	if len(idx) < minSplit || (t.MaxDepth > 0 && depth >= t.MaxDepth) || gini(labels) == 0 {
		return node, nil
	}

	feature, threshold, ok := bestSplit(X, y, idx, order)
	if !ok {
		return node, nil
	}

	var left, right []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l, err := t.grow(ctx, X, y, left, order, depth+1)
	if err != nil {
		return nil, err
	}
	r, err := t.grow(ctx, X, y, right, order, depth+1)
	if err != nil {
		return nil, err
	}
	return &treeNode{feature: feature, threshold: threshold, left: l, right: r}, nil
}

func (t *DecisionTree) featureOrder(f int) []int {
	order := make([]int, f)
	for i := range order {
		order[i] = i
	}
	if t.RandomState != nil {
		seed := uint64(*t.RandomState)
		rng := rand.New(rand.NewPCG(seed, seed))
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}
	return order
}

// bestSplit scans every feature for the threshold with the lowest weighted
// Gini impurity. Thresholds sit midway between consecutive distinct values.
func bestSplit(X [][]float64, y []float64, idx []int, order []int) (int, float64, bool) {
	n := float64(len(idx))
	bestScore := gini(labelsOf(y, idx))
	bestFeature, bestThreshold, found := -1, 0.0, false

	sorted := append([]int(nil), idx...)
	for _, f := range order {
		sort.SliceStable(sorted, func(a, b int) bool { return X[sorted[a]][f] < X[sorted[b]][f] })

		leftCounts := map[float64]int{}
		rightCounts := map[float64]int{}
		for _, i := range sorted {
			rightCounts[y[i]]++
		}

		for k := 0; k < len(sorted)-1; k++ {
			i := sorted[k]
			leftCounts[y[i]]++
			rightCounts[y[i]]--

			cur, next := X[i][f], X[sorted[k+1]][f]
			if cur == next {
				continue
			}
			nl := float64(k + 1)
			nr := n - nl
			score := (nl/n)*giniCounts(leftCounts, nl) + (nr/n)*giniCounts(rightCounts, nr)
			if score < bestScore-1e-12 {
				bestScore = score
				bestFeature = f
				bestThreshold = (cur + next) / 2
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

func labelsOf(y []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for k, i := range idx {
		out[k] = y[i]
	}
	return out
}

func gini(labels []float64) float64 {
	counts := map[float64]int{}
	for _, v := range labels {
		counts[v]++
	}
	return giniCounts(counts, float64(len(labels)))
}

func giniCounts(counts map[float64]int, n float64) float64 {
	if n == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := float64(c) / n
		g -= p * p
	}
	return g
}

// #endregion grow
