// Package integrity inspects a dataset for shape problems, missing values,
// class imbalance and features that leak the target.
package integrity

import (
	"fmt"
	"math"
	"strconv"

	"github.com/danielpatrickdp/model-critic/internal/dataset"
	"github.com/danielpatrickdp/model-critic/internal/thresholds"
)

const (
	msgLeakage   = "Highly correlated features may reveal the target directly."
	msgNoLeakage = "No obvious data leakage detected."
)

// FromThresholds derives analyzer options from the shared thresholds.
func FromThresholds(t thresholds.Thresholds) Options {
	return Options{
		LeakageCorrelation: t.LeakageCorrelation,
		MaxClasses:         t.ClassBalanceMaxClasses,
	}
}

// #region analyze
// Analyze builds the integrity report. When opts.Correlations is set the full
// correlation matrix is returned as well, otherwise the second result is nil.
// Analyze never fails; degenerate columns are simply not flagged.
func Analyze(ds *dataset.Dataset, opts Options) (Report, *CorrelationMatrix) {
	report := Report{
		NSamples:     ds.NSamples(),
		NFeatures:    ds.NFeatures(),
		HasNaN:       ds.HasNaN(),
		ClassBalance: classBalance(ds.Target, opts.MaxClasses),
		DataLeakage:  scanLeakage(ds, opts.LeakageCorrelation),
	}

	var corr *CorrelationMatrix
	if opts.Correlations {
		corr = correlationMatrix(ds)
	}
	return report, corr
}

// #endregion analyze

// #region class-balance
func classBalance(y []float64, maxClasses int) ClassBalance {
	counts := map[string]int{}
	for _, v := range y {
		counts[formatLabel(v)]++
	}
	if len(counts) >= maxClasses {
		return ClassBalance{}
	}
	return ClassBalance{Counts: counts, Enumerated: true}
}

func formatLabel(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// #endregion class-balance

// #region leakage
// scanLeakage correlates every non-constant feature with the mean-centred
// target. NaN correlations never count as leakage.
func scanLeakage(ds *dataset.Dataset, threshold float64) Leakage {
	mean := dataset.Mean(ds.Target)
	centred := make([]float64, len(ds.Target))
	for i, v := range ds.Target {
		centred[i] = v - mean
	}

	findings := []LeakageFinding{}
	for j := 0; j < ds.NFeatures(); j++ {
		col := ds.Column(j)
		if dataset.Std(col) == 0 {
			continue
		}
		r := dataset.Pearson(col, centred)
		if math.IsNaN(r) {
			continue
		}
		if math.Abs(r) > threshold {
			findings = append(findings, LeakageFinding{FeatureIndex: j, Correlation: r})
		}
	}

	leak := Leakage{
		Suspected: len(findings) > 0,
		Details:   findings,
		Message:   msgNoLeakage,
	}
	if leak.Suspected {
		leak.Message = msgLeakage
	}
	return leak
}

// #endregion leakage

// #region correlation-matrix
func correlationMatrix(ds *dataset.Dataset) *CorrelationMatrix {
	f := ds.NFeatures()
	cols := make([][]float64, 0, f+1)
	labels := make([]string, 0, f+1)
	for j := 0; j < f; j++ {
		cols = append(cols, ds.Column(j))
		labels = append(labels, featureLabel(ds, j))
	}
	cols = append(cols, ds.Target)
	target := ds.TargetName
	if target == "" {
		target = "target"
	}
	labels = append(labels, target)

	values := make([][]float64, len(cols))
	for i := range cols {
		values[i] = make([]float64, len(cols))
		for k := range cols {
			if k < i {
				values[i][k] = values[k][i]
				continue
			}
			values[i][k] = dataset.Pearson(cols[i], cols[k])
		}
	}
	return &CorrelationMatrix{Labels: labels, Values: values}
}

func featureLabel(ds *dataset.Dataset, j int) string {
	if j < len(ds.FeatureNames) && ds.FeatureNames[j] != "" {
		return ds.FeatureNames[j]
	}
	return fmt.Sprintf("feature_%d", j)
}

// #endregion correlation-matrix
