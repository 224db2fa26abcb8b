package estimator

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var errSingular = errors.New("normal equations are singular")

// LinearRegression is ordinary least squares with optional ridge penalty.
// It scores with R² through the default regression metric.
type LinearRegression struct {
	FitIntercept bool
	Alpha        float64

	coef      []float64
	intercept float64
	fitted    bool
}

func (l *LinearRegression) Name() string { return "LinearRegression" }

func (l *LinearRegression) Params() map[string]any {
	return map[string]any{
		"fit_intercept": l.FitIntercept,
		"alpha":         l.Alpha,
	}
}

func (l *LinearRegression) Clone() Estimator {
	return &LinearRegression{FitIntercept: l.FitIntercept, Alpha: l.Alpha}
}

func (l *LinearRegression) Fit(_ context.Context, X [][]float64, y []float64) error {
	if len(y) == 0 {
		return ErrNoClasses
	}
	n, f := len(X), len(X[0])

	xc := mat.NewDense(n, f, nil)
	for i, row := range X {
		xc.SetRow(i, row)
	}
	yc := mat.NewVecDense(n, append([]float64(nil), y...))

	xMean := make([]float64, f)
	var yMean float64
	if l.FitIntercept {
		col := make([]float64, n)
		for j := range f {
			mat.Col(col, j, xc)
			xMean[j] = stat.Mean(col, nil)
			for i := range n {
				xc.Set(i, j, col[i]-xMean[j])
			}
		}
		yMean = stat.Mean(y, nil)
		for i := range n {
			yc.SetVec(i, y[i]-yMean)
		}
	}

	// A = XcᵀXc, b = Xcᵀyc
	a := mat.NewSymDense(f, nil)
	a.SymOuterK(1, xc.T())
	var b mat.VecDense
	b.MulVec(xc.T(), yc)

	coef, err := solve(a, &b, l.Alpha)
	if errors.Is(err, errSingular) {
		coef, err = solve(a, &b, l.Alpha+1e-8)
	}
	if err != nil {
		return err
	}

	l.coef = coef
	l.intercept = yMean
	for j := range coef {
		l.intercept -= coef[j] * xMean[j]
	}
	l.fitted = true
	return nil
}

func (l *LinearRegression) Predict(_ context.Context, X [][]float64) ([]float64, error) {
	if !l.fitted {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(X))
	for i, row := range X {
		v := l.intercept
		for j, x := range row {
			v += l.coef[j] * x
		}
		out[i] = v
	}
	return out, nil
}

// solve factorizes A + ridge*I by Cholesky and solves for b.
func solve(a *mat.SymDense, b *mat.VecDense, ridge float64) ([]float64, error) {
	f := a.SymmetricDim()
	reg := mat.NewSymDense(f, nil)
	reg.CopySym(a)
	for j := range f {
		reg.SetSym(j, j, reg.At(j, j)+ridge)
	}

	var chol mat.Cholesky
	if !chol.Factorize(reg) {
		return nil, errSingular
	}
	var x mat.VecDense
	if err := chol.SolveVecTo(&x, b); err != nil {
		var cond mat.Condition
		if errors.As(err, &cond) {
			return nil, fmt.Errorf("%w: %w", errSingular, err)
		}
		return nil, err
	}
	return mat.Col(nil, 0, &x), nil
}
