package eqs

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"eqsgrid/pkg/survey"
)

// Diagnostics summarizes the in-sample fit quality of a solve.
type Diagnostics struct {
	// Residuals is d - Aw at the training points, in data units.
	Residuals []float64 `yaml:"-"`

	// RMSE is the root mean square of the residuals.
	RMSE float64 `yaml:"rmse"`

	// R2 is the coefficient of determination against the observed values.
	R2 float64 `yaml:"r2"`
}

// Solve fits the source weights of the Tikhonov-regularized least squares
// problem via the damped normal equations
//
//	(AᵀWA + λ tr(AᵀWA)/m I) w = AᵀWd
//
// where W is the optional diagonal of per-point weights and m the source
// count. Scaling λ by the mean diagonal of the normal matrix makes the
// damping dimensionless, so the same λ works across kernels with very
// different magnitudes. λ = 0 recovers ordinary least squares, which is
// ill-conditioned when the source count approaches the observation count.
//
// The solve is one-shot and deterministic: a singular system is reported,
// never retried.
func Solve(a *mat.Dense, d, weights []float64, damping float64) ([]float64, Diagnostics, error) {
	rows, cols := a.Dims()
	if len(d) != rows {
		return nil, Diagnostics{}, fmt.Errorf("eqs: %d data values for %d matrix rows: %w",
			len(d), rows, survey.ErrDimensionMismatch)
	}
	if weights != nil && len(weights) != rows {
		return nil, Diagnostics{}, fmt.Errorf("eqs: %d weights for %d matrix rows: %w",
			len(weights), rows, survey.ErrDimensionMismatch)
	}
	if damping < 0 || math.IsNaN(damping) {
		return nil, Diagnostics{}, fmt.Errorf("eqs: invalid damping %g: %w",
			damping, survey.ErrConfiguration)
	}

	// Fold per-point weights in as row scaling by sqrt(W): the normal
	// equations of the scaled system are exactly the weighted ones.
	design := a
	rhs := d
	if weights != nil {
		scaled := mat.NewDense(rows, cols, nil)
		rhs = make([]float64, rows)
		for i := 0; i < rows; i++ {
			s := math.Sqrt(weights[i])
			row := a.RawRowView(i)
			out := scaled.RawRowView(i)
			for j, v := range row {
				out[j] = s * v
			}
			rhs[i] = s * d[i]
		}
		design = scaled
	}

	var ata mat.Dense
	ata.Mul(design.T(), design)

	meanDiag := 0.0
	for i := 0; i < cols; i++ {
		meanDiag += ata.At(i, i)
	}
	meanDiag /= float64(cols)

	ridge := damping * meanDiag
	sym := mat.NewSymDense(cols, nil)
	for i := 0; i < cols; i++ {
		for j := i; j < cols; j++ {
			v := ata.At(i, j)
			if i == j {
				v += ridge
			}
			sym.SetSym(i, j, v)
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		if damping == 0 {
			return nil, Diagnostics{}, fmt.Errorf(
				"eqs: singular normal system with zero damping; increase damping or reduce the source count: %w",
				survey.ErrConfiguration)
		}
		return nil, Diagnostics{}, fmt.Errorf("eqs: damped normal system is not positive definite: %w",
			survey.ErrSingular)
	}

	atd := mat.NewVecDense(cols, nil)
	atd.MulVec(design.T(), mat.NewVecDense(rows, rhs))

	var wvec mat.VecDense
	if err := chol.SolveVecTo(&wvec, atd); err != nil {
		return nil, Diagnostics{}, fmt.Errorf("eqs: normal system solve failed: %w", survey.ErrSingular)
	}

	w := make([]float64, cols)
	for i := range w {
		w[i] = wvec.AtVec(i)
	}
	return w, diagnostics(a, d, w), nil
}

// diagnostics computes in-sample residuals against the unweighted system.
func diagnostics(a mat.Matrix, d, w []float64) Diagnostics {
	rows, _ := a.Dims()
	pred := mat.NewVecDense(rows, nil)
	pred.MulVec(a, mat.NewVecDense(len(w), w))

	residuals := make([]float64, rows)
	predicted := make([]float64, rows)
	for i := range residuals {
		predicted[i] = pred.AtVec(i)
		residuals[i] = d[i] - predicted[i]
	}

	ss := 0.0
	for _, r := range residuals {
		ss += r * r
	}
	return Diagnostics{
		Residuals: residuals,
		RMSE:      math.Sqrt(ss / float64(rows)),
		R2:        RSquared(d, predicted),
	}
}

// RSquared returns the coefficient of determination of predicted against
// observed. A constant observed vector yields 0.
func RSquared(observed, predicted []float64) float64 {
	mean := stat.Mean(observed, nil)
	var ssRes, ssTot float64
	for i, v := range observed {
		r := v - predicted[i]
		ssRes += r * r
		t := v - mean
		ssTot += t * t
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}
