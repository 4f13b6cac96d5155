// Package forward computes the theoretical field of idealized point sources
// at arbitrary observation points. It shares the kernel evaluators with the
// gridding engine, so forward-modeled surveys are exactly what an
// equivalent sources model of the same kernel can reproduce. Extended
// bodies (prisms, tesseroids) are outside this module and plug in through
// the same kernel-evaluation interface.
package forward

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"eqsgrid/pkg/kernel"
	"eqsgrid/pkg/survey"
)

// PointSourceField evaluates the summed field of point sources with the
// given strengths (masses for gravity kernels, dipole moments for
// magnetics) at every target, returning one value per target.
func PointSourceField(sources []survey.Point, strengths []float64, targets []survey.Point, params kernel.Params) ([]float64, error) {
	if len(sources) != len(strengths) {
		return nil, fmt.Errorf("forward: %d strengths for %d sources: %w",
			len(strengths), len(sources), survey.ErrDimensionMismatch)
	}

	eval, err := params.Resolve()
	if err != nil {
		return nil, err
	}

	k, err := kernel.Matrix(eval, sources, targets)
	if err != nil {
		return nil, err
	}

	out := mat.NewVecDense(len(targets), nil)
	out.MulVec(k, mat.NewVecDense(len(strengths), strengths))

	values := make([]float64, len(targets))
	for i := range values {
		values[i] = out.AtVec(i)
	}
	return values, nil
}
