// Package eqs implements the equivalent sources gridder: a scattered
// potential-field survey is fit by a superposition of fictitious point
// sources, and the fitted model then predicts the field, or any of its
// derivatives, at arbitrary locations.
package eqs

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"eqsgrid/pkg/kernel"
	"eqsgrid/pkg/survey"
)

// Assemble builds the dense design matrix A with one row per observation
// and one column per source, A[i][j] = eval(sources[j], observations[i]).
// Cost is O(n_observations x n_sources), which is the dominant cost of a
// fit; block-averaged layouts exist to shrink the column count.
func Assemble(eval kernel.Evaluator, obs *survey.Observations, sources []survey.Point) (*mat.Dense, error) {
	if err := obs.Validate(); err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("eqs: empty source layout: %w", survey.ErrDimensionMismatch)
	}
	return kernel.Matrix(eval, sources, obs.Points)
}
