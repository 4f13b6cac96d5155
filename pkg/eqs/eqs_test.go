package eqs

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"eqsgrid/pkg/forward"
	"eqsgrid/pkg/kernel"
	"eqsgrid/pkg/layout"
	"eqsgrid/pkg/survey"
)

// syntheticSurvey forward-models the upward gravity of a single buried
// point source on an n x n observation grid centered on the source.
func syntheticSurvey(t *testing.T, n int, spacing, sourceDepth, strength float64) *survey.Observations {
	t.Helper()

	half := spacing * float64(n-1) / 2
	points := make([]survey.Point, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			points = append(points, survey.Point{
				Easting:  -half + float64(j)*spacing,
				Northing: -half + float64(i)*spacing,
				Upward:   0,
			})
		}
	}

	values, err := forward.PointSourceField(
		[]survey.Point{{Easting: 0, Northing: 0, Upward: -sourceDepth}},
		[]float64{strength},
		points,
		kernel.Params{Field: kernel.GravityUpward},
	)
	require.NoError(t, err)

	return &survey.Observations{Points: points, Values: values}
}

func TestAssembleShape(t *testing.T) {
	obs := syntheticSurvey(t, 4, 20, 30, 1e9)
	eval, err := kernel.Params{Field: kernel.GravityUpward}.Resolve()
	require.NoError(t, err)

	sources, err := layout.Build(obs, layout.Config{Policy: layout.PolicyBelowData, Depth: 25})
	require.NoError(t, err)

	a, err := Assemble(eval, obs, sources)
	require.NoError(t, err)

	rows, cols := a.Dims()
	assert.Equal(t, obs.Len(), rows)
	assert.Equal(t, len(sources), cols)

	_, err = Assemble(eval, obs, nil)
	assert.ErrorIs(t, err, survey.ErrDimensionMismatch)

	short := &survey.Observations{Points: obs.Points, Values: obs.Values[:3]}
	_, err = Assemble(eval, short, sources)
	assert.ErrorIs(t, err, survey.ErrDimensionMismatch)
}

func TestSolveKnownSystem(t *testing.T) {
	// Diagonal system: weights are just the elementwise ratios
	a := mat.NewDense(2, 2, []float64{2, 0, 0, 4})
	w, diag, err := Solve(a, []float64{2, 8}, nil, 0)
	require.NoError(t, err)

	assert.InDelta(t, 1, w[0], 1e-12)
	assert.InDelta(t, 2, w[1], 1e-12)
	assert.InDelta(t, 0, diag.RMSE, 1e-12)
	assert.InDelta(t, 1, diag.R2, 1e-12)
	require.Len(t, diag.Residuals, 2)
}

func TestSolveErrors(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{2, 0, 0, 4})

	_, _, err := Solve(a, []float64{1, 2}, nil, -1)
	assert.ErrorIs(t, err, survey.ErrConfiguration)

	_, _, err = Solve(a, []float64{1, 2, 3}, nil, 1e-8)
	assert.ErrorIs(t, err, survey.ErrDimensionMismatch)

	_, _, err = Solve(a, []float64{1, 2}, []float64{1}, 1e-8)
	assert.ErrorIs(t, err, survey.ErrDimensionMismatch)

	// Duplicate columns make the zero-damping normal system singular;
	// this must come back as a recoverable configuration error
	dup := mat.NewDense(3, 2, []float64{1, 1, 2, 2, 3, 3})
	_, _, err = Solve(dup, []float64{1, 2, 3}, nil, 0)
	assert.ErrorIs(t, err, survey.ErrConfiguration)
}

func TestDampingMonotonicity(t *testing.T) {
	obs := syntheticSurvey(t, 8, 20, 30, 1e9)
	eval, err := kernel.Params{Field: kernel.GravityUpward}.Resolve()
	require.NoError(t, err)
	sources, err := layout.Build(obs, layout.Config{Policy: layout.PolicyBelowData, Depth: 30})
	require.NoError(t, err)
	a, err := Assemble(eval, obs, sources)
	require.NoError(t, err)

	prev := math.Inf(1)
	for _, damping := range []float64{1e-10, 1e-6, 1e-3, 1e-1, 10} {
		w, _, err := Solve(a, obs.Values, nil, damping)
		require.NoError(t, err, "damping %g", damping)

		norm := floats.Norm(w, 2)
		assert.LessOrEqual(t, norm, prev*(1+1e-12),
			"weight norm grew when damping rose to %g", damping)
		prev = norm
	}
}

func TestEqualWeightsMatchUnweighted(t *testing.T) {
	obs := syntheticSurvey(t, 6, 20, 30, 1e9)
	eval, err := kernel.Params{Field: kernel.GravityUpward}.Resolve()
	require.NoError(t, err)
	sources, err := layout.Build(obs, layout.Config{Policy: layout.PolicyBelowData, Depth: 30})
	require.NoError(t, err)
	a, err := Assemble(eval, obs, sources)
	require.NoError(t, err)

	plain, _, err := Solve(a, obs.Values, nil, 1e-8)
	require.NoError(t, err)

	weights := make([]float64, obs.Len())
	for i := range weights {
		weights[i] = 2.5
	}
	weighted, _, err := Solve(a, obs.Values, weights, 1e-8)
	require.NoError(t, err)

	// Uniform weights rescale both sides of the normal equations and the
	// relative ridge alike, so the solution is unchanged
	for i := range plain {
		assert.InDelta(t, plain[i], weighted[i], 1e-9*math.Abs(plain[i])+1e-12)
	}
}

func TestFitPredictConsistency(t *testing.T) {
	obs := syntheticSurvey(t, 7, 20, 35, 1e9)

	g := Gridder{
		Kernel:  kernel.Params{Field: kernel.GravityUpward},
		Layout:  layout.Config{Policy: layout.PolicyBelowData, Depth: 30},
		Damping: 1e-8,
	}
	model, err := g.Fit(obs)
	require.NoError(t, err)

	// Predicting at the training coordinates must reproduce the training
	// values minus the residuals: same kernel path, same arithmetic
	predicted, err := model.Predict(obs.Points, kernel.DerivativeNone)
	require.NoError(t, err)
	require.Len(t, predicted, obs.Len())

	for i := range predicted {
		want := obs.Values[i] - model.Diagnostics.Residuals[i]
		assert.InDelta(t, want, predicted[i], 1e-10)
	}
}

func TestPredictDerivativesWithoutRefit(t *testing.T) {
	obs := syntheticSurvey(t, 6, 20, 30, 1e9)

	g := Gridder{
		Kernel:  kernel.Params{Field: kernel.GravityUpward},
		Layout:  layout.Config{Policy: layout.PolicyBelowData, Depth: 30},
		Damping: 1e-8,
	}
	model, err := g.Fit(obs)
	require.NoError(t, err)

	targets := []survey.Point{{Easting: 5, Northing: 5, Upward: 10}, {Easting: -15, Northing: 30, Upward: 10}}
	for _, deriv := range []kernel.Derivative{
		kernel.DerivativeNone,
		kernel.DerivativeEasting,
		kernel.DerivativeNorthing,
		kernel.DerivativeUpward,
	} {
		values, err := model.Predict(targets, deriv)
		require.NoError(t, err, "derivative %s", deriv)
		require.Len(t, values, len(targets))
	}

	// A corrupted model must be rejected rather than silently truncated
	broken := *model
	broken.Weights = broken.Weights[:len(broken.Weights)-1]
	_, err = broken.Predict(targets, kernel.DerivativeNone)
	assert.ErrorIs(t, err, survey.ErrDimensionMismatch)
}

func TestModelRoundTrip(t *testing.T) {
	obs := syntheticSurvey(t, 5, 25, 30, 1e9)

	g := Gridder{
		Kernel:  kernel.Params{Field: kernel.GravityUpward},
		Layout:  layout.Config{Policy: layout.PolicyBelowData, Depth: 35},
		Damping: 1e-8,
	}
	model, err := g.Fit(obs)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, model.Save(path))

	loaded, err := LoadModel(path)
	require.NoError(t, err)
	require.Equal(t, len(model.Sources), len(loaded.Sources))

	targets := []survey.Point{{Easting: 3, Northing: -7, Upward: 5}, {Easting: 40, Northing: 40, Upward: 0}, {Easting: -60, Northing: 12, Upward: 20}}
	want, err := model.Predict(targets, kernel.DerivativeNone)
	require.NoError(t, err)
	got, err := loaded.Predict(targets, kernel.DerivativeNone)
	require.NoError(t, err)

	// Weights and coordinates survive the YAML round trip exactly, so the
	// predictions are identical
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-12)
	}
}

// TestEndToEndPointSource is the full scenario: scattered gravity of a
// known buried source, fit at 1.5x the true depth with weak damping, and
// the model must reproduce the data and peak directly above the source.
func TestEndToEndPointSource(t *testing.T) {
	const (
		trueDepth = 20.0
		strength  = 1e9
	)
	obs := syntheticSurvey(t, 10, 200.0/9, trueDepth, strength) // 100 points over [-100, 100]^2

	g := Gridder{
		Kernel:  kernel.Params{Field: kernel.GravityUpward},
		Layout:  layout.Config{Policy: layout.PolicyBelowData, Depth: 1.5 * trueDepth},
		Damping: 1e-10,
	}
	model, err := g.Fit(obs)
	require.NoError(t, err)

	predicted, err := model.Predict(obs.Points, kernel.DerivativeNone)
	require.NoError(t, err)

	r2 := RSquared(obs.Values, predicted)
	assert.Greater(t, r2, 0.999, "training-point reconstruction")

	// Evaluate above the true source plus every training location: the
	// field magnitude must peak directly above the source
	targets := append([]survey.Point{{Easting: 0, Northing: 0, Upward: 0}}, obs.Points...)
	values, err := model.Predict(targets, kernel.DerivativeNone)
	require.NoError(t, err)

	peak := math.Abs(values[0])
	for i, v := range values[1:] {
		assert.LessOrEqual(t, math.Abs(v), peak,
			"field at %+v exceeds the value above the source", targets[i+1])
	}
}
