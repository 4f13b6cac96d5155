package eqs

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"eqsgrid/pkg/kernel"
	"eqsgrid/pkg/layout"
	"eqsgrid/pkg/survey"
)

// Gridder bundles the configuration of one equivalent sources fit: the
// physical kernel the data represents, the source placement policy and the
// damping. A zero Damping is legal but ill-conditioned for one-source-per-
// point layouts; see Solve.
type Gridder struct {
	Kernel  kernel.Params `yaml:"kernel"`
	Layout  layout.Config `yaml:"layout"`
	Damping float64       `yaml:"damping"`
}

// Fit builds the source layout, assembles the design matrix and solves for
// the source weights. The observations are only read, never retained.
func (g Gridder) Fit(obs *survey.Observations) (*FittedModel, error) {
	if err := obs.Validate(); err != nil {
		return nil, err
	}

	// Resolving here also validates the kernel parameters before any
	// quadratic work happens.
	eval, err := g.Kernel.Resolve()
	if err != nil {
		return nil, err
	}

	sources, err := layout.Build(obs, g.Layout)
	if err != nil {
		return nil, err
	}

	a, err := Assemble(eval, obs, sources)
	if err != nil {
		return nil, err
	}

	w, diag, err := Solve(a, obs.Values, obs.Weights, g.Damping)
	if err != nil {
		return nil, err
	}

	return &FittedModel{
		Sources:     sources,
		Weights:     w,
		Kernel:      g.Kernel,
		Damping:     g.Damping,
		Diagnostics: diag,
	}, nil
}

// FittedModel is the immutable result of a fit: the source layout, one
// weight per source, the kernel the fit used and the in-sample diagnostics.
// The sources and weights fully determine the model's predictions.
type FittedModel struct {
	Sources     []survey.Point `yaml:"sources"`
	Weights     []float64      `yaml:"weights"`
	Kernel      kernel.Params  `yaml:"kernel"`
	Damping     float64        `yaml:"damping"`
	Diagnostics Diagnostics    `yaml:"diagnostics"`
}

// Predict evaluates the fitted model at the given targets, returning one
// value per target in the same order. The derivative selector picks a
// spatial derivative of the fitted field; DerivativeNone evaluates the
// field itself. Several derivative components can be predicted from one
// model without refitting.
//
// Prediction goes through the same kernel batch-evaluation path as the fit,
// so a model predicted at its own training coordinates reproduces the
// training values minus the residuals.
func (m *FittedModel) Predict(targets []survey.Point, derivative kernel.Derivative) ([]float64, error) {
	if len(m.Sources) != len(m.Weights) {
		return nil, fmt.Errorf("eqs: model has %d sources but %d weights: %w",
			len(m.Sources), len(m.Weights), survey.ErrDimensionMismatch)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("eqs: no prediction targets: %w", survey.ErrDimensionMismatch)
	}

	params := m.Kernel
	params.Derivative = derivative
	eval, err := params.Resolve()
	if err != nil {
		return nil, err
	}

	k, err := kernel.Matrix(eval, m.Sources, targets)
	if err != nil {
		return nil, err
	}

	out := mat.NewVecDense(len(targets), nil)
	out.MulVec(k, mat.NewVecDense(len(m.Weights), m.Weights))

	values := make([]float64, len(targets))
	for i := range values {
		values[i] = out.AtVec(i)
	}
	return values, nil
}

// Save writes the model to a YAML file. Weights and coordinates are encoded
// with shortest round-trip float formatting, so a loaded model predicts
// bit-identical values.
func (m *FittedModel) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating model directory: %w", err)
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("error marshaling model: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing model file: %w", err)
	}
	return nil
}

// LoadModel reads a model previously written by Save and validates its
// shape before returning it.
func LoadModel(path string) (*FittedModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading model file: %w", err)
	}

	m := &FittedModel{}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("error parsing model file: %w", err)
	}
	if len(m.Sources) != len(m.Weights) {
		return nil, fmt.Errorf("eqs: model file has %d sources but %d weights: %w",
			len(m.Sources), len(m.Weights), survey.ErrDimensionMismatch)
	}
	if _, err := m.Kernel.Resolve(); err != nil {
		return nil, err
	}
	return m, nil
}
