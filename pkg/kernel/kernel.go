// Package kernel implements the closed-form Green's functions linking a
// fictitious point source to an observation point: gravitational potential,
// the upward component of gravitational acceleration, and the total-field
// magnetic dipole anomaly, each with optional spatial derivatives.
//
// Kernels are resolved once, at model-build time, into a concrete Evaluator
// function; per-evaluation dispatch never happens. All evaluators are pure
// and deterministic given floating-point inputs.
package kernel

import (
	"fmt"
	"math"

	"eqsgrid/pkg/survey"
)

// Physical constants and unit conversions. Coordinates are meters; the
// upward acceleration kernel is returned in mGal and the magnetic kernel in
// nT, following the usual potential-field conventions.
const (
	// GravitationalConst is the gravitational constant in SI units
	// (m^3 kg^-1 s^-2).
	GravitationalConst = 6.6743e-11

	si2mGal = 1e5 // m/s^2 -> mGal
	t2nT    = 1e9 // tesla -> nanotesla
	cm      = 1e-7 // magnetic constant mu_0 / (4 pi), in T·m/A
)

// MinSeparation is the smallest admissible source-to-target distance in
// meters. Anything closer is treated as a singularity: layouts are expected
// to keep sources strictly below the data by construction, so hitting this
// limit indicates a broken layout, not bad luck.
const MinSeparation = 1e-8

// Field selects the physical field a kernel evaluates.
type Field string

const (
	// GravityPotential is the gravitational potential of a unit point
	// mass, G/r.
	GravityPotential Field = "gravity_potential"

	// GravityUpward is the upward component of the gravitational
	// acceleration of a unit point mass, in mGal. Negative when the
	// source sits below the observation point.
	GravityUpward Field = "gravity_upward"

	// MagneticDipole is the total-field anomaly of a dipole with unit
	// moment magnetized along the ambient field direction, in nT.
	MagneticDipole Field = "magnetic_dipole"
)

// Derivative selects a spatial derivative of the chosen field, taken with
// respect to the target coordinate. DerivativeNone evaluates the field
// itself.
type Derivative string

const (
	DerivativeNone     Derivative = "none"
	DerivativeEasting  Derivative = "easting"
	DerivativeNorthing Derivative = "northing"
	DerivativeUpward   Derivative = "upward"
)

// Params fully describes a kernel: the field type, the requested derivative
// and, for magnetics, the ambient field direction in degrees (inclination
// positive downward, declination measured from north towards east).
type Params struct {
	Field       Field      `yaml:"field"`
	Derivative  Derivative `yaml:"derivative"`
	Inclination float64    `yaml:"inclination,omitempty"`
	Declination float64    `yaml:"declination,omitempty"`
}

// Evaluator computes the field contribution of a unit source at the given
// target. It fails with survey.ErrSingular when the pair is closer than
// MinSeparation.
type Evaluator func(source, target survey.Point) (float64, error)

// Resolve validates the parameters and returns the matching Evaluator.
// The returned function is safe for concurrent use.
func (p Params) Resolve() (Evaluator, error) {
	deriv := p.Derivative
	if deriv == "" {
		deriv = DerivativeNone
	}
	switch deriv {
	case DerivativeNone, DerivativeEasting, DerivativeNorthing, DerivativeUpward:
	default:
		return nil, fmt.Errorf("kernel: unknown derivative %q: %w", p.Derivative, survey.ErrConfiguration)
	}

	switch p.Field {
	case GravityPotential:
		return gravityPotential(deriv), nil
	case GravityUpward:
		return gravityUpward(deriv), nil
	case MagneticDipole:
		if p.Inclination < -90 || p.Inclination > 90 {
			return nil, fmt.Errorf("kernel: inclination %g outside [-90, 90]: %w",
				p.Inclination, survey.ErrConfiguration)
		}
		return magneticDipole(p.Inclination, p.Declination, deriv), nil
	default:
		return nil, fmt.Errorf("kernel: unknown field %q: %w", p.Field, survey.ErrConfiguration)
	}
}

// separation returns the target-minus-source offsets and the Euclidean
// distance, guarding the singular configuration.
func separation(source, target survey.Point) (dx, dy, dz, r float64, err error) {
	dx = target.Easting - source.Easting
	dy = target.Northing - source.Northing
	dz = target.Upward - source.Upward
	r = math.Sqrt(dx*dx + dy*dy + dz*dz)
	if r < MinSeparation {
		err = fmt.Errorf("kernel: source (%g, %g, %g) within %g m of target (%g, %g, %g): %w",
			source.Easting, source.Northing, source.Upward, MinSeparation,
			target.Easting, target.Northing, target.Upward, survey.ErrSingular)
	}
	return dx, dy, dz, r, err
}

// directionCosines converts inclination/declination in degrees to a unit
// vector in (easting, northing, upward) components.
func directionCosines(inclination, declination float64) (e, n, u float64) {
	inc := inclination * math.Pi / 180
	dec := declination * math.Pi / 180
	cosInc := math.Cos(inc)
	return cosInc * math.Sin(dec), cosInc * math.Cos(dec), -math.Sin(inc)
}
