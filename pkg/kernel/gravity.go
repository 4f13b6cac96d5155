package kernel

import "eqsgrid/pkg/survey"

// gravityPotential returns the evaluator for the potential of a unit point
// mass, V = G/r, or the requested spatial derivative of it. The easting,
// northing and upward derivatives of the potential are the corresponding
// acceleration components in SI units.
func gravityPotential(deriv Derivative) Evaluator {
	return func(source, target survey.Point) (float64, error) {
		dx, dy, dz, r, err := separation(source, target)
		if err != nil {
			return 0, err
		}
		r3 := r * r * r
		switch deriv {
		case DerivativeEasting:
			return -GravitationalConst * dx / r3, nil
		case DerivativeNorthing:
			return -GravitationalConst * dy / r3, nil
		case DerivativeUpward:
			return -GravitationalConst * dz / r3, nil
		default:
			return GravitationalConst / r, nil
		}
	}
}

// gravityUpward returns the evaluator for the upward acceleration component
// of a unit point mass in mGal, g_up = -G dz / r^3, matching the sign
// convention where a source below the observation point produces a negative
// upward component. Derivatives are the second-order gradient-tensor
// entries, in mGal per meter.
func gravityUpward(deriv Derivative) Evaluator {
	return func(source, target survey.Point) (float64, error) {
		dx, dy, dz, r, err := separation(source, target)
		if err != nil {
			return 0, err
		}
		r2 := r * r
		r3 := r2 * r
		r5 := r3 * r2
		switch deriv {
		case DerivativeEasting:
			return si2mGal * 3 * GravitationalConst * dz * dx / r5, nil
		case DerivativeNorthing:
			return si2mGal * 3 * GravitationalConst * dz * dy / r5, nil
		case DerivativeUpward:
			return si2mGal * GravitationalConst * (3*dz*dz/r5 - 1/r3), nil
		default:
			return -si2mGal * GravitationalConst * dz / r3, nil
		}
	}
}
