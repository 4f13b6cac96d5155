package kernel

import "eqsgrid/pkg/survey"

// magneticDipole returns the evaluator for the total-field anomaly of a
// point dipole with unit moment magnetized along the ambient field
// direction (pure induced magnetization). With f the ambient unit vector
// and s = f·Δ the projection of the separation onto it, the anomaly is
//
//	ΔT = Cm (3 s²/r⁵ - 1/r³)
//
// in nT, which is the dipole field projected back onto the ambient
// direction. Derivatives are taken with respect to the target coordinate.
func magneticDipole(inclination, declination float64, deriv Derivative) Evaluator {
	fe, fn, fu := directionCosines(inclination, declination)

	return func(source, target survey.Point) (float64, error) {
		dx, dy, dz, r, err := separation(source, target)
		if err != nil {
			return 0, err
		}
		s := fe*dx + fn*dy + fu*dz
		r2 := r * r
		r3 := r2 * r
		r5 := r3 * r2

		if deriv == DerivativeNone {
			return t2nT * cm * (3*s*s/r5 - 1/r3), nil
		}

		var dk, fk float64
		switch deriv {
		case DerivativeEasting:
			dk, fk = dx, fe
		case DerivativeNorthing:
			dk, fk = dy, fn
		case DerivativeUpward:
			dk, fk = dz, fu
		}
		r7 := r5 * r2
		return t2nT * cm * (6*s*fk/r5 - 15*s*s*dk/r7 + 3*dk/r5), nil
	}
}
