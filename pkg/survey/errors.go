package survey

import "errors"

// Sentinel errors for the whole gridding engine. Downstream packages wrap
// these with fmt.Errorf("...: %w", ...) so callers can classify failures
// with errors.Is regardless of which component raised them.
var (
	// ErrConfiguration flags invalid hyperparameters: non-positive source
	// depths, negative damping, fold counts exceeding the data size.
	// Deterministic function of the inputs; fix the parameters and retry.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrDimensionMismatch flags coordinate/value arrays of inconsistent
	// lengths or a model applied to incompatible inputs. Never silently
	// truncated.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrSingular flags a numerical singularity: a zero source-to-target
	// distance during kernel evaluation, or a singular system during solve.
	ErrSingular = errors.New("numerical singularity")
)
