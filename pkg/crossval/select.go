package crossval

import (
	"fmt"

	"eqsgrid/internal/parallel"
	"eqsgrid/pkg/eqs"
	"eqsgrid/pkg/survey"
)

// Candidate is one hyperparameter combination to score.
type Candidate struct {
	Depth   float64 `yaml:"depth"`
	Damping float64 `yaml:"damping"`
}

// Score is the cross-validated result of one candidate. A non-nil Err means
// at least one fold failed; the candidate is reported but excluded from
// selection.
type Score struct {
	Candidate Candidate
	MeanR2    float64
	Err       error
}

// Result holds the winning candidate and the per-candidate scores.
type Result struct {
	Best   Candidate
	Scores []Score
}

// Options configures a Select run.
type Options struct {
	// Folds is the number of cross-validation folds.
	Folds int

	// BlockSize is the spatial blocking cell size for fold construction,
	// in meters.
	BlockSize float64

	// Seed fixes the fold partition; identical inputs and seed give an
	// identical search result.
	Seed int64

	// Workers bounds the parallel fit/predict units; <= 0 means one per
	// CPU.
	Workers int
}

// Select grid-searches the candidates by cross-validation: for every
// (candidate, fold) pair the base gridder, with depth and damping
// overridden by the candidate, is fit on the training folds and scored with
// R² on the held-out fold. Per-candidate scores are averaged across folds
// and the best mean wins; ties prefer the stronger damping and then the
// deeper sources, deterministically.
//
// Units are independent, so they run on a bounded worker pool with no
// shared state. A failing fold marks its candidate as failed without
// aborting the search; Select errors only if every candidate failed.
func Select(obs *survey.Observations, base eqs.Gridder, candidates []Candidate, opts Options) (Result, error) {
	if len(candidates) == 0 {
		return Result{}, fmt.Errorf("crossval: no candidates: %w", survey.ErrConfiguration)
	}
	folds, err := SpatialKFold(obs, opts.Folds, opts.BlockSize, opts.Seed)
	if err != nil {
		return Result{}, err
	}

	type unit struct {
		r2  float64
		err error
	}
	k := len(folds)
	units := make([]unit, len(candidates)*k)

	parallel.For(len(units), opts.Workers, func(start, end int) {
		for u := start; u < end; u++ {
			ci, fi := u/k, u%k
			units[u].r2, units[u].err = evalUnit(obs, base, candidates[ci], folds[fi])
		}
	})

	scores := make([]Score, len(candidates))
	best := -1
	for ci, c := range candidates {
		s := Score{Candidate: c}
		sum := 0.0
		for fi := 0; fi < k; fi++ {
			u := units[ci*k+fi]
			if u.err != nil && s.Err == nil {
				s.Err = fmt.Errorf("fold %d: %w", fi, u.err)
			}
			sum += u.r2
		}
		if s.Err == nil {
			s.MeanR2 = sum / float64(k)
			if best < 0 || better(s, scores[best]) {
				best = ci
			}
		}
		scores[ci] = s
	}

	if best < 0 {
		var first error
		for _, s := range scores {
			if s.Err != nil {
				first = s.Err
				break
			}
		}
		return Result{Scores: scores}, fmt.Errorf("crossval: every candidate failed: %w", first)
	}
	return Result{Best: candidates[best], Scores: scores}, nil
}

// better reports whether s beats the current best. Exact score ties go to
// the simpler model: stronger damping first, deeper sources second.
func better(s, cur Score) bool {
	if s.MeanR2 != cur.MeanR2 {
		return s.MeanR2 > cur.MeanR2
	}
	if s.Candidate.Damping != cur.Candidate.Damping {
		return s.Candidate.Damping > cur.Candidate.Damping
	}
	return s.Candidate.Depth > cur.Candidate.Depth
}

// evalUnit fits one candidate on one fold's training points and scores the
// prediction on its held-out points.
func evalUnit(obs *survey.Observations, base eqs.Gridder, c Candidate, fold Fold) (float64, error) {
	g := base
	g.Layout.Depth = c.Depth
	g.Damping = c.Damping

	model, err := g.Fit(obs.Subset(fold.Train))
	if err != nil {
		return 0, err
	}

	test := obs.Subset(fold.Test)
	predicted, err := model.Predict(test.Points, base.Kernel.Derivative)
	if err != nil {
		return 0, err
	}
	return eqs.RSquared(test.Values, predicted), nil
}
