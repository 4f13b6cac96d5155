package kernel

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/mat"

	"eqsgrid/internal/parallel"
	"eqsgrid/pkg/survey"
)

// Matrix evaluates the kernel over the full (targets x sources) grid,
// producing the dense matrix K with K[i][j] = eval(sources[j], targets[i]).
// This is the single batch-evaluation path shared by system assembly and
// prediction, which is what guarantees that fitting and predicting see
// identical kernel semantics.
//
// Rows are filled in parallel across CPU cores; entries are independent, so
// workers only ever write to their own rows.
func Matrix(eval Evaluator, sources, targets []survey.Point) (*mat.Dense, error) {
	if eval == nil {
		return nil, fmt.Errorf("kernel: nil evaluator: %w", survey.ErrConfiguration)
	}
	if len(sources) == 0 || len(targets) == 0 {
		return nil, fmt.Errorf("kernel: %d sources x %d targets: %w",
			len(sources), len(targets), survey.ErrDimensionMismatch)
	}

	k := mat.NewDense(len(targets), len(sources), nil)

	var mu sync.Mutex
	var firstErr error

	parallel.For(len(targets), 0, func(start, end int) {
		for i := start; i < end; i++ {
			row := k.RawRowView(i)
			for j := range sources {
				v, err := eval(sources[j], targets[i])
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					return
				}
				row[j] = v
			}
		}
	})

	if firstErr != nil {
		return nil, firstErr
	}
	return k, nil
}
