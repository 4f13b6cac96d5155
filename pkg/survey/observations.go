package survey

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// Observations is a set of scattered field measurements: one coordinate and
// one scalar value per point, plus an optional per-point weight (inverse
// variance). The slices are referenced, not copied; callers must not mutate
// them after handing them to the engine.
type Observations struct {
	Points  []Point
	Values  []float64
	Weights []float64 // nil means unweighted
}

// Len returns the number of observation points.
func (o *Observations) Len() int { return len(o.Points) }

// Validate checks that the coordinate, value and weight slices are
// consistent. Weights may be nil but, when present, must match the point
// count and be strictly positive.
func (o *Observations) Validate() error {
	if len(o.Points) == 0 {
		return fmt.Errorf("survey: no observation points: %w", ErrDimensionMismatch)
	}
	if len(o.Values) != len(o.Points) {
		return fmt.Errorf("survey: %d values for %d points: %w",
			len(o.Values), len(o.Points), ErrDimensionMismatch)
	}
	if o.Weights != nil && len(o.Weights) != len(o.Points) {
		return fmt.Errorf("survey: %d weights for %d points: %w",
			len(o.Weights), len(o.Points), ErrDimensionMismatch)
	}
	for i, w := range o.Weights {
		if w <= 0 || math.IsNaN(w) {
			return fmt.Errorf("survey: weight %g at index %d: %w", w, i, ErrConfiguration)
		}
	}
	return nil
}

// Subset extracts the observations at the given indices into a new set.
// Used by cross-validation to materialize folds; the underlying data is
// copied so folds can be fit concurrently.
func (o *Observations) Subset(indices []int) *Observations {
	sub := &Observations{
		Points: make([]Point, len(indices)),
		Values: make([]float64, len(indices)),
	}
	if o.Weights != nil {
		sub.Weights = make([]float64, len(indices))
	}
	for k, i := range indices {
		sub.Points[k] = o.Points[i]
		sub.Values[k] = o.Values[i]
		if o.Weights != nil {
			sub.Weights[k] = o.Weights[i]
		}
	}
	return sub
}

// MedianSpacing returns the median nearest-neighbor distance of a point set.
// Source layouts use it to judge whether a depth offset keeps sources safely
// away from the data; cross-validation uses it to size spatial blocks.
func MedianSpacing(points []Point) (float64, error) {
	if len(points) < 2 {
		return 0, fmt.Errorf("survey: need at least 2 points for spacing, got %d: %w",
			len(points), ErrDimensionMismatch)
	}

	// The tree holds its own copy so the caller's slice order is preserved.
	tree := kdtree.New(Points(append([]Point(nil), points...)), false)

	spacings := make([]float64, 0, len(points))
	for _, p := range points {
		// Two nearest: the query point itself at distance zero plus its
		// true nearest neighbor.
		keeper := kdtree.NewNKeeper(2)
		tree.NearestSet(keeper, p)

		best := math.Inf(1)
		for _, item := range keeper.Heap {
			if item.Comparable == nil {
				continue
			}
			if item.Dist > 0 && item.Dist < best {
				best = item.Dist
			}
		}
		if !math.IsInf(best, 1) {
			spacings = append(spacings, math.Sqrt(best))
		}
	}
	if len(spacings) == 0 {
		return 0, fmt.Errorf("survey: all points are coincident: %w", ErrConfiguration)
	}

	sort.Float64s(spacings)
	mid := len(spacings) / 2
	if len(spacings)%2 == 0 {
		return 0.5 * (spacings[mid-1] + spacings[mid]), nil
	}
	return spacings[mid], nil
}
