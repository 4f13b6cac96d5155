package survey

import (
	"errors"
	"math"
	"testing"
)

// TestObservationsValidate verifies the dimension and weight checks
func TestObservationsValidate(t *testing.T) {
	obs := &Observations{
		Points: []Point{{0, 0, 0}, {10, 0, 0}},
		Values: []float64{1, 2},
	}
	if err := obs.Validate(); err != nil {
		t.Fatalf("valid observations rejected: %v", err)
	}

	// Mismatched value count must be a dimension mismatch, not a truncation
	bad := &Observations{
		Points: []Point{{0, 0, 0}, {10, 0, 0}},
		Values: []float64{1},
	}
	if err := bad.Validate(); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}

	empty := &Observations{}
	if err := empty.Validate(); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch for empty set, got %v", err)
	}

	badWeights := &Observations{
		Points:  []Point{{0, 0, 0}, {10, 0, 0}},
		Values:  []float64{1, 2},
		Weights: []float64{1, -1},
	}
	if err := badWeights.Validate(); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration for negative weight, got %v", err)
	}

	shortWeights := &Observations{
		Points:  []Point{{0, 0, 0}, {10, 0, 0}},
		Values:  []float64{1, 2},
		Weights: []float64{1},
	}
	if err := shortWeights.Validate(); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch for short weights, got %v", err)
	}
}

// TestSubset verifies fold extraction copies the selected points
func TestSubset(t *testing.T) {
	obs := &Observations{
		Points:  []Point{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {3, 0, 0}},
		Values:  []float64{10, 11, 12, 13},
		Weights: []float64{1, 2, 3, 4},
	}

	sub := obs.Subset([]int{3, 1})
	if sub.Len() != 2 {
		t.Fatalf("expected 2 points, got %d", sub.Len())
	}
	if sub.Points[0].Easting != 3 || sub.Values[0] != 13 || sub.Weights[0] != 4 {
		t.Errorf("index 3 not extracted correctly: %+v %v %v", sub.Points[0], sub.Values[0], sub.Weights[0])
	}
	if sub.Points[1].Easting != 1 || sub.Values[1] != 11 || sub.Weights[1] != 2 {
		t.Errorf("index 1 not extracted correctly: %+v %v %v", sub.Points[1], sub.Values[1], sub.Weights[1])
	}

	// The subset must be an independent copy
	sub.Values[0] = -1
	if obs.Values[3] != 13 {
		t.Error("subset mutation leaked into the parent observations")
	}
}

// TestMedianSpacing verifies the nearest-neighbor median on a regular grid
func TestMedianSpacing(t *testing.T) {
	// 3x3 grid with 10 m spacing: every nearest neighbor is 10 m away
	points := make([]Point, 0, 9)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			points = append(points, Point{Easting: float64(j) * 10, Northing: float64(i) * 10})
		}
	}

	spacing, err := MedianSpacing(points)
	if err != nil {
		t.Fatalf("MedianSpacing failed: %v", err)
	}
	if math.Abs(spacing-10) > 1e-12 {
		t.Errorf("expected spacing 10, got %g", spacing)
	}

	if _, err := MedianSpacing(points[:1]); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch for a single point, got %v", err)
	}

	// All points coincident: no positive nearest-neighbor distance exists
	same := []Point{{1, 2, 3}, {1, 2, 3}, {1, 2, 3}}
	if _, err := MedianSpacing(same); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration for coincident points, got %v", err)
	}
}

// TestRegularGrid verifies grid shape, ordering and bounds
func TestRegularGrid(t *testing.T) {
	region := Region{West: 0, East: 30, South: 0, North: 20}
	points, err := RegularGrid(region, 4, 3, 100)
	if err != nil {
		t.Fatalf("RegularGrid failed: %v", err)
	}
	if len(points) != 12 {
		t.Fatalf("expected 12 points, got %d", len(points))
	}

	// Row-major: easting varies fastest
	if points[0] != (Point{0, 0, 100}) {
		t.Errorf("first point should be the south-west corner, got %+v", points[0])
	}
	if points[1] != (Point{10, 0, 100}) {
		t.Errorf("second point should step east, got %+v", points[1])
	}
	if points[11] != (Point{30, 20, 100}) {
		t.Errorf("last point should be the north-east corner, got %+v", points[11])
	}

	if _, err := RegularGrid(Region{West: 10, East: 0, South: 0, North: 1}, 4, 3, 0); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration for inverted region, got %v", err)
	}
	if _, err := RegularGrid(region, 1, 3, 0); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration for a 1-node axis, got %v", err)
	}
}
