// Package survey holds the data model shared by the gridding engine: 3D
// observation coordinates, scattered survey data, prediction grids and the
// spatial helpers built on top of them.
package survey

import (
	"gonum.org/v1/gonum/spatial/kdtree"
)

// Point is a 3D coordinate in a Cartesian survey frame. Easting and Northing
// are horizontal coordinates in meters, Upward is height above the reference
// surface (negative below it).
type Point struct {
	Easting  float64 `yaml:"easting"`
	Northing float64 `yaml:"northing"`
	Upward   float64 `yaml:"upward"`
}

// Compare implements the kdtree.Comparable interface.
func (p Point) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(Point)
	switch d {
	case 0:
		return p.Easting - q.Easting
	case 1:
		return p.Northing - q.Northing
	case 2:
		return p.Upward - q.Upward
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the KD-tree.
func (p Point) Dims() int { return 3 }

// Distance returns the squared Euclidean distance between two points.
// Squared distances keep kdtree queries cheap; callers take the root.
func (p Point) Distance(c kdtree.Comparable) float64 {
	q := c.(Point)
	dx := p.Easting - q.Easting
	dy := p.Northing - q.Northing
	dz := p.Upward - q.Upward
	return dx*dx + dy*dy + dz*dz
}

// Points is a collection of Point that satisfies kdtree.Interface.
type Points []Point

func (p Points) Index(i int) kdtree.Comparable         { return p[i] }
func (p Points) Len() int                              { return len(p) }
func (p Points) Slice(start, end int) kdtree.Interface { return p[start:end] }

// Pivot implements the kdtree.Interface method.
func (p Points) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(pointPlane{Points: p, Dim: d}, kdtree.MedianOfRandoms(pointPlane{Points: p, Dim: d}, 100))
}

// pointPlane implements sort.Interface and kdtree.SortSlicer for Points.
type pointPlane struct {
	Points
	kdtree.Dim
}

func (p pointPlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.Points[i].Easting < p.Points[j].Easting
	case 1:
		return p.Points[i].Northing < p.Points[j].Northing
	case 2:
		return p.Points[i].Upward < p.Points[j].Upward
	default:
		panic("illegal dimension")
	}
}

func (p pointPlane) Slice(start, end int) kdtree.SortSlicer {
	return pointPlane{Points: p.Points[start:end], Dim: p.Dim}
}

func (p pointPlane) Swap(i, j int) {
	p.Points[i], p.Points[j] = p.Points[j], p.Points[i]
}
