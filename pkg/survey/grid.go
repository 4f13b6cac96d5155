package survey

import "fmt"

// Region is a horizontal bounding box in survey coordinates.
type Region struct {
	West  float64 `yaml:"west"`
	East  float64 `yaml:"east"`
	South float64 `yaml:"south"`
	North float64 `yaml:"north"`
}

// Validate checks that the region has positive extent on both axes.
func (r Region) Validate() error {
	if r.East <= r.West || r.North <= r.South {
		return fmt.Errorf("survey: degenerate region [%g %g %g %g]: %w",
			r.West, r.East, r.South, r.North, ErrConfiguration)
	}
	return nil
}

// RegularGrid builds prediction targets on a regular horizontal grid at a
// constant height. Points are laid out row-major: northing varies slowest,
// easting fastest, so callers can reshape the prediction output into a
// (nNorthing, nEasting) raster.
func RegularGrid(region Region, nEasting, nNorthing int, height float64) ([]Point, error) {
	if err := region.Validate(); err != nil {
		return nil, err
	}
	if nEasting < 2 || nNorthing < 2 {
		return nil, fmt.Errorf("survey: grid shape %dx%d needs at least 2 nodes per axis: %w",
			nNorthing, nEasting, ErrConfiguration)
	}

	de := (region.East - region.West) / float64(nEasting-1)
	dn := (region.North - region.South) / float64(nNorthing-1)

	points := make([]Point, 0, nEasting*nNorthing)
	for i := 0; i < nNorthing; i++ {
		northing := region.South + float64(i)*dn
		for j := 0; j < nEasting; j++ {
			points = append(points, Point{
				Easting:  region.West + float64(j)*de,
				Northing: northing,
				Upward:   height,
			})
		}
	}
	return points, nil
}
