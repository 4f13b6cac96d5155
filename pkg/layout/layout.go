// Package layout places the fictitious point sources that the equivalent
// sources gridder fits. Sources always sit below the data by a configured
// depth; the policy decides whether there is one source per observation or
// a reduced set obtained by block averaging.
package layout

import (
	"fmt"
	"math"
	"sort"

	"eqsgrid/pkg/survey"
)

// Policy selects a source placement strategy.
type Policy string

const (
	// PolicyBelowData places one source per observation point, shifted
	// straight down by the configured depth.
	PolicyBelowData Policy = "below_data"

	// PolicyBlockAveraged groups observations into horizontal blocks and
	// places one source per non-empty block, at the block's mean
	// position shifted down by the configured depth. Cuts the source
	// count, and with it the quadratic assembly cost, on dense surveys.
	PolicyBlockAveraged Policy = "block_averaged"
)

// MinDepthFactor is the smallest admissible ratio of source depth to the
// median point spacing. Shallower sources sit too close to the data and
// push the kernel towards its singularity; the builder rejects such
// configurations instead of clamping them.
const MinDepthFactor = 0.05

// Config holds the source layout parameters.
type Config struct {
	// Policy selects the placement strategy.
	Policy Policy `yaml:"policy"`

	// Depth is the vertical offset below the observations, in meters.
	// Must be positive and at least MinDepthFactor times the median
	// point spacing.
	Depth float64 `yaml:"depth"`

	// BlockSize is the horizontal block edge length in meters, used only
	// by PolicyBlockAveraged. Larger blocks mean fewer sources and a
	// cheaper, smoother model; smaller blocks track short-wavelength
	// signal at quadratic assembly cost. There is no canonical optimal
	// value, so it must be chosen explicitly.
	BlockSize float64 `yaml:"blockSize,omitempty"`
}

// Validate checks the configuration against the observation geometry.
func (c Config) Validate(obs *survey.Observations) error {
	switch c.Policy {
	case PolicyBelowData, PolicyBlockAveraged:
	default:
		return fmt.Errorf("layout: unknown policy %q: %w", c.Policy, survey.ErrConfiguration)
	}
	if c.Depth <= 0 || math.IsNaN(c.Depth) {
		return fmt.Errorf("layout: non-positive depth %g: %w", c.Depth, survey.ErrConfiguration)
	}
	if c.Policy == PolicyBlockAveraged && c.BlockSize <= 0 {
		return fmt.Errorf("layout: non-positive block size %g: %w", c.BlockSize, survey.ErrConfiguration)
	}

	spacing, err := survey.MedianSpacing(obs.Points)
	if err != nil {
		return err
	}
	if min := MinDepthFactor * spacing; c.Depth < min {
		return fmt.Errorf("layout: depth %g below minimum %g (%g x median spacing %g): %w",
			c.Depth, min, MinDepthFactor, spacing, survey.ErrConfiguration)
	}
	return nil
}

// Build produces the source locations for the given observations. The
// returned points are freshly allocated and immutable by convention.
func Build(obs *survey.Observations, cfg Config) ([]survey.Point, error) {
	if err := obs.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(obs); err != nil {
		return nil, err
	}

	switch cfg.Policy {
	case PolicyBelowData:
		return belowData(obs.Points, cfg.Depth), nil
	default:
		return blockAveraged(obs.Points, cfg.BlockSize, cfg.Depth), nil
	}
}

func belowData(points []survey.Point, depth float64) []survey.Point {
	sources := make([]survey.Point, len(points))
	for i, p := range points {
		sources[i] = survey.Point{
			Easting:  p.Easting,
			Northing: p.Northing,
			Upward:   p.Upward - depth,
		}
	}
	return sources
}

// blockKey identifies a horizontal block by its integer cell coordinates.
type blockKey struct {
	i, j int64
}

func blockAveraged(points []survey.Point, blockSize, depth float64) []survey.Point {
	type accum struct {
		easting, northing, upward float64
		count                     int
	}

	blocks := make(map[blockKey]*accum)
	for _, p := range points {
		key := blockKey{
			i: int64(math.Floor(p.Easting / blockSize)),
			j: int64(math.Floor(p.Northing / blockSize)),
		}
		a, ok := blocks[key]
		if !ok {
			a = &accum{}
			blocks[key] = a
		}
		a.easting += p.Easting
		a.northing += p.Northing
		a.upward += p.Upward
		a.count++
	}

	// Map iteration order is random; sort the keys so the source layout,
	// and with it the fitted weights, is deterministic.
	keys := make([]blockKey, 0, len(blocks))
	for key := range blocks {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(a, b int) bool {
		if keys[a].i != keys[b].i {
			return keys[a].i < keys[b].i
		}
		return keys[a].j < keys[b].j
	})

	sources := make([]survey.Point, 0, len(keys))
	for _, key := range keys {
		a := blocks[key]
		n := float64(a.count)
		sources = append(sources, survey.Point{
			Easting:  a.easting / n,
			Northing: a.northing / n,
			Upward:   a.upward/n - depth,
		})
	}
	return sources
}
