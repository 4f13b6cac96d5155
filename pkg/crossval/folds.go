// Package crossval selects equivalent sources hyperparameters by K-fold
// cross-validation over a grid of (depth, damping) candidates. Folds are
// built by spatial blocking rather than plain random shuffling: nearby
// points are spatially correlated, so random folds would leak information
// between train and test sets and overstate accuracy.
package crossval

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"eqsgrid/pkg/survey"
)

// Fold is one train/test split, expressed as observation indices.
type Fold struct {
	Train []int
	Test  []int
}

// SpatialKFold partitions the observations into k folds by horizontal
// blocking: points are bucketed into blockSize cells, the cells are
// shuffled with the given seed and dealt round-robin to folds, so points
// sharing a block always land in the same fold. The same inputs and seed
// always produce the same partition.
func SpatialKFold(obs *survey.Observations, k int, blockSize float64, seed int64) ([]Fold, error) {
	if err := obs.Validate(); err != nil {
		return nil, err
	}
	n := obs.Len()
	if k < 2 {
		return nil, fmt.Errorf("crossval: need at least 2 folds, got %d: %w", k, survey.ErrConfiguration)
	}
	if k > n {
		return nil, fmt.Errorf("crossval: %d folds for %d observations: %w", k, n, survey.ErrConfiguration)
	}
	if blockSize <= 0 || math.IsNaN(blockSize) {
		return nil, fmt.Errorf("crossval: non-positive block size %g: %w", blockSize, survey.ErrConfiguration)
	}

	type cell struct {
		i, j int64
	}
	blocks := make(map[cell][]int)
	for idx, p := range obs.Points {
		key := cell{
			i: int64(math.Floor(p.Easting / blockSize)),
			j: int64(math.Floor(p.Northing / blockSize)),
		}
		blocks[key] = append(blocks[key], idx)
	}
	if len(blocks) < k {
		return nil, fmt.Errorf("crossval: only %d spatial blocks for %d folds; shrink the block size: %w",
			len(blocks), k, survey.ErrConfiguration)
	}

	// Sort the keys before shuffling so the partition depends only on the
	// seed, not on map iteration order.
	keys := make([]cell, 0, len(blocks))
	for key := range blocks {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(a, b int) bool {
		if keys[a].i != keys[b].i {
			return keys[a].i < keys[b].i
		}
		return keys[a].j < keys[b].j
	})

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(keys), func(a, b int) {
		keys[a], keys[b] = keys[b], keys[a]
	})

	testSets := make([][]int, k)
	for b, key := range keys {
		testSets[b%k] = append(testSets[b%k], blocks[key]...)
	}

	folds := make([]Fold, k)
	for f, test := range testSets {
		sort.Ints(test)
		inTest := make([]bool, n)
		for _, idx := range test {
			inTest[idx] = true
		}
		train := make([]int, 0, n-len(test))
		for idx := 0; idx < n; idx++ {
			if !inTest[idx] {
				train = append(train, idx)
			}
		}
		folds[f] = Fold{Train: train, Test: test}
	}
	return folds, nil
}
