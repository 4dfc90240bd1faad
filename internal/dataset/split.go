package dataset

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
)

// ErrSmallClass is returned when a class has too few rows to appear on both
// sides of a split.
var ErrSmallClass = errors.New("class too small to stratify")

// StratifiedSplit partitions row indices into train and test sets so each
// label keeps its share of the test set. ceil(testSize*n) rows go to test.
// Both index lists are sorted ascending.
func StratifiedSplit(labels []int, testSize float64, seed uint64) (train, test []int, err error) {
	if !(testSize > 0 && testSize < 1) {
		return nil, nil, fmt.Errorf("dataset: test size must be in (0, 1), got %v", testSize)
	}
	n := len(labels)
	members := make(map[int][]int)
	for i, label := range labels {
		members[label] = append(members[label], i)
	}
	classes := make([]int, 0, len(members))
	for label, idx := range members {
		if len(idx) < 2 {
			return nil, nil, fmt.Errorf("dataset: %w: label %d has %d row", ErrSmallClass, label, len(idx))
		}
		classes = append(classes, label)
	}
	sort.Ints(classes)

	nTest := int(math.Ceil(testSize * float64(n)))
	if nTest < len(classes) || n-nTest < len(classes) {
		return nil, nil, fmt.Errorf("dataset: %w: %d test rows for %d classes", ErrSmallClass, nTest, len(classes))
	}

	// floor shares first, then the remainder by largest fractional part
	quota := make([]int, len(classes))
	frac := make([]float64, len(classes))
	assigned := 0
	for i, c := range classes {
		share := float64(len(members[c])) * float64(nTest) / float64(n)
		quota[i] = int(share)
		frac[i] = share - float64(quota[i])
		assigned += quota[i]
	}
	order := make([]int, len(classes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return frac[order[a]] > frac[order[b]] })
	if extra := nTest - assigned; extra > 0 {
		for _, i := range order[:min(extra, len(order))] {
			quota[i]++
		}
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	for i, c := range classes {
		idx := members[c]
		q := min(max(quota[i], 1), len(idx)-1)
		perm := rng.Perm(len(idx))
		for j, p := range perm {
			if j < q {
				test = append(test, idx[p])
			} else {
				train = append(train, idx[p])
			}
		}
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test, nil
}
