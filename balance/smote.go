// Package balance oversamples minority classes with SMOTE.
package balance

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// DefaultK is the neighbour count used when SMOTE.K is zero.
const DefaultK = 5

var (
	// ErrTooFewSamples is returned when a class that needs oversampling has
	// no more than K rows.
	ErrTooFewSamples = errors.New("too few samples for SMOTE")
	// ErrShape is returned for empty or ragged input.
	ErrShape = errors.New("inconsistent input shape")
)

// SMOTE synthesizes minority class rows by interpolating between a row and
// one of its K nearest same-class neighbours until every class matches the
// majority count. A fixed Seed gives identical output for identical input.
type SMOTE struct {
	K    int
	Seed uint64
}

// Resample returns the original rows followed by the synthetic rows, class
// by class in ascending label order. The input is not modified.
func (s SMOTE) Resample(X [][]float64, y []int) ([][]float64, []int, error) {
	if len(X) == 0 || len(X) != len(y) {
		return nil, nil, fmt.Errorf("balance: %w: %d rows, %d labels", ErrShape, len(X), len(y))
	}
	dim := len(X[0])
	for i, row := range X {
		if len(row) != dim {
			return nil, nil, fmt.Errorf("balance: %w: row %d has %d columns, want %d", ErrShape, i, len(row), dim)
		}
	}
	k := s.K
	if k <= 0 {
		k = DefaultK
	}

	members := make(map[int][]int)
	for i, label := range y {
		members[label] = append(members[label], i)
	}
	labels := make([]int, 0, len(members))
	target := 0
	for label, idx := range members {
		labels = append(labels, label)
		target = max(target, len(idx))
	}
	sort.Ints(labels)

	outX := make([][]float64, len(X), len(labels)*target)
	outY := make([]int, len(y), len(labels)*target)
	copy(outX, X)
	copy(outY, y)

	rng := rand.New(rand.NewPCG(s.Seed, s.Seed))
	for _, label := range labels {
		idx := members[label]
		need := target - len(idx)
		if need == 0 {
			continue
		}
		if len(idx) <= k {
			return nil, nil, fmt.Errorf("balance: %w: class %d has %d rows, need more than %d", ErrTooFewSamples, label, len(idx), k)
		}
		rows := make([][]float64, len(idx))
		for i, j := range idx {
			rows[i] = X[j]
		}
		nn := neighbours(rows, k)
		diff := make([]float64, dim)
		for range need {
			pick := rng.IntN(len(rows) * k)
			base := rows[pick/k]
			other := rows[nn[pick/k][pick%k]]
			gap := rng.Float64()

			synth := make([]float64, dim)
			copy(synth, base)
			floats.SubTo(diff, other, base)
			floats.AddScaled(synth, gap, diff)
			outX = append(outX, synth)
			outY = append(outY, label)
		}
	}
	return outX, outY, nil
}

// neighbours returns, for every row, the positions of its k nearest other
// rows by Euclidean distance. Ties go to the lower position.
func neighbours(rows [][]float64, k int) [][]int {
	out := make([][]int, len(rows))
	order := make([]int, 0, len(rows)-1)
	dist := make([]float64, len(rows))
	for i, row := range rows {
		order = order[:0]
		for j, other := range rows {
			if j == i {
				continue
			}
			dist[j] = floats.Distance(row, other, 2)
			order = append(order, j)
		}
		sort.SliceStable(order, func(a, b int) bool {
			return dist[order[a]] < dist[order[b]]
		})
		out[i] = append([]int(nil), order[:k]...)
	}
	return out
}

// Counts returns the number of rows per label.
func Counts(y []int) map[int]int {
	counts := make(map[int]int)
	for _, label := range y {
		counts[label]++
	}
	return counts
}
