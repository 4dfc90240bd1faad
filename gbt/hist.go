package gbt

import (
	"slices"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// binner discretizes feature columns into at most maxBins bins. cuts[f][b]
// is the largest value that falls into bin b of feature f, so a value x has
// bin SearchFloat64s(cuts[f], x).
type binner struct {
	cuts [][]float64
	bins [][]uint16 // [feature][row]
}

func newBinner(X [][]float64, maxBins int) *binner {
	dim := len(X[0])
	b := &binner{
		cuts: make([][]float64, dim),
		bins: make([][]uint16, dim),
	}
	col := make([]float64, len(X))
	for f := range dim {
		for i, row := range X {
			col[i] = row[f]
		}
		cuts := cutPoints(col, maxBins)
		bins := make([]uint16, len(X))
		for i, v := range col {
			bins[i] = uint16(sort.SearchFloat64s(cuts, v))
		}
		b.cuts[f] = cuts
		b.bins[f] = bins
	}
	return b
}

// cutPoints returns the distinct values of col when there are at most
// maxBins of them, and empirical quantiles capped by the maximum otherwise.
func cutPoints(col []float64, maxBins int) []float64 {
	sorted := slices.Clone(col)
	sort.Float64s(sorted)
	uniq := slices.Compact(slices.Clone(sorted))
	if len(uniq) <= maxBins {
		return uniq
	}
	cuts := make([]float64, 0, maxBins)
	for k := 1; k < maxBins; k++ {
		q := stat.Quantile(float64(k)/float64(maxBins), stat.Empirical, sorted, nil)
		if len(cuts) == 0 || q > cuts[len(cuts)-1] {
			cuts = append(cuts, q)
		}
	}
	if last := sorted[len(sorted)-1]; cuts[len(cuts)-1] < last {
		cuts = append(cuts, last)
	}
	return cuts
}
