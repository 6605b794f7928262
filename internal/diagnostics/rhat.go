package diagnostics

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// rhat is the classic potential scale reduction factor.
func rhat(chains [][]float64) float64 {
	n := float64(len(chains[0]))
	means := make([]float64, len(chains))
	vars := make([]float64, len(chains))
	for i, c := range chains {
		means[i], vars[i] = stat.MeanVariance(c, nil)
	}
	between := n * stat.Variance(means, nil)
	within := stat.Mean(vars, nil)
	if within == 0 {
		return math.NaN()
	}
	return math.Sqrt((between/within + n - 1) / n)
}

// RHat is the rank-normalized split R-hat: the maximum of the bulk R-hat and
// the R-hat of the draws folded around their pooled median before splitting.
// It needs at least two chains.
func RHat(chains [][]float64) float64 {
	if !valid(chains, 2) {
		return math.NaN()
	}
	split := splitChains(chains)
	bulk := rhat(zScale(split))
	tail := rhat(zScale(splitChains(fold(chains))))
	if math.IsNaN(bulk) || math.IsNaN(tail) {
		return math.NaN()
	}
	return math.Max(bulk, tail)
}
