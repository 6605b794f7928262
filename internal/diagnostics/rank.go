package diagnostics

import (
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// blomOffset is the c in (r - c) / (S - 2c + 1).
const blomOffset = 3.0 / 8.0

// splitChains cuts every chain into its first and last floor(n/2) draws.
// With an odd draw count the middle draw is dropped.
func splitChains(chains [][]float64) [][]float64 {
	if len(chains) == 0 {
		return nil
	}
	half := len(chains[0]) / 2
	out := make([][]float64, 0, 2*len(chains))
	for _, c := range chains {
		out = append(out, c[:half])
	}
	for _, c := range chains {
		out = append(out, c[len(c)-half:])
	}
	return out
}

// zScale replaces every value by the normal quantile of its pooled
// fractional rank. Ties share their average rank.
func zScale(chains [][]float64) [][]float64 {
	flat := flatten(chains)
	ranks := averageRanks(flat)
	size := float64(len(flat))

	out := make([][]float64, len(chains))
	k := 0
	for i, c := range chains {
		out[i] = make([]float64, len(c))
		for j := range c {
			p := (ranks[k] - blomOffset) / (size - 2*blomOffset + 1)
			out[i][j] = distuv.UnitNormal.Quantile(p)
			k++
		}
	}
	return out
}

// averageRanks returns 1-based ranks with ties assigned their mean rank.
func averageRanks(x []float64) []float64 {
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return x[idx[a]] < x[idx[b]] })

	ranks := make([]float64, len(x))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && x[idx[j+1]] == x[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}
	return ranks
}

// fold returns |x - median(x)| over pooled draws.
func fold(chains [][]float64) [][]float64 {
	sorted := flatten(chains)
	slices.Sort(sorted)
	med := quantile(sorted, 0.5)

	out := make([][]float64, len(chains))
	for i, c := range chains {
		out[i] = make([]float64, len(c))
		for j, v := range c {
			out[i][j] = math.Abs(v - med)
		}
	}
	return out
}

// indicator returns 1 where x <= threshold and 0 elsewhere.
func indicator(chains [][]float64, threshold float64) [][]float64 {
	out := make([][]float64, len(chains))
	for i, c := range chains {
		out[i] = make([]float64, len(c))
		for j, v := range c {
			if v <= threshold {
				out[i][j] = 1
			}
		}
	}
	return out
}

func square(chains [][]float64) [][]float64 {
	out := make([][]float64, len(chains))
	for i, c := range chains {
		out[i] = make([]float64, len(c))
		for j, v := range c {
			out[i][j] = v * v
		}
	}
	return out
}

func flatten(chains [][]float64) []float64 {
	n := 0
	for _, c := range chains {
		n += len(c)
	}
	out := make([]float64, 0, n)
	for _, c := range chains {
		out = append(out, c...)
	}
	return out
}

// quantile is the linear-interpolation estimator between closest ranks
// (Hyndman-Fan type 7) on sorted data.
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}
