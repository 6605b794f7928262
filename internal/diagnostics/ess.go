package diagnostics

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// minDraws is the smallest per-chain draw count diagnostics accept.
const minDraws = 4

// valid reports whether chains are rectangular, finite and long enough.
func valid(chains [][]float64, minChains int) bool {
	if len(chains) < minChains || len(chains) == 0 {
		return false
	}
	n := len(chains[0])
	if n < minDraws {
		return false
	}
	for _, c := range chains {
		if len(c) != n {
			return false
		}
		for _, v := range c {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// ess estimates the effective sample size of already split/transformed
// chains with Geyer's initial monotone sequence.
func ess(chains [][]float64) float64 {
	nChain := len(chains)
	nDraw := len(chains[0])
	size := float64(nChain * nDraw)

	flat := flatten(chains)
	if floats.Max(flat)-floats.Min(flat) < 1e-15 {
		return size
	}

	acov := make([][]float64, nChain)
	chainMean := make([]float64, nChain)
	for i, c := range chains {
		acov[i] = autocov(c)
		chainMean[i] = stat.Mean(c, nil)
	}
	meanAcov := func(lag int) float64 {
		sum := 0.0
		for _, a := range acov {
			sum += a[lag]
		}
		return sum / float64(nChain)
	}

	n := float64(nDraw)
	meanVar := meanAcov(0) * n / (n - 1)
	varPlus := meanVar * (n - 1) / n
	if nChain > 1 {
		varPlus += stat.Variance(chainMean, nil)
	}

	rho := make([]float64, nDraw)
	rhoEven := 1.0
	rho[0] = rhoEven
	rhoOdd := 1 - (meanVar-meanAcov(1))/varPlus
	rho[1] = rhoOdd

	// Initial positive sequence.
	t := 1
	for t < nDraw-3 && rhoEven+rhoOdd > 0 {
		rhoEven = 1 - (meanVar-meanAcov(t+1))/varPlus
		rhoOdd = 1 - (meanVar-meanAcov(t+2))/varPlus
		if rhoEven+rhoOdd >= 0 {
			rho[t+1] = rhoEven
			rho[t+2] = rhoOdd
		}
		t += 2
	}

	maxT := t - 2
	if rhoEven > 0 {
		rho[maxT+1] = rhoEven
	}

	// Initial monotone sequence.
	t = 1
	for t <= maxT-2 {
		if rho[t+1]+rho[t+2] > rho[t-1]+rho[t] {
			rho[t+1] = (rho[t-1] + rho[t]) / 2
			rho[t+2] = rho[t+1]
		}
		t += 2
	}

	tau := -1 + 2*floats.Sum(rho[:maxT+1]) + floats.Sum(rho[maxT+1:maxT+2])
	tau = math.Max(tau, 1/math.Log10(size))
	return size / tau
}

// ESSBulk is the effective sample size of the rank-normalized split chains.
func ESSBulk(chains [][]float64) float64 {
	if !valid(chains, 1) {
		return math.NaN()
	}
	return ess(zScale(splitChains(chains)))
}

// ESSTail is the minimum effective sample size of the 5% and 95% quantile
// indicators over split chains.
func ESSTail(chains [][]float64) float64 {
	if !valid(chains, 1) {
		return math.NaN()
	}
	sorted := flatten(chains)
	slices.Sort(sorted)
	q05 := quantile(sorted, 0.05)
	q95 := quantile(sorted, 0.95)

	ess05 := ess(splitChains(indicator(chains, q05)))
	ess95 := ess(splitChains(indicator(chains, q95)))
	return math.Min(ess05, ess95)
}

// ESSMean is the effective sample size for estimating the mean.
func ESSMean(chains [][]float64) float64 {
	if !valid(chains, 1) {
		return math.NaN()
	}
	return ess(splitChains(chains))
}

// ESSSD is the effective sample size for estimating the standard deviation:
// the smaller of the ESS of the draws and of their squares.
func ESSSD(chains [][]float64) float64 {
	if !valid(chains, 1) {
		return math.NaN()
	}
	split := splitChains(chains)
	return math.Min(ess(split), ess(square(split)))
}
