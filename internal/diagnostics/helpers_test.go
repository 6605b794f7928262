package diagnostics

import (
	"math/rand/v2"
)

// iidChains returns standard normal draws with a fixed seed.
func iidChains(chains, draws int, seed uint64) [][]float64 {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([][]float64, chains)
	for c := range out {
		out[c] = make([]float64, draws)
		for d := range out[c] {
			out[c][d] = r.NormFloat64()
		}
	}
	return out
}

// ar1Chains returns AR(1) chains x_t = phi*x_{t-1} + e_t.
func ar1Chains(chains, draws int, phi float64, seed uint64) [][]float64 {
	r := rand.New(rand.NewPCG(seed, seed+1))
	out := make([][]float64, chains)
	for c := range out {
		out[c] = make([]float64, draws)
		x := 0.0
		for d := range out[c] {
			x = phi*x + r.NormFloat64()
			out[c][d] = x
		}
	}
	return out
}

func shift(chains [][]float64, chain int, by float64) [][]float64 {
	for d := range chains[chain] {
		chains[chain][d] += by
	}
	return chains
}
