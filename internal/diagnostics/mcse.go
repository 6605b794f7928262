package diagnostics

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// MCSEMean is the Monte Carlo standard error of the posterior mean.
func MCSEMean(chains [][]float64) float64 {
	e := ESSMean(chains)
	if math.IsNaN(e) {
		return math.NaN()
	}
	return stat.StdDev(flatten(chains), nil) / math.Sqrt(e)
}

// MCSESD is the Monte Carlo standard error of the posterior standard
// deviation.
func MCSESD(chains [][]float64) float64 {
	e := ESSSD(chains)
	if math.IsNaN(e) {
		return math.NaN()
	}
	sd := stat.StdDev(flatten(chains), nil)
	return sd * math.Sqrt(math.E*math.Pow(1-1/e, e-1)-1)
}
