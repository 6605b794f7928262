package diagnostics

import (
	"fmt"
	"math"
	"slices"
)

// HDI returns the narrowest interval over the pooled draws that contains
// floor(prob*n)+1 of them. prob must be in (0, 1).
func HDI(chains [][]float64, prob float64) (lower, upper float64, err error) {
	if prob <= 0 || prob >= 1 {
		return 0, 0, fmt.Errorf("hdi probability must be in (0, 1), got %v", prob)
	}
	sorted := flatten(chains)
	n := len(sorted)
	if n == 0 {
		return math.NaN(), math.NaN(), nil
	}
	slices.Sort(sorted)

	inc := int(math.Floor(prob * float64(n)))
	nIntervals := n - inc
	best := 0
	bestWidth := math.Inf(1)
	for i := 0; i < nIntervals; i++ {
		if w := sorted[i+inc] - sorted[i]; w < bestWidth {
			best, bestWidth = i, w
		}
	}
	return sorted[best], sorted[best+inc], nil
}
