package diagnostics

import (
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// autocov returns the biased autocovariance of x for lags [0, len(x)),
// normalized by len(x). It zero-pads to 2n so the circular FFT product
// equals the linear correlation.
func autocov(x []float64) []float64 {
	n := len(x)
	if n == 0 {
		return nil
	}
	mean := stat.Mean(x, nil)

	m := 2 * n
	padded := make([]float64, m)
	for i, v := range x {
		padded[i] = v - mean
	}

	fft := fourier.NewFFT(m)
	coeff := fft.Coefficients(nil, padded)
	for i, c := range coeff {
		coeff[i] = complex(real(c)*real(c)+imag(c)*imag(c), 0)
	}
	// Sequence is unnormalized: scale by 1/m for the inverse transform.
	seq := fft.Sequence(nil, coeff)

	out := make([]float64, n)
	scale := float64(m) * float64(n)
	for i := range out {
		out[i] = seq[i] / scale
	}
	return out
}

// Autocorrelation returns the normalized autocorrelation of x for lags
// [0, maxLag]. maxLag is clamped to len(x)-1. A constant series has
// autocorrelation 1 at lag 0 and 0 elsewhere.
func Autocorrelation(x []float64, maxLag int) []float64 {
	if len(x) == 0 {
		return nil
	}
	if maxLag < 0 || maxLag > len(x)-1 {
		maxLag = len(x) - 1
	}
	acov := autocov(x)
	out := make([]float64, maxLag+1)
	out[0] = 1
	if acov[0] == 0 {
		return out
	}
	for lag := 1; lag <= maxLag; lag++ {
		out[lag] = acov[lag] / acov[0]
	}
	return out
}
