package service

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// dwtEngine implements a one-level Daubechies-2 transform with
// periodic boundary handling. The analysis rows form an orthonormal
// basis, so synthesis is the plain transpose and reconstruction of
// untouched coefficients is exact up to float64 rounding.
type dwtEngine struct {
	low  []float64
	high []float64
}

const filterLen = 4

// NewWaveletService builds the db2 filter pair from the closed form
// (1±√3)/(4√2) so the coefficients carry full float64 precision.
func NewWaveletService() WaveletTransformer {
	s3 := math.Sqrt(3)
	d := 4 * math.Sqrt2
	low := []float64{(1 + s3) / d, (3 + s3) / d, (3 - s3) / d, (1 - s3) / d}
	// Quadrature mirror: g[k] = (-1)^k * h[filterLen-1-k]
	high := make([]float64, filterLen)
	for k := 0; k < filterLen; k++ {
		high[k] = low[filterLen-1-k]
		if k%2 == 1 {
			high[k] = -high[k]
		}
	}
	return &dwtEngine{low: low, high: high}
}

// Forward decomposes x into approximation and detail coefficients of
// length ceil(len(x)/2). Odd-length inputs are extended by repeating
// the last sample before the periodized filter bank runs.
func (w *dwtEngine) Forward(x []float64) (cA, cD []float64) {
	ext := x
	if len(x)%2 == 1 {
		ext = make([]float64, len(x)+1)
		copy(ext, x)
		ext[len(x)] = x[len(x)-1]
	}
	m := len(ext)
	half := m / 2
	cA = make([]float64, half)
	cD = make([]float64, half)
	for i := 0; i < half; i++ {
		base := 2 * i
		if base+filterLen <= m {
			win := ext[base : base+filterLen]
			cA[i] = floats.Dot(w.low, win)
			cD[i] = floats.Dot(w.high, win)
		} else {
			// filter window wraps past the end of the signal
			var a, d float64
			for k := 0; k < filterLen; k++ {
				v := ext[(base+k)%m]
				a += w.low[k] * v
				d += w.high[k] * v
			}
			cA[i] = a
			cD[i] = d
		}
	}
	return cA, cD
}

// Inverse applies the transpose of the analysis bank and truncates the
// periodized result to the requested length.
func (w *dwtEngine) Inverse(cA, cD []float64, length int) []float64 {
	half := len(cA)
	if len(cD) < half {
		half = len(cD)
	}
	m := 2 * half
	out := make([]float64, m)
	for i := 0; i < half; i++ {
		base := 2 * i
		for k := 0; k < filterLen; k++ {
			out[(base+k)%m] += w.low[k]*cA[i] + w.high[k]*cD[i]
		}
	}
	if length > m || length <= 0 {
		length = m
	}
	return out[:length]
}
