package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/san-kum/geomint/internal/dynamo"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PowerSpectrum returns |c_k| of the real FFT of data with its mean
// removed, for k = 0..n/2.
func PowerSpectrum(data []float64) []float64 {
	centered := make([]float64, len(data))
	copy(centered, data)
	floats.AddConst(-stat.Mean(data, nil), centered)

	coeff := fourier.NewFFT(len(data)).Coefficients(nil, centered)
	ps := make([]float64, len(coeff))
	for i, c := range coeff {
		ps[i] = cmplx.Abs(c)
	}
	return ps
}

// DominantFrequency returns the angular frequency of the strongest
// nonzero mode of a series sampled every dt.
func DominantFrequency(series []float64, dt float64) (float64, error) {
	if len(series) < 4 || dt <= 0 {
		return 0, fmt.Errorf("%w: need at least 4 samples and dt > 0, got %d and %g",
			dynamo.ErrConfiguration, len(series), dt)
	}
	ps := PowerSpectrum(series)
	k := 1 + floats.MaxIdx(ps[1:])
	return 2 * math.Pi * float64(k) / (float64(len(series)) * dt), nil
}
