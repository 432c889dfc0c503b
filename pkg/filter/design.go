package filter

import (
	"math"
	"math/cmplx"
)

// Band selects which side of an analog Butterworth prototype a cutoff
// frequency transform produces.
type Band int

const (
	Highpass Band = iota
	Lowpass
)

// Butterworth designs an order-N Butterworth filter at the given cutoff
// (Hz) and sampling rate (Hz), via the standard prototype -> frequency
// transform -> bilinear transform pipeline (the same path
// scipy.signal.butter takes): an analog lowpass prototype with unity DC
// gain, transformed to the requested band and cutoff, then mapped to the
// digital domain with frequency pre-warping so the cutoff lands exactly
// where requested.
func Butterworth(cutoffHz, fs float64, band Band, order int) *Stage {
	poles := buttapPoles(order)
	warped := prewarp(cutoffHz, fs)

	var zeros []complex128
	var p []complex128
	gain := 1.0

	switch band {
	case Lowpass:
		p = scale(poles, complex(warped, 0))
		gain = math.Pow(warped, float64(order))
	case Highpass:
		p = invertScale(poles, complex(warped, 0))
		zeros = make([]complex128, order) // N zeros at the origin
		gain = real(1 / productNeg(poles))
	}

	zz, pz, kz := bilinear(zeros, p, gain, fs)
	b := realPart(scalePoly(polyFromRoots(zz), kz))
	a := realPart(polyFromRoots(pz))
	return newStage(b, a)
}

// Notch designs a second-order IIR notch at freqHz with the given quality
// factor Q, following scipy.signal.iirnotch's closed-form biquad.
func Notch(freqHz, fs, q float64) *Stage {
	w0 := freqHz / (0.5 * fs)
	bw := w0 * math.Pi / q
	w0 *= math.Pi

	gb := 1 / math.Sqrt2
	beta := (math.Sqrt(1-gb*gb) / gb) * math.Tan(bw/2)
	gain := 1 / (1 + beta)

	b := []float64{gain, -2 * gain * math.Cos(w0), gain}
	a := []float64{1, -2 * gain * math.Cos(w0), 2*gain - 1}
	return newStage(b, a)
}

// buttapPoles returns the N left-half-plane poles of the analog
// Butterworth lowpass prototype with unity cutoff and unity DC gain.
func buttapPoles(n int) []complex128 {
	poles := make([]complex128, n)
	for k := 0; k < n; k++ {
		m := float64(-n + 1 + 2*k)
		theta := math.Pi * m / float64(2*n)
		poles[k] = -cmplx.Exp(complex(0, theta))
	}
	return poles
}

// prewarp returns the analog angular cutoff frequency (rad/s) that maps to
// freqHz after a bilinear transform at sampling rate fs.
func prewarp(freqHz, fs float64) float64 {
	return 2 * fs * math.Tan(math.Pi*freqHz/fs)
}

func scale(vs []complex128, factor complex128) []complex128 {
	out := make([]complex128, len(vs))
	for i, v := range vs {
		out[i] = v * factor
	}
	return out
}

func invertScale(vs []complex128, factor complex128) []complex128 {
	out := make([]complex128, len(vs))
	for i, v := range vs {
		out[i] = factor / v
	}
	return out
}

func productNeg(vs []complex128) complex128 {
	p := complex(1, 0)
	for _, v := range vs {
		p *= -v
	}
	return p
}

// bilinear applies the bilinear transform (zero-pole-gain form) at
// sampling rate fs, moving any zeros the relative degree implies are "at
// infinity" to the Nyquist frequency.
func bilinear(zeros, poles []complex128, gain float64, fs float64) (zz, pz []complex128, kz float64) {
	degree := len(poles) - len(zeros)
	fs2 := complex(2*fs, 0)

	zz = make([]complex128, 0, len(zeros)+degree)
	num := complex(1, 0)
	for _, z := range zeros {
		zz = append(zz, (fs2+z)/(fs2-z))
		num *= fs2 - z
	}
	for i := 0; i < degree; i++ {
		zz = append(zz, complex(-1, 0))
	}

	pz = make([]complex128, len(poles))
	den := complex(1, 0)
	for i, p := range poles {
		pz[i] = (fs2 + p) / (fs2 - p)
		den *= fs2 - p
	}

	kz = gain * real(num/den)
	return zz, pz, kz
}

// polyFromRoots expands (x - r0)(x - r1)... into coefficients, highest
// degree first, matching numpy.poly's convention.
func polyFromRoots(roots []complex128) []complex128 {
	coeffs := []complex128{1}
	for _, r := range roots {
		coeffs = convolve(coeffs, []complex128{1, -r})
	}
	return coeffs
}

func convolve(a, b []complex128) []complex128 {
	out := make([]complex128, len(a)+len(b)-1)
	for i, av := range a {
		for j, bv := range b {
			out[i+j] += av * bv
		}
	}
	return out
}

func scalePoly(p []complex128, k float64) []complex128 {
	out := make([]complex128, len(p))
	for i, v := range p {
		out[i] = v * complex(k, 0)
	}
	return out
}

func realPart(cs []complex128) []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = real(c)
	}
	return out
}
