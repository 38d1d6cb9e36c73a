package engine

import (
	"math"

	"github.com/tphakala/go-audio-visualizer/internal/cpu"
)

// tickKernel is the per-bin workhorse of the spectrum pipeline:
// windowing, silence scanning, magnitude normalization and temporal
// smoothing. Four implementations exist, selected once by CPU tier at
// construction and never re-dispatched per call. All variants produce
// identical results within floating-point rounding; they differ in how
// many bins are handled per loop iteration and in how the real and
// imaginary components are pulled out of the coefficient layout.
type tickKernel interface {
	name() string

	// allZero reports whether every sample in buf is exactly zero.
	allZero(buf []float64) bool

	// allBelow reports whether every value in buf is below threshold.
	allBelow(buf []float64, threshold float64) bool

	// applyWindow multiplies buf element-wise by weights.
	applyWindow(buf, weights []float64)

	// processBins converts FFT coefficients to normalized magnitudes
	// (|c|·norm) and applies temporal smoothing against the smooth
	// state, writing the result to dst. smooth may be nil when
	// smoothing is disabled.
	processBins(dst, smooth []float64, coeffs []complex128, norm, gravity float64, fastPeaks bool)
}

// newTickKernel picks the concrete variant for a probed tier.
func newTickKernel(tier cpu.Tier) tickKernel {
	switch tier {
	case cpu.Tier3:
		return fusedKernel{}
	case cpu.Tier2:
		return block8Kernel{}
	case cpu.Tier1:
		return block4Kernel{}
	default:
		return scalarKernel{}
	}
}

// scalarKernel is the portable baseline, one bin at a time.
type scalarKernel struct{}

func (scalarKernel) name() string { return "baseline" }

func (scalarKernel) allZero(buf []float64) bool {
	for _, v := range buf {
		if v != 0 {
			return false
		}
	}
	return true
}

func (scalarKernel) allBelow(buf []float64, threshold float64) bool {
	for _, v := range buf {
		if v >= threshold {
			return false
		}
	}
	return true
}

func (scalarKernel) applyWindow(buf, weights []float64) {
	for i := range buf {
		buf[i] *= weights[i]
	}
}

func (scalarKernel) processBins(dst, smooth []float64, coeffs []complex128, norm, gravity float64, fastPeaks bool) {
	for i := range dst {
		re := real(coeffs[i])
		im := imag(coeffs[i])
		mag := math.Sqrt(re*re+im*im) * norm
		if smooth != nil {
			mag = smoothValue(&smooth[i], mag, gravity, fastPeaks)
		}
		dst[i] = mag
	}
}

// block4Kernel handles four bins per iteration, de-interleaving the
// coefficient pairs into separate component lanes first.
type block4Kernel struct{}

func (block4Kernel) name() string { return "tier1" }

func (block4Kernel) allZero(buf []float64) bool {
	i := 0
	for ; i+4 <= len(buf); i += 4 {
		if buf[i] != 0 || buf[i+1] != 0 || buf[i+2] != 0 || buf[i+3] != 0 {
			return false
		}
	}
	for ; i < len(buf); i++ {
		if buf[i] != 0 {
			return false
		}
	}
	return true
}

func (block4Kernel) allBelow(buf []float64, threshold float64) bool {
	i := 0
	for ; i+4 <= len(buf); i += 4 {
		if buf[i] >= threshold || buf[i+1] >= threshold ||
			buf[i+2] >= threshold || buf[i+3] >= threshold {
			return false
		}
	}
	for ; i < len(buf); i++ {
		if buf[i] >= threshold {
			return false
		}
	}
	return true
}

func (block4Kernel) applyWindow(buf, weights []float64) {
	i := 0
	for ; i+4 <= len(buf); i += 4 {
		buf[i] *= weights[i]
		buf[i+1] *= weights[i+1]
		buf[i+2] *= weights[i+2]
		buf[i+3] *= weights[i+3]
	}
	for ; i < len(buf); i++ {
		buf[i] *= weights[i]
	}
}

func (block4Kernel) processBins(dst, smooth []float64, coeffs []complex128, norm, gravity float64, fastPeaks bool) {
	var re, im [4]float64
	i := 0
	for ; i+4 <= len(dst); i += 4 {
		for j := 0; j < 4; j++ {
			re[j] = real(coeffs[i+j])
			im[j] = imag(coeffs[i+j])
		}
		for j := 0; j < 4; j++ {
			mag := math.Sqrt(re[j]*re[j]+im[j]*im[j]) * norm
			if smooth != nil {
				mag = smoothValue(&smooth[i+j], mag, gravity, fastPeaks)
			}
			dst[i+j] = mag
		}
	}
	for ; i < len(dst); i++ {
		r := real(coeffs[i])
		m := imag(coeffs[i])
		mag := math.Sqrt(r*r+m*m) * norm
		if smooth != nil {
			mag = smoothValue(&smooth[i], mag, gravity, fastPeaks)
		}
		dst[i] = mag
	}
}

// block8Kernel handles eight bins per iteration.
type block8Kernel struct{}

func (block8Kernel) name() string { return "tier2" }

func (block8Kernel) allZero(buf []float64) bool {
	i := 0
	for ; i+8 <= len(buf); i += 8 {
		acc := 0.0
		for j := 0; j < 8; j++ {
			acc += math.Abs(buf[i+j])
		}
		if acc != 0 {
			return false
		}
	}
	for ; i < len(buf); i++ {
		if buf[i] != 0 {
			return false
		}
	}
	return true
}

func (block8Kernel) allBelow(buf []float64, threshold float64) bool {
	i := 0
	for ; i+8 <= len(buf); i += 8 {
		maxv := buf[i]
		for j := 1; j < 8; j++ {
			if buf[i+j] > maxv {
				maxv = buf[i+j]
			}
		}
		if maxv >= threshold {
			return false
		}
	}
	for ; i < len(buf); i++ {
		if buf[i] >= threshold {
			return false
		}
	}
	return true
}

func (block8Kernel) applyWindow(buf, weights []float64) {
	i := 0
	for ; i+8 <= len(buf); i += 8 {
		for j := 0; j < 8; j++ {
			buf[i+j] *= weights[i+j]
		}
	}
	for ; i < len(buf); i++ {
		buf[i] *= weights[i]
	}
}

func (block8Kernel) processBins(dst, smooth []float64, coeffs []complex128, norm, gravity float64, fastPeaks bool) {
	var re, im [8]float64
	i := 0
	for ; i+8 <= len(dst); i += 8 {
		for j := 0; j < 8; j++ {
			re[j] = real(coeffs[i+j])
			im[j] = imag(coeffs[i+j])
		}
		for j := 0; j < 8; j++ {
			mag := math.Sqrt(re[j]*re[j]+im[j]*im[j]) * norm
			if smooth != nil {
				mag = smoothValue(&smooth[i+j], mag, gravity, fastPeaks)
			}
			dst[i+j] = mag
		}
	}
	for ; i < len(dst); i++ {
		r := real(coeffs[i])
		m := imag(coeffs[i])
		mag := math.Sqrt(r*r+m*m) * norm
		if smooth != nil {
			mag = smoothValue(&smooth[i], mag, gravity, fastPeaks)
		}
		dst[i] = mag
	}
}

// fusedKernel is the widest form: eight bins per iteration with fused
// multiply-add magnitude accumulation (math.FMA lowers to a single
// instruction on FMA-capable targets).
type fusedKernel struct{}

func (fusedKernel) name() string { return "tier3" }

func (fusedKernel) allZero(buf []float64) bool { return block8Kernel{}.allZero(buf) }

func (fusedKernel) allBelow(buf []float64, threshold float64) bool {
	return block8Kernel{}.allBelow(buf, threshold)
}

func (fusedKernel) applyWindow(buf, weights []float64) {
	block8Kernel{}.applyWindow(buf, weights)
}

func (fusedKernel) processBins(dst, smooth []float64, coeffs []complex128, norm, gravity float64, fastPeaks bool) {
	var re, im [8]float64
	i := 0
	for ; i+8 <= len(dst); i += 8 {
		for j := 0; j < 8; j++ {
			re[j] = real(coeffs[i+j])
			im[j] = imag(coeffs[i+j])
		}
		for j := 0; j < 8; j++ {
			mag := math.Sqrt(math.FMA(re[j], re[j], im[j]*im[j])) * norm
			if smooth != nil {
				if fastPeaks && mag > smooth[i+j] {
					smooth[i+j] = mag
				}
				// gravity·prev + (1−gravity)·mag as a fused pair
				mag = math.FMA(gravity, smooth[i+j], (1-gravity)*mag)
				smooth[i+j] = mag
			}
			dst[i+j] = mag
		}
	}
	for ; i < len(dst); i++ {
		r := real(coeffs[i])
		m := imag(coeffs[i])
		mag := math.Sqrt(math.FMA(r, r, m*m)) * norm
		if smooth != nil {
			mag = smoothValue(&smooth[i], mag, gravity, fastPeaks)
		}
		dst[i] = mag
	}
}
