// Package kernel builds and applies the convolution kernels used for
// display-space resampling and smoothing: Lanczos windowed-sinc tables
// for interpolation and Gaussian tables for spatial filtering.
//
// Kernels are immutable after construction and shared read-only across
// channels and frames; they are rebuilt only on reconfiguration.
package kernel

import (
	"math"

	"github.com/tphakala/go-audio-visualizer/internal/mathutil"
	"github.com/tphakala/go-audio-visualizer/internal/simdops"
)

const (
	// minSigma keeps the Gaussian well-formed for tiny blur settings.
	minSigma = 0.01

	// gaussWindowSigmas bounds the Gaussian support at ±3σ; weight
	// outside is negligible.
	gaussWindowSigmas = 3.0
)

// Kernel is an immutable weight table plus its geometry.
//
// For a Gaussian kernel, Weights holds one symmetric window of
// 2·Radius−1 taps and Sum is its total weight.
//
// For a Lanczos kernel, Weights is a flat lookup table of 2·Radius taps
// per output position (len(indices) · 2·Radius entries), precomputed so
// no sinc is evaluated per frame. Sum is unused.
type Kernel struct {
	Weights []float64
	Radius  int
	Sum     float64
}

// NewGauss builds a Gaussian kernel for the given sigma with weights
// coeff·exp(−i²/2σ²) over the ±3σ window.
func NewGauss(sigma float64) *Kernel {
	sigma = math.Max(math.Abs(sigma), minSigma)
	w := int(math.Ceil(gaussWindowSigmas * sigma))
	size := 2*w - 1

	k := &Kernel{
		Weights: make([]float64, size),
		Radius:  w,
	}
	sigsqr := sigma * sigma
	expDenom := 2 * sigsqr
	coeff := 1 / (math.Sqrt(2*math.Pi) * sigma)
	j := 0
	for i := -w + 1; i < w; i++ {
		weight := coeff * math.Exp(-(float64(i*i))/expDenom)
		k.Weights[j] = weight
		k.Sum += weight
		j++
	}
	return k
}

// NewLanczos builds a flat Lanczos weight table for the given source
// positions. Each output position i covers source samples
// [floor(x)−radius+1, floor(x)+radius] with weights lanczos(x−j, radius).
func NewLanczos(indices []float64, radius int) *Kernel {
	if len(indices) == 0 || radius <= 0 {
		return &Kernel{}
	}
	taps := 2 * radius
	k := &Kernel{
		Weights: make([]float64, len(indices)*taps),
		Radius:  radius,
	}
	fradius := float64(radius)
	for i, x := range indices {
		ix := int(x) // positions are non-negative, so this is floor
		start := ix - radius + 1
		base := i * taps
		for j := start; j <= ix+radius; j++ {
			k.Weights[base+(j-start)] = mathutil.Lanczos(x-float64(j), fradius)
		}
	}
	return k
}

// WeightedAvg computes the Gaussian-weighted average of samples around
// index. Near the array boundary the kernel renormalizes using only the
// in-range weights (edge truncation, not zero padding) so edge values
// are not darkened.
func (k *Kernel) WeightedAvg(samples []float64, index int) float64 {
	start := index - k.Radius + 1
	stop := index + k.Radius
	if start < 0 || stop > len(samples) {
		loopStart := max(start, 0)
		loopStop := min(stop, len(samples))
		var sum, wsum float64
		for i := loopStart; i < loopStop; i++ {
			weight := k.Weights[i-start]
			wsum += weight
			sum += samples[i] * weight
		}
		if wsum == 0 {
			return 0
		}
		return sum / wsum
	}
	var sum float64
	for i := start; i < stop; i++ {
		sum += samples[i] * k.Weights[i-start]
	}
	return sum / k.Sum
}

// ApplyGauss filters src into dst at display resolution. When ops is
// non-nil the interior taps run as a single fused dot product; boundary
// positions always take the scalar renormalizing path.
func (k *Kernel) ApplyGauss(dst, src []float64, ops *simdops.Ops) {
	n := len(src)
	size := len(k.Weights)
	for i := 0; i < n; i++ {
		start := i - k.Radius + 1
		if ops != nil && start >= 0 && start+size <= n {
			dst[i] = ops.DotProductUnsafe(src[start:start+size], k.Weights) / k.Sum
			continue
		}
		dst[i] = k.WeightedAvg(src, i)
	}
}

// ConvolveAt evaluates one Lanczos output tap: the weighted sum of
// source samples around index using the table entries at kernelBase.
// Out-of-range source samples are skipped.
func (k *Kernel) ConvolveAt(samples []float64, index, kernelBase int) float64 {
	start := index - k.Radius + 1
	stop := min(index+k.Radius+1, len(samples))
	var sum float64
	for i := max(start, 0); i < stop; i++ {
		sum += samples[i] * k.Weights[kernelBase+(i-start)]
	}
	return sum
}

// Resample runs the Lanczos convolution for every precomputed position,
// writing one output value per position. Positions whose full tap
// window lies inside the source run as a single dot product over the
// 2·Radius taps (8-wide for radius 4, 4-wide for radius 2) when ops is
// non-nil; boundary positions fall back to ConvolveAt.
func (k *Kernel) Resample(dst, samples []float64, indices []float64, ops *simdops.Ops) {
	taps := 2 * k.Radius
	for i, x := range indices {
		index := int(x)
		base := i * taps
		start := index - k.Radius + 1
		if ops != nil && start >= 0 && start+taps <= len(samples) {
			dst[i] = ops.DotProductUnsafe(samples[start:start+taps], k.Weights[base:base+taps])
			continue
		}
		dst[i] = k.ConvolveAt(samples, index, base)
	}
}

// ResampleBands is the bar-graph variant of Resample: contiguous runs
// of positions are averaged into one output per band, so a band covers
// its source range instead of sampling a single point.
func (k *Kernel) ResampleBands(dst, samples []float64, indices []float64, bandWidths []int, ops *simdops.Ops) {
	taps := 2 * k.Radius
	pos := 0
	for b, count := range bandWidths {
		var sum float64
		for j := 0; j < count; j++ {
			x := indices[pos]
			index := int(x)
			base := pos * taps
			start := index - k.Radius + 1
			if ops != nil && start >= 0 && start+taps <= len(samples) {
				sum += ops.DotProductUnsafe(samples[start:start+taps], k.Weights[base:base+taps])
			} else {
				sum += k.ConvolveAt(samples, index, base)
			}
			pos++
		}
		if count > 0 {
			dst[b] = sum / float64(count)
		} else {
			dst[b] = 0
		}
	}
}
