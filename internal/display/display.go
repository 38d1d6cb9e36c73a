// Package display maps analysis output (FFT bins or raw samples) onto
// display resolution: precomputed linear or logarithmic source
// positions, point or Lanczos resampling, optional band averaging for
// bar graphs, optional Gaussian smoothing of the finished array, and
// the final screen-space mapping.
//
// All index tables and kernel weights are precomputed once per
// configuration change and shared read-only across channels and frames.
package display

import (
	"math"

	"github.com/tphakala/go-audio-visualizer/internal/kernel"
	"github.com/tphakala/go-audio-visualizer/internal/mathutil"
	"github.com/tphakala/go-audio-visualizer/internal/simdops"
)

// InterpMode selects the resampling algorithm.
type InterpMode int

const (
	// InterpPoint samples the nearest source value (bar mode averages
	// the integer-indexed samples inside each band).
	InterpPoint InterpMode = iota
	// InterpLanczos convolves with a precomputed windowed-sinc table.
	InterpLanczos
)

// Lanczos kernel radii: 3 taps either side for the scalar path, 4 for
// the wide vector paths so each output tap is one full-width dot
// product.
const (
	RadiusScalar = 3
	RadiusVector = 4
)

// Options configures a display stage.
type Options struct {
	// OutLen is the display resolution: pixel columns for curve and
	// waveform displays, bar count for bar displays.
	OutLen int

	// Bands enables bar-style band averaging: adjacent positions define
	// contiguous source ranges whose samples are averaged rather than
	// sampled, avoiding aliasing.
	Bands bool

	// LogScale maps positions logarithmically between LowPos and
	// HighPos; linear otherwise.
	LogScale bool

	// LowPos and HighPos bound the source domain (FFT bins or sample
	// indices), already clamped to the valid range by the caller.
	LowPos  float64
	HighPos float64

	Interp InterpMode

	// Radius is the Lanczos kernel radius; zero picks RadiusScalar.
	Radius int

	// FilterSigma enables Gaussian smoothing of the interpolated array
	// when positive.
	FilterSigma float64

	FloorDB   float64
	CeilingDB float64
}

// Stage resamples one analysis buffer to display resolution.
type Stage struct {
	opts Options
	ops  *simdops.Ops

	positions  []float64
	bandWidths []int

	lanczos *kernel.Kernel
	gauss   *kernel.Kernel

	resampled []float64
	filtered  []float64
}

// NewStage precomputes the index tables and kernels for opts. ops may
// be nil to force the scalar paths.
func NewStage(opts Options, ops *simdops.Ops) *Stage {
	if opts.Radius <= 0 {
		opts.Radius = RadiusScalar
	}
	st := &Stage{
		opts:      opts,
		ops:       ops,
		resampled: make([]float64, opts.OutLen),
		filtered:  make([]float64, opts.OutLen),
	}

	if opts.Bands {
		st.positions, st.bandWidths = bandPositions(opts)
	} else {
		st.positions = curvePositions(opts)
	}

	if opts.Interp == InterpLanczos {
		st.lanczos = kernel.NewLanczos(st.positions, opts.Radius)
	}
	if opts.FilterSigma > 0 {
		st.gauss = kernel.NewGauss(opts.FilterSigma)
	}
	return st
}

// interpolate maps t in [0,1] into the configured source range.
func interpolate(opts Options, t float64) float64 {
	if opts.LogScale {
		// log mapping needs a positive start; the caller clamps LowPos
		// to at least bin 1 for spectrum displays
		return mathutil.LogInterp(opts.LowPos, opts.HighPos, t)
	}
	return mathutil.Lerp(opts.LowPos, opts.HighPos, t)
}

// curvePositions returns one source position per output column.
// Positions are monotonic non-decreasing and bounded by the source
// range.
func curvePositions(opts Options) []float64 {
	pos := make([]float64, opts.OutLen)
	if opts.OutLen == 1 {
		pos[0] = opts.LowPos
		return pos
	}
	den := float64(opts.OutLen - 1)
	for i := range pos {
		pos[i] = interpolate(opts, float64(i)/den)
	}
	return pos
}

// bandPositions returns the flattened per-band sample positions plus
// the number of positions in each band. Band boundaries are the OutLen+1
// interpolated edges; each band covers at least one position.
func bandPositions(opts Options) ([]float64, []int) {
	edges := make([]float64, opts.OutLen+1)
	den := float64(opts.OutLen)
	for i := range edges {
		edges[i] = interpolate(opts, float64(i)/den)
	}

	var positions []float64
	widths := make([]int, opts.OutLen)
	for b := 0; b < opts.OutLen; b++ {
		lo, hi := edges[b], edges[b+1]
		width := int(hi) - int(lo)
		if width < 1 {
			width = 1
		}
		widths[b] = width
		step := (hi - lo) / float64(width)
		for j := 0; j < width; j++ {
			positions = append(positions, lo+(float64(j)+0.5)*step)
		}
	}
	return positions, widths
}

// Positions exposes the precomputed source positions.
func (st *Stage) Positions() []float64 { return st.positions }

// BandWidths exposes the per-band position counts (nil for curves).
func (st *Stage) BandWidths() []int { return st.bandWidths }

// Resample maps src (dB values indexed by bin, or raw samples) to
// display resolution and applies the optional Gaussian filter. The
// returned slice is owned by the stage and overwritten per call.
func (st *Stage) Resample(src []float64) []float64 {
	if st.opts.Interp == InterpLanczos {
		if st.opts.Bands {
			st.lanczos.ResampleBands(st.resampled, src, st.positions, st.bandWidths, st.ops)
		} else {
			st.lanczos.Resample(st.resampled, src, st.positions, st.ops)
		}
	} else {
		st.pointResample(src)
	}

	if st.gauss == nil {
		return st.resampled
	}
	st.gauss.ApplyGauss(st.filtered, st.resampled, st.ops)
	return st.filtered
}

func (st *Stage) pointResample(src []float64) {
	if !st.opts.Bands {
		for i, x := range st.positions {
			idx := mathutil.ClampInt(int(math.Round(x)), 0, len(src)-1)
			st.resampled[i] = src[idx]
		}
		return
	}
	pos := 0
	for b, count := range st.bandWidths {
		var sum float64
		for j := 0; j < count; j++ {
			idx := mathutil.ClampInt(int(math.Round(st.positions[pos])), 0, len(src)-1)
			sum += src[idx]
			pos++
		}
		st.resampled[b] = sum / float64(count)
	}
}

// MapToScreen converts dB values into screen-space Y coordinates:
// lerp(graphFloor, cPos, clamp(ceiling−dB, 0, range)/range). graphFloor
// is the coordinate of the ceiling line (top of the graph) and cPos the
// baseline (bottom, or channel center line for stereo).
func (st *Stage) MapToScreen(dst, values []float64, graphFloor, cPos float64) {
	dbRange := st.opts.CeilingDB - st.opts.FloorDB
	for i, db := range values {
		t := mathutil.Clamp(st.opts.CeilingDB-db, 0, dbRange) / dbRange
		dst[i] = mathutil.Lerp(graphFloor, cPos, t)
	}
}
