// Package simdops is a thin facade over the vectorized float64 kernels
// in github.com/tphakala/simd. The pipelines hold an *Ops and call
// through its function pointers, so the scalar fallbacks never pay for
// an interface dispatch in the per-frame loops.
package simdops

import (
	"github.com/tphakala/simd/f64"
)

// Ops bundles the vector operations the analysis and display stages
// use. All slices are float64; the capture format is converted once at
// the boundary.
type Ops struct {
	// DotProductUnsafe computes the dot product without bounds checks.
	// Callers guarantee equal-length slices.
	DotProductUnsafe func(a, b []float64) float64

	// Sum returns the sum of all elements.
	Sum func(a []float64) float64

	// Scale writes dst[i] = a[i] * s.
	Scale func(dst, a []float64, s float64)
}

var ops = Ops{
	DotProductUnsafe: f64.DotProductUnsafe,
	Sum:              f64.Sum,
	Scale:            f64.Scale,
}

// Float64Ops returns the shared operation table.
func Float64Ops() *Ops {
	return &ops
}
