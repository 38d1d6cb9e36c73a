// Package mathutil provides mathematical functions shared by the
// visualization pipelines.
package mathutil

import "math"

// minNormalFloat32 is the smallest positive normalized float32
// (FLT_MIN in C). Magnitudes are clamped here before the log10 so the
// decibel floor is a finite sentinel rather than -Inf.
const minNormalFloat32 = 1.1754943508222875e-38

// LogMin is log10 of the smallest normalized float32 magnitude.
var LogMin = math.Log10(minNormalFloat32)

// DBMin is the decibel floor sentinel: 20·log10(FLT_MIN) ≈ -758.6 dBFS.
// Any magnitude of zero (or below the normalized range) converts to DBMin.
var DBMin = 20.0 * LogMin

// DBFS converts a linear magnitude to decibels relative to full scale.
// Zero and negative magnitudes return DBMin. For mag > 0 the result is
// strictly increasing in mag.
func DBFS(mag float64) float64 {
	if mag > 0 {
		return 20.0 * math.Log10(mag)
	}
	return DBMin
}

// Lerp performs linear interpolation between a and b.
func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// LogInterp performs logarithmic interpolation between a and b:
// a·(b/a)^t. Both a and b must be positive.
func LogInterp(a, b, t float64) float64 {
	return a * math.Pow(b/a, t)
}

// Sinc computes the normalized sinc function sin(πx)/(πx).
func Sinc(x float64) float64 {
	if x == 0 {
		return 1.0
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

// Lanczos computes the Lanczos windowed-sinc function with window
// radius w. It is zero outside |x| < w.
func Lanczos(x, w float64) float64 {
	if math.Abs(x) < w {
		return Sinc(x) * Sinc(x/w)
	}
	return 0.0
}

// Clamp limits v to the range [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampInt limits v to the range [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
