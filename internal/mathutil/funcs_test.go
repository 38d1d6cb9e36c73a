package mathutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	defaultTolerance = 1e-12
	dbTolerance      = 1e-9
)

// TestDBFS_Floor verifies the sentinel for silent and invalid inputs.
func TestDBFS_Floor(t *testing.T) {
	tests := []struct {
		name string
		mag  float64
	}{
		{"zero", 0},
		{"negative", -0.5},
		{"subnormal_negative", -1e-300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, DBMin, DBFS(tt.mag))
		})
	}
}

// TestDBFS_KnownValues checks conversion against hand-computed points.
func TestDBFS_KnownValues(t *testing.T) {
	tests := []struct {
		name string
		mag  float64
		want float64
	}{
		{"full_scale", 1.0, 0.0},
		{"half", 0.5, 20 * math.Log10(0.5)},
		{"minus_20db", 0.1, -20.0},
		{"minus_60db", 0.001, -60.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, DBFS(tt.mag), dbTolerance)
		})
	}
}

// TestDBFS_Monotonic verifies larger magnitudes never map lower.
func TestDBFS_Monotonic(t *testing.T) {
	prev := DBFS(0)
	for mag := 1e-9; mag <= 10; mag *= 1.5 {
		db := DBFS(mag)
		assert.GreaterOrEqual(t, db, prev, "mag=%g", mag)
		prev = db
	}
}

// TestDBMin_Value pins the floor sentinel to the single-precision
// normal minimum it is derived from.
func TestDBMin_Value(t *testing.T) {
	assert.InDelta(t, -758.6, DBMin, 0.1)
	assert.Equal(t, 20.0*LogMin, DBMin)
}

// TestLerp covers endpoints and midpoint.
func TestLerp(t *testing.T) {
	assert.Equal(t, 2.0, Lerp(2, 8, 0))
	assert.Equal(t, 8.0, Lerp(2, 8, 1))
	assert.InDelta(t, 5.0, Lerp(2, 8, 0.5), defaultTolerance)
}

// TestLogInterp verifies geometric interpolation: the midpoint of a
// positive interval is the geometric mean.
func TestLogInterp(t *testing.T) {
	tests := []struct {
		name    string
		a, b, t float64
		want    float64
	}{
		{"start", 1, 100, 0, 1},
		{"end", 1, 100, 1, 100},
		{"geometric_mean", 1, 100, 0.5, 10},
		{"octave_mid", 20, 80, 0.5, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, LogInterp(tt.a, tt.b, tt.t), 1e-9)
		})
	}
}

// TestLanczos verifies the kernel identities used by the resampler.
func TestLanczos(t *testing.T) {
	const radius = 3

	// unity at the origin
	assert.InDelta(t, 1.0, Lanczos(0, radius), defaultTolerance)

	// zero at every other integer tap inside the support
	for x := 1; x < radius; x++ {
		assert.InDelta(t, 0.0, Lanczos(float64(x), radius), 1e-12, "x=%d", x)
		assert.InDelta(t, 0.0, Lanczos(float64(-x), radius), 1e-12, "x=%d", -x)
	}

	// zero outside the support
	assert.Equal(t, 0.0, Lanczos(radius+0.5, radius))
	assert.Equal(t, 0.0, Lanczos(-(radius + 0.5), radius))

	// even symmetry
	for _, x := range []float64{0.25, 0.7, 1.3, 2.9} {
		assert.InDelta(t, Lanczos(x, radius), Lanczos(-x, radius), defaultTolerance)
	}
}

// TestClamp covers both bounds and pass-through.
func TestClamp(t *testing.T) {
	assert.Equal(t, 3.0, Clamp(5, 0, 3))
	assert.Equal(t, 0.0, Clamp(-2, 0, 3))
	assert.Equal(t, 1.5, Clamp(1.5, 0, 3))

	assert.Equal(t, 7, ClampInt(10, 0, 7))
	assert.Equal(t, 0, ClampInt(-1, 0, 7))
	assert.Equal(t, 4, ClampInt(4, 0, 7))
}
