package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-audio-visualizer/internal/testutil"
)

const (
	weightTolerance = 1e-9

	testLength64   = 64
	testLength1024 = 1024
)

// TestNew_None verifies the rectangular window needs no coefficients.
func TestNew_None(t *testing.T) {
	assert.Nil(t, New(None, testLength64))
	assert.Nil(t, New(Hann, 1), "degenerate length")
	assert.Nil(t, New(Hann, 0))
}

// TestNew_Endpoints checks the defining samples of each window.
func TestNew_Endpoints(t *testing.T) {
	tests := []struct {
		name       string
		f          Function
		wantEdge   float64
		wantCenter float64
	}{
		{"hann", Hann, 0.0, 1.0},
		{"hamming", Hamming, 0.53836 - 0.46164, 1.0},
		{"blackman", Blackman, 0.42 - 0.5 + 0.08, 1.0},
	}

	// odd length puts a sample exactly at the center
	const n = testLength64 + 1
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.f, n)
			require.NotNil(t, c)
			require.Len(t, c.Weights, n)

			assert.InDelta(t, tt.wantEdge, c.Weights[0], weightTolerance)
			assert.InDelta(t, tt.wantEdge, c.Weights[n-1], weightTolerance)
			assert.InDelta(t, tt.wantCenter, c.Weights[n/2], weightTolerance)
		})
	}
}

// TestNew_Properties verifies shape invariants shared by all windows.
func TestNew_Properties(t *testing.T) {
	funcs := []Function{Hann, Hamming, Blackman, BlackmanHarris}

	for _, f := range funcs {
		t.Run(f.String(), func(t *testing.T) {
			c := New(f, testLength1024)
			require.NotNil(t, c)

			testutil.AssertSymmetric(t, c.Weights, weightTolerance)
			testutil.AssertAllInRange(t, c.Weights, -1e-9, 1.0+1e-9)
			testutil.AssertCenterIsMax(t, c.Weights)

			testutil.AssertWeightSum(t, c.Weights, c.Sum, weightTolerance)
			assert.Greater(t, c.Sum, 0.0)
		})
	}
}

// TestHann_CoherentGain pins the Hann window's well-known average of
// one half.
func TestHann_CoherentGain(t *testing.T) {
	c := New(Hann, testLength1024)
	require.NotNil(t, c)
	assert.InDelta(t, 0.5, c.Sum/testLength1024, 1e-3)
}

// TestFunction_String covers the enum names.
func TestFunction_String(t *testing.T) {
	assert.Equal(t, "none", None.String())
	assert.Equal(t, "hann", Hann.String())
	assert.Equal(t, "blackman-harris", BlackmanHarris.String())
	assert.NotEmpty(t, Function(99).String())
}

// TestNew_HannEdges pins the Hann window's exactly-zero endpoints.
func TestNew_HannEdges(t *testing.T) {
	c := New(Hann, testLength64)
	require.NotNil(t, c)
	assert.Equal(t, 0.0, c.Weights[0])
	assert.InDelta(t, 0.0, c.Weights[testLength64-1], weightTolerance)
}
