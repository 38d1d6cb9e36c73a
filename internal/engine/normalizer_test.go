package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tphakala/go-audio-visualizer/internal/buffer"
	"github.com/tphakala/go-audio-visualizer/internal/simdops"
)

func normalizerSettings() Settings {
	return Settings{
		SampleRate: 1000, // small rate keeps the rolling window cheap
		TargetDB:   -3,
		MaxGainDB:  30,
	}
}

// TestNormalizer_GainFromRMS verifies gain = target − dbfs(rms).
func TestNormalizer_GainFromRMS(t *testing.T) {
	n := NewNormalizer(normalizerSettings(), simdops.Float64Ops())

	// constant 0.1 peak: rms of the squared-peak window is 0.1, −20 dBFS
	ch := make([]float64, 1000)
	for i := range ch {
		ch[i] = 0.1
	}
	n.Push([][]float64{ch}, len(ch))

	assert.InDelta(t, -3.0-(-20.0), n.GainDB(), 1e-9)
}

// TestNormalizer_GainCap verifies the max-gain clamp for very quiet
// input.
func TestNormalizer_GainCap(t *testing.T) {
	n := NewNormalizer(normalizerSettings(), simdops.Float64Ops())

	ch := make([]float64, 1000)
	for i := range ch {
		ch[i] = 1e-6
	}
	n.Push([][]float64{ch}, len(ch))

	assert.Equal(t, 30.0, n.GainDB())
}

// TestNormalizer_NoHistory verifies unity gain before any input.
func TestNormalizer_NoHistory(t *testing.T) {
	n := NewNormalizer(normalizerSettings(), simdops.Float64Ops())
	assert.Equal(t, 0.0, n.GainDB())

	n.Push(nil, 100)
	assert.Equal(t, 0.0, n.GainDB())
}

// TestNormalizer_CrossChannelPeak verifies the louder channel drives
// the measurement.
func TestNormalizer_CrossChannelPeak(t *testing.T) {
	n := NewNormalizer(normalizerSettings(), simdops.Float64Ops())

	quiet := make([]float64, 500)
	loud := make([]float64, 500)
	for i := range loud {
		quiet[i] = 0.01
		loud[i] = -0.5 // negative peaks count via the absolute value
	}
	n.Push([][]float64{quiet, loud}, 500)

	gain := n.GainDB()
	assert.InDelta(t, -3.0-20*math.Log10(0.5), gain, 1e-9)
}

// TestNormalizer_Reset verifies history is dropped.
func TestNormalizer_Reset(t *testing.T) {
	n := NewNormalizer(normalizerSettings(), simdops.Float64Ops())

	ch := make([]float64, 200)
	for i := range ch {
		ch[i] = 0.5
	}
	n.Push([][]float64{ch}, 200)
	assert.NotZero(t, n.GainDB())

	n.Reset()
	assert.Equal(t, 0.0, n.GainDB())
}

// TestNormalizer_Trim verifies history beyond window+slack is dropped
// so stale loudness stops influencing the gain.
func TestNormalizer_Trim(t *testing.T) {
	s := normalizerSettings()
	n := NewNormalizer(s, simdops.Float64Ops())

	loud := make([]float64, 1000)
	for i := range loud {
		loud[i] = 1.0
	}
	quiet := make([]float64, 1000)
	for i := range quiet {
		quiet[i] = 0.1
	}
	n.Push([][]float64{loud}, 1000)
	n.Push([][]float64{quiet}, 1000)

	var clock buffer.AVClock // zero slack
	n.Trim(&clock)

	// only the quiet second remains
	assert.InDelta(t, -3.0-(-20.0), n.GainDB(), 1e-9)
}
