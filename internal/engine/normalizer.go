package engine

import (
	"math"

	"github.com/tphakala/go-audio-visualizer/internal/buffer"
	"github.com/tphakala/go-audio-visualizer/internal/mathutil"
	"github.com/tphakala/go-audio-visualizer/internal/simdops"
)

// Normalizer tracks the loudness of the raw input over a rolling
// window of roughly one second and derives a makeup gain for the dB
// output: min(target − dbfs(rms), maxGain).
//
// It stores one squared cross-channel peak per capture frame, fed from
// the capture path, and is trimmed with the same A/V slack as the main
// ring buffers so the gain follows what is actually on screen.
type Normalizer struct {
	ring       *buffer.Ring
	ops        *simdops.Ops
	sampleRate float64
	targetDB   float64
	maxGainDB  float64
	windowLen  int
	scratch    []float64
}

// NewNormalizer builds a loudness tracker for the given settings.
func NewNormalizer(s Settings, ops *simdops.Ops) *Normalizer {
	windowLen := int(s.SampleRate * normalizerWindowSeconds)
	return &Normalizer{
		ring:       buffer.NewRing(windowLen),
		ops:        ops,
		sampleRate: s.SampleRate,
		targetDB:   s.TargetDB,
		maxGainDB:  s.MaxGainDB,
		windowLen:  windowLen,
		scratch:    make([]float64, windowLen),
	}
}

// Push records one capture callback worth of samples. channels holds
// the per-channel sample slices; the squared peak across channels is
// stored per frame.
func (n *Normalizer) Push(channels [][]float64, frames int) {
	if len(channels) == 0 {
		return
	}
	if frames > len(n.scratch) {
		frames = len(n.scratch)
	}
	for i := 0; i < frames; i++ {
		var peak float64
		for _, ch := range channels {
			if i < len(ch) {
				if a := math.Abs(ch[i]); a > peak {
					peak = a
				}
			}
		}
		n.scratch[i] = peak * peak
	}
	n.ring.Push(n.scratch[:frames])
}

// Trim drops history beyond the window plus the current A/V slack.
func (n *Normalizer) Trim(clock *buffer.AVClock) {
	n.ring.TrimTo(n.windowLen + clock.SlackSamples(n.sampleRate))
}

// GainDB returns the current makeup gain in dB. With no history the
// gain is zero.
func (n *Normalizer) GainDB() float64 {
	count := n.ring.Len()
	if count == 0 {
		return 0
	}
	if count > n.windowLen {
		count = n.windowLen
	}
	n.ring.Peek(n.scratch[:count])
	sum := n.ops.Sum(n.scratch[:count])
	rms := math.Sqrt(sum / float64(count))
	gain := n.targetDB - mathutil.DBFS(rms)
	return math.Min(gain, n.maxGainDB)
}

// Reset forgets all loudness history.
func (n *Normalizer) Reset() {
	n.ring.Reset()
}
