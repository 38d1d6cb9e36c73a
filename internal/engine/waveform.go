package engine

import (
	"math"

	"github.com/tphakala/go-audio-visualizer/internal/buffer"
	"github.com/tphakala/go-audio-visualizer/internal/simdops"
)

// Waveform is the time-domain pipeline: raw samples are captured
// straight into the display buffer. No window, no FFT, no smoothing and
// no frequency shaping; silence detection only checks for all-zero
// input. Volume normalization applies the same gain as the spectrum
// path, as a linear scale on the samples.
type Waveform struct {
	s   Settings
	ops *simdops.Ops

	raw     [2][]float64
	rawPos  [2]int
	out     [2][]float64
	scratch []float64

	lastSilent bool
}

// NewWaveform builds the waveform pipeline.
func NewWaveform(s Settings, ops *simdops.Ops) *Waveform {
	w := &Waveform{s: s, ops: ops, scratch: make([]float64, s.WindowSize)}
	for ch := 0; ch < s.OutputChannels; ch++ {
		w.raw[ch] = make([]float64, s.WindowSize)
		w.out[ch] = make([]float64, s.WindowSize)
	}
	return w
}

// Samples returns the display buffer for a channel: the newest
// WindowSize raw samples in capture order, gain applied.
func (w *Waveform) Samples(ch int) []float64 { return w.out[ch] }

// Silent reports whether the last drained input was entirely zero.
func (w *Waveform) Silent() bool { return w.lastSilent }

// Idle clears the display buffers while the source is hidden.
func (w *Waveform) Idle() {
	if w.lastSilent {
		return
	}
	for ch := 0; ch < w.s.OutputChannels; ch++ {
		clear(w.raw[ch])
		clear(w.out[ch])
	}
	w.lastSilent = true
}

// Tick drains new samples into the raw window and refreshes the output.
func (w *Waveform) Tick(rings []*buffer.Ring, clock *buffer.AVClock, gainDB float64) {
	slack := clock.SlackSamples(w.s.SampleRate)
	need := w.s.WindowSize

	silent := true
	for ch := 0; ch < w.s.CaptureChannels; ch++ {
		ring := rings[ch]
		chunk := ring.Len() - slack
		if chunk <= 0 {
			continue
		}
		if chunk > need {
			ring.Discard(chunk - need)
			chunk = need
		}
		ring.Pop(w.scratch[:chunk])
		for _, v := range w.scratch[:chunk] {
			if v != 0 {
				silent = false
			}
			w.raw[ch][w.rawPos[ch]] = v
			w.rawPos[ch] = (w.rawPos[ch] + 1) % need
		}
	}
	w.lastSilent = silent

	gain := 1.0
	if gainDB != 0 {
		gain = math.Pow(10, gainDB/20)
	}

	for ch := 0; ch < w.s.OutputChannels; ch++ {
		src := ch
		if src >= w.s.CaptureChannels {
			src = 0
		}
		// unroll the ring so the output reads oldest to newest
		pos := w.rawPos[src]
		n := copy(w.out[ch], w.raw[src][pos:])
		copy(w.out[ch][n:], w.raw[src][:pos])
		if gain != 1 {
			w.ops.Scale(w.out[ch], w.out[ch], gain)
		}
	}
}
