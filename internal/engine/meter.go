package engine

import (
	"math"

	"github.com/tphakala/go-audio-visualizer/internal/buffer"
	"github.com/tphakala/go-audio-visualizer/internal/mathutil"
	"github.com/tphakala/go-audio-visualizer/internal/simdops"
)

// Meter is the level-meter pipeline. The per-channel buffer is reused
// as a plain sliding sample window; each tick drains newly captured
// samples into it and measures RMS or peak over the whole window, with
// the same temporal smoothing as the spectrum path. No FFT is involved.
type Meter struct {
	s   Settings
	ops *simdops.Ops

	win     [2][]float64
	winPos  [2]int
	filled  [2]int
	scratch []float64

	smooth [2]float64
	levels [2]float64 // linear detector output
	db     [2]float64
	silent [2]bool

	lastSilent bool
}

// NewMeter builds the meter pipeline.
func NewMeter(s Settings, ops *simdops.Ops) *Meter {
	m := &Meter{s: s, ops: ops, scratch: make([]float64, s.WindowSize)}
	for ch := 0; ch < s.OutputChannels; ch++ {
		m.win[ch] = make([]float64, s.WindowSize)
		m.db[ch] = mathutil.DBMin
		m.silent[ch] = true
	}
	return m
}

// Level returns the smoothed linear detector value for a channel.
func (m *Meter) Level(ch int) float64 { return m.levels[ch] }

// Decibels returns the smoothed level in dBFS for a channel.
func (m *Meter) Decibels(ch int) float64 { return m.db[ch] }

// Silent reports whether every channel has decayed below floor−10 dB.
func (m *Meter) Silent() bool { return m.lastSilent }

// Idle resets the detector state while the source is hidden.
func (m *Meter) Idle() {
	if m.lastSilent {
		return
	}
	for ch := 0; ch < m.s.OutputChannels; ch++ {
		m.smooth[ch] = 0
		m.levels[ch] = 0
		m.db[ch] = mathutil.DBMin
		m.silent[ch] = true
	}
	m.lastSilent = true
}

// Tick drains new samples and updates the per-channel levels.
func (m *Meter) Tick(rings []*buffer.Ring, clock *buffer.AVClock, dt float64) {
	gravity := effectiveGravity(m.s.Smoothing, m.s.Gravity, dt)
	slack := clock.SlackSamples(m.s.SampleRate)
	need := m.s.WindowSize

	for ch := 0; ch < m.s.CaptureChannels; ch++ {
		ring := rings[ch]
		chunk := ring.Len() - slack
		if chunk <= 0 {
			continue
		}
		if chunk > need {
			// the window only remembers the newest need samples
			ring.Discard(chunk - need)
			chunk = need
		}
		ring.Pop(m.scratch[:chunk])
		m.append(ch, m.scratch[:chunk])
	}

	allSilent := true
	for ch := 0; ch < m.s.OutputChannels; ch++ {
		src := ch
		if src >= m.s.CaptureChannels {
			src = 0
		}
		level := m.measure(src)
		if m.s.Smoothing != SmoothNone {
			level = smoothValue(&m.smooth[ch], level, gravity, m.s.FastPeaks)
		}
		m.levels[ch] = level
		m.db[ch] = mathutil.DBFS(level)
		m.silent[ch] = m.db[ch] < m.s.silenceFloor()
		if !m.silent[ch] {
			allSilent = false
		}
	}
	m.lastSilent = allSilent
}

func (m *Meter) append(ch int, samples []float64) {
	for _, v := range samples {
		m.win[ch][m.winPos[ch]] = v
		m.winPos[ch] = (m.winPos[ch] + 1) % len(m.win[ch])
	}
	m.filled[ch] = min(m.filled[ch]+len(samples), len(m.win[ch]))
}

func (m *Meter) measure(ch int) float64 {
	n := m.filled[ch]
	if n == 0 {
		return 0
	}
	win := m.win[ch]
	if m.s.Meter == MeterPeak {
		var peak float64
		for _, v := range win[:n] {
			if a := math.Abs(v); a > peak {
				peak = a
			}
		}
		return peak
	}
	// RMS over the filled portion; the squared sum collapses to a dot
	// product of the window with itself.
	sq := m.ops.DotProductUnsafe(win[:n], win[:n])
	return math.Sqrt(sq / float64(n))
}
