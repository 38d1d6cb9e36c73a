// Package engine implements the per-frame analysis pipelines: windowed
// FFT spectrum, RMS/peak level meter, and raw waveform capture, plus
// the temporal smoothing, frequency shaping and volume normalization
// they share.
//
// Engine types perform no locking; the owning source serializes the
// capture and tick paths under a single mutex.
package engine

import (
	"github.com/tphakala/go-audio-visualizer/internal/window"
)

// SmoothingMode selects the temporal smoothing rule.
type SmoothingMode int

const (
	// SmoothNone disables temporal smoothing.
	SmoothNone SmoothingMode = iota
	// SmoothExponential applies a fixed exponential moving average.
	SmoothExponential
	// SmoothTimeVariant scales the smoothing factor by elapsed frame
	// time so decay speed is framerate independent.
	SmoothTimeVariant
)

// MeterMode selects the level detector of the meter pipeline.
type MeterMode int

const (
	// MeterRMS measures the root mean square over the window.
	MeterRMS MeterMode = iota
	// MeterPeak measures the absolute peak over the window.
	MeterPeak
)

// Settings holds the resolved analysis configuration. All derived
// buffers are sized from it; changing any field requires rebuilding the
// pipeline.
type Settings struct {
	SampleRate float64
	FrameRate  float64

	// WindowSize is the analysis window in samples: the FFT length for
	// the spectrum pipeline, the sample buffer length for the meter and
	// waveform pipelines. Multiple of 16, at least 128.
	WindowSize int

	// CaptureChannels is the number of channels captured from the host
	// (at most 2). OutputChannels is the number of analysis channels
	// produced: 2 when stereo display is requested or more than one
	// channel is captured, 1 otherwise.
	CaptureChannels int
	OutputChannels  int

	// Stereo reports whether the display wants two channels. When false
	// and two channels are captured, they are averaged power-additively
	// before decibel conversion.
	Stereo bool

	Window    window.Function
	Smoothing SmoothingMode
	Gravity   float64
	FastPeaks bool

	FloorDB   float64
	CeilingDB float64

	// Slope is the high-frequency compensation in dB per decade of bin
	// index; zero disables the curve.
	Slope float64

	// CutoffLow and CutoffHigh bound the displayed band in Hz. RolloffQ
	// widens the roll-off region around the cutoffs and RolloffRate is
	// its steepness in dB per octave; a zero rate disables roll-off.
	CutoffLow   float64
	CutoffHigh  float64
	RolloffQ    float64
	RolloffRate float64

	// Volume normalization. When enabled, a gain of at most MaxGainDB
	// derived from the running input RMS is added to the dB output.
	Normalize bool
	TargetDB  float64
	MaxGainDB float64

	Meter MeterMode
}

// silenceFloor returns the hysteresis threshold used by the silence
// early-exit: floor − 10 dB.
func (s *Settings) silenceFloor() float64 {
	return s.FloorDB - silenceHysteresisDB
}

// displayedChannels is the number of dBFS channels the display reads.
// With a mono display over stereo capture, OutputChannels is still 2
// (the second buffer is mix scratch) but only channel 0 holds decibels.
func (s *Settings) displayedChannels() int {
	if s.Stereo {
		return s.OutputChannels
	}
	return 1
}
