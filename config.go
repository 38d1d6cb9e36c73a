package visualizer

import (
	"fmt"

	"github.com/tphakala/go-audio-visualizer/internal/display"
	"github.com/tphakala/go-audio-visualizer/internal/engine"
	"github.com/tphakala/go-audio-visualizer/internal/window"
)

// DisplayMode selects what the source draws.
type DisplayMode int

const (
	// DisplayCurve draws the spectrum as a continuous curve.
	DisplayCurve DisplayMode = iota
	// DisplayBar draws the spectrum as frequency bars.
	DisplayBar
	// DisplaySteppedBar draws bars quantized into discrete steps.
	DisplaySteppedBar
	// DisplayLevelMeter draws one level bar per channel.
	DisplayLevelMeter
	// DisplaySteppedLevelMeter draws stepped level bars.
	DisplaySteppedLevelMeter
	// DisplayWaveform draws the raw time-domain waveform.
	DisplayWaveform
)

// Spectral reports whether the mode runs the FFT pipeline.
func (m DisplayMode) Spectral() bool {
	switch m {
	case DisplayCurve, DisplayBar, DisplaySteppedBar:
		return true
	}
	return false
}

// Meter reports whether the mode runs the level-meter pipeline.
func (m DisplayMode) Meter() bool {
	return m == DisplayLevelMeter || m == DisplaySteppedLevelMeter
}

// RenderMode is passed through to the external renderer; Gradient
// additionally drives the frame's gradient height output.
type RenderMode int

const (
	RenderLine RenderMode = iota
	RenderSolid
	RenderGradient
	RenderPulse
	RenderRange
)

// WindowFunction selects the FFT window family.
type WindowFunction int

const (
	WindowNone WindowFunction = iota
	WindowHann
	WindowHamming
	WindowBlackman
	WindowBlackmanHarris
)

// Interpolation selects the display resampling algorithm.
type Interpolation int

const (
	// InterpPoint does nearest-point lookup (band averages for bars).
	InterpPoint Interpolation = iota
	// InterpLanczos does windowed-sinc convolution.
	InterpLanczos
)

// Smoothing selects the temporal smoothing rule.
type Smoothing int

const (
	SmoothingNone Smoothing = iota
	SmoothingExponential
	SmoothingTimeVariant
)

// ChannelMode selects how captured channels map to displayed channels.
type ChannelMode int

const (
	// ChannelMono averages captured channels into one display channel.
	ChannelMono ChannelMode = iota
	// ChannelStereo displays two channels, duplicating mono input.
	ChannelStereo
	// ChannelSingle displays exactly one captured channel, selected by
	// Config.Channel.
	ChannelSingle
)

// Detector selects the level-meter measurement.
type Detector int

const (
	DetectorRMS Detector = iota
	DetectorPeak
)

// AudioInfo is the host's global audio configuration, queried on
// (re)configuration to size buffers.
type AudioInfo struct {
	SampleRate float64
	Channels   int
}

// VideoInfo is the host's video configuration; FPS drives the
// automatic FFT sizing.
type VideoInfo struct {
	FPS float64
}

// Config holds every runtime option of a visualizer source. Malformed
// cutoff and floor/ceiling ranges are silently reset to defaults by
// sanitize, matching the forgiving behavior expected from a UI-driven
// host; structurally impossible values are rejected by Validate.
type Config struct {
	// AudioSource names the host audio source to capture, or "" for
	// the host's final output mix. Acquisition and retry live in the
	// host adapter; the name is carried here for it.
	AudioSource string

	Width  int
	Height int

	Display       DisplayMode
	Render        RenderMode
	Window        WindowFunction
	Interpolation Interpolation
	Smoothing     Smoothing
	Channels      ChannelMode
	Detector      Detector

	// Channel picks the captured channel for ChannelSingle mode.
	Channel int

	FFTSize     int
	AutoFFTSize bool

	// LogScale maps the frequency axis logarithmically; linear when
	// false.
	LogScale bool

	CutoffLow  float64 // Hz
	CutoffHigh float64 // Hz
	FloorDB    float64
	CeilingDB  float64

	Gravity   float64
	FastPeaks bool

	// Slope boosts high bins by slope·log10(bin) dB to compensate the
	// natural high-frequency roll-off of wideband material.
	Slope float64

	// RolloffQ and RolloffRate shape the attenuation fade near the
	// cutoff frequencies; a zero rate disables it.
	RolloffQ    float64
	RolloffRate float64

	// FilterStrength is the sigma of the Gaussian display smoothing;
	// zero disables the spatial filter.
	FilterStrength float64

	// Volume normalization.
	Normalize bool
	TargetDB  float64
	MaxGainDB float64

	// Gradient render parameterization.
	GradientRatio float64

	// Bar geometry (pixels).
	BarWidth int
	BarGap   int
	StepWidth int
	StepGap   int

	// Radial layout parameters, carried through to the renderer.
	RadialArc      float64
	RadialRotation float64
	RadialDeadzone float64
}

// DefaultConfig returns the configuration a fresh source starts from.
func DefaultConfig() Config {
	return Config{
		Width:         defaultWidth,
		Height:        defaultHeight,
		Display:       DisplayCurve,
		Render:        RenderSolid,
		Window:        WindowHann,
		Interpolation: InterpLanczos,
		Smoothing:     SmoothingExponential,
		Channels:      ChannelStereo,
		FFTSize:       defaultFFTSize,
		AutoFFTSize:   false,
		LogScale:      true,
		CutoffLow:     defaultCutoffLow,
		CutoffHigh:    defaultCutoffHigh,
		FloorDB:       -95,
		CeilingDB:     defaultCeilingDB,
		Gravity:       defaultGravity,
		GradientRatio: defaultGradRatio,
		BarWidth:      defaultBarWidth,
		BarGap:        defaultBarGap,
		StepWidth:     defaultStepWidth,
		StepGap:       defaultStepGap,
		TargetDB:      defaultTargetDB,
		MaxGainDB:     defaultMaxGainDB,
	}
}

// Validate rejects configurations the pipeline cannot be built from.
func (c *Config) Validate() error {
	if c.Width < 1 || c.Height < 1 {
		return fmt.Errorf("invalid display size %dx%d", c.Width, c.Height)
	}
	if c.Channels == ChannelSingle && c.Channel < 0 {
		return fmt.Errorf("invalid channel index %d", c.Channel)
	}
	return nil
}

// sanitize clamps and repairs the numeric options in place. Malformed
// ranges reset to safe defaults rather than failing.
func (c *Config) sanitize() {
	if c.FFTSize < minFFTSize {
		c.FFTSize = minFFTSize
	} else if c.FFTSize > maxFFTSize {
		c.FFTSize = maxFFTSize
	}
	c.FFTSize &= fftSizeAlignMask

	if c.CutoffHigh-c.CutoffLow < 1 {
		c.CutoffLow = defaultCutoffLow
		c.CutoffHigh = defaultCutoffHigh
	}
	if c.CeilingDB-c.FloorDB < 1 {
		c.FloorDB = defaultFloorDB
		c.CeilingDB = defaultCeilingDB
	}
	if c.Gravity < 0 {
		c.Gravity = 0
	} else if c.Gravity > 1 {
		c.Gravity = 1
	}
	if c.BarWidth < 1 {
		c.BarWidth = defaultBarWidth
	}
	if c.BarGap < 0 {
		c.BarGap = defaultBarGap
	}
	if c.StepWidth < 1 {
		c.StepWidth = defaultStepWidth
	}
	if c.StepGap < 0 {
		c.StepGap = defaultStepGap
	}
}

// windowFunction maps the public enum onto the window package.
func (c *Config) windowFunction() window.Function {
	switch c.Window {
	case WindowHann:
		return window.Hann
	case WindowHamming:
		return window.Hamming
	case WindowBlackman:
		return window.Blackman
	case WindowBlackmanHarris:
		return window.BlackmanHarris
	default:
		return window.None
	}
}

func (c *Config) smoothingMode() engine.SmoothingMode {
	switch c.Smoothing {
	case SmoothingExponential:
		return engine.SmoothExponential
	case SmoothingTimeVariant:
		return engine.SmoothTimeVariant
	default:
		return engine.SmoothNone
	}
}

func (c *Config) meterMode() engine.MeterMode {
	if c.Detector == DetectorPeak {
		return engine.MeterPeak
	}
	return engine.MeterRMS
}

func (c *Config) interpMode() display.InterpMode {
	if c.Interpolation == InterpLanczos {
		return display.InterpLanczos
	}
	return display.InterpPoint
}
