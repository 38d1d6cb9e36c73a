package visualizer

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-audio-visualizer/internal/testutil"
)

const (
	testRate = 48000.0
	testFPS  = 60.0
	testDT   = 1.0 / testFPS
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 200
	cfg.Height = 100
	cfg.FFTSize = 1024
	cfg.Window = WindowNone
	cfg.Interpolation = InterpPoint
	cfg.Smoothing = SmoothingNone
	cfg.Channels = ChannelMono
	cfg.FilterStrength = 0
	return cfg
}

func monoAudio() AudioInfo { return AudioInfo{SampleRate: testRate, Channels: 1} }
func video() VideoInfo     { return VideoInfo{FPS: testFPS} }

// tickNS is one video frame in nanoseconds.
const tickNS = uint64(time.Second / 60)

// feedSine pushes n samples of a full-scale sinusoid at the given
// timestamp.
func feedSine(t *testing.T, s *Source, n int, freq float64, ts uint64) {
	t.Helper()
	ch := testutil.Sine(n, freq, testRate, 1.0)
	require.True(t, s.Capture([][]float64{ch}, n, ts, false))
}

// TestNew_Validation verifies invalid configurations are rejected.
func TestNew_Validation(t *testing.T) {
	cfg := testConfig()
	cfg.Width = 0
	_, err := New(cfg, monoAudio(), video())
	assert.Error(t, err)
}

// TestSource_CurveEndToEnd runs capture, tick and render for a curve
// display and checks the screen-space output envelope.
func TestSource_CurveEndToEnd(t *testing.T) {
	s, err := New(testConfig(), monoAudio(), video())
	require.NoError(t, err)
	defer s.Close()

	// bin 32 of a 1024-point window at 48 kHz
	freq := 32 * testRate / 1024
	feedSine(t, s, 1024, freq, tickNS)
	s.Tick(testDT, tickNS)

	f := s.Render()
	assert.False(t, f.Skip)
	assert.False(t, f.Silent)
	require.Len(t, f.Y, 1, "mono display has one channel")
	require.Len(t, f.Y[0], 200, "one value per pixel column")

	top, bottom := 0.5, 100.0-0.5
	testutil.AssertAllInRange(t, f.Y[0], top, bottom)

	// a full-scale tone must push at least one column to the ceiling
	minY := math.Inf(1)
	for _, y := range f.Y[0] {
		minY = math.Min(minY, y)
	}
	assert.Less(t, minY, 5.0, "peak column should reach near the top")
}

// TestSource_SilentSkip verifies the render skip handshake: one final
// frame after decay, then Skip until audio returns.
func TestSource_SilentSkip(t *testing.T) {
	s, err := New(testConfig(), monoAudio(), video())
	require.NoError(t, err)
	defer s.Close()

	// digital silence from the start
	zeros := make([]float64, 1024)
	require.True(t, s.Capture([][]float64{zeros}, 1024, tickNS, false))
	s.Tick(testDT, tickNS)

	f := s.Render()
	assert.True(t, f.Silent)
	assert.False(t, f.Skip, "the decayed frame renders once")

	f = s.Render()
	assert.True(t, f.Skip, "and is skipped afterwards")

	// audio returning clears the skip state
	feedSine(t, s, 1024, 1500, 2*tickNS)
	s.Tick(testDT, 2*tickNS)
	f = s.Render()
	assert.False(t, f.Skip)
}

// TestSource_CaptureTimeout verifies the idle path engages when audio
// stops arriving.
func TestSource_CaptureTimeout(t *testing.T) {
	s, err := New(testConfig(), monoAudio(), video())
	require.NoError(t, err)
	defer s.Close()

	feedSine(t, s, 1024, 1500, tickNS)
	s.Tick(testDT, tickNS)
	require.False(t, s.Render().Silent)

	// over half a second with no capture callbacks
	stale := tickNS + uint64(time.Second)
	s.Tick(testDT, stale)
	assert.True(t, s.Render().Silent)
}

// TestSource_Hide verifies a hidden source idles and shows again.
func TestSource_Hide(t *testing.T) {
	s, err := New(testConfig(), monoAudio(), video())
	require.NoError(t, err)
	defer s.Close()

	feedSine(t, s, 1024, 1500, tickNS)
	s.Hide()
	s.Tick(testDT, tickNS)
	assert.True(t, s.Render().Silent)

	s.Show()
	feedSine(t, s, 1024, 1500, 2*tickNS)
	s.Tick(testDT, 2*tickNS)
	assert.False(t, s.Render().Silent)
}

// TestSource_MutedCapture verifies muted frames buffer silence.
func TestSource_MutedCapture(t *testing.T) {
	s, err := New(testConfig(), monoAudio(), video())
	require.NoError(t, err)
	defer s.Close()

	ch := testutil.Sine(1024, 1500, testRate, 1.0)
	require.True(t, s.Capture([][]float64{ch}, 1024, tickNS, true))
	s.Tick(testDT, tickNS)
	assert.True(t, s.Render().Silent)
}

// TestSource_BarFrame verifies bar geometry resolution.
func TestSource_BarFrame(t *testing.T) {
	cfg := testConfig()
	cfg.Display = DisplayBar
	cfg.BarWidth = 14
	cfg.BarGap = 2
	s, err := New(cfg, monoAudio(), video())
	require.NoError(t, err)
	defer s.Close()

	feedSine(t, s, 1024, 1500, tickNS)
	s.Tick(testDT, tickNS)
	f := s.Render()

	wantBars := 200 / (14 + 2)
	assert.Equal(t, wantBars, f.Bars)
	require.Len(t, f.Y[0], wantBars)
}

// TestSource_SteppedBarQuantized verifies bar heights land on the step
// grid.
func TestSource_SteppedBarQuantized(t *testing.T) {
	cfg := testConfig()
	cfg.Display = DisplaySteppedBar
	cfg.StepWidth = 8
	cfg.StepGap = 2
	s, err := New(cfg, monoAudio(), video())
	require.NoError(t, err)
	defer s.Close()

	feedSine(t, s, 1024, 1500, tickNS)
	s.Tick(testDT, tickNS)
	f := s.Render()

	cPos := 100.0 - 0.5
	for i, y := range f.Y[0] {
		steps := (cPos - y) / 10.0
		assert.InDelta(t, math.Round(steps), steps, 1e-9, "bar %d off the grid", i)
	}
}

// TestSource_StereoMirror verifies the stereo layout: channel 0 above
// the center line, channel 1 below it.
func TestSource_StereoMirror(t *testing.T) {
	cfg := testConfig()
	cfg.Channels = ChannelStereo
	s, err := New(cfg, AudioInfo{SampleRate: testRate, Channels: 2}, video())
	require.NoError(t, err)
	defer s.Close()

	ch := testutil.Sine(1024, 1500, testRate, 1.0)
	require.True(t, s.Capture([][]float64{ch, ch}, 1024, tickNS, false))
	s.Tick(testDT, tickNS)
	f := s.Render()

	require.Len(t, f.Y, 2)
	center := 100.0/2 - 0.5
	testutil.AssertAllInRange(t, f.Y[0], 0.5, center)
	testutil.AssertAllInRange(t, f.Y[1], center, 100.0-0.5)
}

// TestSource_WaveformFrame verifies the time-domain mapping stays in
// its channel band.
func TestSource_WaveformFrame(t *testing.T) {
	cfg := testConfig()
	cfg.Display = DisplayWaveform
	s, err := New(cfg, monoAudio(), video())
	require.NoError(t, err)
	defer s.Close()

	feedSine(t, s, 1024, 1500, tickNS)
	s.Tick(testDT, tickNS)
	f := s.Render()

	require.Len(t, f.Y, 1)
	require.Len(t, f.Y[0], 200)
	testutil.AssertAllInRange(t, f.Y[0], 0, 100)
}

// TestSource_MeterFrame verifies the level meter renders one bar per
// channel.
func TestSource_MeterFrame(t *testing.T) {
	cfg := testConfig()
	cfg.Display = DisplayLevelMeter
	s, err := New(cfg, monoAudio(), video())
	require.NoError(t, err)
	defer s.Close()

	feedSine(t, s, 1024, 1500, tickNS)
	s.Tick(testDT, tickNS)
	f := s.Render()

	assert.Equal(t, 1, f.Bars)
	require.Len(t, f.Y, 1)
	require.Len(t, f.Y[0], 1)

	// RMS of a full-scale sine is −3 dB: within the display range
	y := f.Y[0][0]
	assert.Greater(t, y, 0.5)
	assert.Less(t, y, 100.0-0.5)
}

// TestSource_GradientHeight verifies the shader scalar is produced only
// in gradient mode.
func TestSource_GradientHeight(t *testing.T) {
	cfg := testConfig()
	cfg.Render = RenderGradient
	s, err := New(cfg, monoAudio(), video())
	require.NoError(t, err)
	defer s.Close()

	feedSine(t, s, 1024, 1500, tickNS)
	s.Tick(testDT, tickNS)
	assert.Greater(t, s.Render().GradientHeight, 0.0)

	cfg.Render = RenderSolid
	require.NoError(t, s.Update(cfg, monoAudio(), video()))
	feedSine(t, s, 1024, 1500, 2*tickNS)
	s.Tick(testDT, 2*tickNS)
	assert.Equal(t, 0.0, s.Render().GradientHeight)
}

// TestSource_AutoFFTSize verifies the window is derived from the
// sample rate and frame rate.
func TestSource_AutoFFTSize(t *testing.T) {
	cfg := testConfig()
	cfg.AutoFFTSize = true
	s, err := New(cfg, monoAudio(), video())
	require.NoError(t, err)
	defer s.Close()

	// 48000/60 = 800, already 16-aligned
	assert.Equal(t, 800, s.settings.WindowSize)
}

// TestSource_Update verifies reconfiguration rebuilds the pipeline.
func TestSource_Update(t *testing.T) {
	s, err := New(testConfig(), monoAudio(), video())
	require.NoError(t, err)
	defer s.Close()

	cfg := testConfig()
	cfg.Display = DisplayWaveform
	cfg.Width = 64
	require.NoError(t, s.Update(cfg, monoAudio(), video()))

	feedSine(t, s, 1024, 1500, tickNS)
	s.Tick(testDT, tickNS)
	f := s.Render()
	assert.Equal(t, DisplayWaveform, f.Mode)
	require.Len(t, f.Y[0], 64)

	cfg.Width = 0
	assert.Error(t, s.Update(cfg, monoAudio(), video()))
}

// TestSource_SingleChannel verifies single-channel mode captures the
// selected host channel.
func TestSource_SingleChannel(t *testing.T) {
	cfg := testConfig()
	cfg.Channels = ChannelSingle
	cfg.Channel = 1
	s, err := New(cfg, AudioInfo{SampleRate: testRate, Channels: 2}, video())
	require.NoError(t, err)
	defer s.Close()

	// tone only on channel 1; channel 0 silent
	zeros := make([]float64, 1024)
	tone := testutil.Sine(1024, 1500, testRate, 1.0)
	require.True(t, s.Capture([][]float64{zeros, tone}, 1024, tickNS, false))
	s.Tick(testDT, tickNS)

	assert.False(t, s.Render().Silent, "the selected channel carries signal")
}

// TestSource_CloseIsIdempotent verifies use after Close is inert.
func TestSource_CloseIsIdempotent(t *testing.T) {
	s, err := New(testConfig(), monoAudio(), video())
	require.NoError(t, err)

	s.Close()
	s.Close()
	s.Tick(testDT, tickNS)
	f := s.Render()
	assert.True(t, f.Skip)
}
