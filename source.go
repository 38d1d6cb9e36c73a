package visualizer

import (
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tphakala/go-audio-visualizer/internal/buffer"
	"github.com/tphakala/go-audio-visualizer/internal/cpu"
	"github.com/tphakala/go-audio-visualizer/internal/display"
	"github.com/tphakala/go-audio-visualizer/internal/engine"
	"github.com/tphakala/go-audio-visualizer/internal/simdops"
)

// Source is one visualizer instance: capture buffers, the selected
// analysis pipeline and the display stage.
//
// Two execution contexts touch it: the host's audio thread calls
// Capture, and the host's video thread calls Tick and Render. A single
// mutex guards all mutable state. Capture gives up after a short
// deadline and drops the frame instead of blocking the audio thread;
// Tick and Render lock unconditionally.
type Source struct {
	mu sync.Mutex

	cfg   Config
	audio AudioInfo
	video VideoInfo

	tier cpu.Tier
	ops  *simdops.Ops

	settings engine.Settings
	rings    []*buffer.Ring
	clock    buffer.AVClock

	spectrum *engine.Spectrum
	meter    *engine.Meter
	waveform *engine.Waveform
	norm     *engine.Normalizer

	stage *display.Stage

	yBufs [2][]float64

	shown       bool
	haveAudio   bool
	lastAudioNS uint64

	// renderSilent lags the pipeline silence flag by one frame so a
	// dropped frame still gets one final floor-valued render.
	renderSilent bool
}

// New creates a source. The CPU is probed on first use and the
// pipeline variant fixed for the lifetime of the source.
func New(cfg Config, audio AudioInfo, video VideoInfo) (*Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Source{
		tier:  cpu.BestTier(),
		shown: true,
	}
	if s.tier != cpu.TierBaseline {
		s.ops = simdops.Float64Ops()
	}
	s.applyConfig(cfg, audio, video)
	logrus.WithFields(logrus.Fields{
		"tier":     s.tier.String(),
		"fft_size": s.settings.WindowSize,
		"channels": s.settings.CaptureChannels,
	}).Debug("visualizer source created")
	return s, nil
}

// Update applies a new configuration, tearing down and rebuilding every
// derived buffer. This is the only place buffers are resized.
func (s *Source) Update(cfg Config, audio AudioInfo, video VideoInfo) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyConfig(cfg, audio, video)
	return nil
}

// applyConfig resolves the configuration and rebuilds all state.
// Callers hold the lock (or own the only reference, during New).
func (s *Source) applyConfig(cfg Config, audio AudioInfo, video VideoInfo) {
	cfg.sanitize()
	s.cfg = cfg
	s.audio = audio
	s.video = video

	fftSize := cfg.FFTSize
	if cfg.AutoFFTSize && video.FPS > 0 {
		fftSize = int(audio.SampleRate/video.FPS) & fftSizeAlignMask
		if fftSize < minFFTSize {
			fftSize = minFFTSize
		} else if fftSize > maxFFTSize {
			fftSize = maxFFTSize
		}
	}

	captureChannels := min(audio.Channels, maxCaptureChannels)
	if cfg.Channels == ChannelSingle && captureChannels > 1 {
		captureChannels = 1
	}
	stereo := cfg.Channels == ChannelStereo
	outputChannels := 1
	if stereo || captureChannels > 1 {
		outputChannels = 2
	}

	s.settings = engine.Settings{
		SampleRate:      audio.SampleRate,
		FrameRate:       video.FPS,
		WindowSize:      fftSize,
		CaptureChannels: captureChannels,
		OutputChannels:  outputChannels,
		Stereo:          stereo,
		Window:          cfg.windowFunction(),
		Smoothing:       cfg.smoothingMode(),
		Gravity:         cfg.Gravity,
		FastPeaks:       cfg.FastPeaks,
		FloorDB:         cfg.FloorDB,
		CeilingDB:       cfg.CeilingDB,
		Slope:           cfg.Slope,
		CutoffLow:       cfg.CutoffLow,
		CutoffHigh:      cfg.CutoffHigh,
		RolloffQ:        cfg.RolloffQ,
		RolloffRate:     cfg.RolloffRate,
		Normalize:       cfg.Normalize,
		TargetDB:        cfg.TargetDB,
		MaxGainDB:       cfg.MaxGainDB,
		Meter:           cfg.meterMode(),
	}

	s.rings = make([]*buffer.Ring, captureChannels)
	for i := range s.rings {
		s.rings[i] = buffer.NewRing(fftSize * 2)
	}
	s.clock.Reset()
	s.haveAudio = false

	s.spectrum = nil
	s.meter = nil
	s.waveform = nil
	switch {
	case cfg.Display.Spectral():
		s.spectrum = engine.NewSpectrum(s.settings, s.tier)
	case cfg.Display.Meter():
		s.meter = engine.NewMeter(s.settings, simdops.Float64Ops())
	default:
		s.waveform = engine.NewWaveform(s.settings, simdops.Float64Ops())
	}

	s.norm = nil
	if cfg.Normalize {
		s.norm = engine.NewNormalizer(s.settings, simdops.Float64Ops())
	}

	s.stage = s.buildStage(fftSize)
	for ch := range s.yBufs {
		s.yBufs[ch] = make([]float64, s.displayLen())
	}
	s.renderSilent = false
}

// displayLen is the number of output columns or bars per channel.
func (s *Source) displayLen() int {
	switch {
	case s.cfg.Display.Meter():
		return 1
	case s.cfg.Display == DisplayBar || s.cfg.Display == DisplaySteppedBar:
		return s.barCount()
	default:
		return s.cfg.Width
	}
}

func (s *Source) barCount() int {
	n := s.cfg.Width / (s.cfg.BarWidth + s.cfg.BarGap)
	if n < 1 {
		n = 1
	}
	return n
}

// buildStage constructs the interpolation stage for the current mode.
// Meter modes have no stage: a single level needs no resampling.
func (s *Source) buildStage(fftSize int) *display.Stage {
	if s.cfg.Display.Meter() {
		return nil
	}

	radius := display.RadiusScalar
	if s.tier != cpu.TierBaseline {
		radius = display.RadiusVector
	}

	opts := display.Options{
		OutLen:      s.displayLen(),
		Interp:      s.cfg.interpMode(),
		Radius:      radius,
		FilterSigma: s.cfg.FilterStrength,
		FloorDB:     s.cfg.FloorDB,
		CeilingDB:   s.cfg.CeilingDB,
	}

	if s.cfg.Display == DisplayWaveform {
		opts.LowPos = 0
		opts.HighPos = float64(fftSize - 1)
		opts.LogScale = false
	} else {
		maxBin := float64(fftSize/2 - 1)
		binOf := func(hz float64) float64 {
			b := hz * float64(fftSize) / s.audio.SampleRate
			// bin 0 is DC; the log mapping needs a positive start
			if b < 1 {
				return 1
			}
			if b > maxBin {
				return maxBin
			}
			return b
		}
		opts.LowPos = binOf(s.cfg.CutoffLow)
		opts.HighPos = binOf(s.cfg.CutoffHigh)
		opts.LogScale = s.cfg.LogScale
		opts.Bands = s.cfg.Display == DisplayBar || s.cfg.Display == DisplaySteppedBar
	}
	return display.NewStage(opts, s.ops)
}

// Show marks the source visible.
func (s *Source) Show() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shown = true
}

// Hide marks the source hidden; the pipelines idle until shown again.
func (s *Source) Hide() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shown = false
}

// Close releases the capture buffers. The source must not be used
// afterwards.
func (s *Source) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rings = nil
	s.spectrum = nil
	s.meter = nil
	s.waveform = nil
	s.norm = nil
	s.stage = nil
}

// Capture is the host audio callback. channels holds one sample slice
// per host channel (only the first one or two are consumed, per the
// channel mode), frames the sample count, ts the capture timestamp in
// nanoseconds. When muted, silence is buffered instead so timing stays
// continuous.
//
// Capture polls for the pipeline lock for at most 10 ms and then drops
// the frame rather than blocking the audio thread. It reports whether
// the frame was accepted.
func (s *Source) Capture(channels [][]float64, frames int, ts uint64, muted bool) bool {
	if !s.lockWithTimeout() {
		return false
	}
	defer s.mu.Unlock()

	if len(s.rings) == 0 || frames <= 0 {
		return true
	}

	s.clock.MarkAudio(ts)
	s.haveAudio = true
	s.lastAudioNS = ts

	slack := s.clock.SlackSamples(s.settings.SampleRate)
	maxLen := s.settings.WindowSize + slack

	for i := range s.rings {
		src := i
		if s.cfg.Channels == ChannelSingle {
			src = s.cfg.Channel
		}
		if muted || src >= len(channels) {
			s.rings[i].PushZero(frames)
		} else {
			data := channels[src]
			if frames < len(data) {
				data = data[:frames]
			}
			s.rings[i].Push(data)
		}
		s.rings[i].TrimTo(maxLen)
	}

	if s.norm != nil && !muted {
		s.norm.Push(channels, frames)
	}
	return true
}

func (s *Source) lockWithTimeout() bool {
	deadline := time.Now().Add(captureLockTimeout)
	for !s.mu.TryLock() {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(captureLockRetry)
	}
	return true
}

// Tick runs one analysis frame. dt is the elapsed time since the last
// tick in seconds and videoTS the current video clock in nanoseconds
// (same epoch as the capture timestamps).
func (s *Source) Tick(dt float64, videoTS uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.rings) == 0 {
		return
	}
	s.clock.MarkVideo(videoTS)

	timedOut := s.haveAudio && videoTS > s.lastAudioNS &&
		videoTS-s.lastAudioNS > uint64(captureTimeout.Nanoseconds())

	if !s.shown || !s.haveAudio || timedOut {
		switch {
		case s.spectrum != nil:
			s.spectrum.Idle()
		case s.meter != nil:
			s.meter.Idle()
		default:
			s.waveform.Idle()
		}
		return
	}

	var gainDB float64
	if s.norm != nil {
		s.norm.Trim(&s.clock)
		gainDB = s.norm.GainDB()
	}

	switch {
	case s.spectrum != nil:
		s.spectrum.Tick(s.rings, &s.clock, gainDB, dt)
	case s.meter != nil:
		s.meter.Tick(s.rings, &s.clock, dt)
	default:
		s.waveform.Tick(s.rings, &s.clock, gainDB)
	}
}

// silent reports the active pipeline's silence flag.
func (s *Source) silent() bool {
	switch {
	case s.spectrum != nil:
		return s.spectrum.Silent()
	case s.meter != nil:
		return s.meter.Silent()
	default:
		return s.waveform.Silent()
	}
}

// quantizeSteps snaps a bar edge to the step grid of the stepped
// modes, truncating toward the baseline so a partial step never shows.
// Works on both sides of the baseline (the mirrored stereo channel
// extends below it).
func quantizeSteps(cPos, y float64, stepH float64) float64 {
	if stepH <= 0 {
		return y
	}
	steps := math.Trunc((y - cPos) / stepH)
	return cPos + steps*stepH
}

// lerpF is a local alias kept for readability in render math.
func lerpF(a, b, t float64) float64 { return a + t*(b-a) }
