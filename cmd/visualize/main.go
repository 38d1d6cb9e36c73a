// Command visualize captures audio from an input device and serves
// rendered visualization frames to websocket clients.
//
// Usage:
//
//	visualize                          # default input device, curve display
//	visualize -s "USB Audio" -d bars   # pick a device by name, bar display
//	visualize list                     # list available input devices
//
// Frames are published as JSON on ws://<listen>/frames, one message per
// video frame.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	visualizer "github.com/tphakala/go-audio-visualizer"
)

const (
	defaultListenAddr = ":8765"
	defaultFPS        = 60.0

	// How often to retry a missing capture device, and how long the
	// callback may buffer per invocation.
	deviceRetryInterval = 2 * time.Second
	framesPerBuffer     = 512
)

type options struct {
	source  string
	listen  string
	fps     float64
	verbose bool

	display   string
	render    string
	window    string
	interp    string
	channels  string
	channel   int
	smoothing string
	detector  string

	width  int
	height int

	fftSize    int
	autoFFT    bool
	logScale   bool
	cutoffLow  float64
	cutoffHigh float64
	floorDB    float64
	ceilingDB  float64
	gravity    float64
	fastPeaks  bool
	slope      float64
	filter     float64

	normalize bool
	targetDB  float64
	maxGainDB float64
}

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Fatal("visualize failed")
	}
}

func run() error {
	base := visualizer.DefaultConfig()
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "visualize",
		Short:         "Real-time audio visualization server",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(opts)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio input devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listDevices()
		},
	}
	rootCmd.AddCommand(listCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&opts.source, "source", "s", "", "Input device name (substring match, default device if empty)")
	pf.StringVar(&opts.listen, "listen", defaultListenAddr, "Address for the frame websocket server")
	pf.Float64Var(&opts.fps, "fps", defaultFPS, "Video frame rate")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging")

	pf.StringVarP(&opts.display, "display", "d", "curve", "Display mode: curve, bars, stepped-bars, meter, stepped-meter, waveform")
	pf.StringVar(&opts.render, "render", "solid", "Render mode: line, solid, gradient, pulse, range")
	pf.StringVarP(&opts.window, "window", "w", "hann", "Window function: none, hann, hamming, blackman, blackman-harris")
	pf.StringVar(&opts.interp, "interp", "lanczos", "Interpolation: point, lanczos")
	pf.StringVarP(&opts.channels, "channels", "c", "stereo", "Channel mode: mono, stereo, single")
	pf.IntVar(&opts.channel, "channel", 0, "Captured channel index for single mode")
	pf.StringVar(&opts.smoothing, "smoothing", "exponential", "Smoothing: none, exponential, time-variant")
	pf.StringVar(&opts.detector, "detector", "rms", "Level meter detector: rms, peak")

	pf.IntVar(&opts.width, "width", base.Width, "Display width in pixels")
	pf.IntVar(&opts.height, "height", base.Height, "Display height in pixels")

	pf.IntVar(&opts.fftSize, "fft", base.FFTSize, "FFT window size (rounded down to a multiple of 16)")
	pf.BoolVar(&opts.autoFFT, "auto-fft", false, "Derive FFT size from sample rate and frame rate")
	pf.BoolVar(&opts.logScale, "log-scale", base.LogScale, "Logarithmic frequency axis")
	pf.Float64Var(&opts.cutoffLow, "cutoff-low", base.CutoffLow, "Low frequency cutoff in Hz")
	pf.Float64Var(&opts.cutoffHigh, "cutoff-high", base.CutoffHigh, "High frequency cutoff in Hz")
	pf.Float64Var(&opts.floorDB, "floor", base.FloorDB, "Display floor in dBFS")
	pf.Float64Var(&opts.ceilingDB, "ceiling", base.CeilingDB, "Display ceiling in dBFS")
	pf.Float64VarP(&opts.gravity, "gravity", "g", base.Gravity, "Temporal smoothing factor [0,1]")
	pf.BoolVar(&opts.fastPeaks, "fast-peaks", base.FastPeaks, "Let rising peaks bypass smoothing")
	pf.Float64Var(&opts.slope, "slope", base.Slope, "Spectral slope correction factor")
	pf.Float64Var(&opts.filter, "filter", base.FilterStrength, "Gaussian display filter strength (0 disables)")

	pf.BoolVarP(&opts.normalize, "normalize", "n", base.Normalize, "Enable loudness normalization")
	pf.Float64Var(&opts.targetDB, "target-db", base.TargetDB, "Normalization target level in dBFS")
	pf.Float64Var(&opts.maxGainDB, "max-gain", base.MaxGainDB, "Normalization gain limit in dB")

	rootCmd.SetArgs(os.Args[1:])
	return rootCmd.Execute()
}

func buildConfig(opts *options) (visualizer.Config, error) {
	cfg := visualizer.DefaultConfig()
	cfg.AudioSource = opts.source
	cfg.Width = opts.width
	cfg.Height = opts.height
	cfg.FFTSize = opts.fftSize
	cfg.AutoFFTSize = opts.autoFFT
	cfg.LogScale = opts.logScale
	cfg.CutoffLow = opts.cutoffLow
	cfg.CutoffHigh = opts.cutoffHigh
	cfg.FloorDB = opts.floorDB
	cfg.CeilingDB = opts.ceilingDB
	cfg.Gravity = opts.gravity
	cfg.FastPeaks = opts.fastPeaks
	cfg.Slope = opts.slope
	cfg.FilterStrength = opts.filter
	cfg.Normalize = opts.normalize
	cfg.TargetDB = opts.targetDB
	cfg.MaxGainDB = opts.maxGainDB
	cfg.Channel = opts.channel

	var err error
	if cfg.Display, err = parseDisplay(opts.display); err != nil {
		return cfg, err
	}
	if cfg.Render, err = parseRender(opts.render); err != nil {
		return cfg, err
	}
	if cfg.Window, err = parseWindow(opts.window); err != nil {
		return cfg, err
	}
	if cfg.Interpolation, err = parseInterp(opts.interp); err != nil {
		return cfg, err
	}
	if cfg.Channels, err = parseChannels(opts.channels); err != nil {
		return cfg, err
	}
	if cfg.Smoothing, err = parseSmoothing(opts.smoothing); err != nil {
		return cfg, err
	}
	if cfg.Detector, err = parseDetector(opts.detector); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func serve(opts *options) error {
	if opts.verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	cfg, err := buildConfig(opts)
	if err != nil {
		return err
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio init: %w", err)
	}
	defer func() { _ = portaudio.Terminate() }()

	h := newHub(opts.listen)
	defer h.close()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	// The named device may not exist yet (hotplug, session restore).
	// Keep retrying on a fixed timer; warn once, then stay quiet.
	var (
		capt   *capture
		warned bool
		retry  = time.NewTicker(deviceRetryInterval)
	)
	defer retry.Stop()
	defer func() {
		if capt != nil {
			capt.stop()
		}
	}()

	capt, err = openCapture(cfg, opts.fps)
	if err != nil {
		logrus.WithError(err).Warn("capture device unavailable, retrying")
		warned = true
	}

	frame := time.NewTicker(time.Duration(float64(time.Second) / opts.fps))
	defer frame.Stop()
	last := time.Now()

	for {
		select {
		case <-sig:
			logrus.Info("shutting down")
			return nil

		case <-retry.C:
			if capt != nil {
				continue
			}
			capt, err = openCapture(cfg, opts.fps)
			if err != nil {
				if !warned {
					logrus.WithError(err).Warn("capture device unavailable, retrying")
					warned = true
				}
				continue
			}
			warned = false

		case now := <-frame.C:
			if capt == nil {
				continue
			}
			dt := now.Sub(last).Seconds()
			last = now
			capt.src.Tick(dt, uint64(now.UnixNano()))
			f := capt.src.Render()
			if f.Skip {
				continue
			}
			h.send(frameMessage{
				Mode:           int(f.Mode),
				Render:         int(f.Render),
				Bars:           f.Bars,
				GradientHeight: f.GradientHeight,
				Silent:         f.Silent,
				Y:              f.Y,
			})
		}
	}
}

// capture owns the portaudio stream and the visualizer source it feeds.
type capture struct {
	src    *visualizer.Source
	stream *portaudio.Stream
	ch64   [][]float64
	drops  int
}

func openCapture(cfg visualizer.Config, fps float64) (*capture, error) {
	dev, err := findInputDevice(cfg.AudioSource)
	if err != nil {
		return nil, err
	}

	channels := dev.MaxInputChannels
	if channels > 2 {
		channels = 2
	}
	rate := dev.DefaultSampleRate

	src, err := visualizer.New(cfg,
		visualizer.AudioInfo{SampleRate: rate, Channels: channels},
		visualizer.VideoInfo{FPS: fps})
	if err != nil {
		return nil, err
	}

	c := &capture{src: src, ch64: make([][]float64, channels)}
	for i := range c.ch64 {
		c.ch64[i] = make([]float64, framesPerBuffer)
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: channels,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      rate,
		FramesPerBuffer: framesPerBuffer,
	}
	stream, err := portaudio.OpenStream(params, c.onAudio)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("start stream: %w", err)
	}
	c.stream = stream

	logrus.WithFields(logrus.Fields{
		"device":      dev.Name,
		"sample_rate": rate,
		"channels":    channels,
	}).Info("capture started")
	return c, nil
}

// onAudio runs on the portaudio callback thread. It must not block:
// Capture drops the buffer itself when the pipeline lock is contended.
func (c *capture) onAudio(in [][]float32) {
	if len(in) == 0 {
		return
	}
	frames := len(in[0])
	for ch := range c.ch64 {
		dst := c.ch64[ch]
		if frames > len(dst) {
			frames = len(dst)
		}
		if ch < len(in) {
			for i := 0; i < frames; i++ {
				dst[i] = float64(in[ch][i])
			}
		}
	}
	if !c.src.Capture(c.ch64, frames, uint64(time.Now().UnixNano()), false) {
		c.drops++
	}
}

func (c *capture) stop() {
	if c.stream != nil {
		_ = c.stream.Stop()
		_ = c.stream.Close()
	}
	if c.drops > 0 {
		logrus.WithField("dropped", c.drops).Debug("capture buffers dropped")
	}
	c.src.Close()
}

func findInputDevice(name string) (*portaudio.DeviceInfo, error) {
	if name == "" {
		return portaudio.DefaultInputDevice()
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(name)
	for _, d := range devices {
		if d.MaxInputChannels > 0 && strings.Contains(strings.ToLower(d.Name), needle) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("no input device matching %q", name)
}

func listDevices() error {
	if err := portaudio.Initialize(); err != nil {
		return err
	}
	defer func() { _ = portaudio.Terminate() }()

	devices, err := portaudio.Devices()
	if err != nil {
		return err
	}
	for _, d := range devices {
		if d.MaxInputChannels == 0 {
			continue
		}
		fmt.Printf("%-40s  %d ch  %.0f Hz\n", d.Name, d.MaxInputChannels, d.DefaultSampleRate)
	}
	return nil
}

func parseDisplay(s string) (visualizer.DisplayMode, error) {
	switch strings.ToLower(s) {
	case "curve":
		return visualizer.DisplayCurve, nil
	case "bars":
		return visualizer.DisplayBar, nil
	case "stepped-bars":
		return visualizer.DisplaySteppedBar, nil
	case "meter":
		return visualizer.DisplayLevelMeter, nil
	case "stepped-meter":
		return visualizer.DisplaySteppedLevelMeter, nil
	case "waveform":
		return visualizer.DisplayWaveform, nil
	default:
		return 0, fmt.Errorf("unknown display mode %q", s)
	}
}

func parseRender(s string) (visualizer.RenderMode, error) {
	switch strings.ToLower(s) {
	case "line":
		return visualizer.RenderLine, nil
	case "solid":
		return visualizer.RenderSolid, nil
	case "gradient":
		return visualizer.RenderGradient, nil
	case "pulse":
		return visualizer.RenderPulse, nil
	case "range":
		return visualizer.RenderRange, nil
	default:
		return 0, fmt.Errorf("unknown render mode %q", s)
	}
}

func parseWindow(s string) (visualizer.WindowFunction, error) {
	switch strings.ToLower(s) {
	case "none":
		return visualizer.WindowNone, nil
	case "hann":
		return visualizer.WindowHann, nil
	case "hamming":
		return visualizer.WindowHamming, nil
	case "blackman":
		return visualizer.WindowBlackman, nil
	case "blackman-harris":
		return visualizer.WindowBlackmanHarris, nil
	default:
		return 0, fmt.Errorf("unknown window function %q", s)
	}
}

func parseInterp(s string) (visualizer.Interpolation, error) {
	switch strings.ToLower(s) {
	case "point":
		return visualizer.InterpPoint, nil
	case "lanczos":
		return visualizer.InterpLanczos, nil
	default:
		return 0, fmt.Errorf("unknown interpolation %q", s)
	}
}

func parseChannels(s string) (visualizer.ChannelMode, error) {
	switch strings.ToLower(s) {
	case "mono":
		return visualizer.ChannelMono, nil
	case "stereo":
		return visualizer.ChannelStereo, nil
	case "single":
		return visualizer.ChannelSingle, nil
	default:
		return 0, fmt.Errorf("unknown channel mode %q", s)
	}
}

func parseDetector(s string) (visualizer.Detector, error) {
	switch strings.ToLower(s) {
	case "rms":
		return visualizer.DetectorRMS, nil
	case "peak":
		return visualizer.DetectorPeak, nil
	default:
		return 0, fmt.Errorf("unknown detector %q", s)
	}
}

func parseSmoothing(s string) (visualizer.Smoothing, error) {
	switch strings.ToLower(s) {
	case "none":
		return visualizer.SmoothingNone, nil
	case "exponential":
		return visualizer.SmoothingExponential, nil
	case "time-variant":
		return visualizer.SmoothingTimeVariant, nil
	default:
		return 0, fmt.Errorf("unknown smoothing mode %q", s)
	}
}
