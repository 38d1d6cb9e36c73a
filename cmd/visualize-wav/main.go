// Command visualize-wav runs the visualization pipeline over a WAV
// file offline, simulating a video clock, and prints the per-frame
// output. Useful for inspecting pipeline behavior without an audio
// device.
//
// Usage:
//
//	visualize-wav input.wav
//	visualize-wav -fps 30 -display bars -frames 120 input.wav
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strings"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	visualizer "github.com/tphakala/go-audio-visualizer"
)

const (
	// Samples decoded per read; matches a typical capture buffer.
	chunkFrames = 512

	defaultFPS      = 60.0
	defaultMaxFrame = 300

	maxInt16 = 32767.0
	maxInt24 = 8388607.0
	maxInt32 = 2147483647.0

	bitsPerSample16 = 16
	bitsPerSample24 = 24
	bitsPerSample32 = 32
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	fps := flag.Float64("fps", defaultFPS, "Simulated video frame rate")
	display := flag.String("display", "curve", "Display mode: curve, bars, meter, waveform")
	maxFrames := flag.Int("frames", defaultMaxFrame, "Stop after N video frames (0 = whole file)")
	width := flag.Int("width", 80, "Display width (columns for text output)")
	summary := flag.Bool("summary", false, "Print only min/max per frame")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] input.wav\n\nOptions:\n", os.Args[0])
		flag.PrintDefaults()
		return errors.New("missing input file")
	}
	inputPath := flag.Arg(0)

	f, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		return fmt.Errorf("%s: not a valid WAV file", inputPath)
	}

	rate := float64(dec.SampleRate)
	channels := int(dec.NumChans)
	if channels > 2 {
		channels = 2
	}

	cfg := visualizer.DefaultConfig()
	cfg.Width = *width
	cfg.Height = 24
	cfg.AutoFFTSize = true
	switch strings.ToLower(*display) {
	case "curve":
		cfg.Display = visualizer.DisplayCurve
	case "bars":
		cfg.Display = visualizer.DisplayBar
		cfg.BarWidth = 3
		cfg.BarGap = 1
	case "meter":
		cfg.Display = visualizer.DisplayLevelMeter
	case "waveform":
		cfg.Display = visualizer.DisplayWaveform
	default:
		return fmt.Errorf("unknown display mode %q", *display)
	}

	src, err := visualizer.New(cfg,
		visualizer.AudioInfo{SampleRate: rate, Channels: channels},
		visualizer.VideoInfo{FPS: *fps})
	if err != nil {
		return err
	}
	defer src.Close()

	feeder := newFeeder(dec, int(dec.NumChans), channels, int(dec.BitDepth))

	// Feed and tick in lockstep: one video frame's worth of samples,
	// then one Tick. Timestamps advance on a simulated shared clock.
	frameDur := time.Duration(float64(time.Second) / *fps)
	samplesPerFrame := int(rate / *fps)
	var clock uint64
	dt := frameDur.Seconds()

	for n := 0; *maxFrames == 0 || n < *maxFrames; n++ {
		fed, err := feeder.feed(src, samplesPerFrame, clock)
		if err != nil {
			return err
		}
		if fed == 0 {
			break
		}
		clock += uint64(frameDur.Nanoseconds())
		src.Tick(dt, clock)
		fr := src.Render()
		if fr.Skip {
			continue
		}
		printFrame(n, fr, *summary)
	}
	return nil
}

// feeder decodes WAV chunks and pushes them through Capture with
// simulated timestamps.
type feeder struct {
	dec         *wav.Decoder
	buf         *audio.IntBuffer
	ch64        [][]float64
	srcChannels int
	invMax      float64
	eof         bool
}

func newFeeder(dec *wav.Decoder, srcChannels, outChannels, bitDepth int) *feeder {
	var maxVal float64
	switch bitDepth {
	case bitsPerSample24:
		maxVal = maxInt24
	case bitsPerSample32:
		maxVal = maxInt32
	default:
		maxVal = maxInt16
	}
	fd := &feeder{
		dec: dec,
		buf: &audio.IntBuffer{
			Format: &audio.Format{NumChannels: srcChannels, SampleRate: int(dec.SampleRate)},
			Data:   make([]int, chunkFrames*srcChannels),
		},
		ch64:        make([][]float64, outChannels),
		srcChannels: srcChannels,
		invMax:      1.0 / maxVal,
	}
	for i := range fd.ch64 {
		fd.ch64[i] = make([]float64, chunkFrames)
	}
	return fd
}

// feed pushes up to want samples, returning how many were delivered.
func (fd *feeder) feed(src *visualizer.Source, want int, ts uint64) (int, error) {
	total := 0
	for total < want && !fd.eof {
		fd.buf.Data = fd.buf.Data[:cap(fd.buf.Data)]
		n, err := fd.dec.PCMBuffer(fd.buf)
		if err != nil && !errors.Is(err, io.EOF) {
			return total, fmt.Errorf("decode: %w", err)
		}
		frames := n / fd.srcChannels
		if frames == 0 {
			fd.eof = true
			break
		}
		for ch := range fd.ch64 {
			out := fd.ch64[ch][:frames]
			for i := 0; i < frames; i++ {
				out[i] = float64(fd.buf.Data[i*fd.srcChannels+ch]) * fd.invMax
			}
		}
		src.Capture(fd.ch64, frames, ts, false)
		total += frames
	}
	return total, nil
}

func printFrame(n int, fr visualizer.Frame, summary bool) {
	for ch, ys := range fr.Y {
		if summary {
			lo, hi := math.Inf(1), math.Inf(-1)
			for _, y := range ys {
				lo = math.Min(lo, y)
				hi = math.Max(hi, y)
			}
			fmt.Printf("frame %4d ch %d  min %7.2f  max %7.2f  silent=%v\n", n, ch, lo, hi, fr.Silent)
			continue
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, "frame %4d ch %d ", n, ch)
		for _, y := range ys {
			fmt.Fprintf(&sb, " %.1f", y)
		}
		fmt.Println(sb.String())
	}
}
