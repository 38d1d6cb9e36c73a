// Package visualizer converts a live audio stream into per-frame
// arrays of display-ready magnitude values (a spectrum, a time-domain
// waveform, or a level meter) at video frame rate.
//
// The host delivers raw float samples through a capture callback; once
// per displayed video frame a tick drains the capture buffers into the
// configured analysis pipeline (windowed FFT spectrum, RMS/peak meter,
// or raw waveform), and a render maps the result onto display
// resolution with log-frequency scaling, Lanczos or point resampling
// and optional Gaussian smoothing.
//
// # Features
//
//   - Multi-channel ring buffering with audio/video timestamp reconciliation
//   - Five FFT window families with energy-compensated normalization
//   - Decibel conversion with a silence-aware early exit (digital
//     silence never reaches the FFT)
//   - Exponential and framerate-independent temporal smoothing with
//     asymmetric fast-peak attack
//   - Slope and roll-off frequency shaping, input-RMS volume normalization
//   - Four numerically equivalent pipeline variants selected once per
//     process by CPU capability (via github.com/klauspost/cpuid)
//   - SIMD-assisted inner loops via github.com/tphakala/simd
//
// # Quick start
//
//	src, err := visualizer.New(visualizer.DefaultConfig(),
//	    visualizer.AudioInfo{SampleRate: 48000, Channels: 2},
//	    visualizer.VideoInfo{FPS: 60})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer src.Close()
//
//	// from the host's audio thread:
//	src.Capture(samples, frames, timestampNS, false)
//
//	// once per video frame:
//	src.Tick(dt, videoTimestampNS)
//	frame := src.Render()
//	draw(frame.Y, frame.Bars, frame.GradientHeight)
package visualizer
