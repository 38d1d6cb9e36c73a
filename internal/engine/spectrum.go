package engine

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/tphakala/go-audio-visualizer/internal/buffer"
	"github.com/tphakala/go-audio-visualizer/internal/cpu"
	"github.com/tphakala/go-audio-visualizer/internal/mathutil"
	"github.com/tphakala/go-audio-visualizer/internal/window"
)

// Spectrum is the FFT analysis pipeline. Per tick and channel it
// drains one analysis window from the capture ring, applies the window
// function, transforms, normalizes magnitudes, smooths them over time
// and converts to dBFS with optional slope and roll-off shaping.
//
// The magnitude normalization is 2/Σwindow when a window function is
// active (compensating the window's energy loss) and 2/N otherwise, so
// a full-scale sinusoid measures 0 dBFS either way.
type Spectrum struct {
	s    Settings
	kern tickKernel

	fft      *fourier.FFT
	fftInput []float64
	fftOut   []complex128
	coeffs   *window.Coefficients

	slopeCurve   []float64 // additive dB per bin, nil when slope == 0
	rolloffCurve []float64 // subtractive dB per bin, nil when rate == 0

	smooth   [2][]float64 // previous pre-dB magnitudes
	decibels [2][]float64

	lastSilent bool

	// fftCalls counts executed transforms; the silence early-exit is
	// verified against it in tests.
	fftCalls int
}

// NewSpectrum builds the pipeline for the given settings and CPU tier.
func NewSpectrum(s Settings, tier cpu.Tier) *Spectrum {
	n := s.WindowSize
	half := n / 2

	sp := &Spectrum{
		s:        s,
		kern:     newTickKernel(tier),
		fft:      fourier.NewFFT(n),
		fftInput: make([]float64, n),
		fftOut:   make([]complex128, n/2+1),
		coeffs:   window.New(s.Window, n),
	}

	for ch := 0; ch < s.OutputChannels; ch++ {
		sp.decibels[ch] = make([]float64, half)
		for i := range sp.decibels[ch] {
			sp.decibels[ch][i] = mathutil.DBMin
		}
		if s.Smoothing != SmoothNone {
			sp.smooth[ch] = make([]float64, half)
		}
	}

	if s.Slope != 0 {
		sp.slopeCurve = makeSlopeCurve(s.Slope, half)
	}
	if s.RolloffRate != 0 {
		sp.rolloffCurve = makeRolloffCurve(s, half)
	}
	return sp
}

// makeSlopeCurve precomputes the per-bin high-frequency boost as an
// additive dB table: slope·log10(bin), with bin 0 treated as bin 1.
func makeSlopeCurve(slope float64, half int) []float64 {
	curve := make([]float64, half)
	for i := 1; i < half; i++ {
		curve[i] = slope * math.Log10(float64(i))
	}
	return curve
}

// makeRolloffCurve precomputes the per-bin attenuation fading bins
// outside the cutoff band: rate dB per octave beyond the knees, the
// knees pushed outward from the cutoffs by the Q factor.
func makeRolloffCurve(s Settings, half int) []float64 {
	q := s.RolloffQ
	if q < 1 {
		q = 1
	}
	lowKnee := s.CutoffLow * q
	highKnee := s.CutoffHigh / q
	binHz := s.SampleRate / float64(s.WindowSize)

	curve := make([]float64, half)
	for i := range curve {
		f := float64(i) * binHz
		switch {
		case lowKnee > 0 && f < lowKnee:
			if f <= 0 {
				f = binHz / 2
			}
			curve[i] = s.RolloffRate * math.Log2(lowKnee/f)
		case highKnee > 0 && f > highKnee:
			curve[i] = s.RolloffRate * math.Log2(f/highKnee)
		}
	}
	return curve
}

// Bins returns the number of output frequency bins (WindowSize/2; bins
// at and above Nyquist are discarded).
func (sp *Spectrum) Bins() int { return sp.s.WindowSize / 2 }

// Decibels returns the dBFS output for a channel, overwritten each tick.
func (sp *Spectrum) Decibels(ch int) []float64 { return sp.decibels[ch] }

// Silent reports whether the last tick judged the display fully decayed.
func (sp *Spectrum) Silent() bool { return sp.lastSilent }

// Idle handles the hidden/timed-out state: smoothing state is zeroed
// and the output pinned to the floor sentinel, once, until shown again.
func (sp *Spectrum) Idle() {
	if sp.lastSilent {
		return
	}
	for ch := 0; ch < sp.s.OutputChannels; ch++ {
		if sp.smooth[ch] != nil {
			clear(sp.smooth[ch])
		}
		for i := range sp.decibels[ch] {
			sp.decibels[ch][i] = mathutil.DBMin
		}
	}
	sp.lastSilent = true
}

// Tick runs one analysis frame. rings holds the per-channel capture
// buffers, clock supplies the A/V slack, gainDB is the volume
// normalizer offset (0 when disabled) and dt the elapsed frame time.
func (sp *Spectrum) Tick(rings []*buffer.Ring, clock *buffer.AVClock, gainDB, dt float64) {
	need := sp.s.WindowSize
	half := need / 2
	gravity := effectiveGravity(sp.s.Smoothing, sp.s.Gravity, dt)
	slack := clock.SlackSamples(sp.s.SampleRate)

	// The tick is skipped, not failed, until every captured channel has
	// accumulated a full analysis window.
	for ch := 0; ch < sp.s.CaptureChannels; ch++ {
		if rings[ch].Len() < need {
			return
		}
	}

	// Digital silence never reaches the FFT: if every captured channel
	// is all zero and the previous output has decayed below floor−10 dB
	// on every displayed bin, the frame is skipped outright. The scan
	// covers all channels so a tone arriving on only one of them wakes
	// the pipeline.
	// Keep the analysis window plus the A/V slack; everything older has
	// already been displayed.
	for ch := 0; ch < sp.s.CaptureChannels; ch++ {
		rings[ch].TrimTo(need + slack)
	}

	allZero := true
	for ch := 0; ch < sp.s.CaptureChannels; ch++ {
		rings[ch].Peek(sp.fftInput)
		if !sp.kern.allZero(sp.fftInput) {
			allZero = false
			break
		}
	}
	if allZero {
		if sp.lastSilent {
			return
		}
		outSilent := true
		for oc := 0; oc < sp.s.displayedChannels(); oc++ {
			if !sp.kern.allBelow(sp.decibels[oc], sp.s.silenceFloor()) {
				outSilent = false
				break
			}
		}
		if outSilent {
			sp.lastSilent = true
			return
		}
	} else {
		sp.lastSilent = false
	}

	for ch := 0; ch < sp.s.CaptureChannels; ch++ {
		rings[ch].Peek(sp.fftInput)

		norm := 2.0 / float64(need)
		if sp.coeffs != nil {
			sp.kern.applyWindow(sp.fftInput, sp.coeffs.Weights)
			norm = 2.0 / sp.coeffs.Sum
		}

		sp.fft.Coefficients(sp.fftOut, sp.fftInput)
		sp.fftCalls++

		sp.kern.processBins(sp.decibels[ch][:half], sp.smooth[ch], sp.fftOut[:half],
			norm, gravity, sp.s.FastPeaks)
	}

	sp.finalize(gainDB)
}

// finalize combines channels and converts the magnitude buffers to
// shaped dBFS in place.
func (sp *Spectrum) finalize(gainDB float64) {
	half := sp.s.WindowSize / 2

	// Mono capture with stereo display duplicates; stereo capture with
	// mono display averages magnitudes before the dB conversion so the
	// sum is power-additive.
	if sp.s.OutputChannels > sp.s.CaptureChannels {
		copy(sp.decibels[1], sp.decibels[0])
	}

	channels := sp.s.OutputChannels
	if !sp.s.Stereo && sp.s.CaptureChannels > 1 {
		for i := 0; i < half; i++ {
			sp.decibels[0][i] = (sp.decibels[0][i] + sp.decibels[1][i]) / 2
		}
		channels = 1
	}

	for ch := 0; ch < channels; ch++ {
		out := sp.decibels[ch]
		for i := 0; i < half; i++ {
			db := mathutil.DBFS(out[i])
			if sp.slopeCurve != nil {
				db = mathutil.Clamp(db+sp.slopeCurve[i], mathutil.DBMin, 0)
			}
			if gainDB != 0 {
				db += gainDB
			}
			if sp.rolloffCurve != nil && sp.rolloffCurve[i] != 0 {
				db = math.Max(db-sp.rolloffCurve[i], mathutil.DBMin)
			}
			out[i] = db
		}
	}
}
