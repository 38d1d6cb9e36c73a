package visualizer

import (
	"math"

	"github.com/tphakala/go-audio-visualizer/internal/mathutil"
)

// Frame is one rendered output frame: screen-space Y coordinates per
// display channel, plus the scalars the external renderer needs. Y
// slices are owned by the source and overwritten on the next Render.
type Frame struct {
	Mode   DisplayMode
	Render RenderMode

	// Y holds one slice per display channel. For curve and bar modes
	// each value is the top (or, for the mirrored stereo channel, the
	// bottom) edge of the column in pixels. For waveform mode it is the
	// sample's vertical position; for meters it is the level bar edge.
	Y [][]float64

	// Bars is the drawn column count for bar modes, 0 otherwise.
	Bars int

	// GradientHeight parameterizes the gradient shader: the tallest
	// peak extent in pixels scaled by the gradient ratio. 0 unless the
	// render mode is RenderGradient.
	GradientHeight float64

	// Silent is set when the display has fully decayed to the floor.
	// Skip is set when the previous frame was already silent, so the
	// renderer may reuse it untouched.
	Silent bool
	Skip   bool

	RadialArc      float64
	RadialRotation float64
	RadialDeadzone float64
}

// Render produces the current frame from the last Tick's output.
func (s *Source) Render() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := Frame{
		Mode:           s.cfg.Display,
		Render:         s.cfg.Render,
		RadialArc:      s.cfg.RadialArc,
		RadialRotation: s.cfg.RadialRotation,
		RadialDeadzone: s.cfg.RadialDeadzone,
	}
	if len(s.rings) == 0 {
		f.Silent = true
		f.Skip = true
		return f
	}

	f.Silent = s.silent()
	// one final floor-valued frame is rendered after decay, then skip
	f.Skip = f.Silent && s.renderSilent
	s.renderSilent = f.Silent
	if f.Skip {
		return f
	}

	switch {
	case s.cfg.Display.Spectral():
		s.renderSpectral(&f)
	case s.cfg.Display.Meter():
		s.renderMeter(&f)
	default:
		s.renderWaveform(&f)
	}
	return f
}

func (s *Source) renderSpectral(f *Frame) {
	height := float64(s.cfg.Height)
	bottom := height - 0.5
	center := height/2 - 0.5

	stepped := s.cfg.Display == DisplaySteppedBar
	stepH := float64(s.cfg.StepWidth + s.cfg.StepGap)

	channels := 1
	if s.settings.Stereo {
		channels = 2
	}
	if s.cfg.Display != DisplayCurve {
		f.Bars = s.displayLen()
	}

	var maxExtent float64
	for ch := 0; ch < channels; ch++ {
		vals := s.stage.Resample(s.spectrum.Decibels(ch))
		dst := s.yBufs[ch]

		// channel 0 grows upward from its baseline, channel 1 is
		// mirrored downward from the center line
		cPos := bottom
		graphFloor := 0.5
		if s.settings.Stereo {
			cPos = center
			if ch == 1 {
				graphFloor = bottom
			}
		}
		s.stage.MapToScreen(dst, vals, graphFloor, cPos)

		for i, y := range dst {
			if stepped {
				y = quantizeSteps(cPos, y, stepH)
				dst[i] = y
			}
			if d := math.Abs(y - cPos); d > maxExtent {
				maxExtent = d
			}
		}
		f.Y = append(f.Y, dst)
	}

	if s.cfg.Render == RenderGradient {
		f.GradientHeight = maxExtent * s.cfg.GradientRatio
	}
}

func (s *Source) renderMeter(f *Frame) {
	height := float64(s.cfg.Height)
	bottom := height - 0.5
	dbRange := s.cfg.CeilingDB - s.cfg.FloorDB

	stepped := s.cfg.Display == DisplaySteppedLevelMeter
	stepH := float64(s.cfg.StepWidth + s.cfg.StepGap)

	channels := s.settings.OutputChannels
	f.Bars = channels

	var maxExtent float64
	for ch := 0; ch < channels; ch++ {
		t := mathutil.Clamp(s.cfg.CeilingDB-s.meter.Decibels(ch), 0, dbRange) / dbRange
		y := lerpF(0.5, bottom, t)
		if stepped {
			y = quantizeSteps(bottom, y, stepH)
		}
		if d := bottom - y; d > maxExtent {
			maxExtent = d
		}
		s.yBufs[ch] = append(s.yBufs[ch][:0], y)
		f.Y = append(f.Y, s.yBufs[ch])
	}

	if s.cfg.Render == RenderGradient {
		f.GradientHeight = maxExtent * s.cfg.GradientRatio
	}
}

func (s *Source) renderWaveform(f *Frame) {
	height := float64(s.cfg.Height)
	channels := s.settings.OutputChannels

	// each channel gets an equal horizontal band of the display
	band := height / float64(channels)
	amp := band/2 - 0.5

	for ch := 0; ch < channels; ch++ {
		vals := s.stage.Resample(s.waveform.Samples(ch))
		dst := s.yBufs[ch]
		center := band*float64(ch) + band/2
		for i, v := range vals {
			dst[i] = center - mathutil.Clamp(v, -1, 1)*amp
		}
		f.Y = append(f.Y, dst)
	}
}
