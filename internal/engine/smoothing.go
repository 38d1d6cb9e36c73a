package engine

import "math"

// effectiveGravity resolves the smoothing factor for this tick.
//
// In time-variant mode the factor becomes g^(dt·60), which equals
// exp(−dt/τ) with τ = −1/(60·ln g): at exactly 60 fps it matches the
// fixed exponential mode, at other framerates the decay speed in
// seconds stays constant.
func effectiveGravity(mode SmoothingMode, gravity, dt float64) float64 {
	switch mode {
	case SmoothExponential:
		return gravity
	case SmoothTimeVariant:
		if gravity <= 0 {
			return 0
		}
		return math.Pow(gravity, dt*refFrameRate)
	default:
		return 0
	}
}

// smoothState applies the exponential moving average to one value.
// With fastPeaks enabled, a larger new magnitude replaces the previous
// state before the average, giving instant attack and smoothed release.
func smoothValue(prev *float64, mag, gravity float64, fastPeaks bool) float64 {
	if fastPeaks && mag > *prev {
		*prev = mag
	}
	out := gravity**prev + (1-gravity)*mag
	*prev = out
	return out
}
