package engine

// Silence handling constants.
const (
	// silenceHysteresisDB is subtracted from the configured floor when
	// deciding whether displayed output has fully decayed. Once every
	// bin sits below floor−10 dB and the input is digital silence, the
	// FFT is skipped entirely until non-zero input arrives.
	silenceHysteresisDB = 10.0
)

// Smoothing constants.
const (
	// refFrameRate anchors the time-variant gravity so that at 60 fps
	// it matches the plain exponential mode with the same gravity.
	refFrameRate = 60.0
)

// Volume normalizer constants.
const (
	// normalizerWindowSeconds is the rolling RMS window of the input
	// loudness tracker.
	normalizerWindowSeconds = 1.0
)
