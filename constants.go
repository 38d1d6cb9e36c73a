package visualizer

import "time"

// Analysis window bounds. Sizes are aligned down to a multiple of 16 so
// the half-spectrum stays block-aligned for the wide pipeline variants.
const (
	minFFTSize       = 128
	maxFFTSize       = 8192
	fftSizeAlignMask = ^15
)

// Default configuration values.
const (
	defaultWidth      = 800
	defaultHeight     = 600
	defaultFFTSize    = 1024
	defaultCutoffLow  = 120
	defaultCutoffHigh = 17500
	defaultFloorDB    = -120.0
	defaultCeilingDB  = 0.0
	defaultGravity    = 0.65
	defaultGradRatio  = 1.35
	defaultBarWidth   = 14
	defaultBarGap     = 2
	defaultStepWidth  = 8
	defaultStepGap    = 2
	defaultTargetDB   = -3.0
	defaultMaxGainDB  = 30.0
)

// Capture channel limit: the pipeline analyzes at most two channels
// regardless of the host layout.
const maxCaptureChannels = 2

// Concurrency and timing policy.
const (
	// captureLockTimeout bounds how long the audio callback may wait
	// for the pipeline lock; on expiry the frame is dropped rather than
	// blocking the host's audio thread.
	captureLockTimeout = 10 * time.Millisecond

	// captureLockRetry is the poll interval while waiting.
	captureLockRetry = 500 * time.Microsecond

	// captureTimeout marks the capture as stalled: after this long
	// without audio the pipelines take the idle path.
	captureTimeout = 500 * time.Millisecond
)
