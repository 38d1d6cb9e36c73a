package buffer

import "time"

// maxSyncSlack rejects bogus timestamps from misbehaving sources: any
// audio/video delta beyond this is treated as garbage and clamped.
const maxSyncSlack = 16 * time.Second

// AVClock reconciles the audio capture clock with the video tick clock.
// The capture path records the timestamp of the newest audio it has
// seen; the tick path records the video frame time. The positive delta
// between the two, converted to samples, is the synchronization slack:
// audio buffered beyond window+slack is stale and gets trimmed.
type AVClock struct {
	audioNS  uint64
	videoNS  uint64
	hasAudio bool
	hasVideo bool
}

// MarkAudio records the timestamp of the most recent capture callback.
func (c *AVClock) MarkAudio(ts uint64) {
	c.audioNS = ts
	c.hasAudio = true
}

// MarkVideo records the timestamp of the current video tick.
func (c *AVClock) MarkVideo(ts uint64) {
	c.videoNS = ts
	c.hasVideo = true
}

// Delta returns the audio-ahead-of-video duration, clamped to
// [0, maxSyncSlack]. Before both clocks are seen it returns zero.
func (c *AVClock) Delta() time.Duration {
	if !c.hasAudio || !c.hasVideo || c.audioNS <= c.videoNS {
		return 0
	}
	d := time.Duration(c.audioNS - c.videoNS)
	if d > maxSyncSlack {
		return maxSyncSlack
	}
	return d
}

// SlackSamples converts the current delta into a sample count at the
// given rate.
func (c *AVClock) SlackSamples(sampleRate float64) int {
	return int(c.Delta().Seconds() * sampleRate)
}

// Reset forgets both clocks. Called on reconfiguration.
func (c *AVClock) Reset() {
	*c = AVClock{}
}
