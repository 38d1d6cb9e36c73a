// Package buffer implements the per-channel capture ring buffer and the
// audio/video clock bookkeeping used to decide how much captured audio
// to retain between video frames.
package buffer

// Ring is a circular sample buffer with explicit read/write cursors.
//
// Ring performs no locking of its own: the engine serializes the
// capture and tick paths under a single mutex, so all methods assume
// exclusive access. Bounds are checked, not trusted; a drain request
// larger than the buffered data reports not-ready instead of wrapping.
type Ring struct {
	data    []float64
	readPos int
	size    int
}

// NewRing creates a ring buffer with the given initial capacity.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{data: make([]float64, capacity)}
}

// Len returns the number of buffered samples.
func (r *Ring) Len() int { return r.size }

// Cap returns the current arena capacity.
func (r *Ring) Cap() int { return len(r.data) }

// Push appends samples to the buffer, growing the arena if needed.
// Growth only happens until the first TrimTo establishes the working
// bound; afterwards the arena size is stable.
func (r *Ring) Push(samples []float64) {
	n := len(samples)
	if n == 0 {
		return
	}
	if r.size+n > len(r.data) {
		r.grow(r.size + n)
	}
	writePos := (r.readPos + r.size) % len(r.data)
	tail := copy(r.data[writePos:], samples)
	if tail < n {
		copy(r.data, samples[tail:])
	}
	r.size += n
}

// PushZero appends n silent samples. Used when the capture callback
// reports the source as muted, so timing stays continuous.
func (r *Ring) PushZero(n int) {
	if n <= 0 {
		return
	}
	if r.size+n > len(r.data) {
		r.grow(r.size + n)
	}
	writePos := (r.readPos + r.size) % len(r.data)
	for i := 0; i < n; i++ {
		r.data[(writePos+i)%len(r.data)] = 0
	}
	r.size += n
}

// TrimTo discards the oldest samples until at most max remain.
func (r *Ring) TrimTo(max int) {
	if max < 0 {
		max = 0
	}
	if r.size > max {
		r.Discard(r.size - max)
	}
}

// Peek copies the oldest len(dst) samples into dst without removing
// them. It returns false, leaving dst untouched, if fewer samples are
// buffered.
func (r *Ring) Peek(dst []float64) bool {
	n := len(dst)
	if n > r.size {
		return false
	}
	tail := copy(dst, r.data[r.readPos:min(r.readPos+n, len(r.data))])
	if tail < n {
		copy(dst[tail:], r.data)
	}
	return true
}

// Pop copies and removes the oldest len(dst) samples. It returns false
// if fewer samples are buffered.
func (r *Ring) Pop(dst []float64) bool {
	if !r.Peek(dst) {
		return false
	}
	r.Discard(len(dst))
	return true
}

// Discard removes the oldest n samples.
func (r *Ring) Discard(n int) {
	if n > r.size {
		n = r.size
	}
	r.readPos = (r.readPos + n) % len(r.data)
	r.size -= n
}

// Reset empties the buffer without releasing the arena.
func (r *Ring) Reset() {
	r.readPos = 0
	r.size = 0
}

func (r *Ring) grow(minCapacity int) {
	newCapacity := len(r.data)
	for newCapacity < minCapacity {
		newCapacity *= 2
	}
	newData := make([]float64, newCapacity)
	if r.size > 0 {
		tail := copy(newData, r.data[r.readPos:min(r.readPos+r.size, len(r.data))])
		if tail < r.size {
			copy(newData[tail:], r.data[:r.size-tail])
		}
	}
	r.data = newData
	r.readPos = 0
}
