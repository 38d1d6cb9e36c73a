package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(start, n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = float64(start + i)
	}
	return s
}

// TestRing_PushPeekPop verifies FIFO order across a simple cycle.
func TestRing_PushPeekPop(t *testing.T) {
	r := NewRing(8)
	r.Push(seq(0, 5))
	assert.Equal(t, 5, r.Len())

	dst := make([]float64, 5)
	require.True(t, r.Peek(dst))
	assert.Equal(t, seq(0, 5), dst)
	assert.Equal(t, 5, r.Len(), "peek must not consume")

	require.True(t, r.Pop(dst))
	assert.Equal(t, seq(0, 5), dst)
	assert.Equal(t, 0, r.Len())
}

// TestRing_NotReady verifies a short buffer reports not-ready and
// leaves the destination untouched.
func TestRing_NotReady(t *testing.T) {
	r := NewRing(8)
	r.Push(seq(0, 3))

	dst := []float64{-1, -1, -1, -1}
	assert.False(t, r.Peek(dst))
	assert.Equal(t, []float64{-1, -1, -1, -1}, dst)
	assert.False(t, r.Pop(dst))
	assert.Equal(t, 3, r.Len())
}

// TestRing_Wraparound exercises reads and writes across the arena seam.
func TestRing_Wraparound(t *testing.T) {
	r := NewRing(8)
	r.Push(seq(0, 6))
	r.Discard(4) // readPos now mid-arena

	r.Push(seq(6, 5)) // write wraps
	assert.Equal(t, 7, r.Len())

	dst := make([]float64, 7)
	require.True(t, r.Pop(dst))
	assert.Equal(t, seq(4, 7), dst)
}

// TestRing_Grow verifies data survives arena growth, including when the
// buffered region wraps.
func TestRing_Grow(t *testing.T) {
	r := NewRing(4)
	r.Push(seq(0, 3))
	r.Discard(2)
	r.Push(seq(3, 3)) // wraps inside the 4-slot arena

	// force growth past the wrap
	r.Push(seq(6, 10))
	assert.GreaterOrEqual(t, r.Cap(), 14)

	dst := make([]float64, r.Len())
	require.True(t, r.Peek(dst))
	assert.Equal(t, seq(2, 14), dst)
}

// TestRing_TrimTo verifies the oldest samples are the ones dropped.
func TestRing_TrimTo(t *testing.T) {
	r := NewRing(16)
	r.Push(seq(0, 10))

	r.TrimTo(4)
	assert.Equal(t, 4, r.Len())

	dst := make([]float64, 4)
	require.True(t, r.Peek(dst))
	assert.Equal(t, seq(6, 4), dst)

	r.TrimTo(100) // no-op when under the bound
	assert.Equal(t, 4, r.Len())

	r.TrimTo(-1)
	assert.Equal(t, 0, r.Len())
}

// TestRing_PushZero verifies muted gaps buffer silence.
func TestRing_PushZero(t *testing.T) {
	r := NewRing(4)
	r.Push(seq(1, 2))
	r.PushZero(3)
	assert.Equal(t, 5, r.Len())

	dst := make([]float64, 5)
	require.True(t, r.Pop(dst))
	assert.Equal(t, []float64{1, 2, 0, 0, 0}, dst)
}

// TestRing_Reset verifies the arena is retained.
func TestRing_Reset(t *testing.T) {
	r := NewRing(8)
	r.Push(seq(0, 8))
	c := r.Cap()
	r.Reset()
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, c, r.Cap())
}

// TestRing_DiscardOverdrain verifies a too-large discard just empties.
func TestRing_DiscardOverdrain(t *testing.T) {
	r := NewRing(8)
	r.Push(seq(0, 3))
	r.Discard(10)
	assert.Equal(t, 0, r.Len())

	r.Push(seq(0, 2))
	dst := make([]float64, 2)
	require.True(t, r.Pop(dst))
	assert.Equal(t, seq(0, 2), dst)
}
