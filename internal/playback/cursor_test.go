package playback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextPrevBounds(t *testing.T) {
	c := NewCursor(3)

	assert.False(t, c.Prev())
	assert.True(t, c.Next())
	assert.True(t, c.Next())
	assert.False(t, c.Next())
	assert.Equal(t, 2, c.Current())
	assert.True(t, c.AtEnd())

	assert.True(t, c.Prev())
	assert.Equal(t, 1, c.Current())
}

func TestJumpClamps(t *testing.T) {
	c := NewCursor(100)

	assert.True(t, c.Jump(10))
	assert.Equal(t, 10, c.Current())

	assert.True(t, c.Jump(-50))
	assert.Equal(t, 0, c.Current())
	assert.False(t, c.Jump(-10))

	assert.True(t, c.Jump(500))
	assert.Equal(t, 99, c.Current())
}

func TestSetClamps(t *testing.T) {
	c := NewCursor(10)
	c.Set(42)
	assert.Equal(t, 9, c.Current())
	c.Set(-3)
	assert.Equal(t, 0, c.Current())
}

func TestSequentialReadsSkipSeek(t *testing.T) {
	c := NewCursor(10)
	assert.False(t, c.NeedsSeek(), "first read of frame 0 is sequential")
	c.MarkRead()

	c.Next()
	assert.False(t, c.NeedsSeek())
	c.MarkRead()

	c.Set(1)
	assert.True(t, c.NeedsSeek(), "set always invalidates")
	c.MarkRead()

	c.Jump(5)
	assert.True(t, c.NeedsSeek())
	c.MarkRead()

	c.Prev()
	assert.True(t, c.NeedsSeek())
}

func TestToggleAndReset(t *testing.T) {
	c := NewCursor(5)
	assert.True(t, c.Toggle())
	assert.True(t, c.Playing())
	c.Stop()
	assert.False(t, c.Playing())

	c.Toggle()
	c.Set(3)
	c.Reset(7)
	assert.False(t, c.Playing())
	assert.Zero(t, c.Current())
	assert.Equal(t, 7, c.Total())
}

func TestEmptyVideo(t *testing.T) {
	c := NewCursor(0)
	assert.False(t, c.Next())
	assert.True(t, c.AtEnd())
	c.Set(5)
	assert.Zero(t, c.Current())
}

func TestInterval(t *testing.T) {
	assert.Equal(t, 33*time.Millisecond, Interval(30))
	assert.Equal(t, 40*time.Millisecond, Interval(25))
	assert.Equal(t, DefaultInterval, Interval(0))
	assert.Equal(t, DefaultInterval, Interval(-1))
}
