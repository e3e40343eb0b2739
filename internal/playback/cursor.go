// Package playback tracks the frame position of an open video independently of the decoder.
package playback

import (
	"sync"
	"time"
)

// DefaultInterval is the tick used when the frame rate is unknown.
const DefaultInterval = 33 * time.Millisecond

// Cursor is the playback position within a video of Total frames. It remembers the last frame
// decoded so sequential reads can skip seeking.
type Cursor struct {
	mu       sync.Mutex
	current  int
	total    int
	lastRead int
	playing  bool
}

func NewCursor(total int) *Cursor {
	c := &Cursor{}
	c.Reset(total)
	return c
}

// Reset rewinds to frame 0 of a video with total frames and stops playback.
func (c *Cursor) Reset(total int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if total < 0 {
		total = 0
	}
	c.total = total
	c.current = 0
	c.lastRead = -1
	c.playing = false
}

func (c *Cursor) Current() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Cursor) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Next advances one frame. It reports false at the last frame.
func (c *Cursor) Next() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current >= c.total-1 {
		return false
	}
	c.current++
	return true
}

// Prev steps back one frame. It reports false at frame 0.
func (c *Cursor) Prev() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current <= 0 {
		return false
	}
	c.current--
	return true
}

// Jump moves by offset frames, clamped to the video. It reports whether the position changed.
func (c *Cursor) Jump(offset int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	target := c.clamp(c.current + offset)
	if target == c.current {
		return false
	}
	c.current = target
	c.lastRead = -1
	return true
}

// Set moves to frame, clamped to the video.
func (c *Cursor) Set(frame int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = c.clamp(frame)
	c.lastRead = -1
}

// NeedsSeek reports whether the decoder must seek before reading the current frame.
func (c *Cursor) NeedsSeek() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != c.lastRead+1
}

// MarkRead records that the current frame has been decoded.
func (c *Cursor) MarkRead() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastRead = c.current
}

// Toggle flips the playing state and returns the new one.
func (c *Cursor) Toggle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playing = !c.playing
	return c.playing
}

func (c *Cursor) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

func (c *Cursor) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playing = false
}

// AtEnd reports whether the cursor is on the last frame.
func (c *Cursor) AtEnd() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total == 0 || c.current >= c.total-1
}

func (c *Cursor) clamp(frame int) int {
	if frame > c.total-1 {
		frame = c.total - 1
	}
	if frame < 0 {
		frame = 0
	}
	return frame
}

// Interval is the playback tick for a frame rate.
func Interval(fps float64) time.Duration {
	if fps <= 0 {
		return DefaultInterval
	}
	return time.Duration(1000/fps) * time.Millisecond
}
