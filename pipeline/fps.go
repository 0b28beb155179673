package pipeline

import "time"

// fpsCounter measures frames per elapsed second, refreshed once a second.
type fpsCounter struct {
	frames int
	fps    float64
	last   time.Time
	now    func() time.Time
}

// tick counts one frame and returns the current whole-frames-per-second
// reading. The reading stays at zero until a full second has elapsed.
func (c *fpsCounter) tick() int {
	clock := c.now
	if clock == nil {
		clock = time.Now
	}
	current := clock()

	if c.last.IsZero() {
		c.last = current
	}

	c.frames++
	if elapsed := current.Sub(c.last).Seconds(); elapsed >= 1.0 {
		c.fps = float64(c.frames) / elapsed
		c.frames = 0
		c.last = current
	}
	return int(c.fps)
}
