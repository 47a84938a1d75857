package player

import "time"

// clock accumulates listening time for the open track, excluding pauses
type clock struct {
	startTime time.Time     // when playback started or last resumed
	pausedAt  time.Time     // zero unless paused
	total     time.Duration // play time before startTime
	running   bool
}

// start resets the clock for a new track
func (c *clock) start(now time.Time) {
	*c = clock{startTime: now, running: true}
}

func (c *clock) pause(now time.Time) {
	if !c.running || !c.pausedAt.IsZero() {
		return
	}
	c.pausedAt = now
}

func (c *clock) resume(now time.Time) {
	if !c.running || c.pausedAt.IsZero() {
		return
	}
	c.total += c.pausedAt.Sub(c.startTime)
	c.startTime = now
	c.pausedAt = time.Time{}
}

// played returns the accumulated listening time
func (c *clock) played(now time.Time) time.Duration {
	switch {
	case !c.running:
		return c.total
	case !c.pausedAt.IsZero():
		return c.total + c.pausedAt.Sub(c.startTime)
	default:
		return c.total + now.Sub(c.startTime)
	}
}

// stop freezes the clock and returns the final listening time
func (c *clock) stop(now time.Time) time.Duration {
	played := c.played(now)
	*c = clock{total: played}
	return played
}
