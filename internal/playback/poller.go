package playback

import "time"

// pollLoop samples the active adapter's position while playing and publishes
// it, unless a seek gesture is in progress. Runs until Close.
func (c *Controller) pollLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
		}

		c.mu.Lock()
		if c.state != StatePlaying || c.seeking {
			c.mu.Unlock()
			continue
		}
		h, ok := c.store.Handle(c.currentIndex)
		if !ok {
			c.mu.Unlock()
			continue
		}
		pos, posOK := h.Position()
		dur, durOK := h.Duration()
		if !posOK && !durOK {
			c.mu.Unlock()
			continue
		}
		if posOK {
			c.position = pos
		}
		if durOK {
			c.duration = dur
		}
		c.posKnown = posOK
		pos, dur = c.position, c.duration
		c.mu.Unlock()

		c.emitPosition(PositionChange{Position: pos, Duration: dur})
	}
}
