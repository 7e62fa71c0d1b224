// Package refresh decides when a polling client gets a full feed redraw.
package refresh

import (
	"sync"
	"time"

	"remarks/domain"
)

// Controller implements the render debounce: after any render, the next one
// is suppressed until the window has elapsed, unless a clear-all latched a
// forced redraw. The state lives on the session itself; the controller only
// guards access and owns the clock.
type Controller struct {
	mu       sync.Mutex
	debounce time.Duration
	now      func() time.Time
}

func NewController(debounce time.Duration) *Controller {
	return &Controller{debounce: debounce, now: time.Now}
}

// ShouldRender reports whether this poll reopens the render window. A set
// clear trigger always does and consumes the latch; otherwise the window
// reopens only once the debounce has elapsed since the last render.
func (c *Controller) ShouldRender(s *domain.Session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if s.ClearTrigger || now.Sub(s.LastRefresh) > c.debounce {
		s.ClearTrigger = false
		s.LastRefresh = now
		return true
	}
	return false
}

// TriggerClear latches a forced redraw for the session, bypassing the
// debounce window on its next poll.
func (c *Controller) TriggerClear(s *domain.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s.ClearTrigger = true
}
