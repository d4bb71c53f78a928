package support

import (
	"sync"
	"time"
)

// DefaultCooldown is the window between repeated presses of the same
// button by the same user.
const DefaultCooldown = 5 * time.Second

// sweep expired entries from the map after this many writes.
const sweepInterval = 64

// Cooldown throttles a per-user action. Expired entries are left in
// place on read and reaped opportunistically on write.
type Cooldown struct {
	mu      sync.Mutex
	expires map[string]time.Time
	window  time.Duration
	writes  int

	now func() time.Time
}

func NewCooldown(window time.Duration) *Cooldown {
	if window <= 0 {
		window = DefaultCooldown
	}
	return &Cooldown{
		expires: make(map[string]time.Time),
		window:  window,
		now:     time.Now,
	}
}

// OnCooldown reports whether the user is still throttled and how long
// is left of the window.
func (c *Cooldown) OnCooldown(userID string) (bool, time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	exp, ok := c.expires[userID]
	if !ok {
		return false, 0
	}
	left := exp.Sub(c.now())
	if left <= 0 {
		return false, 0
	}
	return true, left
}

// Set restarts the user's window, overwriting any existing entry.
func (c *Cooldown) Set(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.expires[userID] = c.now().Add(c.window)

	c.writes++
	if c.writes%sweepInterval == 0 {
		now := c.now()
		for id, exp := range c.expires {
			if !exp.After(now) {
				delete(c.expires, id)
			}
		}
	}
}
