package monitor

import (
	"sync"
	"time"

	"github.com/benjoco/sitescope/internal/domain"
)

type pairKey struct {
	User domain.UserID
	Site domain.SiteID
}

// Cooldown gates notifications per (user, site) pair so a flapping
// site cannot storm a mailbox. State is in-process only; after a
// restart the next flip may notify once more, which is accepted.
type Cooldown struct {
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	last map[pairKey]time.Time // last time a notification passed the gate
}

func NewCooldown(window time.Duration) *Cooldown {
	if window <= 0 {
		window = 10 * time.Minute
	}
	return &Cooldown{
		window: window,
		now:    time.Now,
		last:   make(map[pairKey]time.Time),
	}
}

// ShouldNotify decides whether a notification for this pair goes out
// now, and on a pass records the send time in the same critical
// section, so two concurrent checks cannot both pass the gate.
//
// Rules: force always passes; Unchanged never passes; FirstObservation
// and Flipped pass when the window since the last pass has elapsed.
func (c *Cooldown) ShouldNotify(user domain.UserID, site domain.SiteID, class Classification, force bool) bool {
	k := pairKey{User: user, Site: site}

	c.mu.Lock()
	defer c.mu.Unlock()

	if force {
		c.last[k] = c.now()
		return true
	}
	if class == Unchanged {
		return false
	}
	if sent, ok := c.last[k]; ok && c.now().Sub(sent) < c.window {
		return false
	}
	c.last[k] = c.now()
	return true
}

// Forget drops the pair state, e.g. when a site is removed.
func (c *Cooldown) Forget(user domain.UserID, site domain.SiteID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.last, pairKey{User: user, Site: site})
}
