package recommend

import (
	"sync"
	"time"

	"fitgauge/internal/errors"
	"fitgauge/internal/types"
)

// Controller is the sole writer of the binding recommendation. Every other
// subsystem is advisory: it may read the locked value but any attempt to
// write is a programming error and fails loudly instead of silently
// overriding.
type Controller struct {
	mu        sync.Mutex
	sessionID string
	locked    bool
	value     types.FinalRecommendation
}

// NewController creates the recommendation controller for one session.
func NewController(sessionID string) *Controller {
	return &Controller{sessionID: sessionID}
}

// Lock writes the binding recommendation exactly once. A second write, even
// of the same value, is an integrity error: the recommendation is immutable
// for the session's remaining lifetime.
func (c *Controller) Lock(value types.Recommendation) (types.FinalRecommendation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.locked {
		return types.FinalRecommendation{}, errors.NewIntegrityError(
			errors.ErrCodeRecommendationLocked,
			"final recommendation is already locked for this session",
			nil,
		).WithContext("session_id", c.sessionID).
			WithContext("locked_value", string(c.value.Value)).
			WithContext("attempted_value", string(value))
	}

	c.value = types.FinalRecommendation{
		Value:    value,
		LockedAt: time.Now(),
	}
	c.locked = true

	return c.value, nil
}

// Get returns a copy of the locked recommendation. Reading before the lock
// is an integrity error; no stage may act on a recommendation that does not
// exist yet.
func (c *Controller) Get() (types.FinalRecommendation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.locked {
		return types.FinalRecommendation{}, errors.NewIntegrityError(
			errors.ErrCodeRecommendationLocked,
			"final recommendation has not been locked yet",
			nil,
		).WithContext("session_id", c.sessionID)
	}

	return c.value, nil
}

// Locked reports whether the binding recommendation has been written.
func (c *Controller) Locked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.locked
}
