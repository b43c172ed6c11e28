package device

import (
	"context"

	"golang.org/x/time/rate"
)

// Throttle paces provisioning commands sent to a device.
// A nil Throttle, or one built with rps <= 0, never waits.
type Throttle struct {
	limiter *rate.Limiter
}

// NewThrottle allows rps commands per second with a burst of one.
func NewThrottle(rps float64) *Throttle {
	if rps <= 0 {
		return &Throttle{}
	}
	return &Throttle{limiter: rate.NewLimiter(rate.Limit(rps), 1)}
}

// Wait blocks until the next command may be sent or ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	if t == nil || t.limiter == nil {
		return ctx.Err()
	}
	return t.limiter.Wait(ctx)
}

// Allow reports whether a command may be sent now without waiting.
func (t *Throttle) Allow() bool {
	if t == nil || t.limiter == nil {
		return true
	}
	return t.limiter.Allow()
}

// Unlimited reports whether the throttle never waits.
func (t *Throttle) Unlimited() bool {
	return t == nil || t.limiter == nil
}
