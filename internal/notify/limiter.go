package notify

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// gate is the global delivery rate limiter: one token per MinInterval with
// burst 1, i.e. a single instant-in-time floor between deliveries for the
// whole process. It exists to keep notification storms off the consuming
// surface, not to enforce per-recipient fairness.
type gate struct {
	lim      *rate.Limiter
	interval time.Duration
}

func newGate(minInterval time.Duration) *gate {
	return &gate{
		lim:      rate.NewLimiter(rate.Every(minInterval), 1),
		interval: minInterval,
	}
}

// Ready reports whether a delivery slot is open right now without
// committing it. Used to keep duplicate drops from burning a slot.
func (g *gate) Ready() bool {
	return g.lim.Tokens() >= 1
}

// Allow reports whether a delivery may happen right now and, if so, commits
// the slot. Check and record are one atomic step so two concurrent senders
// cannot both pass.
func (g *gate) Allow() bool {
	return g.lim.Allow()
}

// Wait blocks until the next delivery slot opens (or ctx is cancelled) and
// commits it. Used by the queue drain worker.
func (g *gate) Wait(ctx context.Context) error {
	return g.lim.Wait(ctx)
}
