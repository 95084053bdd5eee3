package h3

import (
	"time"

	"github.com/valyala/fastrand"
)

// backoff is the shared primitive the receive loop snoozes on between polls
// when the adapter has no event ready (spec §4.2, "Done (no event): back
// off and continue"). Doubles up to max with a half-interval jitter so
// many streams on one connection don't wake in lockstep.
type backoff struct {
	min, max time.Duration
	cur      time.Duration
}

func newBackoff(min, max time.Duration) *backoff {
	return &backoff{min: min, max: max, cur: min}
}

func (b *backoff) reset() { b.cur = b.min }

func (b *backoff) wait() {
	jitter := time.Duration(0)
	if half := b.cur / 2; half > 0 {
		jitter = time.Duration(fastrand.Uint32n(uint32(half)))
	}
	time.Sleep(b.cur/2 + jitter)
	b.cur *= 2
	if b.cur > b.max {
		b.cur = b.max
	}
}
