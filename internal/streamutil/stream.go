// Package streamutil provides the one streaming primitive shared by H3CE
// and JPE (spec §5): a bounded single-producer/single-consumer channel.
// Producers block on a full channel; consumers block on an empty one.
// A blocked send returns only when its ctx is done; a consumer that simply
// stops reading is not detected otherwise.
package streamutil

import "context"

// Capacity is the channel capacity spec §5 mandates for every streaming
// primitive in the core.
const Capacity = 1024

// NewChannel allocates a bounded channel of the shared capacity.
func NewChannel[T any]() chan T {
	return make(chan T, Capacity)
}

// Send delivers v on ch, or returns false promptly if ctx is done first.
// It has no other way to learn that the consumer has gone away.
func Send[T any](ctx context.Context, ch chan<- T, v T) bool {
	select {
	case ch <- v:
		return true
	case <-ctx.Done():
		return false
	}
}
