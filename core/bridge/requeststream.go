package bridge

import (
	"context"

	"github.com/fluxbench/commander/core/streaming"
)

// RequestStream is the guest-facing wrapper over a back-channel
// subscription (List page-size requests, Tree expand-children requests).
// It carries no StreamReplaced logic: back-channels belong to outputs the
// guest itself created, which are never rebound.
type RequestStream[T any] struct {
	sub    *streaming.Subscription[T]
	cancel func()
}

func newRequestStream[T any](sub *streaming.Subscription[T], cancel func()) *RequestStream[T] {
	return &RequestStream[T]{sub: sub, cancel: cancel}
}

// PollRequest returns the next buffered request without blocking.
func (r *RequestStream[T]) PollRequest() (T, bool) {
	d, ok := r.sub.Poll()
	return d.Event, ok
}

// PollRequestBlocking suspends until the next request or ctx is done.
func (r *RequestStream[T]) PollRequestBlocking(ctx context.Context) (T, error) {
	d, err := r.sub.Next(ctx)
	return d.Event, err
}

// Close detaches the underlying subscription.
func (r *RequestStream[T]) Close() { r.cancel() }
