// Package streaming implements the three reactive DataStream shapes
// (Value, List, Tree): an in-memory snapshot plus a multi-consumer change
// broadcast, and for List/Tree a second broadcast carrying guest-originated
// back-pressure requests (page loads, child expansion). The Broadcaster
// type itself is general-purpose and is reused by core/registry for its
// resource-change broadcast.
//
// Grounded on the teacher's read-write-locked, goroutine-per-subscriber
// style (see core's extensive sync.RWMutex state guards): every stream
// holds its state behind a lock whose critical sections are bounded to a
// single mutation plus a broadcast send.
package streaming

import (
	"context"
	"sync"
)

const (
	// DefaultChangeBuffer is the minimum ring size the spec requires for
	// change broadcasts (at least 128 events).
	DefaultChangeBuffer = 128
	// DefaultRequestBuffer is the minimum ring size for back-channel
	// broadcasts (at least 32 events).
	DefaultRequestBuffer = 32
)

// Delivery wraps a broadcast event together with a flag reporting whether
// this subscriber fell behind the ring and lost events immediately before
// it. Gap is never set together with a corrupted payload: the event itself
// is always a clean, fully-formed E.
type Delivery[E any] struct {
	Event E
	Gap   bool
}

// Broadcaster is a fixed-capacity, multi-subscriber fan-out. Slow
// subscribers that fall behind the ring lose the oldest events; they detect
// the gap via Delivery.Gap and are expected to re-snapshot. Producers never
// block on subscribers.
type Broadcaster[E any] struct {
	mu       sync.Mutex
	subs     map[uint64]*Subscription[E]
	nextID   uint64
	capacity int
}

// Subscription is a live cursor over a Broadcaster's events.
type Subscription[E any] struct {
	mu     sync.Mutex
	items  []E
	gap    bool
	closed bool
	notify chan struct{} // buffered(1) wake signal
}

// NewBroadcaster creates a Broadcaster with the given ring capacity. A
// non-positive capacity is replaced with DefaultChangeBuffer.
func NewBroadcaster[E any](capacity int) *Broadcaster[E] {
	if capacity <= 0 {
		capacity = DefaultChangeBuffer
	}
	return &Broadcaster[E]{subs: make(map[uint64]*Subscription[E]), capacity: capacity}
}

// Subscribe returns a cursor that observes events published after this
// call. The returned cancel func detaches the subscriber; it is always safe
// to call, including after the broadcaster has been closed.
func (b *Broadcaster[E]) Subscribe() (*Subscription[E], func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	sub := &Subscription[E]{notify: make(chan struct{}, 1)}
	b.subs[id] = sub
	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
	return sub, cancel
}

// Publish fans e out to every live subscriber. A subscriber whose buffer is
// already at capacity has its oldest event evicted and its gap flag set;
// Publish itself never blocks.
func (b *Broadcaster[E]) Publish(e E) {
	b.mu.Lock()
	subs := make([]*Subscription[E], 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	cap := b.capacity
	b.mu.Unlock()

	for _, s := range subs {
		s.push(e, cap)
	}
}

// CloseAll marks every live subscriber closed so blocked receivers wake up
// and return an error instead of suspending forever.
func (b *Broadcaster[E]) CloseAll() {
	b.mu.Lock()
	subs := make([]*Subscription[E], 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()
	for _, s := range subs {
		s.close()
	}
}

func (s *Subscription[E]) push(e E, capacity int) {
	s.mu.Lock()
	if len(s.items) >= capacity && capacity > 0 {
		s.items = s.items[1:]
		s.gap = true
	}
	s.items = append(s.items, e)
	s.mu.Unlock()
	s.wake()
}

func (s *Subscription[E]) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wake()
}

func (s *Subscription[E]) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Poll returns immediately: the next buffered delivery if any is available,
// without blocking.
func (s *Subscription[E]) Poll() (Delivery[E], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.takeLocked()
}

func (s *Subscription[E]) takeLocked() (Delivery[E], bool) {
	if len(s.items) == 0 {
		return Delivery[E]{}, false
	}
	e := s.items[0]
	s.items = s.items[1:]
	gap := s.gap
	s.gap = false
	return Delivery[E]{Event: e, Gap: gap}, true
}

// Next blocks until a delivery is available or ctx is done. Cancellation
// drops the subscriber without corrupting the underlying stream: the
// caller simply stops calling Next.
func (s *Subscription[E]) Next(ctx context.Context) (Delivery[E], error) {
	for {
		if d, ok := s.Poll(); ok {
			return d, nil
		}
		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return Delivery[E]{}, context.Canceled
		}
		select {
		case <-s.notify:
		case <-ctx.Done():
			return Delivery[E]{}, ctx.Err()
		}
	}
}
