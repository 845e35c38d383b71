package streaming

import (
	"sync"

	"github.com/fluxbench/commander/core/errs"
	"github.com/fluxbench/commander/core/types"
)

// ListOp identifies the shape of a ListChange.
type ListOp int

const (
	ListAdd ListOp = iota
	ListPop
	ListClear
	ListHasMorePages
	ListDestroyed
)

// ListChange is published for every list mutation. Value is meaningful for
// ListAdd/ListPop; HasMore is meaningful for ListHasMorePages.
type ListChange struct {
	Op      ListOp
	Value   *types.Value
	HasMore bool
}

// ListStream holds an ordered, homogeneously-typed sequence plus a
// "has more pages" flag a guest producer uses to signal that more elements
// exist upstream than it has chosen to materialize. It broadcasts forward
// changes and carries a separate back-channel of page-size requests from a
// consumer back to the producer.
type ListStream struct {
	mu        sync.RWMutex
	elem      *types.Type
	items     []*types.Value
	hasMore   bool
	changes   *Broadcaster[ListChange]
	requests  *Broadcaster[uint32]
	destroyed bool
}

// NewListStream creates an empty list stream of elem-typed values.
func NewListStream(elem *types.Type) *ListStream {
	return &ListStream{
		elem:     elem,
		changes:  NewBroadcaster[ListChange](DefaultChangeBuffer),
		requests: NewBroadcaster[uint32](DefaultRequestBuffer),
	}
}

// Type reports the element type.
func (s *ListStream) Type() *types.Type { return s.elem }

// Snapshot returns a copy of the current contents.
func (s *ListStream) Snapshot() []*types.Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*types.Value(nil), s.items...)
}

// HasMorePages reports the current flag value.
func (s *ListStream) HasMorePages() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasMore
}

// Add appends v and broadcasts ListAdd.
func (s *ListStream) Add(v *types.Value) error {
	if err := types.Check(s.elem, v); err != nil {
		return err
	}
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return errs.New(errs.Destroyed, "list stream destroyed")
	}
	s.items = append(s.items, v)
	s.mu.Unlock()
	s.changes.Publish(ListChange{Op: ListAdd, Value: v})
	return nil
}

// Pop removes and returns the last element, failing with InvalidOperation
// if the list is empty, and otherwise broadcasts ListPop.
func (s *ListStream) Pop() (*types.Value, error) {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return nil, errs.New(errs.Destroyed, "list stream destroyed")
	}
	if len(s.items) == 0 {
		s.mu.Unlock()
		return nil, errs.New(errs.InvalidOperation, "pop of empty list")
	}
	last := len(s.items) - 1
	v := s.items[last]
	s.items = s.items[:last]
	s.mu.Unlock()
	s.changes.Publish(ListChange{Op: ListPop, Value: v})
	return v, nil
}

// Clear empties the list and broadcasts ListClear.
func (s *ListStream) Clear() error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return errs.New(errs.Destroyed, "list stream destroyed")
	}
	s.items = nil
	s.mu.Unlock()
	s.changes.Publish(ListChange{Op: ListClear})
	return nil
}

// SetHasMorePages records the flag and broadcasts ListHasMorePages.
func (s *ListStream) SetHasMorePages(b bool) error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return errs.New(errs.Destroyed, "list stream destroyed")
	}
	s.hasMore = b
	s.mu.Unlock()
	s.changes.Publish(ListChange{Op: ListHasMorePages, HasMore: b})
	return nil
}

// RequestPage sends limit on the back-channel and returns true, unless
// HasMorePages is currently false, in which case it returns false and sends
// nothing.
func (s *ListStream) RequestPage(limit uint32) bool {
	s.mu.RLock()
	more := s.hasMore
	s.mu.RUnlock()
	if !more {
		return false
	}
	s.requests.Publish(limit)
	return true
}

// Destroy empties the list, broadcasts ListDestroyed, and closes both
// broadcasts.
func (s *ListStream) Destroy() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.destroyed = true
	s.items = nil
	s.mu.Unlock()
	s.changes.Publish(ListChange{Op: ListDestroyed})
	s.changes.CloseAll()
	s.requests.CloseAll()
}

// Subscribe returns a cursor over future list changes.
func (s *ListStream) Subscribe() (*Subscription[ListChange], func()) {
	return s.changes.Subscribe()
}

// SubscribeRequests returns a cursor over future page-size requests.
func (s *ListStream) SubscribeRequests() (*Subscription[uint32], func()) {
	return s.requests.Subscribe()
}
