package bridge

import (
	"context"

	"github.com/fluxbench/commander/core/codec"
	"github.com/fluxbench/commander/core/handles"
	"github.com/fluxbench/commander/core/streaming"
)

// ValueChangeStream is the guest-facing cursor over a Value input. It
// multiplexes the underlying stream's own ValueChange events with the
// registry's StreamReplaced(id) for this resource: a rebind surfaces as a
// synthetic ValueChangeRecord carrying the new stream's current snapshot,
// delivered strictly before any of the new stream's own subsequent events.
type ValueChangeStream struct {
	handle  handles.Handle
	ref     *handles.ValueRef
	sub     *streaming.Subscription[streaming.ValueChange]
	cancel  func()
	watcher *registryWatcher
}

// newValueChangeStream loads handle's current Value entry and subscribes to
// both its stream and the registry's change feed for its id.
func newValueChangeStream(handle handles.Handle) (*ValueChangeStream, error) {
	ref, err := handle.LoadValue()
	if err != nil {
		return nil, err
	}
	sub, cancel := ref.Updates()
	return &ValueChangeStream{
		handle:  handle,
		ref:     ref,
		sub:     sub,
		cancel:  cancel,
		watcher: newRegistryWatcher(handle.Registry, handle.ID),
	}, nil
}

// rebind tears down the stale stream/registry subscriptions and re-resolves
// the current entry behind handle, returning the synthetic Replace record
// the guest must observe before any of the new stream's own events.
func (c *ValueChangeStream) rebind() (*ValueChangeRecord, error) {
	c.cancel()
	c.watcher.close()
	ref, err := c.handle.LoadValue()
	if err != nil {
		return nil, err
	}
	sub, cancel := ref.Updates()
	c.ref = ref
	c.sub = sub
	c.cancel = cancel
	c.watcher = newRegistryWatcher(c.handle.Registry, c.handle.ID)
	return c.toRecord(streaming.ValueChange{Op: streaming.ValueSet, Value: ref.Snapshot()})
}

func (c *ValueChangeStream) toRecord(ch streaming.ValueChange) (*ValueChangeRecord, error) {
	if ch.Op == streaming.ValueDestroyed || ch.Value == nil {
		return &ValueChangeRecord{Cleared: true}, nil
	}
	bs, err := codec.Encode(c.handle.DeclaredType, ch.Value)
	if err != nil {
		return nil, err
	}
	return &ValueChangeRecord{Bytes: bs}, nil
}

// PollChange returns the next pending change without blocking.
func (c *ValueChangeStream) PollChange() (*ValueChangeRecord, bool, error) {
	if c.watcher.pollReplaced() {
		rec, err := c.rebind()
		return rec, true, err
	}
	d, ok := c.sub.Poll()
	if !ok {
		return nil, false, nil
	}
	rec, err := c.toRecord(d.Event)
	return rec, true, err
}

// PollChangeBlocking suspends until a change, a rebind, or ctx's
// cancellation.
func (c *ValueChangeStream) PollChangeBlocking(ctx context.Context) (*ValueChangeRecord, error) {
	if rec, ok, err := c.PollChange(); ok || err != nil {
		return rec, err
	}
	d, replaced, err := raceReplaced(ctx, c.sub, c.watcher)
	if err != nil {
		return nil, err
	}
	if replaced {
		return c.rebind()
	}
	return c.toRecord(d.Event)
}

// Close detaches both underlying subscriptions.
func (c *ValueChangeStream) Close() {
	c.cancel()
	c.watcher.close()
}
