package bridge

import (
	"context"

	"github.com/fluxbench/commander/core/codec"
	"github.com/fluxbench/commander/core/handles"
	"github.com/fluxbench/commander/core/streaming"
	"github.com/fluxbench/commander/core/types"
)

// ListChangeStream is the guest-facing cursor over a List input. Like
// ValueChangeStream, a rebind is surfaced as a synthetic ListChangeReplace
// record carrying the new stream's full contents, ahead of any of its own
// subsequent events.
type ListChangeStream struct {
	handle  handles.Handle
	ref     *handles.ListRef
	sub     *streaming.Subscription[streaming.ListChange]
	cancel  func()
	watcher *registryWatcher
}

func newListChangeStream(handle handles.Handle) (*ListChangeStream, error) {
	ref, err := handle.LoadList()
	if err != nil {
		return nil, err
	}
	sub, cancel := ref.Updates()
	return &ListChangeStream{
		handle:  handle,
		ref:     ref,
		sub:     sub,
		cancel:  cancel,
		watcher: newRegistryWatcher(handle.Registry, handle.ID),
	}, nil
}

// elemType returns the List's element Type. A List handle's DeclaredType is
// already the element type, not list<T> — see core/bridge.AddListInput/
// AddListOutput, which register elem itself as the registry entry's Type.
func (c *ListChangeStream) elemType() *types.Type { return c.handle.DeclaredType }

func (c *ListChangeStream) encodeItems(items []*types.Value) ([][]byte, error) {
	out := make([][]byte, len(items))
	for i, v := range items {
		bs, err := codec.Encode(c.elemType(), v)
		if err != nil {
			return nil, err
		}
		out[i] = bs
	}
	return out, nil
}

func (c *ListChangeStream) rebind() (*ListChangeRecord, error) {
	c.cancel()
	c.watcher.close()
	ref, err := c.handle.LoadList()
	if err != nil {
		return nil, err
	}
	sub, cancel := ref.Updates()
	c.ref = ref
	c.sub = sub
	c.cancel = cancel
	c.watcher = newRegistryWatcher(c.handle.Registry, c.handle.ID)

	items, err := c.encodeItems(ref.Snapshot())
	if err != nil {
		return nil, err
	}
	return &ListChangeRecord{Op: ListChangeReplace, Items: items}, nil
}

func (c *ListChangeStream) toRecord(ch streaming.ListChange) (*ListChangeRecord, error) {
	switch ch.Op {
	case streaming.ListAdd:
		bs, err := codec.Encode(c.elemType(), ch.Value)
		if err != nil {
			return nil, err
		}
		return &ListChangeRecord{Op: ListChangeAppend, Bytes: bs}, nil
	case streaming.ListPop:
		return &ListChangeRecord{Op: ListChangePop}, nil
	case streaming.ListClear:
		// Per the collapsed guest projection, Clear is reported the same as
		// a Replace to an empty list; host-side the two remain distinct.
		return &ListChangeRecord{Op: ListChangeReplace, Items: nil}, nil
	case streaming.ListHasMorePages:
		return &ListChangeRecord{Op: ListChangeHasMorePages, HasMore: ch.HasMore}, nil
	default:
		return &ListChangeRecord{Op: ListChangeReplace, Items: nil}, nil
	}
}

// PollChange returns the next pending change without blocking.
func (c *ListChangeStream) PollChange() (*ListChangeRecord, bool, error) {
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
func (c *ListChangeStream) PollChangeBlocking(ctx context.Context) (*ListChangeRecord, error) {
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
func (c *ListChangeStream) Close() {
	c.cancel()
	c.watcher.close()
}
