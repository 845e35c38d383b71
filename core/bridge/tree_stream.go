package bridge

import (
	"context"

	"github.com/fluxbench/commander/core/codec"
	"github.com/fluxbench/commander/core/errs"
	"github.com/fluxbench/commander/core/handles"
	"github.com/fluxbench/commander/core/streaming"
)

// TreeChangeStream is the guest-facing cursor over a Tree input. A rebind
// surfaces as a synthetic TreeChangeReplace record carrying the new
// stream's full forest, ahead of any of its own subsequent events.
type TreeChangeStream struct {
	handle  handles.Handle
	ref     *handles.TreeRef
	sub     *streaming.Subscription[streaming.TreeChange]
	cancel  func()
	watcher *registryWatcher
}

func newTreeChangeStream(handle handles.Handle) (*TreeChangeStream, error) {
	ref, err := handle.LoadTree()
	if err != nil {
		return nil, err
	}
	sub, cancel := ref.Updates()
	return &TreeChangeStream{
		handle:  handle,
		ref:     ref,
		sub:     sub,
		cancel:  cancel,
		watcher: newRegistryWatcher(handle.Registry, handle.ID),
	}, nil
}

func (c *TreeChangeStream) encodeNode(n streaming.Node) (WireNode, error) {
	bs, err := codec.Encode(c.handle.DeclaredType, n.Value)
	if err != nil {
		return WireNode{}, err
	}
	return WireNode{ID: n.ID, Bytes: bs, HasChildren: n.HasChildren}, nil
}

// encodeForest flattens the forest into pre-order WireNodes, each stamped
// with the id of the parent it hung from (nil for a root), so a guest
// rebuilding the forest from a TreeChangeReplace can reconstruct its shape
// instead of seeing an unstructured sequence.
func (c *TreeChangeStream) encodeForest(nodes []streaming.SnapshotNode) ([]WireNode, error) {
	out := make([]WireNode, 0, len(nodes))
	var walk func(sn streaming.SnapshotNode, parent *streaming.NodeID) error
	walk = func(sn streaming.SnapshotNode, parent *streaming.NodeID) error {
		w, err := c.encodeNode(sn.Node)
		if err != nil {
			return err
		}
		w.ParentID = parent
		w.HasChildren = w.HasChildren || len(sn.Children) > 0
		out = append(out, w)
		for _, child := range sn.Children {
			if err := walk(child, &sn.Node.ID); err != nil {
				return err
			}
		}
		return nil
	}
	for _, n := range nodes {
		if err := walk(n, nil); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (c *TreeChangeStream) rebind() (*TreeChangeRecord, error) {
	c.cancel()
	c.watcher.close()
	ref, err := c.handle.LoadTree()
	if err != nil {
		return nil, err
	}
	sub, cancel := ref.Updates()
	c.ref = ref
	c.sub = sub
	c.cancel = cancel
	c.watcher = newRegistryWatcher(c.handle.Registry, c.handle.ID)

	nodes, err := c.encodeForest(ref.Snapshot())
	if err != nil {
		return nil, err
	}
	return &TreeChangeRecord{Op: TreeChangeReplace, Nodes: nodes}, nil
}

func (c *TreeChangeStream) toRecord(ch streaming.TreeChange) (*TreeChangeRecord, error) {
	switch ch.Op {
	case streaming.TreeAdd:
		nodes := make([]WireNode, 0, len(ch.Children))
		for _, n := range ch.Children {
			w, err := c.encodeNode(n)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, w)
		}
		return &TreeChangeRecord{Op: TreeChangeAppend, Parent: ch.Parent, Nodes: nodes}, nil
	case streaming.TreeRemove:
		return &TreeChangeRecord{Op: TreeChangeRemove, RemovedIDs: []streaming.NodeID{ch.Removed}}, nil
	case streaming.TreeClear:
		return &TreeChangeRecord{Op: TreeChangeReplace, Nodes: nil}, nil
	case streaming.TreeDestroyed:
		// No guest-facing projected form for Destroy in the source; the
		// cursor ends instead of emitting a record.
		return nil, errs.New(errs.Destroyed, "tree input destroyed")
	default:
		return &TreeChangeRecord{Op: TreeChangeReplace, Nodes: nil}, nil
	}
}

// PollChange returns the next pending change without blocking.
func (c *TreeChangeStream) PollChange() (*TreeChangeRecord, bool, error) {
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
func (c *TreeChangeStream) PollChangeBlocking(ctx context.Context) (*TreeChangeRecord, error) {
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
func (c *TreeChangeStream) Close() {
	c.cancel()
	c.watcher.close()
}
