package handles

import (
	"context"

	"github.com/fluxbench/commander/core/errs"
	"github.com/fluxbench/commander/core/registry"
	"github.com/fluxbench/commander/core/streaming"
	"github.com/fluxbench/commander/core/types"
)

// TreeRef is a borrowing view over a Handle of kind Tree.
type TreeRef struct {
	handle Handle
	meta   registry.Metadata
	stream *streaming.TreeStream
}

// LoadTree resolves h against its registry as a Tree entry.
func (h Handle) LoadTree() (*TreeRef, error) {
	meta, stream, err := h.resolve(registry.KindTree)
	if err != nil {
		return nil, err
	}
	ts, ok := stream.(*streaming.TreeStream)
	if !ok {
		return nil, errs.Newf(errs.TypeMismatch, "handle %d did not resolve to a TreeStream", h.ID)
	}
	return &TreeRef{handle: h, meta: meta, stream: ts}, nil
}

// Metadata returns this ref's entry metadata as of Load.
func (r *TreeRef) Metadata() registry.Metadata { return r.meta }

// Snapshot returns the forest rooted at "no parent".
func (r *TreeRef) Snapshot() []streaming.SnapshotNode { return r.stream.Snapshot() }

func (r *TreeRef) Add(parent *streaming.NodeID, children []streaming.Node) error {
	return r.stream.Add(parent, children)
}
func (r *TreeRef) Remove(id streaming.NodeID) error        { return r.stream.Remove(id) }
func (r *TreeRef) Clear() error                              { return r.stream.Clear() }
func (r *TreeRef) RequestChildren(id streaming.NodeID) bool { return r.stream.RequestChildren(id) }
func (r *TreeRef) Destroy()                                   { r.stream.Destroy() }

// Updates returns an unbounded cursor over change events occurring after
// this call.
func (r *TreeRef) Updates() (*streaming.Subscription[streaming.TreeChange], func()) {
	return r.stream.Subscribe()
}

// Values returns a snapshot-stream: the current forest, then a freshly
// re-derived forest after every subsequent change.
func (r *TreeRef) Values() *TreeSnapshotStream {
	sub, cancel := r.stream.Subscribe()
	return &TreeSnapshotStream{stream: r.stream, sub: sub, cancel: cancel, first: true}
}

// InnerDataStream exposes the underlying stream reference, used when this
// ref plays the Output side of a binding.
func (r *TreeRef) InnerDataStream() *streaming.TreeStream { return r.stream }

// Bind replaces this ref's registry entry (the Input side) with output's
// underlying stream, provided their declared Types are equal.
func (r *TreeRef) Bind(output *TreeRef) error {
	if !r.meta.Type.Equal(output.meta.Type) {
		return errs.Newf(errs.TypeMismatch, "cannot bind %s to %s", types.Print(output.meta.Type), types.Print(r.meta.Type))
	}
	return r.handle.Registry.ChangeDataStream(r.handle.ID, output.stream)
}

// TreeSnapshotStream is the Values() cursor: each Next call yields the
// current full forest rather than a delta.
type TreeSnapshotStream struct {
	stream *streaming.TreeStream
	sub    *streaming.Subscription[streaming.TreeChange]
	cancel func()
	first  bool
}

func (s *TreeSnapshotStream) Next(ctx context.Context) ([]streaming.SnapshotNode, error) {
	if s.first {
		s.first = false
		return s.stream.Snapshot(), nil
	}
	if _, err := s.sub.Next(ctx); err != nil {
		return nil, err
	}
	return s.stream.Snapshot(), nil
}

func (s *TreeSnapshotStream) Close() { s.cancel() }
