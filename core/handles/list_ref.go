package handles

import (
	"context"

	"github.com/fluxbench/commander/core/errs"
	"github.com/fluxbench/commander/core/registry"
	"github.com/fluxbench/commander/core/streaming"
	"github.com/fluxbench/commander/core/types"
)

// ListRef is a borrowing view over a Handle of kind List.
type ListRef struct {
	handle Handle
	meta   registry.Metadata
	stream *streaming.ListStream
}

// LoadList resolves h against its registry as a List entry.
func (h Handle) LoadList() (*ListRef, error) {
	meta, stream, err := h.resolve(registry.KindList)
	if err != nil {
		return nil, err
	}
	ls, ok := stream.(*streaming.ListStream)
	if !ok {
		return nil, errs.Newf(errs.TypeMismatch, "handle %d did not resolve to a ListStream", h.ID)
	}
	return &ListRef{handle: h, meta: meta, stream: ls}, nil
}

// Metadata returns this ref's entry metadata as of Load.
func (r *ListRef) Metadata() registry.Metadata { return r.meta }

// Snapshot returns a copy of the current contents.
func (r *ListRef) Snapshot() []*types.Value { return r.stream.Snapshot() }

func (r *ListRef) Add(v *types.Value) error        { return r.stream.Add(v) }
func (r *ListRef) Pop() (*types.Value, error)       { return r.stream.Pop() }
func (r *ListRef) Clear() error                     { return r.stream.Clear() }
func (r *ListRef) SetHasMorePages(b bool) error     { return r.stream.SetHasMorePages(b) }
func (r *ListRef) LoadMore(limit uint32) bool        { return r.stream.RequestPage(limit) }
func (r *ListRef) Destroy()                          { r.stream.Destroy() }

// Updates returns an unbounded cursor over change events occurring after
// this call.
func (r *ListRef) Updates() (*streaming.Subscription[streaming.ListChange], func()) {
	return r.stream.Subscribe()
}

// Values returns a snapshot-stream: the current snapshot, then a freshly
// re-derived snapshot after every subsequent change.
func (r *ListRef) Values() *ListSnapshotStream {
	sub, cancel := r.stream.Subscribe()
	return &ListSnapshotStream{stream: r.stream, sub: sub, cancel: cancel, first: true}
}

// InnerDataStream exposes the underlying stream reference, used when this
// ref plays the Output side of a binding.
func (r *ListRef) InnerDataStream() *streaming.ListStream { return r.stream }

// Bind replaces this ref's registry entry (the Input side) with output's
// underlying stream, provided their declared Types are equal.
func (r *ListRef) Bind(output *ListRef) error {
	if !r.meta.Type.Equal(output.meta.Type) {
		return errs.Newf(errs.TypeMismatch, "cannot bind %s to %s", types.Print(output.meta.Type), types.Print(r.meta.Type))
	}
	return r.handle.Registry.ChangeDataStream(r.handle.ID, output.stream)
}

// ListSnapshotStream is the Values() cursor: each Next call yields the
// current full contents rather than a delta.
type ListSnapshotStream struct {
	stream *streaming.ListStream
	sub    *streaming.Subscription[streaming.ListChange]
	cancel func()
	first  bool
}

func (s *ListSnapshotStream) Next(ctx context.Context) ([]*types.Value, error) {
	if s.first {
		s.first = false
		return s.stream.Snapshot(), nil
	}
	if _, err := s.sub.Next(ctx); err != nil {
		return nil, err
	}
	return s.stream.Snapshot(), nil
}

func (s *ListSnapshotStream) Close() { s.cancel() }
