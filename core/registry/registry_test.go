package registry

import (
	"context"
	"testing"
	"time"

	"github.com/fluxbench/commander/core/streaming"
	"github.com/fluxbench/commander/core/types"
)

func TestRegistryAddAllocatesSequentialIDs(t *testing.T) {
	r := New()
	vs, err := streaming.NewValueStream(types.NumberType(), nil)
	if err != nil {
		t.Fatalf("NewValueStream: %v", err)
	}
	id0 := r.Add("a", "first", types.NumberType(), KindValue, vs)
	id1 := r.Add("b", "second", types.NumberType(), KindValue, vs)
	if id0 != 0 || id1 != 1 {
		t.Fatalf("want ids 0,1 got %d,%d", id0, id1)
	}
}

func TestRegistryIDsNeverReusedAfterRemove(t *testing.T) {
	r := New()
	vs, err := streaming.NewValueStream(types.NumberType(), nil)
	if err != nil {
		t.Fatalf("NewValueStream: %v", err)
	}
	id0 := r.Add("a", "", types.NumberType(), KindValue, vs)
	r.Remove(id0)
	vs2, err := streaming.NewValueStream(types.NumberType(), nil)
	if err != nil {
		t.Fatalf("NewValueStream: %v", err)
	}
	id1 := r.Add("b", "", types.NumberType(), KindValue, vs2)
	if id1 != id0+1 {
		t.Fatalf("want id %d after removal, got %d", id0+1, id1)
	}
}

func TestRegistryGetAndSnapshot(t *testing.T) {
	r := New()
	vs, err := streaming.NewValueStream(types.BooleanType(), nil)
	if err != nil {
		t.Fatalf("NewValueStream: %v", err)
	}
	id := r.Add("flag", "a flag", types.BooleanType(), KindValue, vs)

	meta, stream, err := r.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if meta.Name != "flag" || stream != Stream(vs) {
		t.Fatalf("unexpected Get result: %+v", meta)
	}

	snap := r.Snapshot()
	if len(snap) != 1 || snap[0].ID != id {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestRegistryGetMissingIsNotFound(t *testing.T) {
	r := New()
	if _, _, err := r.Get(99); err == nil {
		t.Fatalf("expected NotFound for a missing id")
	}
}

func TestRegistryRemoveDestroysStreamAndBroadcasts(t *testing.T) {
	r := New()
	vs, err := streaming.NewValueStream(types.NumberType(), types.Num(1))
	if err != nil {
		t.Fatalf("NewValueStream: %v", err)
	}
	id := r.Add("v", "", types.NumberType(), KindValue, vs)

	changes, cancel := r.Subscribe()
	defer cancel()
	// drain the Added event from before this subscription doesn't apply;
	// subscribing only sees events after Subscribe, so Remove is the first
	// one this cursor observes.

	if ok := r.Remove(id); !ok {
		t.Fatalf("expected Remove to report the id was present")
	}
	if ok := r.Remove(id); ok {
		t.Fatalf("expected a second Remove of the same id to report false")
	}

	ctx, done := context.WithTimeout(context.Background(), time.Second)
	defer done()
	d, err := changes.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if d.Event.Op != Removed || d.Event.ID != id {
		t.Fatalf("unexpected change: %+v", d.Event)
	}

	if err := vs.Set(types.Num(2)); err == nil {
		t.Fatalf("expected Set on a destroyed stream to fail")
	}
}

func TestRegistryChangeDataStreamPreservesMetadataAndBroadcastsReplaced(t *testing.T) {
	r := New()
	original, err := streaming.NewValueStream(types.StringType(), types.Str("old"))
	if err != nil {
		t.Fatalf("NewValueStream: %v", err)
	}
	id := r.Add("name", "desc", types.StringType(), KindValue, original)

	changes, cancel := r.Subscribe()
	defer cancel()

	replacement, err := streaming.NewValueStream(types.StringType(), types.Str("new"))
	if err != nil {
		t.Fatalf("NewValueStream: %v", err)
	}
	if err := r.ChangeDataStream(id, replacement); err != nil {
		t.Fatalf("ChangeDataStream: %v", err)
	}

	meta, stream, err := r.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if meta.Name != "name" || meta.Description != "desc" || stream != Stream(replacement) {
		t.Fatalf("unexpected entry after replacement: %+v", meta)
	}

	ctx, done := context.WithTimeout(context.Background(), time.Second)
	defer done()
	d, err := changes.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if d.Event.Op != StreamReplaced || d.Event.ID != id {
		t.Fatalf("unexpected change: %+v", d.Event)
	}
}

func TestRegistryChangeDataStreamMissingIDFails(t *testing.T) {
	r := New()
	replacement, err := streaming.NewValueStream(types.NumberType(), nil)
	if err != nil {
		t.Fatalf("NewValueStream: %v", err)
	}
	if err := r.ChangeDataStream(123, replacement); err == nil {
		t.Fatalf("expected error replacing a missing id")
	}
}
