package streaming

import (
	"context"
	"testing"
	"time"

	"github.com/fluxbench/commander/core/types"
)

func TestTreeStreamAddUnderRoot(t *testing.T) {
	s := NewTreeStream(types.StringType())
	if err := s.Add(nil, []Node{{ID: "a", Value: types.Str("root child")}}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	snap := s.Snapshot()
	if len(snap) != 1 || snap[0].ID != "a" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestTreeStreamAddWithMissingParentFails(t *testing.T) {
	s := NewTreeStream(types.StringType())
	missing := NodeID("missing")
	if err := s.Add(&missing, []Node{{ID: "child", Value: types.Str("x")}}); err == nil {
		t.Fatalf("expected error adding under a nonexistent parent")
	}
	if len(s.Snapshot()) != 0 {
		t.Fatalf("expected state unchanged after failed add")
	}
}

func TestTreeStreamAddRejectsDuplicateID(t *testing.T) {
	s := NewTreeStream(types.StringType())
	if err := s.Add(nil, []Node{{ID: "a", Value: types.Str("x")}}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(nil, []Node{{ID: "a", Value: types.Str("y")}}); err == nil {
		t.Fatalf("expected error on duplicate node id")
	}
}

func TestTreeStreamRemoveDeletesSubtree(t *testing.T) {
	s := NewTreeStream(types.NumberType())
	a := NodeID("a")
	b := NodeID("b")
	if err := s.Add(nil, []Node{{ID: "a", Value: types.Num(1)}}); err != nil {
		t.Fatalf("Add a: %v", err)
	}
	if err := s.Add(&a, []Node{{ID: "b", Value: types.Num(2)}}); err != nil {
		t.Fatalf("Add b: %v", err)
	}
	if err := s.Add(&b, []Node{{ID: "c", Value: types.Num(3)}}); err != nil {
		t.Fatalf("Add c: %v", err)
	}

	if err := s.Remove("a"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	snap := s.Snapshot()
	if len(snap) != 0 {
		t.Fatalf("expected empty forest after removing the only root, got %+v", snap)
	}
	if ok := s.RequestChildren("b"); ok {
		t.Fatalf("expected b to be gone")
	}
	if ok := s.RequestChildren("c"); ok {
		t.Fatalf("expected c to be gone")
	}
}

func TestTreeStreamExpandRequestBackChannel(t *testing.T) {
	s := NewTreeStream(types.StringType())
	if err := s.Add(nil, []Node{{ID: "dir", Value: types.Str("dir"), HasChildren: true}}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	reqs, cancel := s.SubscribeRequests()
	defer cancel()

	if ok := s.RequestChildren("dir"); !ok {
		t.Fatalf("expected RequestChildren on an existing node to return true")
	}
	if ok := s.RequestChildren("missing"); ok {
		t.Fatalf("expected RequestChildren on a missing node to return false")
	}

	ctx, done := context.WithTimeout(context.Background(), time.Second)
	defer done()
	d, err := reqs.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if d.Event != "dir" {
		t.Fatalf("unexpected expand request: %+v", d.Event)
	}
}

func TestTreeStreamClearEmptiesForest(t *testing.T) {
	s := NewTreeStream(types.NumberType())
	if err := s.Add(nil, []Node{{ID: "a", Value: types.Num(1)}}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if len(s.Snapshot()) != 0 {
		t.Fatalf("expected empty forest after Clear")
	}
}
