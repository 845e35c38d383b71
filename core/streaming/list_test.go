package streaming

import (
	"context"
	"testing"
	"time"

	"github.com/fluxbench/commander/core/types"
)

func TestListStreamAddAndSnapshot(t *testing.T) {
	s := NewListStream(types.BooleanType())
	for _, b := range []bool{true, false, true} {
		if err := s.Add(types.Bool(b)); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	snap := s.Snapshot()
	if len(snap) != 3 || snap[0].Bool() != true || snap[1].Bool() != false {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestListStreamPopEmptyIsInvalidOperation(t *testing.T) {
	s := NewListStream(types.NumberType())
	if _, err := s.Pop(); err == nil {
		t.Fatalf("expected error popping an empty list")
	}
	if len(s.Snapshot()) != 0 {
		t.Fatalf("expected state unchanged after failed pop")
	}
}

func TestListStreamSubscriberSeesAddsInOrder(t *testing.T) {
	s := NewListStream(types.NumberType())
	sub, cancel := s.Subscribe()
	defer cancel()

	for _, n := range []float64{1, 2, 3} {
		if err := s.Add(types.Num(n)); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	ctx, done := context.WithTimeout(context.Background(), time.Second)
	defer done()
	for _, want := range []float64{1, 2, 3} {
		d, err := sub.Next(ctx)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if d.Event.Op != ListAdd || d.Event.Value.Number() != want {
			t.Fatalf("want Add(%v), got %+v", want, d.Event)
		}
	}
}

func TestListStreamRequestPageGatedByHasMorePages(t *testing.T) {
	s := NewListStream(types.StringType())
	reqs, cancel := s.SubscribeRequests()
	defer cancel()

	if ok := s.RequestPage(50); ok {
		t.Fatalf("expected RequestPage to return false before HasMorePages is set")
	}

	if err := s.SetHasMorePages(true); err != nil {
		t.Fatalf("SetHasMorePages: %v", err)
	}
	if ok := s.RequestPage(50); !ok {
		t.Fatalf("expected RequestPage to return true once HasMorePages is set")
	}

	ctx, done := context.WithTimeout(context.Background(), time.Second)
	defer done()
	d, err := reqs.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if d.Event != 50 {
		t.Fatalf("want page request 50, got %v", d.Event)
	}

	if err := s.SetHasMorePages(false); err != nil {
		t.Fatalf("SetHasMorePages: %v", err)
	}
	if ok := s.RequestPage(50); ok {
		t.Fatalf("expected RequestPage to return false once HasMorePages is cleared")
	}
}

func TestListStreamClearEmptiesAndBroadcasts(t *testing.T) {
	s := NewListStream(types.NumberType())
	if err := s.Add(types.Num(1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	sub, cancel := s.Subscribe()
	defer cancel()

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if len(s.Snapshot()) != 0 {
		t.Fatalf("expected empty snapshot after Clear")
	}

	ctx, done := context.WithTimeout(context.Background(), time.Second)
	defer done()
	d, err := sub.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if d.Event.Op != ListClear {
		t.Fatalf("want ListClear, got %+v", d.Event)
	}
}
