package codec

import (
	"testing"

	"github.com/fluxbench/commander/core/types"
)

func roundTrip(t *testing.T, typ *types.Type, v *types.Value) *types.Value {
	t.Helper()
	data, err := Encode(typ, v)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(typ, data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return got
}

func TestRoundTripPrimitives(t *testing.T) {
	if got := roundTrip(t, types.BooleanType(), types.Bool(true)); !got.Bool() {
		t.Fatalf("boolean round-trip lost true")
	}
	if got := roundTrip(t, types.NumberType(), types.Num(3.5)); got.Number() != 3.5 {
		t.Fatalf("number round-trip: got %v", got.Number())
	}
	if got := roundTrip(t, types.StringType(), types.Str("hello")); got.Text() != "hello" {
		t.Fatalf("string round-trip: got %q", got.Text())
	}
	if got := roundTrip(t, types.BytesType(), types.BytesVal([]byte{1, 2, 3})); string(got.Bytes()) != "\x01\x02\x03" {
		t.Fatalf("bytes round-trip: got %v", got.Bytes())
	}
	path := types.PathVal("a", "b", "c")
	if got := roundTrip(t, types.PathType(), path); len(got.Path()) != 3 || got.Path()[1] != "b" {
		t.Fatalf("path round-trip: got %v", got.Path())
	}
}

func TestRoundTripEnum(t *testing.T) {
	enumT, err := types.NewEnum("Color", "Red", "Green", "Blue")
	if err != nil {
		t.Fatalf("NewEnum: %v", err)
	}
	got := roundTrip(t, enumT, types.EnumVal(1))
	if got.Ordinal() != 1 {
		t.Fatalf("enum round-trip: got ordinal %d", got.Ordinal())
	}
}

func TestRoundTripStruct(t *testing.T) {
	structT, err := types.NewStruct("Point",
		types.Field{Name: "x", Type: types.NumberType()},
		types.Field{Name: "y", Type: types.NumberType()},
	)
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	v := types.StructVal(map[string]*types.Value{
		"x": types.Num(1),
		"y": types.Num(2),
	})
	got := roundTrip(t, structT, v)
	if got.Fields()["x"].Number() != 1 || got.Fields()["y"].Number() != 2 {
		t.Fatalf("struct round-trip: got %v", got.Fields())
	}
}

func TestRoundTripNestedList(t *testing.T) {
	listT := types.NewList(types.NewList(types.StringType()))
	v := types.ListVal(
		types.ListVal(types.Str("a"), types.Str("b")),
		types.ListVal(),
	)
	got := roundTrip(t, listT, v)
	outer := got.List()
	if len(outer) != 2 {
		t.Fatalf("nested list round-trip: want 2 outer elements, got %d", len(outer))
	}
	inner := outer[0].List()
	if len(inner) != 2 || inner[0].Text() != "a" || inner[1].Text() != "b" {
		t.Fatalf("nested list round-trip: got %v", inner)
	}
	if len(outer[1].List()) != 0 {
		t.Fatalf("expected second outer element to be empty")
	}
}

func TestEncodeRejectsTypeMismatch(t *testing.T) {
	if _, err := Encode(types.NumberType(), types.Str("nope")); err == nil {
		t.Fatalf("expected a type mismatch error")
	}
}

func TestDecodeRejectsTruncatedBuffer(t *testing.T) {
	data, err := Encode(types.NumberType(), types.Num(1))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := Decode(types.NumberType(), data[:len(data)-1]); err == nil {
		t.Fatalf("expected a truncated-buffer error")
	}
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	data, err := Encode(types.BooleanType(), types.Bool(true))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	data = append(data, 0xff)
	if _, err := Decode(types.BooleanType(), data); err == nil {
		t.Fatalf("expected a trailing-bytes error")
	}
}

func TestDecodeRejectsUnknownEnumOrdinal(t *testing.T) {
	enumT, err := types.NewEnum("Color", "Red", "Green")
	if err != nil {
		t.Fatalf("NewEnum: %v", err)
	}
	data, err := Encode(enumT, types.EnumVal(1))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// Corrupt the ordinal to an out-of-range value.
	data[0] = 9
	if _, err := Decode(enumT, data); err == nil {
		t.Fatalf("expected an unknown-ordinal error")
	}
}
