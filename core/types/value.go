package types

import (
	"fmt"

	"github.com/fluxbench/commander/core/errs"
)

// RGBA is a 4x16-bit channel color value (R, G, B, A), the payload of a
// Color-kind Value.
type RGBA struct {
	R, G, B, A uint16
}

// Value is a tagged value whose Kind must match the Type it is checked
// against. Values are produced by guests or hosts, flow through streams, and
// are immutable once constructed.
type Value struct {
	kind Kind

	boolean bool
	number  float64
	str     string // String, JSON, SVG, URL
	bytes   []byte
	color   RGBA
	path    []string
	ordinal int // Enum
	fields  map[string]*Value
	list    []*Value
}

// Kind reports which member of the algebra this Value's tag is.
func (v *Value) Kind() Kind { return v.kind }

func TriggerVal() *Value { return &Value{kind: Trigger} }

func Bool(b bool) *Value { return &Value{kind: Boolean, boolean: b} }

func Num(f float64) *Value { return &Value{kind: Number, number: f} }

func Str(s string) *Value { return &Value{kind: String, str: s} }

func BytesVal(b []byte) *Value { return &Value{kind: Bytes, bytes: b} }

func ColorVal(c RGBA) *Value { return &Value{kind: Color, color: c} }

func JSONVal(s string) *Value { return &Value{kind: JSON, str: s} }

func SVGVal(s string) *Value { return &Value{kind: SVG, str: s} }

func URLVal(s string) *Value { return &Value{kind: URL, str: s} }

func PathVal(segments ...string) *Value {
	return &Value{kind: Path, path: append([]string(nil), segments...)}
}

// EnumVal constructs an enum value from an ordinal. Validity against a
// specific enum Type is checked by Check, not here.
func EnumVal(ordinal int) *Value { return &Value{kind: Enum, ordinal: ordinal} }

// StructVal constructs a struct value from a field-name to Value mapping.
// Validity against a specific struct Type (field set match) is checked by
// Check, not here.
func StructVal(fields map[string]*Value) *Value {
	cp := make(map[string]*Value, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return &Value{kind: Struct, fields: cp}
}

// ListVal constructs a list value from an ordered sequence of elements.
func ListVal(elems ...*Value) *Value {
	return &Value{kind: List, list: append([]*Value(nil), elems...)}
}

func (v *Value) Bool() bool             { return v.boolean }
func (v *Value) Number() float64        { return v.number }
func (v *Value) Text() string           { return v.str }
func (v *Value) Bytes() []byte          { return v.bytes }
func (v *Value) Color() RGBA            { return v.color }
func (v *Value) Path() []string         { return v.path }
func (v *Value) Ordinal() int           { return v.ordinal }
func (v *Value) Fields() map[string]*Value { return v.fields }
func (v *Value) List() []*Value         { return v.list }

// EnumName resolves this value's ordinal to a variant name under the given
// enum Type. It fails if t is not an Enum type or the ordinal is unknown.
func (v *Value) EnumName(t *Type) (string, error) {
	if t.Kind() != Enum {
		return "", errs.New(errs.TypeMismatch, "not an enum type")
	}
	if v.ordinal < 0 || v.ordinal >= len(t.variants) {
		return "", errs.Newf(errs.CodecDecode, "ordinal %d out of range for enum %s", v.ordinal, t.name)
	}
	return t.variants[v.ordinal], nil
}

// Check verifies that v's shape is well-formed against t: the tag matches,
// struct field sets match exactly, and (recursively) nested values are
// well-formed against their element/field types.
func Check(t *Type, v *Value) error {
	if t == nil || v == nil {
		return errs.New(errs.TypeMismatch, "nil type or value")
	}
	if t.Kind() != v.kind {
		return errs.Newf(errs.TypeMismatch, "expected %s, got %s", t.Kind(), v.kind)
	}
	switch t.Kind() {
	case Enum:
		if v.ordinal < 0 || v.ordinal >= len(t.variants) {
			return errs.Newf(errs.TypeMismatch, "ordinal %d out of range for enum %s", v.ordinal, t.name)
		}
	case Struct:
		if len(v.fields) != len(t.fields) {
			return errs.Newf(errs.TypeMismatch, "struct %s expects %d fields, got %d", t.name, len(t.fields), len(v.fields))
		}
		for _, f := range t.fields {
			fv, ok := v.fields[f.Name]
			if !ok {
				return errs.Newf(errs.TypeMismatch, "struct %s missing field %q", t.name, f.Name)
			}
			if err := Check(f.Type, fv); err != nil {
				return err
			}
		}
	case List:
		for i, ev := range v.list {
			if err := Check(t.elem, ev); err != nil {
				return fmt.Errorf("list element %d: %w", i, err)
			}
		}
	}
	return nil
}
