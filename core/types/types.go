// Package types implements the commander type algebra: a closed set of
// primitive, enum, struct, and list types with a canonical printable form.
//
// Grounded on the teacher's tagged-constant style (see core's Opcode enum in
// virtual_machine.go): a small integer Kind distinguishes variants, and a
// single struct carries the fields relevant to whichever Kind is active.
// Types are immutable once constructed so that cloning them into stream
// metadata is cheap.
package types

import (
	"fmt"

	"github.com/fluxbench/commander/core/errs"
)

// Kind identifies which member of the closed type algebra a Type is.
type Kind int

const (
	Trigger Kind = iota
	Boolean
	Number
	String
	Bytes
	Color
	JSON
	SVG
	URL
	Path
	Enum
	Struct
	List
)

// String returns the keyword used for this kind in the printed grammar, for
// primitive kinds. Enum/Struct/List have their own printers.
func (k Kind) String() string {
	switch k {
	case Trigger:
		return "trigger"
	case Boolean:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	case Bytes:
		return "bytes"
	case Color:
		return "color"
	case JSON:
		return "json"
	case SVG:
		return "svg"
	case URL:
		return "url"
	case Path:
		return "path"
	case Enum:
		return "enum"
	case Struct:
		return "struct"
	case List:
		return "list"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Field is an ordered (name, type) pair within a struct declaration.
type Field struct {
	Name string
	Type *Type
}

// Type is a value object describing one member of the algebra. It is
// immutable after construction; all constructors below return a fresh,
// fully-formed Type.
type Type struct {
	kind     Kind
	name     string  // Enum/Struct declaration name
	variants []string // Enum: ordered variant names; ordinal = index
	fields   []Field  // Struct: ordered fields
	elem     *Type    // List: element type
}

func primitive(k Kind) *Type { return &Type{kind: k} }

// TriggerType returns the trigger type.
func TriggerType() *Type { return primitive(Trigger) }

// BooleanType returns the boolean type.
func BooleanType() *Type { return primitive(Boolean) }

// NumberType returns the 64-bit float number type.
func NumberType() *Type { return primitive(Number) }

// StringType returns the string type.
func StringType() *Type { return primitive(String) }

// BytesType returns the raw bytes type.
func BytesType() *Type { return primitive(Bytes) }

// ColorType returns the 4x16-bit channel color type.
func ColorType() *Type { return primitive(Color) }

// JSONType returns the opaque JSON-string type.
func JSONType() *Type { return primitive(JSON) }

// SVGType returns the opaque SVG-string type.
func SVGType() *Type { return primitive(SVG) }

// URLType returns the opaque URL-string type.
func URLType() *Type { return primitive(URL) }

// PathType returns the ordered-string-components path type.
func PathType() *Type { return primitive(Path) }

// NewEnum constructs an enum type. Variant order is significant: ordinal
// assignment is the zero-based index in variants. An empty enum or one with
// duplicate variant names is illegal.
func NewEnum(name string, variants ...string) (*Type, error) {
	if len(variants) == 0 {
		return nil, errs.Newf(errs.InvalidOperation, "enum %q has no variants", name)
	}
	seen := make(map[string]struct{}, len(variants))
	for _, v := range variants {
		if !isIdentifier(v) {
			return nil, errs.Newf(errs.InvalidOperation, "invalid variant name %q", v)
		}
		if _, dup := seen[v]; dup {
			return nil, errs.Newf(errs.InvalidOperation, "duplicate variant %q in enum %q", v, name)
		}
		seen[v] = struct{}{}
	}
	cp := append([]string(nil), variants...)
	return &Type{kind: Enum, name: name, variants: cp}, nil
}

// NewStruct constructs a struct type. Field order is the encoding order. An
// empty struct is legal; duplicate field names are not.
func NewStruct(name string, fields ...Field) (*Type, error) {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if !isIdentifier(f.Name) {
			return nil, errs.Newf(errs.InvalidOperation, "invalid field name %q", f.Name)
		}
		if f.Type == nil {
			return nil, errs.Newf(errs.InvalidOperation, "field %q has a nil type", f.Name)
		}
		if _, dup := seen[f.Name]; dup {
			return nil, errs.Newf(errs.InvalidOperation, "duplicate field %q in struct %q", f.Name, name)
		}
		seen[f.Name] = struct{}{}
	}
	cp := append([]Field(nil), fields...)
	return &Type{kind: Struct, name: name, fields: cp}, nil
}

// NewList constructs a list type with the given element type. Nesting
// (list<list<T>>) is unbounded.
func NewList(elem *Type) *Type {
	return &Type{kind: List, elem: elem}
}

// Kind reports which member of the algebra this Type is.
func (t *Type) Kind() Kind { return t.kind }

// Name returns the declaration name for Enum/Struct types, "" otherwise.
func (t *Type) Name() string { return t.name }

// Variants returns the ordered variant names for an Enum type. The slice
// must not be mutated by callers.
func (t *Type) Variants() []string { return t.variants }

// Fields returns the ordered fields for a Struct type. The slice must not be
// mutated by callers.
func (t *Type) Fields() []Field { return t.fields }

// Elem returns the element type of a List type, nil otherwise.
func (t *Type) Elem() *Type { return t.elem }

// FieldIndex returns the declared index of a field name, or -1 if absent.
func (t *Type) FieldIndex(name string) int {
	for i, f := range t.fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Equal reports whether two types are structurally identical: same kind,
// same declaration name (if any), same variant/field order, and (for lists)
// recursively equal element types.
func (t *Type) Equal(other *Type) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.kind != other.kind {
		return false
	}
	switch t.kind {
	case Enum:
		if t.name != other.name || len(t.variants) != len(other.variants) {
			return false
		}
		for i := range t.variants {
			if t.variants[i] != other.variants[i] {
				return false
			}
		}
		return true
	case Struct:
		if t.name != other.name || len(t.fields) != len(other.fields) {
			return false
		}
		for i := range t.fields {
			if t.fields[i].Name != other.fields[i].Name || !t.fields[i].Type.Equal(other.fields[i].Type) {
				return false
			}
		}
		return true
	case List:
		return t.elem.Equal(other.elem)
	default:
		return true
	}
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if i == 0 {
			if !isLetter {
				return false
			}
		} else if !isLetter && !isDigit && r != '_' {
			return false
		}
	}
	return true
}
