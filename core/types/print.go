package types

import "strings"

// Print produces the canonical printed form of a Type. Parse(Print(t))
// reconstructs a Type equal to t for every well-formed t.
func Print(t *Type) string {
	var b strings.Builder
	writeType(&b, t)
	return b.String()
}

func writeType(b *strings.Builder, t *Type) {
	switch t.kind {
	case List:
		b.WriteString("list<")
		writeType(b, t.elem)
		b.WriteByte('>')
	case Enum:
		b.WriteString("enum ")
		b.WriteString(t.name)
		b.WriteByte('<')
		for i, v := range t.variants {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(v)
		}
		b.WriteByte('>')
	case Struct:
		b.WriteString("struct ")
		b.WriteString(t.name)
		b.WriteByte('<')
		for i, f := range t.fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Name)
			b.WriteString(": ")
			writeType(b, f.Type)
		}
		b.WriteByte('>')
	default:
		b.WriteString(t.kind.String())
	}
}
