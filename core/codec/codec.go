// Package codec implements the binary encoding used on the host/guest
// boundary. It is keyed by a core/types.Type: encode and decode both take
// the Type alongside the value, so the wire format itself carries no type
// tags — only the lengths needed to walk heterogeneous nested sequences and
// strings without a separate schema pass.
//
// A value that does not match its Type fails with errs.TypeMismatch; an
// unknown ordinal, a truncated buffer or trailing bytes fail with
// errs.CodecDecode, told apart only by the error message. There is no
// best-effort recovery.
package codec

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/fluxbench/commander/core/errs"
	"github.com/fluxbench/commander/core/types"
)

// Encode serializes v, which must be well-formed against t, into a binary
// blob. decode(t, Encode(t, v)) reproduces a value equal to v.
func Encode(t *types.Type, v *types.Value) ([]byte, error) {
	if err := types.Check(t, v); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := encodeInto(&buf, t, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeInto(buf *bytes.Buffer, t *types.Type, v *types.Value) error {
	switch t.Kind() {
	case types.Trigger:
		return nil
	case types.Boolean:
		if v.Bool() {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
		return nil
	case types.Number:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(v.Number()))
		buf.Write(b[:])
		return nil
	case types.String, types.JSON, types.SVG, types.URL:
		writeBytes(buf, []byte(v.Text()))
		return nil
	case types.Bytes:
		writeBytes(buf, v.Bytes())
		return nil
	case types.Color:
		c := v.Color()
		for _, ch := range [4]uint16{c.R, c.G, c.B, c.A} {
			var b [2]byte
			binary.LittleEndian.PutUint16(b[:], ch)
			buf.Write(b[:])
		}
		return nil
	case types.Path:
		segs := v.Path()
		writeUint32(buf, uint32(len(segs)))
		for _, s := range segs {
			writeBytes(buf, []byte(s))
		}
		return nil
	case types.Enum:
		writeUint32(buf, uint32(v.Ordinal()))
		return nil
	case types.Struct:
		for _, f := range t.Fields() {
			if err := encodeInto(buf, f.Type, v.Fields()[f.Name]); err != nil {
				return err
			}
		}
		return nil
	case types.List:
		elems := v.List()
		writeUint32(buf, uint32(len(elems)))
		for _, e := range elems {
			if err := encodeInto(buf, t.Elem(), e); err != nil {
				return err
			}
		}
		return nil
	default:
		return errs.Newf(errs.TypeMismatch, "encode: unhandled kind %s", t.Kind())
	}
}

func writeUint32(buf *bytes.Buffer, n uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], n)
	buf.Write(b[:])
}

func writeBytes(buf *bytes.Buffer, data []byte) {
	writeUint32(buf, uint32(len(data)))
	buf.Write(data)
}

// Decode deserializes data into a Value against t. It rejects truncated
// buffers, unknown enum ordinals, and struct arity mismatches with a
// CodecDecode error; it never attempts best-effort recovery.
func Decode(t *types.Type, data []byte) (*types.Value, error) {
	r := bytes.NewReader(data)
	v, err := decodeFrom(r, t)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, errs.Newf(errs.CodecDecode, "%d trailing bytes after decoding %s", r.Len(), types.Print(t))
	}
	return v, nil
}

func decodeFrom(r *bytes.Reader, t *types.Type) (*types.Value, error) {
	switch t.Kind() {
	case types.Trigger:
		return types.TriggerVal(), nil
	case types.Boolean:
		b, err := r.ReadByte()
		if err != nil {
			return nil, errs.Wrap(errs.CodecDecode, err, "truncated boolean")
		}
		return types.Bool(b != 0), nil
	case types.Number:
		var b [8]byte
		if _, err := readFull(r, b[:]); err != nil {
			return nil, errs.Wrap(errs.CodecDecode, err, "truncated number")
		}
		return types.Num(math.Float64frombits(binary.LittleEndian.Uint64(b[:]))), nil
	case types.String:
		s, err := readBytes(r)
		if err != nil {
			return nil, err
		}
		return types.Str(string(s)), nil
	case types.JSON:
		s, err := readBytes(r)
		if err != nil {
			return nil, err
		}
		return types.JSONVal(string(s)), nil
	case types.SVG:
		s, err := readBytes(r)
		if err != nil {
			return nil, err
		}
		return types.SVGVal(string(s)), nil
	case types.URL:
		s, err := readBytes(r)
		if err != nil {
			return nil, err
		}
		return types.URLVal(string(s)), nil
	case types.Bytes:
		b, err := readBytes(r)
		if err != nil {
			return nil, err
		}
		return types.BytesVal(b), nil
	case types.Color:
		var chans [4]uint16
		for i := range chans {
			var b [2]byte
			if _, err := readFull(r, b[:]); err != nil {
				return nil, errs.Wrap(errs.CodecDecode, err, "truncated color channel")
			}
			chans[i] = binary.LittleEndian.Uint16(b[:])
		}
		return types.ColorVal(types.RGBA{R: chans[0], G: chans[1], B: chans[2], A: chans[3]}), nil
	case types.Path:
		n, err := readUint32(r)
		if err != nil {
			return nil, errs.Wrap(errs.CodecDecode, err, "truncated path length")
		}
		segs := make([]string, n)
		for i := range segs {
			s, err := readBytes(r)
			if err != nil {
				return nil, err
			}
			segs[i] = string(s)
		}
		return types.PathVal(segs...), nil
	case types.Enum:
		ord, err := readUint32(r)
		if err != nil {
			return nil, errs.Wrap(errs.CodecDecode, err, "truncated enum ordinal")
		}
		if int(ord) >= len(t.Variants()) {
			return nil, errs.Newf(errs.CodecDecode, "unknown ordinal %d for enum %s", ord, t.Name())
		}
		return types.EnumVal(int(ord)), nil
	case types.Struct:
		fields := make(map[string]*types.Value, len(t.Fields()))
		for _, f := range t.Fields() {
			fv, err := decodeFrom(r, f.Type)
			if err != nil {
				return nil, err
			}
			fields[f.Name] = fv
		}
		return types.StructVal(fields), nil
	case types.List:
		n, err := readUint32(r)
		if err != nil {
			return nil, errs.Wrap(errs.CodecDecode, err, "truncated list length")
		}
		elems := make([]*types.Value, n)
		for i := range elems {
			ev, err := decodeFrom(r, t.Elem())
			if err != nil {
				return nil, err
			}
			elems[i] = ev
		}
		return types.ListVal(elems...), nil
	default:
		return nil, errs.Newf(errs.TypeMismatch, "decode: unhandled kind %s", t.Kind())
	}
}

func readFull(r *bytes.Reader, buf []byte) (int, error) {
	n, err := r.Read(buf)
	if err != nil {
		return n, err
	}
	if n != len(buf) {
		return n, errs.New(errs.CodecDecode, "short read")
	}
	return n, nil
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := readFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readBytes(r *bytes.Reader) ([]byte, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, errs.Wrap(errs.CodecDecode, err, "truncated length prefix")
	}
	if int(n) > r.Len() {
		return nil, errs.Newf(errs.CodecDecode, "truncated payload: need %d bytes, have %d", n, r.Len())
	}
	out := make([]byte, n)
	if _, err := readFull(r, out); err != nil {
		return nil, errs.Wrap(errs.CodecDecode, err, "truncated payload")
	}
	return out, nil
}
