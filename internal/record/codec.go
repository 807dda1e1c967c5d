package record

import (
	"fmt"

	"github.com/tuannm99/microdb/internal/alias/bx"
	"github.com/tuannm99/microdb/internal/dberr"
)

const (
	intSize      = 4
	doubleSize   = 8
	textOverhead = 4 + 1 // u32 length prefix + NUL terminator
)

// ---- Errors ----
var (
	ErrArity       = fmt.Errorf("%w: record: field count does not match schema", dberr.ErrSchemaMismatch)
	ErrFieldType   = fmt.Errorf("%w: record: value type does not match field", dberr.ErrSchemaMismatch)
	ErrTextTooLong = fmt.Errorf("%w: record: text exceeds declared length", dberr.ErrValueTooLarge)
	ErrBadBuffer   = fmt.Errorf("%w: record: buffer underflow/overflow", dberr.ErrCorruption)
)

// Check validates arity, variant types and text lengths of r against s.
func (s Schema) Check(r Record) error {
	if len(r) != len(s.Fields) {
		return fmt.Errorf("%w: got %d, want %d", ErrArity, len(r), len(s.Fields))
	}
	for i, f := range s.Fields {
		v := r[i]
		if v == nil || v.Type() != f.Type {
			return fmt.Errorf("%w: field %q wants %s, got %T", ErrFieldType, f.Name, f.Type, v)
		}
		if t, ok := v.(Text); ok && len(t) > f.MaxLen {
			return fmt.Errorf("%w: field %q: %d > %d bytes", ErrTextTooLong, f.Name, len(t), f.MaxLen)
		}
	}
	return nil
}

// EncodedSize is the number of bytes Encode produces for r. r must pass Check.
func EncodedSize(r Record) int {
	n := 0
	for _, v := range r {
		switch x := v.(type) {
		case Int:
			n += intSize
		case Double:
			n += doubleSize
		case Text:
			n += textOverhead + len(x)
		}
	}
	return n
}

// ---- Encode(schema, record) -> []byte ----
// Format, fields concatenated in schema order, all little-endian:
//
//	INTEGER: 4 bytes two's complement
//	DOUBLE:  8 bytes IEEE-754
//	TEXT:    u32 length | bytes | 0x00
func Encode(s Schema, r Record) ([]byte, error) {
	if err := s.Check(r); err != nil {
		return nil, err
	}

	out := make([]byte, EncodedSize(r))
	i := 0
	for _, v := range r {
		switch x := v.(type) {
		case Int:
			bx.PutI32(out[i:], int32(x))
			i += intSize
		case Double:
			bx.PutF64(out[i:], float64(x))
			i += doubleSize
		case Text:
			bx.PutU32(out[i:], uint32(len(x)))
			i += 4
			i += copy(out[i:], x)
			out[i] = 0
			i++
		}
	}
	return out, nil
}

// ---- Decode(schema, buf) -> Record ----
// buf must hold exactly one encoded record; short, long or malformed input
// is corruption. Decoded values never alias buf.
func Decode(s Schema, buf []byte) (Record, error) {
	out := make(Record, len(s.Fields))
	i := 0
	for idx, f := range s.Fields {
		switch f.Type {
		case TypeInt:
			if i+intSize > len(buf) {
				return nil, fmt.Errorf("%w: field %q at %d", ErrBadBuffer, f.Name, i)
			}
			out[idx] = Int(bx.I32(buf[i:]))
			i += intSize

		case TypeDouble:
			if i+doubleSize > len(buf) {
				return nil, fmt.Errorf("%w: field %q at %d", ErrBadBuffer, f.Name, i)
			}
			out[idx] = Double(bx.F64(buf[i:]))
			i += doubleSize

		case TypeText:
			if i+4 > len(buf) {
				return nil, fmt.Errorf("%w: field %q length at %d", ErrBadBuffer, f.Name, i)
			}
			l := int(bx.U32(buf[i:]))
			i += 4
			if l > len(buf)-i-1 {
				return nil, fmt.Errorf("%w: field %q length %d past end", ErrBadBuffer, f.Name, l)
			}
			if buf[i+l] != 0 {
				return nil, fmt.Errorf("%w: field %q missing terminator", ErrBadBuffer, f.Name)
			}
			out[idx] = Text(buf[i : i+l])
			i += l + 1

		default:
			return nil, fmt.Errorf("%w: field %q: %s", ErrInvalidSchema, f.Name, f.Type)
		}
	}
	if i != len(buf) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrBadBuffer, len(buf)-i)
	}
	return out, nil
}
