package catalog

import (
	"bytes"
	"fmt"

	"github.com/tuannm99/microdb/internal/alias/bx"
	"github.com/tuannm99/microdb/internal/dberr"
	"github.com/tuannm99/microdb/internal/record"
)

const (
	DefFileExt = ".def"

	// u32 field count, then per field: name | u32 type | u32 max length
	defHeaderSize = 4
	defFieldSize  = record.MaxFieldName + 4 + 4
	maxDefSize    = defHeaderSize + record.MaxFields*defFieldSize
)

var ErrBadDef = fmt.Errorf("%w: catalog: malformed table definition", dberr.ErrCorruption)

// DefFileName returns the on-disk name of a table's schema file.
func DefFileName(table string) string {
	return table + DefFileExt
}

// encodeDef lays a validated schema out as:
//
//	u32 field count
//	per field: name (MaxFieldName bytes, NUL padded) | u32 type | u32 max length
func encodeDef(s record.Schema) []byte {
	out := make([]byte, defHeaderSize+len(s.Fields)*defFieldSize)
	bx.PutU32(out, uint32(len(s.Fields)))

	i := defHeaderSize
	for _, f := range s.Fields {
		copy(out[i:i+record.MaxFieldName], f.Name)
		bx.PutU32(out[i+record.MaxFieldName:], uint32(f.Type))
		bx.PutU32(out[i+record.MaxFieldName+4:], uint32(f.MaxLen))
		i += defFieldSize
	}
	return out
}

func decodeDef(buf []byte) (record.Schema, error) {
	if len(buf) < defHeaderSize {
		return record.Schema{}, fmt.Errorf("%w: %d bytes", ErrBadDef, len(buf))
	}
	n := int(bx.U32(buf))
	if n < 1 || n > record.MaxFields {
		return record.Schema{}, fmt.Errorf("%w: field count %d", ErrBadDef, n)
	}
	if want := defHeaderSize + n*defFieldSize; len(buf) != want {
		return record.Schema{}, fmt.Errorf("%w: %d bytes, want %d", ErrBadDef, len(buf), want)
	}

	fields := make([]record.Field, n)
	i := defHeaderSize
	for k := range fields {
		raw := buf[i : i+record.MaxFieldName]
		end := bytes.IndexByte(raw, 0)
		if end < 0 {
			return record.Schema{}, fmt.Errorf("%w: field %d name not terminated", ErrBadDef, k)
		}
		fields[k] = record.Field{
			Name:   string(raw[:end]),
			Type:   record.Type(bx.U32(buf[i+record.MaxFieldName:])),
			MaxLen: int(bx.U32(buf[i+record.MaxFieldName+4:])),
		}
		i += defFieldSize
	}

	s := record.NewSchema(fields...)
	if err := s.Validate(); err != nil {
		return record.Schema{}, fmt.Errorf("%w: %v", ErrBadDef, err)
	}
	return s, nil
}
