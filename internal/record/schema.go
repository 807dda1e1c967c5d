package record

import (
	"fmt"

	"github.com/tuannm99/microdb/internal/dberr"
	"github.com/tuannm99/microdb/internal/storage"
)

const (
	MaxFields    = 40
	MaxFieldName = 20 // on-disk width, including the NUL terminator

	DefaultTextLen = 255
	// MaxTextLen is the longest text a single-field record can hold and
	// still fit an empty page.
	MaxTextLen = storage.MaxTupleSize - textOverhead
)

var ErrInvalidSchema = fmt.Errorf("%w: invalid schema", dberr.ErrSchemaMismatch)

// Type tags match the on-disk catalog encoding.
type Type uint32

const (
	TypeUnknown Type = iota
	TypeInt
	TypeDouble
	TypeText
)

func (t Type) String() string {
	switch t {
	case TypeInt:
		return "INTEGER"
	case TypeDouble:
		return "DOUBLE"
	case TypeText:
		return "TEXT"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint32(t))
	}
}

func (t Type) Numeric() bool { return t == TypeInt || t == TypeDouble }

// Field is one column. MaxLen is the byte limit of a TEXT value and zero
// for fixed-width types.
type Field struct {
	Name   string
	Type   Type
	MaxLen int
}

func IntField(name string) Field    { return Field{Name: name, Type: TypeInt} }
func DoubleField(name string) Field { return Field{Name: name, Type: TypeDouble} }

// TextField declares a TEXT column; maxLen <= 0 means DefaultTextLen.
func TextField(name string, maxLen int) Field {
	if maxLen <= 0 {
		maxLen = DefaultTextLen
	}
	return Field{Name: name, Type: TypeText, MaxLen: maxLen}
}

func (f Field) String() string {
	if f.Type == TypeText {
		return fmt.Sprintf("%s %s(%d)", f.Name, f.Type, f.MaxLen)
	}
	return fmt.Sprintf("%s %s", f.Name, f.Type)
}

type Schema struct {
	Fields []Field
}

func NewSchema(fields ...Field) Schema {
	return Schema{Fields: fields}
}

func (s Schema) NumFields() int { return len(s.Fields) }

// Index returns the position of the named field or -1.
func (s Schema) Index(name string) int {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return i
		}
	}
	return -1
}

// Clone returns a copy that shares nothing with s.
func (s Schema) Clone() Schema {
	return Schema{Fields: append([]Field(nil), s.Fields...)}
}

func (s Schema) Equal(o Schema) bool {
	if len(s.Fields) != len(o.Fields) {
		return false
	}
	for i := range s.Fields {
		if s.Fields[i] != o.Fields[i] {
			return false
		}
	}
	return true
}

// ValidIdent reports whether s is a non-empty ASCII identifier: letters,
// digits and '_', not starting with a digit.
func ValidIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '_', ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z':
		case ch >= '0' && ch <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// Validate enforces the limits the catalog can persist.
func (s Schema) Validate() error {
	if len(s.Fields) == 0 || len(s.Fields) > MaxFields {
		return fmt.Errorf("%w: %d fields (1..%d)", ErrInvalidSchema, len(s.Fields), MaxFields)
	}
	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if len(f.Name) >= MaxFieldName || !ValidIdent(f.Name) {
			return fmt.Errorf("%w: field name %q must be an identifier of 1..%d bytes", ErrInvalidSchema, f.Name, MaxFieldName-1)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("%w: duplicate field %q", ErrInvalidSchema, f.Name)
		}
		seen[f.Name] = struct{}{}

		switch f.Type {
		case TypeInt, TypeDouble:
			if f.MaxLen != 0 {
				return fmt.Errorf("%w: field %q: length on fixed type", ErrInvalidSchema, f.Name)
			}
		case TypeText:
			if f.MaxLen < 1 || f.MaxLen > MaxTextLen {
				return fmt.Errorf("%w: field %q: text length %d (1..%d)", ErrInvalidSchema, f.Name, f.MaxLen, MaxTextLen)
			}
		default:
			return fmt.Errorf("%w: field %q: %s", ErrInvalidSchema, f.Name, f.Type)
		}
	}
	return nil
}
