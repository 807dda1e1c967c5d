package record

import (
	"strconv"
)

// Value is a single field value. The concrete variants are Int, Double
// and Text; nothing else implements it.
type Value interface {
	Type() Type
	String() string
	isValue()
}

type (
	Int    int32
	Double float64
	Text   string
)

func (Int) Type() Type    { return TypeInt }
func (Double) Type() Type { return TypeDouble }
func (Text) Type() Type   { return TypeText }

func (v Int) String() string    { return strconv.FormatInt(int64(v), 10) }
func (v Double) String() string { return strconv.FormatFloat(float64(v), 'g', -1, 64) }
func (v Text) String() string   { return string(v) }

func (Int) isValue()    {}
func (Double) isValue() {}
func (Text) isValue()   {}

// Record is an ordered list of values laid out in schema order.
type Record []Value

// Equal compares field by field, by type and value.
func (r Record) Equal(o Record) bool {
	if len(r) != len(o) {
		return false
	}
	for i := range r {
		if r[i] != o[i] {
			return false
		}
	}
	return true
}

func (r Record) Clone() Record {
	return append(Record(nil), r...)
}
