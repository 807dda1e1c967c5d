package executor

import (
	"cmp"
	"fmt"
	"math"
	"strings"

	"github.com/tuannm99/microdb/internal/dberr"
	"github.com/tuannm99/microdb/internal/record"
)

// Op is a comparison operator of a Condition.
type Op uint8

const (
	OpEq Op = iota
	OpNe
	OpGt
	OpGe
	OpLt
	OpLe
)

var opNames = [...]string{OpEq: "=", OpNe: "!=", OpGt: ">", OpGe: ">=", OpLt: "<", OpLe: "<="}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", uint8(o))
}

// ParseOp accepts the textual operators, plus "<>" for OpNe.
func ParseOp(s string) (Op, error) {
	if s == "<>" {
		return OpNe, nil
	}
	for i, name := range opNames {
		if name == s {
			return Op(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrBadOperator, s)
}

var (
	ErrUnknownField = fmt.Errorf("%w: executor: unknown field", dberr.ErrNotFound)
	ErrBadCondition = fmt.Errorf("%w: executor: invalid condition", dberr.ErrSchemaMismatch)
	ErrBadOperator  = fmt.Errorf("%w: executor: unknown operator", dberr.ErrSchemaMismatch)
)

// Condition filters records by comparing one field with a literal.
// A nil *Condition matches every record.
type Condition struct {
	Field string
	Op    Op
	Value record.Value
}

func (c *Condition) String() string {
	if c == nil {
		return "<all>"
	}
	if t, ok := c.Value.(record.Text); ok {
		return fmt.Sprintf("%s %s '%s'", c.Field, c.Op, strings.ReplaceAll(string(t), "'", "''"))
	}
	return fmt.Sprintf("%s %s %v", c.Field, c.Op, c.Value)
}

type predicate func(rec record.Record) bool

func matchAll(record.Record) bool { return true }

// compile checks c against the schema once, before any page is read, and
// returns the per-record test.
func compile(s record.Schema, c *Condition) (predicate, error) {
	if c == nil {
		return matchAll, nil
	}
	pos := s.Index(c.Field)
	if pos < 0 {
		return nil, fmt.Errorf("%w: condition field %q", ErrBadCondition, c.Field)
	}
	if int(c.Op) >= len(opNames) {
		return nil, fmt.Errorf("%w: %s", ErrBadOperator, c.Op)
	}
	if c.Value == nil {
		return nil, fmt.Errorf("%w: %s has no value", ErrBadCondition, c.Field)
	}

	ft := s.Fields[pos].Type
	if ft.Numeric() != c.Value.Type().Numeric() {
		return nil, fmt.Errorf("%w: %s field %q compared with %s", ErrBadCondition, ft, c.Field, c.Value.Type())
	}

	op, lit := c.Op, c.Value
	return func(rec record.Record) bool {
		n, ordered := compareValues(rec[pos], lit)
		if !ordered {
			return op == OpNe
		}
		return holds(op, n)
	}, nil
}

func holds(op Op, n int) bool {
	switch op {
	case OpEq:
		return n == 0
	case OpNe:
		return n != 0
	case OpGt:
		return n > 0
	case OpGe:
		return n >= 0
	case OpLt:
		return n < 0
	case OpLe:
		return n <= 0
	}
	return false
}

// compareValues orders a against b. Integers and doubles compare by
// numeric value, texts by their bytes. ordered is false when a NaN is
// involved.
func compareValues(a, b record.Value) (n int, ordered bool) {
	if at, ok := a.(record.Text); ok {
		bt, _ := b.(record.Text)
		return strings.Compare(string(at), string(bt)), true
	}
	ai, aInt := a.(record.Int)
	bi, bInt := b.(record.Int)
	if aInt && bInt {
		return cmp.Compare(ai, bi), true
	}

	af, bf := toFloat(a), toFloat(b)
	if math.IsNaN(af) || math.IsNaN(bf) {
		return 0, false
	}
	return cmp.Compare(af, bf), true
}

func toFloat(v record.Value) float64 {
	switch x := v.(type) {
	case record.Int:
		return float64(x)
	case record.Double:
		return float64(x)
	}
	return math.NaN()
}
