package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannm99/microdb/internal/record"
)

func TestParseOp(t *testing.T) {
	for _, s := range []string{"=", "!=", ">", ">=", "<", "<="} {
		op, err := ParseOp(s)
		require.NoError(t, err)
		assert.Equal(t, s, op.String())
	}

	op, err := ParseOp("<>")
	require.NoError(t, err)
	assert.Equal(t, OpNe, op)

	_, err = ParseOp("=~")
	require.ErrorIs(t, err, ErrBadOperator)
	assert.Equal(t, "Op(9)", Op(9).String())
}

func TestCondition_String(t *testing.T) {
	var c *Condition
	assert.Equal(t, "<all>", c.String())
	assert.Equal(t, "id >= 3", (&Condition{"id", OpGe, record.Int(3)}).String())
	assert.Equal(t, "n = 'it''s'", (&Condition{"n", OpEq, record.Text("it's")}).String())
}

func TestCompareValues(t *testing.T) {
	n, ok := compareValues(record.Int(2), record.Double(2.0))
	assert.True(t, ok)
	assert.Zero(t, n)

	n, ok = compareValues(record.Int(-2147483648), record.Int(2147483647))
	assert.True(t, ok)
	assert.Equal(t, -1, n)

	n, ok = compareValues(record.Text("a\x00"), record.Text("a"))
	assert.True(t, ok)
	assert.Equal(t, 1, n)
}
