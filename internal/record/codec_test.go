package record

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannm99/microdb/internal/dberr"
)

// makeTestSchema builds a simple schema used across tests.
func makeTestSchema() Schema {
	return NewSchema(
		IntField("id"),
		TextField("name", 16),
		DoubleField("score"),
		TextField("note", 0),
	)
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	s := makeTestSchema()

	cases := []Record{
		{Int(42), Text("hello"), Double(3.14159), Text("")},
		{Int(-1), Text(""), Double(-0.0), Text("x")},
		{Int(math.MinInt32), Text(strings.Repeat("a", 16)), Double(math.MaxFloat64), Text("日本語")},
		{Int(math.MaxInt32), Text("a\x00b"), Double(math.Inf(1)), Text(strings.Repeat("z", DefaultTextLen))},
	}
	for _, rec := range cases {
		buf, err := Encode(s, rec)
		require.NoError(t, err)
		require.Len(t, buf, EncodedSize(rec))

		got, err := Decode(s, buf)
		require.NoError(t, err)
		assert.True(t, rec.Equal(got), "got %v want %v", got, rec)
	}
}

func TestEncode_Layout(t *testing.T) {
	s := NewSchema(IntField("id"), TextField("name", 10))

	buf, err := Encode(s, Record{Int(1), Text("ab")})
	require.NoError(t, err)
	// id: 01 00 00 00 | name: 02 00 00 00 'a' 'b' 00
	assert.Equal(t, []byte{1, 0, 0, 0, 2, 0, 0, 0, 'a', 'b', 0}, buf)
	assert.Equal(t, 4+4+2+1, EncodedSize(Record{Int(1), Text("ab")}))

	buf, err = Encode(NewSchema(DoubleField("d")), Record{Double(1)})
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0xf0, 0x3f}, buf)
}

func TestEncode_SchemaMismatch(t *testing.T) {
	s := makeTestSchema()

	t.Run("wrong number of values", func(t *testing.T) {
		_, err := Encode(s, Record{Int(1), Text("a")})
		require.ErrorIs(t, err, ErrArity)
		require.ErrorIs(t, err, dberr.ErrSchemaMismatch)
	})

	t.Run("wrong type for field", func(t *testing.T) {
		_, err := Encode(s, Record{Double(1), Text("a"), Double(2), Text("b")})
		require.ErrorIs(t, err, ErrFieldType)
	})

	t.Run("nil value", func(t *testing.T) {
		_, err := Encode(s, Record{Int(1), nil, Double(2), Text("b")})
		require.ErrorIs(t, err, ErrFieldType)
	})

	t.Run("text too long", func(t *testing.T) {
		_, err := Encode(s, Record{Int(1), Text(strings.Repeat("a", 17)), Double(2), Text("b")})
		require.ErrorIs(t, err, ErrTextTooLong)
		require.ErrorIs(t, err, dberr.ErrValueTooLarge)
	})
}

func TestDecode_Corruption(t *testing.T) {
	s := makeTestSchema()
	buf, err := Encode(s, Record{Int(42), Text("test"), Double(2.5), Text("n")})
	require.NoError(t, err)

	t.Run("truncated buffer", func(t *testing.T) {
		_, err := Decode(s, buf[:len(buf)-3])
		require.ErrorIs(t, err, ErrBadBuffer)
		require.ErrorIs(t, err, dberr.ErrCorruption)
	})

	t.Run("too short for first field", func(t *testing.T) {
		_, err := Decode(s, []byte{0x00})
		require.ErrorIs(t, err, ErrBadBuffer)
	})

	t.Run("length prefix past end", func(t *testing.T) {
		bad := append([]byte(nil), buf...)
		bad[4] = 200
		_, err := Decode(s, bad)
		require.ErrorIs(t, err, ErrBadBuffer)
	})

	t.Run("missing terminator", func(t *testing.T) {
		bad := append([]byte(nil), buf...)
		bad[4+4+4] = 'X'
		_, err := Decode(s, bad)
		require.ErrorIs(t, err, ErrBadBuffer)
	})

	t.Run("trailing bytes", func(t *testing.T) {
		_, err := Decode(s, append(append([]byte(nil), buf...), 0))
		require.ErrorIs(t, err, ErrBadBuffer)
	})
}

func TestDecode_DoesNotAliasBuffer(t *testing.T) {
	s := NewSchema(TextField("name", 8))
	buf, err := Encode(s, Record{Text("abc")})
	require.NoError(t, err)

	rec, err := Decode(s, buf)
	require.NoError(t, err)
	buf[4] = 'z'
	assert.Equal(t, Text("abc"), rec[0])
}
