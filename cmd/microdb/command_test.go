package main

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannm99/microdb/internal/dberr"
	"github.com/tuannm99/microdb/internal/engine"
	"github.com/tuannm99/microdb/internal/record"
	"github.com/tuannm99/microdb/internal/storage"
)

func newTestShell(t *testing.T) (*Shell, *bytes.Buffer) {
	t.Helper()
	db, err := engine.Open(engine.Options{Dir: t.TempDir(), CacheCapacity: 4})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var out bytes.Buffer
	return NewShell(db, &out), &out
}

func run1(t *testing.T, sh *Shell, out *bytes.Buffer, line string) string {
	t.Helper()
	out.Reset()
	require.NoError(t, sh.Exec(line), line)
	return out.String()
}

func TestTokenize(t *testing.T) {
	toks, err := tokenize(`insert t 1 'a b' 'it''s' ''   x`)
	require.NoError(t, err)
	require.Equal(t, []token{
		{text: "insert"},
		{text: "t"},
		{text: "1"},
		{text: "a b", quoted: true},
		{text: "it's", quoted: true},
		{text: "", quoted: true},
		{text: "x"},
	}, toks)

	_, err = tokenize(`select t where name = 'open`)
	require.Error(t, err)
}

func TestParseField(t *testing.T) {
	cases := map[string]record.Field{
		"id:int":          record.IntField("id"),
		"id:INTEGER":      record.IntField("id"),
		"w:double":        record.DoubleField("w"),
		"name:text":       record.TextField("name", 255),
		"name:text(16)":   record.TextField("name", 16),
		"name:varchar(3)": record.TextField("name", 3),
	}
	for spec, want := range cases {
		got, err := parseField(spec)
		require.NoError(t, err, spec)
		assert.Equal(t, want, got, spec)
	}

	for _, bad := range []string{"id", ":int", "id:bool", "n:text(0)", "n:text(x)", "n:text(4"} {
		_, err := parseField(bad)
		require.ErrorIs(t, err, errUsage, bad)
	}
}

func TestLiteral(t *testing.T) {
	v, err := literal(token{text: "42"}, record.TypeInt)
	require.NoError(t, err)
	assert.Equal(t, record.Int(42), v)

	v, err = literal(token{text: "2.5"}, record.TypeInt)
	require.NoError(t, err)
	assert.Equal(t, record.Double(2.5), v)

	v, err = literal(token{text: "7"}, record.TypeDouble)
	require.NoError(t, err)
	assert.Equal(t, record.Double(7), v)

	v, err = literal(token{text: "42"}, record.TypeText)
	require.NoError(t, err)
	assert.Equal(t, record.Text("42"), v)

	_, err = literal(token{text: "42", quoted: true}, record.TypeInt)
	require.ErrorIs(t, err, dberr.ErrSchemaMismatch)
	_, err = literal(token{text: "abc"}, record.TypeDouble)
	require.ErrorIs(t, err, dberr.ErrSchemaMismatch)
}

func TestShell_Session(t *testing.T) {
	sh, out := newTestShell(t)

	assert.Equal(t, "OK\n", run1(t, sh, out, "create t id:int name:text(255)"))
	assert.Equal(t, "OK (0,0)\n", run1(t, sh, out, "insert t 1 a"))
	assert.Equal(t, "OK (0,1)\n", run1(t, sh, out, "insert t 2 'b'"))

	got := run1(t, sh, out, "select t where id = 1")
	assert.Equal(t, ""+
		"+-----------+-----------+\n"+
		"|        id |      name |\n"+
		"+-----------+-----------+\n"+
		"|         1 |         a |\n"+
		"+-----------+-----------+\n"+
		"1 rows in set\n", got)

	assert.Equal(t, "1 rows deleted\n", run1(t, sh, out, "delete t where id = 1"))

	got = run1(t, sh, out, "select t name")
	assert.Contains(t, got, "|         b |\n")
	assert.Contains(t, got, "1 rows in set\n")

	assert.Equal(t, "t\n1 tables\n", run1(t, sh, out, "tables"))
	assert.Contains(t, run1(t, sh, out, "schema t"), "|      name |      TEXT |       255 |")
	assert.Contains(t, run1(t, sh, out, "dump t"), "1 rows in set")
	assert.Contains(t, run1(t, sh, out, "pages t"), "=== Page 0 ===")
	assert.Contains(t, run1(t, sh, out, "stat t"), "size:   4.0 KiB")
	assert.Contains(t, run1(t, sh, out, "stat"), "open tables: 1")

	assert.Equal(t, "OK\n", run1(t, sh, out, "drop t"))
	assert.Equal(t, "0 tables\n", run1(t, sh, out, "tables"))
}

func TestShell_SelectDistinctAndFields(t *testing.T) {
	sh, out := newTestShell(t)
	run1(t, sh, out, "create c id:int city:text(8)")
	for _, line := range []string{"insert c 1 hn", "insert c 2 hcm", "insert c 3 hn"} {
		run1(t, sh, out, line)
	}

	got := run1(t, sh, out, "select c city distinct")
	assert.Contains(t, got, "2 rows in set")

	got = run1(t, sh, out, "select c * where city != 'hn'")
	assert.Contains(t, got, "|         2 |       hcm |")
	assert.Contains(t, got, "1 rows in set")

	got = run1(t, sh, out, "select c city,id where id > 1.5 distinct")
	assert.Contains(t, got, "|        id |      city |") // schema order
	assert.Contains(t, got, "2 rows in set")
}

func TestShell_Errors(t *testing.T) {
	sh, out := newTestShell(t)
	run1(t, sh, out, "create t id:int name:text(4)")

	require.ErrorIs(t, sh.Exec("exit"), errExit)
	require.ErrorIs(t, sh.Exec("quit"), errExit)
	require.NoError(t, sh.Exec("   "))

	require.ErrorIs(t, sh.Exec("schema"), errUsage)
	require.ErrorIs(t, sh.Exec("create t2"), errUsage)
	require.ErrorIs(t, sh.Exec("select t where id ="), errUsage)
	require.ErrorIs(t, sh.Exec("select t where id = 1 extra"), errUsage)
	require.ErrorIs(t, sh.Exec("select t where id ~ 1"), dberr.ErrSchemaMismatch)
	require.ErrorIs(t, sh.Exec("select t where nope = 1"), dberr.ErrSchemaMismatch)
	require.ErrorIs(t, sh.Exec("select t nope"), dberr.ErrNotFound)
	require.ErrorIs(t, sh.Exec("schema missing"), dberr.ErrNotFound)
	require.ErrorIs(t, sh.Exec("create t id:int"), dberr.ErrAlreadyExists)

	require.ErrorIs(t, sh.Exec("insert t 1"), dberr.ErrSchemaMismatch)
	require.ErrorIs(t, sh.Exec("insert t 1.5 a"), dberr.ErrSchemaMismatch)
	require.ErrorIs(t, sh.Exec("insert t 9999999999 a"), dberr.ErrValueTooLarge)
	require.ErrorIs(t, sh.Exec("insert t 1 toolong"), dberr.ErrValueTooLarge)

	require.Error(t, sh.Exec("frobnicate t"))
}

func TestShell_Help(t *testing.T) {
	sh, out := newTestShell(t)
	got := run1(t, sh, out, "help")
	assert.Contains(t, got, "select <table>")
	assert.Contains(t, got, "pages <table>")
}

func TestShell_Report(t *testing.T) {
	sh, out := newTestShell(t)

	// Bad input keeps the session going.
	err := sh.Exec("schema missing")
	require.Error(t, err)
	out.Reset()
	require.NoError(t, sh.Report(err))
	assert.Contains(t, out.String(), "error: ")

	out.Reset()
	require.NoError(t, sh.Report(sh.Exec("create t2")))
	assert.Contains(t, out.String(), "usage")

	// Engine failures end it.
	corrupt := fmt.Errorf("heap: table t page 0: %w", storage.ErrCorruption)
	out.Reset()
	require.ErrorIs(t, sh.Report(corrupt), dberr.ErrCorruption)
	assert.Empty(t, out.String())

	ioErr := fmt.Errorf("%w: write page 3", dberr.ErrIO)
	require.ErrorIs(t, sh.Report(ioErr), dberr.ErrIO)
}
