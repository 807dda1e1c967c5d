package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/tuannm99/microdb/internal/dberr"
	"github.com/tuannm99/microdb/internal/engine"
	"github.com/tuannm99/microdb/internal/executor"
	"github.com/tuannm99/microdb/internal/record"
	"github.com/tuannm99/microdb/internal/resultprint"
	"github.com/tuannm99/microdb/internal/storage"
)

var (
	errExit  = errors.New("exit")
	errUsage = errors.New("usage")
)

const helpText = `commands:
  tables                                   list tables
  schema <table>                           show fields and types
  create <table> <field>:<type> ...        type: int | double | text[(len)]
  insert <table> <value> ...               one value per field, 'quoted' text
  select <table> [*|f1,f2] [where <f> <op> <v>] [distinct]
  delete <table> [where <f> <op> <v>]      op: = != <> > >= < <=
  dump <table>                             print every row
  pages <table>                            print the slot directory of every page
  stat [table]                             buffer pool or table statistics
  drop <table>                             remove a table and its data
  help                                     show this text
  exit | quit                              leave`

// Shell runs one command line at a time against an open database.
type Shell struct {
	db  *engine.DB
	out io.Writer
	pr  *resultprint.Printer
}

func NewShell(db *engine.DB, out io.Writer) *Shell {
	return &Shell{db: db, out: out, pr: resultprint.New(out)}
}

// Report prints a failed command's error. It returns nil when the session
// can go on and err itself after an I/O or corruption failure.
func (s *Shell) Report(err error) error {
	if !dberr.Recoverable(err) {
		return err
	}
	fmt.Fprintf(s.out, "error: %v\n", err)
	return nil
}

type token struct {
	text   string
	quoted bool
}

// tokenize splits on blanks. Single quotes group text; '' inside quotes
// is a literal quote.
func tokenize(line string) ([]token, error) {
	var (
		toks []token
		cur  strings.Builder
		in   bool
		have bool
		q    bool
	)
	flush := func() {
		if have {
			toks = append(toks, token{text: cur.String(), quoted: q})
		}
		cur.Reset()
		have, q = false, false
	}

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case in && ch == '\'':
			if i+1 < len(line) && line[i+1] == '\'' {
				cur.WriteByte('\'')
				i++
				continue
			}
			in = false
		case in:
			cur.WriteByte(ch)
		case ch == '\'':
			in, have, q = true, true, true
		case ch == ' ' || ch == '\t':
			flush()
		default:
			cur.WriteByte(ch)
			have = true
		}
	}
	if in {
		return nil, fmt.Errorf("unterminated quote")
	}
	flush()
	return toks, nil
}

func (s *Shell) println(a ...any) {
	_, _ = fmt.Fprintln(s.out, a...)
}

func (s *Shell) printf(format string, a ...any) {
	_, _ = fmt.Fprintf(s.out, format, a...)
}

// Exec runs one line. It returns errExit when the shell should stop.
func (s *Shell) Exec(line string) error {
	toks, err := tokenize(strings.TrimSpace(line))
	if err != nil {
		return err
	}
	if len(toks) == 0 {
		return nil
	}

	cmd, args := strings.ToLower(toks[0].text), toks[1:]
	switch cmd {
	case "exit", "quit", `\q`:
		return errExit
	case "help", `\help`, "?":
		s.println(helpText)
		return nil
	case "tables":
		return s.tables()
	case "stat":
		if len(args) == 0 {
			return s.stat()
		}
		return s.tableStat(args[0].text)
	}

	if len(args) == 0 {
		return fmt.Errorf("%w: %s <table> ...", errUsage, cmd)
	}
	table := args[0].text
	switch cmd {
	case "schema":
		info, err := s.db.TableInfo(table)
		if err != nil {
			return err
		}
		return s.pr.PrintTableInfo(table, info)
	case "dump":
		return s.pr.PrintTableData(s.db, table)
	case "pages":
		return s.db.DumpPages(table, s.out)
	case "drop":
		if err := s.db.DropTable(table); err != nil {
			return err
		}
		s.println("OK")
		return nil
	case "create":
		return s.create(table, args[1:])
	case "insert":
		return s.insert(table, args[1:])
	case "select":
		return s.selectCmd(table, args[1:])
	case "delete":
		return s.deleteCmd(table, args[1:])
	default:
		return fmt.Errorf("unknown command %q, try help", cmd)
	}
}

func (s *Shell) tables() error {
	names, err := s.db.ListTables()
	if err != nil {
		return err
	}
	for _, n := range names {
		s.println(n)
	}
	s.printf("%d tables\n", len(names))
	return nil
}

func (s *Shell) stat() error {
	st := s.db.Stats()
	s.printf("dir:         %s\n", s.db.Dir())
	s.printf("frames:      %d (%s)\n", st.Capacity, humanize.IBytes(uint64(st.Capacity)*storage.PageSize))
	s.printf("open tables: %d\n", st.OpenTables)
	s.printf("hits:        %s\n", humanize.Comma(int64(st.Pool.Hits)))
	s.printf("misses:      %s\n", humanize.Comma(int64(st.Pool.Misses)))
	s.printf("evictions:   %s\n", humanize.Comma(int64(st.Pool.Evictions)))
	s.printf("flushes:     %s\n", humanize.Comma(int64(st.Pool.Flushes)))
	return nil
}

func (s *Shell) tableStat(table string) error {
	ts, err := s.db.TableStats(table)
	if err != nil {
		return err
	}
	s.printf("table:  %s\n", ts.Name)
	s.printf("fields: %d\n", ts.Fields)
	s.printf("pages:  %d\n", ts.Pages)
	s.printf("size:   %s\n", humanize.IBytes(ts.Bytes))
	return nil
}

// parseField reads "name:type", type being int, double or text[(len)].
func parseField(spec string) (record.Field, error) {
	name, typ, ok := strings.Cut(spec, ":")
	if !ok || name == "" {
		return record.Field{}, fmt.Errorf("%w: field %q, want name:type", errUsage, spec)
	}
	typ = strings.ToLower(typ)
	switch typ {
	case "int", "integer":
		return record.IntField(name), nil
	case "double", "float":
		return record.DoubleField(name), nil
	case "text", "varchar":
		return record.TextField(name, 0), nil
	}

	base, rest, ok := strings.Cut(typ, "(")
	if ok && (base == "text" || base == "varchar") && strings.HasSuffix(rest, ")") {
		n, err := strconv.Atoi(strings.TrimSuffix(rest, ")"))
		if err != nil || n <= 0 {
			return record.Field{}, fmt.Errorf("%w: text length %q", errUsage, rest)
		}
		return record.TextField(name, n), nil
	}
	return record.Field{}, fmt.Errorf("%w: unknown type %q", errUsage, typ)
}

func (s *Shell) create(table string, args []token) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: create <table> <field>:<type> ...", errUsage)
	}
	fields := make([]record.Field, 0, len(args))
	for _, a := range args {
		f, err := parseField(a.text)
		if err != nil {
			return err
		}
		fields = append(fields, f)
	}
	if err := s.db.CreateTable(table, record.NewSchema(fields...)); err != nil {
		return err
	}
	s.println("OK")
	return nil
}

// literal converts a token to a value for a field of type t. Integer
// fields also take fractional literals so conditions like id > 2.5 work.
func literal(tok token, t record.Type) (record.Value, error) {
	if t == record.TypeText {
		return record.Text(tok.text), nil
	}
	if tok.quoted {
		return nil, fmt.Errorf("%w: %s value %q is quoted", dberr.ErrSchemaMismatch, t, tok.text)
	}
	if t == record.TypeInt {
		if n, err := strconv.ParseInt(tok.text, 10, 32); err == nil {
			return record.Int(n), nil
		}
	}
	f, err := strconv.ParseFloat(tok.text, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a %s", dberr.ErrSchemaMismatch, tok.text, t)
	}
	return record.Double(f), nil
}

func (s *Shell) insert(table string, args []token) error {
	info, err := s.db.TableInfo(table)
	if err != nil {
		return err
	}
	if len(args) != info.NumFields() {
		return fmt.Errorf("%w: %s has %d fields, got %d values", dberr.ErrSchemaMismatch, table, info.NumFields(), len(args))
	}

	rec := make(record.Record, len(args))
	for i, f := range info.Fields {
		v, err := literal(args[i], f.Type)
		if err != nil {
			return err
		}
		if d, ok := v.(record.Double); ok && f.Type == record.TypeInt {
			if d != record.Double(math.Trunc(float64(d))) {
				return fmt.Errorf("%w: %s wants an integer, got %s", dberr.ErrSchemaMismatch, f.Name, d)
			}
			return fmt.Errorf("%w: %s value %s out of range", dberr.ErrValueTooLarge, f.Name, d)
		}
		rec[i] = v
	}

	tid, err := s.db.InsertRecord(table, rec)
	if err != nil {
		return err
	}
	s.printf("OK %s\n", tid)
	return nil
}

// parseWhere reads "where <field> <op> <value>" from the front of args.
func (s *Shell) parseWhere(table string, args []token) (*executor.Condition, []token, error) {
	if len(args) == 0 || !strings.EqualFold(args[0].text, "where") {
		return nil, args, nil
	}
	if len(args) < 4 {
		return nil, nil, fmt.Errorf("%w: where <field> <op> <value>", errUsage)
	}
	op, err := executor.ParseOp(args[2].text)
	if err != nil {
		return nil, nil, err
	}

	info, err := s.db.TableInfo(table)
	if err != nil {
		return nil, nil, err
	}
	cond := &executor.Condition{Field: args[1].text, Op: op}
	t := record.TypeText
	if pos := info.Index(cond.Field); pos >= 0 {
		t = info.Fields[pos].Type
	}
	if cond.Value, err = literal(args[3], t); err != nil {
		return nil, nil, err
	}
	return cond, args[4:], nil
}

func (s *Shell) selectCmd(table string, args []token) error {
	var fields executor.FieldList
	if len(args) > 0 && !args[0].quoted {
		w := strings.ToLower(args[0].text)
		if w != "where" && w != "distinct" {
			if w != "*" {
				fields = strings.Split(args[0].text, ",")
			}
			args = args[1:]
		}
	}

	cond, args, err := s.parseWhere(table, args)
	if err != nil {
		return err
	}
	distinct := false
	if len(args) > 0 && strings.EqualFold(args[0].text, "distinct") {
		distinct = true
		args = args[1:]
	}
	if len(args) > 0 {
		return fmt.Errorf("%w: unexpected %q", errUsage, args[0].text)
	}

	rs, err := s.db.SelectRecord(table, fields, cond, distinct)
	if err != nil {
		return err
	}
	return s.pr.PrintRecordSet(rs)
}

func (s *Shell) deleteCmd(table string, args []token) error {
	cond, args, err := s.parseWhere(table, args)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		return fmt.Errorf("%w: unexpected %q", errUsage, args[0].text)
	}

	n, err := s.db.DeleteRecord(table, cond)
	if err != nil {
		return err
	}
	s.printf("%d rows deleted\n", n)
	return nil
}
