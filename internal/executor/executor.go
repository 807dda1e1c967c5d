package executor

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/tuannm99/microdb/internal/heap"
	"github.com/tuannm99/microdb/internal/record"
)

// FieldList names the fields to keep in a select. Output always follows
// the table's field order; a nil or empty list keeps every field.
type FieldList []string

// TableSource opens table handles by name. engine.DB implements it; tests
// can plug in their own.
type TableSource interface {
	OpenTable(name string) (*heap.Table, error)
}

// Executor runs inserts, selects and deletes as sequential scans over
// heap tables.
type Executor struct {
	DB TableSource
}

func New(db TableSource) *Executor {
	return &Executor{DB: db}
}

// InsertRecord validates rec against the table schema and stores it in
// the first page with room.
func (e *Executor) InsertRecord(table string, rec record.Record) (heap.TID, error) {
	tbl, err := e.DB.OpenTable(table)
	if err != nil {
		return heap.TID{}, err
	}
	tid, err := tbl.Insert(rec)
	if err != nil {
		return heap.TID{}, fmt.Errorf("insert into %s: %w", table, err)
	}
	return tid, nil
}

// SelectRecord returns the projected records matching cond, in page then
// slot order. With distinct, repeated projected tuples are dropped.
func (e *Executor) SelectRecord(table string, fields FieldList, cond *Condition, distinct bool) (*ResultSet, error) {
	tbl, err := e.DB.OpenTable(table)
	if err != nil {
		return nil, err
	}

	match, err := compile(tbl.Schema, cond)
	if err != nil {
		return nil, err
	}
	cols, err := projection(tbl.Schema, fields)
	if err != nil {
		return nil, err
	}

	rs := &ResultSet{Fields: make([]record.Field, len(cols))}
	for i, c := range cols {
		rs.Fields[i] = tbl.Schema.Fields[c]
	}

	var seen *distinctSet
	if distinct {
		seen = newDistinctSet()
	}

	scanned := 0
	err = tbl.Scan(func(_ heap.TID, rec record.Record) error {
		scanned++
		if !match(rec) {
			return nil
		}
		out := make(record.Record, len(cols))
		for i, c := range cols {
			out[i] = rec[c]
		}
		if seen != nil && !seen.add(out) {
			return nil
		}
		rs.Records = append(rs.Records, out)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("select from %s: %w", table, err)
	}

	slog.Debug("executor: select", "table", table, "where", cond, "scanned", scanned, "rows", rs.Len())
	return rs, nil
}

// DeleteRecord frees every slot whose record matches cond and returns how
// many were freed. Freed space is only reused by later inserts.
func (e *Executor) DeleteRecord(table string, cond *Condition) (int, error) {
	tbl, err := e.DB.OpenTable(table)
	if err != nil {
		return 0, err
	}

	match, err := compile(tbl.Schema, cond)
	if err != nil {
		return 0, err
	}

	n, err := tbl.DeleteFunc(func(rec record.Record) (bool, error) {
		return match(rec), nil
	})
	if err != nil {
		return n, fmt.Errorf("delete from %s: %w", table, err)
	}

	slog.Debug("executor: delete", "table", table, "where", cond, "rows", n)
	return n, nil
}

// projection maps the requested names to schema positions in schema order.
func projection(s record.Schema, fields FieldList) ([]int, error) {
	if len(fields) == 0 {
		all := make([]int, s.NumFields())
		for i := range all {
			all[i] = i
		}
		return all, nil
	}

	want := make([]int, 0, len(fields))
	for _, name := range fields {
		pos := s.Index(name)
		if pos < 0 {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
		}
		if !slices.Contains(want, pos) {
			want = append(want, pos)
		}
	}
	slices.Sort(want)
	return want, nil
}
