package executor

import (
	"iter"

	"github.com/tuannm99/microdb/internal/record"
)

// ResultSet is a materialized query result. It owns its records and has
// no link back to pages.
type ResultSet struct {
	Fields  []record.Field
	Records []record.Record
}

func (rs *ResultSet) Len() int { return len(rs.Records) }

func (rs *ResultSet) At(i int) record.Record { return rs.Records[i] }

// Schema describes the projected columns.
func (rs *ResultSet) Schema() record.Schema {
	return record.Schema{Fields: rs.Fields}
}

// All iterates the records in scan order. It can be ranged over any
// number of times.
func (rs *ResultSet) All() iter.Seq2[int, record.Record] {
	return func(yield func(int, record.Record) bool) {
		for i, rec := range rs.Records {
			if !yield(i, rec) {
				return
			}
		}
	}
}
