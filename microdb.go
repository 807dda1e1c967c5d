// Package microdb is the top-level facade for the microdb storage engine.
package microdb

import (
	"github.com/tuannm99/microdb/internal/engine"
	"github.com/tuannm99/microdb/internal/executor"
	"github.com/tuannm99/microdb/internal/record"
)

type (
	DB        = engine.DB
	Options   = engine.Options
	Condition = executor.Condition
	FieldList = executor.FieldList
	ResultSet = executor.ResultSet
	Op        = executor.Op
	Schema    = record.Schema
	Field     = record.Field
	Record    = record.Record
	Value     = record.Value
	Int       = record.Int
	Double    = record.Double
	Text      = record.Text
)

const (
	OpEq = executor.OpEq
	OpNe = executor.OpNe
	OpGt = executor.OpGt
	OpGe = executor.OpGe
	OpLt = executor.OpLt
	OpLe = executor.OpLe
)

var (
	NewSchema   = record.NewSchema
	IntField    = record.IntField
	DoubleField = record.DoubleField
	TextField   = record.TextField
)

// Open opens (creating if needed) the database stored in opts.Dir.
func Open(opts Options) (*DB, error) {
	return engine.Open(opts)
}
