// Package resultprint renders schemas and result sets as fixed-width text
// tables.
package resultprint

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tuannm99/microdb/internal/executor"
	"github.com/tuannm99/microdb/internal/record"
)

// ColumnWidth is the width of one cell including its trailing " |".
const ColumnWidth = 12

// Source is what PrintTableData reads from; engine.DB implements it.
type Source interface {
	SelectRecord(table string, fields executor.FieldList, cond *executor.Condition, distinct bool) (*executor.ResultSet, error)
}

type Printer struct {
	w      io.Writer
	header lipgloss.Style
	err    error
}

// New returns a printer writing to w. Header cells are bold when w is a
// terminal that supports it.
func New(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{w: w, header: r.NewStyle().Bold(true)}
}

func (p *Printer) printf(format string, a ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, a...)
}

func (p *Printer) rule(n int) {
	var b strings.Builder
	for i := 0; i < n*ColumnWidth+1; i++ {
		if i%ColumnWidth == 0 {
			b.WriteByte('+')
		} else {
			b.WriteByte('-')
		}
	}
	p.printf("%s\n", b.String())
}

func (p *Printer) headerRow(names []string) {
	p.rule(len(names))
	p.printf("|")
	for _, name := range names {
		p.printf("%s |", p.header.Render(fmt.Sprintf("%*s", ColumnWidth-2, name)))
	}
	p.printf("\n")
	p.rule(len(names))
}

func (p *Printer) row(cells []string) {
	p.printf("|")
	for _, c := range cells {
		p.printf("%*s |", ColumnWidth-2, c)
	}
	p.printf("\n")
}

// cell formats one value. Integers always print their full value.
func cell(v record.Value) string {
	switch x := v.(type) {
	case record.Int:
		return fmt.Sprintf("%d", int32(x))
	case nil:
		return ""
	default:
		return x.String()
	}
}

func (p *Printer) table(headers []string, rows [][]string, footer string) error {
	p.err = nil
	p.headerRow(headers)
	for _, r := range rows {
		p.row(r)
	}
	if len(rows) > 0 {
		p.rule(len(headers))
	}
	p.printf("%s\n", footer)
	return p.err
}

// PrintRecordSet prints the projected columns of rs followed by the row
// count.
func (p *Printer) PrintRecordSet(rs *executor.ResultSet) error {
	headers := make([]string, len(rs.Fields))
	for i, f := range rs.Fields {
		headers[i] = f.Name
	}

	rows := make([][]string, 0, rs.Len())
	for _, rec := range rs.All() {
		cells := make([]string, len(rec))
		for i, v := range rec {
			cells[i] = cell(v)
		}
		rows = append(rows, cells)
	}
	return p.table(headers, rows, fmt.Sprintf("%d rows in set", rs.Len()))
}

// PrintTableInfo lists the fields of a table with their types.
func (p *Printer) PrintTableInfo(name string, s record.Schema) error {
	p.err = nil
	p.printf("Table: %s\n", name)
	if p.err != nil {
		return p.err
	}

	rows := make([][]string, len(s.Fields))
	for i, f := range s.Fields {
		size := ""
		if f.Type == record.TypeText {
			size = fmt.Sprintf("%d", f.MaxLen)
		}
		rows[i] = []string{f.Name, f.Type.String(), size}
	}
	return p.table([]string{"field", "type", "length"}, rows, fmt.Sprintf("%d fields", s.NumFields()))
}

// PrintTableData prints every record of a table in storage order.
func (p *Printer) PrintTableData(src Source, table string) error {
	rs, err := src.SelectRecord(table, nil, nil, false)
	if err != nil {
		return err
	}
	return p.PrintRecordSet(rs)
}
