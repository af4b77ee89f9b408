// Package render lays out records described by a schema as Markdown tables,
// description blocks and bullet lists. Renderers only ever call
// Descriptor.Render; they know nothing about accessors or formatters.
package render

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"tirep/internal/schema"
)

// Mode selects the table flavour.
type Mode int

const (
	Markdown Mode = iota // GitHub-flavoured Markdown
	ASCII                // box-drawn terminal table
)

// Table renders rows as a Markdown table: a header line, a left-aligned separator
// line and one line per record. Zero rows still produce the header and separator. A schema
// without fields renders as "".
func Table[T any](s *schema.Schema[T], rows []T) string {
	return TableMode(Markdown, s, rows)
}

// ASCIITable renders rows like Table but for a terminal.
func ASCIITable[T any](s *schema.Schema[T], rows []T) string {
	return TableMode(ASCII, s, rows)
}

func TableMode[T any](m Mode, s *schema.Schema[T], rows []T) string {
	if s.Len() == 0 {
		return ""
	}
	w := table.NewWriter()
	if m == ASCII {
		w.SetStyle(table.StyleLight)
	}
	w.AppendHeader(toRow(s.Names()))
	w.SetColumnConfigs(leftAligned(s.Len()))
	for _, rec := range rows {
		w.AppendRow(toRow(s.Row(rec)))
	}
	if m == ASCII {
		return w.Render() + "\n"
	}
	return w.RenderMarkdown() + "\n"
}

// leftAligned pins every column left. Without it go-pretty treats the columns
// of an empty table as numeric and right-aligns them.
func leftAligned(n int) []table.ColumnConfig {
	cfgs := make([]table.ColumnConfig, n)
	for i := range cfgs {
		cfgs[i] = table.ColumnConfig{Number: i + 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft}
	}
	return cfgs
}

func toRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}

// Description renders one record as "name: value" lines. The first line carries a
// "* " bullet and the rest are indented so the block reads as one list item.
func Description[T any](s *schema.Schema[T], rec T) string {
	var b strings.Builder
	for i, f := range s.Fields() {
		if i == 0 {
			b.WriteString("* ")
		} else {
			b.WriteString("  ")
		}
		b.WriteString(f.Name)
		b.WriteString(": ")
		b.WriteString(f.Render(rec))
		b.WriteString("\n")
	}
	return b.String()
}

// List renders one "* v1, v2, ..." line per record.
func List[T any](s *schema.Schema[T], rows []T) string {
	var b strings.Builder
	for _, rec := range rows {
		b.WriteString("* ")
		b.WriteString(strings.Join(s.Row(rec), ", "))
		b.WriteString("\n")
	}
	return b.String()
}
