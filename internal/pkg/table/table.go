// Package table renders rows of catalog data under a multi-level header.
//
// A [Table] can be rendered as an HTML fragment, or exported as a spreadsheet.
package table

import (
	"fmt"
	"log/slog"

	"github.com/fredbi/flathubviz/internal/pkg/columns"
	"github.com/fredbi/flathubviz/internal/pkg/flathub"
	"github.com/fredbi/flathubviz/internal/pkg/header"
)

// Table is a data table with its header layout and resolved body cells.
type Table struct {
	options

	Layout header.Layout
	Leaves []*columns.Leaf

	// Values holds the resolved value of every body cell, row by row.
	Values [][]any

	// Cells holds the display text of every body cell, row by row.
	Cells [][]string

	l *slog.Logger
}

// New builds a [Table] for a column tree and a page of rows.
func New(cols []columns.Column, rows []flathub.Row, opts ...Option) (*Table, error) {
	layout, err := header.Build(cols)
	if err != nil {
		return nil, fmt.Errorf("building table header: %w", err)
	}

	t := &Table{
		options: optionsWithDefaults(opts),
		Layout:  layout,
		Leaves:  columns.Leaves(cols),
		Values:  make([][]any, 0, len(rows)),
		Cells:   make([][]string, 0, len(rows)),
		l:       slog.Default().With(slog.String("module", "table")),
	}

	undefined := make(map[string]int)

	for _, row := range rows {
		values := make([]any, 0, len(t.Leaves))
		cells := make([]string, 0, len(t.Leaves))

		for _, leaf := range t.Leaves {
			value := leaf.Value(row)
			if _, ok := value.(columns.Undefined); ok {
				undefined[leaf.ID()]++
			}

			values = append(values, value)
			cells = append(cells, t.display(leaf, value))
		}

		t.Values = append(t.Values, values)
		t.Cells = append(t.Cells, cells)
	}

	for _, leaf := range t.Leaves {
		if count := undefined[leaf.ID()]; count > 0 {
			t.l.Warn("enum values without a label",
				slog.String("field", leaf.ID()),
				slog.Int("count", count),
			)
		}
	}

	return t, nil
}

// Width is the number of leaf columns.
func (t *Table) Width() int {
	return len(t.Leaves)
}

// Len is the number of body rows.
func (t *Table) Len() int {
	return len(t.Cells)
}

// Label returns the header text of a header cell, with the units of leaf columns.
func Label(cell header.Cell) string {
	col := cell.Header.Column

	label := col.Header()
	if label == "" {
		label = col.ID()
	}

	if leaf, ok := col.(*columns.Leaf); ok && leaf.Units != "" {
		label += " [" + leaf.Units + "]"
	}

	return label
}
