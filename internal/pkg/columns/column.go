// Package columns derives the column tree of a data table from the field tree of a catalog.
//
// Only the ancestor chains of the requested leaf fields are kept: a field is included
// if it is a requested leaf, or if at least one of its leaf descendants is requested.
package columns

import (
	"github.com/fredbi/flathubviz/internal/pkg/fields"
	"github.com/fredbi/flathubviz/internal/pkg/flathub"
)

// RootID identifies the synthetic root of the field tree, should it ever become a column.
const RootID = "root"

// Column is a node of a column tree: either a [*Group] or a [*Leaf].
type Column interface {
	// ID uniquely identifies the column in the table.
	ID() string
	// Header is the display label of the column.
	Header() string

	isColumn()
}

// Group is a column that only nests other columns.
type Group struct {
	Key     string
	Label   string
	Columns []Column
}

func (g *Group) ID() string     { return g.Key }
func (g *Group) Header() string { return g.Label }
func (*Group) isColumn()        {}

// Leaf is a column bound to a field value of every row.
type Leaf struct {
	Key   string
	Label string
	Units string
	Type  fields.FieldType
	Enum  []string
}

func (l *Leaf) ID() string     { return l.Key }
func (l *Leaf) Header() string { return l.Label }
func (*Leaf) isColumn()        {}

// Raw returns the value stored in the row for this column, untransformed.
func (l *Leaf) Raw(row flathub.Row) any {
	return row[l.Key]
}

// Value returns the display value of this column for a row. See [Resolve].
func (l *Leaf) Value(row flathub.Row) any {
	return Resolve(l.Type, l.Enum, l.Raw(row))
}

// Leaves returns the leaf columns of a column tree, left to right.
func Leaves(cols []Column) []*Leaf {
	var leaves []*Leaf

	for _, col := range cols {
		switch c := col.(type) {
		case *Leaf:
			leaves = append(leaves, c)
		case *Group:
			leaves = append(leaves, Leaves(c.Columns)...)
		}
	}

	return leaves
}

// Depth returns the number of levels of a column tree. A flat list of leaves has depth 1.
func Depth(cols []Column) int {
	var depth int

	for _, col := range cols {
		level := 1
		if group, ok := col.(*Group); ok {
			level += Depth(group.Columns)
		}

		depth = max(depth, level)
	}

	return depth
}
