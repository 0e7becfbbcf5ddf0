// Package header lays out the multi-level header of a table from its column tree.
//
// Header rows are built the way grid libraries usually group headers: every leaf column
// sits on the bottom row, and any column whose own level is shallower than the bottom
// row is repeated as a placeholder on the rows in between.
//
// [Reduce] then merges placeholders vertically, so that irregular-depth column trees
// still render as a rectangular grid.
package header

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/fredbi/flathubviz/internal/pkg/columns"
)

// Header is a cell of a header row.
type Header struct {
	ID     string
	Column columns.Column

	// Depth of the header row, starting at 1 for the top row.
	Depth int

	// Index of the header in its row.
	Index int

	// IsPlaceholder is true when the header only reserves space for a column
	// whose real header lives on a deeper row.
	IsPlaceholder bool

	SubHeaders []*Header
}

// LeafHeaders returns the headers below this one in post-order, this header included last.
func (h *Header) LeafHeaders() []*Header {
	var leaves []*Header

	var walk func(*Header)
	walk = func(current *Header) {
		for _, sub := range current.SubHeaders {
			walk(sub)
		}
		leaves = append(leaves, current)
	}
	walk(h)

	return leaves
}

// ColSpan is the number of leaf columns spanned by this header.
func (h *Header) ColSpan() int {
	if len(h.SubHeaders) == 0 {
		return 1
	}

	var span int
	for _, sub := range h.SubHeaders {
		span += sub.ColSpan()
	}

	return span
}

// Start is the position of the first leaf column spanned by this header.
func (h *Header) Start() int {
	current := h
	for len(current.SubHeaders) > 0 {
		current = current.SubHeaders[0]
	}

	return current.Index
}

// Group is a row of headers.
type Group struct {
	ID      string
	Depth   int
	Headers []*Header
}

type position struct {
	depth  int
	parent columns.Column
}

// Groups builds the header rows of a column tree, top row first.
//
// An empty column tree has no header row.
func Groups(cols []columns.Column) []Group {
	leaves := columns.Leaves(cols)
	if len(leaves) == 0 {
		return nil
	}

	maxDepth := columns.Depth(cols)
	positions := make(map[columns.Column]position)
	locate(cols, nil, 0, positions)

	headers := make([]*Header, 0, len(leaves))
	for i, leaf := range leaves {
		headers = append(headers, &Header{
			ID:     leaf.ID(),
			Column: leaf,
			Depth:  maxDepth,
			Index:  i,
		})
	}

	groups := make([]Group, 0, maxDepth)
	for depth := maxDepth - 1; depth >= 0; depth-- {
		groups = append(groups, Group{
			ID:      strconv.Itoa(depth),
			Depth:   depth,
			Headers: headers,
		})

		if depth == 0 {
			break
		}

		headers = parents(headers, depth, positions)
	}

	slices.Reverse(groups)

	return groups
}

// parents builds the row of headers above children.
//
// A child whose column sits at this level gets its parent column as header. Any other child
// is repeated as a placeholder. Consecutive children under the same column share their header.
func parents(children []*Header, depth int, positions map[columns.Column]position) []*Header {
	var row []*Header

	for _, child := range children {
		column, placeholder := child.Column, true
		if pos := positions[child.Column]; pos.depth == depth && pos.parent != nil {
			column, placeholder = pos.parent, false
		}

		if n := len(row); n > 0 && row[n-1].Column == column {
			row[n-1].SubHeaders = append(row[n-1].SubHeaders, child)

			continue
		}

		row = append(row, &Header{
			ID:            fmt.Sprintf("%d_%s_%s", depth, column.ID(), child.ID),
			Column:        column,
			Depth:         depth,
			Index:         len(row),
			IsPlaceholder: placeholder,
			SubHeaders:    []*Header{child},
		})
	}

	return row
}

func locate(cols []columns.Column, parent columns.Column, depth int, positions map[columns.Column]position) {
	for _, col := range cols {
		positions[col] = position{depth: depth, parent: parent}

		if group, ok := col.(*columns.Group); ok {
			locate(group.Columns, group, depth+1, positions)
		}
	}
}
