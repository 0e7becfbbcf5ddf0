package header

import (
	"errors"
	"fmt"

	"github.com/fredbi/flathubviz/internal/pkg/columns"
)

// ErrNoNonPlaceholder is returned when a placeholder header has no real header below it.
//
// This may only happen with a header grid that was not built by [Groups].
var ErrNoNonPlaceholder = errors.New("no non-placeholder header found")

// Cell is a header with its rendering spans.
type Cell struct {
	Header *Header

	// ShouldRender is false when the cell is covered by a placeholder from a row above.
	ShouldRender bool
	RowSpan      int
	ColSpan      int

	// Start is the position of the first leaf column covered by the cell.
	Start int
}

// Layout is the header grid of a table, ready to render.
type Layout struct {
	Rows [][]Cell

	// Width is the number of leaf columns.
	Width int
}

// Build the header layout of a column tree.
func Build(cols []columns.Column) (Layout, error) {
	return Reduce(Groups(cols))
}

// Reduce computes the spans of every header of the rows.
//
// Rows are processed top to bottom, left to right. The first time a placeholder is
// met for a column, it is merged down to the row of the column's real header and all
// later headers of this column are not rendered.
func Reduce(groups []Group) (Layout, error) {
	layout := Layout{
		Rows: make([][]Cell, 0, len(groups)),
	}

	// keyed by column rather than by identifier: a group titled like a leaf shares its identifier
	skip := make(map[columns.Column]struct{})

	for _, group := range groups {
		row := make([]Cell, 0, len(group.Headers))

		for _, h := range group.Headers {
			cell := Cell{
				Header:  h,
				ColSpan: h.ColSpan(),
				Start:   h.Start(),
			}

			if _, skipped := skip[h.Column]; skipped {
				row = append(row, cell)

				continue
			}

			cell.ShouldRender = true
			cell.RowSpan = 1

			if h.IsPlaceholder {
				skip[h.Column] = struct{}{}

				target, ok := firstNonPlaceholder(h)
				if !ok {
					return Layout{}, fmt.Errorf("%w: column %q", ErrNoNonPlaceholder, h.Column.ID())
				}

				cell.RowSpan = 1 + target.Depth - h.Depth
			}

			row = append(row, cell)
		}

		layout.Rows = append(layout.Rows, row)
	}

	if n := len(groups); n > 0 {
		for _, h := range groups[n-1].Headers {
			layout.Width += h.ColSpan()
		}
	}

	return layout, nil
}

// Rendered returns the cells of a row that should be rendered.
func (l Layout) Rendered(row int) []Cell {
	if row < 0 || row >= len(l.Rows) {
		return nil
	}

	cells := make([]Cell, 0, len(l.Rows[row]))
	for _, cell := range l.Rows[row] {
		if cell.ShouldRender {
			cells = append(cells, cell)
		}
	}

	return cells
}

func firstNonPlaceholder(h *Header) (*Header, bool) {
	for _, leaf := range h.LeafHeaders() {
		if !leaf.IsPlaceholder {
			return leaf, true
		}
	}

	return nil, false
}
