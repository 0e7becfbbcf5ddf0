package header

import (
	"testing"

	"github.com/fredbi/flathubviz/internal/pkg/columns"

	"github.com/go-openapi/testify/v2/assert"
	"github.com/go-openapi/testify/v2/require"
)

func TestGroups(t *testing.T) {
	groups := Groups(irregularColumns())
	require.Len(t, groups, 3)

	t.Run("rows are ordered top to bottom", func(t *testing.T) {
		for i, group := range groups {
			assert.Equal(t, i, group.Depth)
			for _, h := range group.Headers {
				assert.Equal(t, i+1, h.Depth)
			}
		}
	})

	t.Run("bottom row holds every leaf", func(t *testing.T) {
		assert.Equal(t, []string{"id", "mag_g", "mag_bp", "mag_r", "flag"}, headerColumns(groups[2]))
		for i, h := range groups[2].Headers {
			assert.False(t, h.IsPlaceholder)
			assert.Equal(t, i, h.Index)
			assert.Equal(t, h.Column.ID(), h.ID)
		}
	})

	t.Run("shallow columns are repeated as placeholders", func(t *testing.T) {
		assert.Equal(t, []string{"id", "photometry", "flag"}, headerColumns(groups[0]))
		assert.Equal(t, []bool{true, false, true}, placeholders(groups[0]))

		assert.Equal(t, []string{"id", "gaia", "mag_r", "flag"}, headerColumns(groups[1]))
		assert.Equal(t, []bool{true, false, true, true}, placeholders(groups[1]))
	})

	t.Run("col spans count leaf columns", func(t *testing.T) {
		assert.Equal(t, []int{1, 3, 1}, colSpans(groups[0]))
		assert.Equal(t, []int{1, 2, 1, 1}, colSpans(groups[1]))
		assert.Equal(t, []int{1, 1, 1, 1, 1}, colSpans(groups[2]))
	})

	t.Run("header ids are unique", func(t *testing.T) {
		seen := make(map[string]struct{})
		for _, group := range groups {
			for _, h := range group.Headers {
				_, dup := seen[h.ID]
				assert.False(t, dup, "duplicate header id %q", h.ID)
				seen[h.ID] = struct{}{}
			}
		}
	})
}

func TestGroupsEmpty(t *testing.T) {
	assert.Nil(t, Groups(nil))
	assert.Nil(t, Groups([]columns.Column{}))
}

func TestLeafHeaders(t *testing.T) {
	groups := Groups(irregularColumns())
	top := groups[0].Headers[0]

	leaves := top.LeafHeaders()
	require.Len(t, leaves, 3)
	assert.False(t, leaves[0].IsPlaceholder, "the real header comes first")
	assert.Equal(t, 3, leaves[0].Depth)
	assert.Same(t, top, leaves[2])
}

func TestReduce(t *testing.T) {
	layout, err := Build(irregularColumns())
	require.NoError(t, err)
	require.Len(t, layout.Rows, 3)
	assert.Equal(t, 5, layout.Width)

	type span struct {
		ID      string
		Render  bool
		RowSpan int
		ColSpan int
		Start   int
	}

	spans := func(row []Cell) []span {
		out := make([]span, 0, len(row))
		for _, cell := range row {
			out = append(out, span{
				ID:      cell.Header.Column.ID(),
				Render:  cell.ShouldRender,
				RowSpan: cell.RowSpan,
				ColSpan: cell.ColSpan,
				Start:   cell.Start,
			})
		}

		return out
	}

	assert.Equal(t, []span{
		{ID: "id", Render: true, RowSpan: 3, ColSpan: 1, Start: 0},
		{ID: "photometry", Render: true, RowSpan: 1, ColSpan: 3, Start: 1},
		{ID: "flag", Render: true, RowSpan: 3, ColSpan: 1, Start: 4},
	}, spans(layout.Rows[0]))

	assert.Equal(t, []span{
		{ID: "id", Start: 0, ColSpan: 1},
		{ID: "gaia", Render: true, RowSpan: 1, ColSpan: 2, Start: 1},
		{ID: "mag_r", Render: true, RowSpan: 2, ColSpan: 1, Start: 3},
		{ID: "flag", Start: 4, ColSpan: 1},
	}, spans(layout.Rows[1]))

	assert.Equal(t, []span{
		{ID: "id", Start: 0, ColSpan: 1},
		{ID: "mag_g", Render: true, RowSpan: 1, ColSpan: 1, Start: 1},
		{ID: "mag_bp", Render: true, RowSpan: 1, ColSpan: 1, Start: 2},
		{ID: "mag_r", Start: 3, ColSpan: 1},
		{ID: "flag", Start: 4, ColSpan: 1},
	}, spans(layout.Rows[2]))

	rendered := layout.Rendered(2)
	require.Len(t, rendered, 2)
	assert.Equal(t, "mag_g", rendered[0].Header.Column.ID())
	assert.Nil(t, layout.Rendered(3))
	assert.Nil(t, layout.Rendered(-1))
}

func TestReduceSimpleGroup(t *testing.T) {
	cols := []columns.Column{
		&columns.Group{Key: "photometry", Label: "Photometry", Columns: []columns.Column{
			&columns.Leaf{Key: "mag_g", Label: "G"},
		}},
	}

	layout, err := Build(cols)
	require.NoError(t, err)
	require.Len(t, layout.Rows, 2)

	for _, row := range layout.Rows {
		require.Len(t, row, 1)
		assert.True(t, row[0].ShouldRender)
		assert.Equal(t, 1, row[0].RowSpan)
		assert.Equal(t, 1, row[0].ColSpan)
	}
	assert.Equal(t, "photometry", layout.Rows[0][0].Header.Column.ID())
	assert.Equal(t, "mag_g", layout.Rows[1][0].Header.Column.ID())
}

func TestReduceFlat(t *testing.T) {
	cols := []columns.Column{
		&columns.Leaf{Key: "a"},
		&columns.Leaf{Key: "b"},
	}

	layout, err := Build(cols)
	require.NoError(t, err)
	require.Len(t, layout.Rows, 1)
	assert.Equal(t, 2, layout.Width)

	for i, cell := range layout.Rows[0] {
		assert.True(t, cell.ShouldRender)
		assert.Equal(t, 1, cell.RowSpan)
		assert.Equal(t, i, cell.Start)
	}
}

func TestReduceEmpty(t *testing.T) {
	layout, err := Build(nil)
	require.NoError(t, err)
	assert.Empty(t, layout.Rows)
	assert.Equal(t, 0, layout.Width)
}

func TestReduceNoNonPlaceholder(t *testing.T) {
	broken := &Header{
		ID:            "0_x",
		Column:        &columns.Leaf{Key: "x"},
		Depth:         1,
		IsPlaceholder: true,
		SubHeaders: []*Header{
			{ID: "1_x", Column: &columns.Leaf{Key: "x"}, Depth: 2, IsPlaceholder: true},
		},
	}

	_, err := Reduce([]Group{{ID: "0", Depth: 0, Headers: []*Header{broken}}})
	require.ErrorIs(t, err, ErrNoNonPlaceholder)
}

// Every leaf column of every header row must be covered by exactly one rendered cell,
// either on this row or spanning down from a row above.
func TestLayoutCoversGrid(t *testing.T) {
	shapes := map[string][]columns.Column{
		"irregular": irregularColumns(),
		"flat":      {&columns.Leaf{Key: "a"}, &columns.Leaf{Key: "b"}, &columns.Leaf{Key: "c"}},
		"deep chain": {
			&columns.Group{Key: "g1", Columns: []columns.Column{
				&columns.Group{Key: "g2", Columns: []columns.Column{
					&columns.Group{Key: "g3", Columns: []columns.Column{&columns.Leaf{Key: "deep"}}},
				}},
			}},
			&columns.Leaf{Key: "shallow"},
		},
		"leaf between groups": {
			&columns.Group{Key: "left", Columns: []columns.Column{&columns.Leaf{Key: "l1"}, &columns.Leaf{Key: "l2"}}},
			&columns.Leaf{Key: "middle"},
			&columns.Group{Key: "right", Columns: []columns.Column{
				&columns.Leaf{Key: "r1"},
				&columns.Group{Key: "inner", Columns: []columns.Column{&columns.Leaf{Key: "r2"}, &columns.Leaf{Key: "r3"}}},
			}},
		},
		"group and leaf sharing an identifier": {
			&columns.Leaf{Key: "x", Label: "x"},
			&columns.Group{Key: "x", Label: "x", Columns: []columns.Column{&columns.Leaf{Key: "a"}, &columns.Leaf{Key: "b"}}},
		},
	}

	for name, cols := range shapes {
		t.Run(name, func(t *testing.T) {
			layout, err := Build(cols)
			require.NoError(t, err)

			width := len(columns.Leaves(cols))
			require.Equal(t, width, layout.Width)
			require.Len(t, layout.Rows, columns.Depth(cols))

			grid := make([][]int, len(layout.Rows))
			for i := range grid {
				grid[i] = make([]int, width)
			}

			for i := range layout.Rows {
				for _, cell := range layout.Rendered(i) {
					require.GreaterOrEqual(t, cell.RowSpan, 1)
					require.LessOrEqual(t, i+cell.RowSpan, len(layout.Rows), "cell %s spans past the last row", cell.Header.ID)

					for r := i; r < i+cell.RowSpan; r++ {
						for c := cell.Start; c < cell.Start+cell.ColSpan; c++ {
							grid[r][c]++
						}
					}
				}
			}

			for r, row := range grid {
				for c, count := range row {
					assert.Equal(t, 1, count, "grid cell (%d,%d) covered %d times", r, c, count)
				}
			}
		})
	}
}

func TestReduceSharedIdentifier(t *testing.T) {
	// a title-only group gets its title as identifier, which may also be a leaf name
	leaf := &columns.Leaf{Key: "x"}
	group := &columns.Group{Key: "x", Columns: []columns.Column{&columns.Leaf{Key: "a"}, &columns.Leaf{Key: "b"}}}

	layout, err := Build([]columns.Column{leaf, group})
	require.NoError(t, err)

	top := layout.Rendered(0)
	require.Len(t, top, 2, "expected both the merged leaf and the group header in the top row")
	assert.Same(t, leaf, top[0].Header.Column)
	assert.Equal(t, 2, top[0].RowSpan)
	assert.Same(t, group, top[1].Header.Column)
	assert.Equal(t, 1, top[1].RowSpan)
	assert.Equal(t, 2, top[1].ColSpan)

	require.Len(t, layout.Rendered(1), 2, "expected only the leaves of the group in the bottom row")
}

func irregularColumns() []columns.Column {
	return []columns.Column{
		&columns.Leaf{Key: "id", Label: "ID"},
		&columns.Group{Key: "photometry", Label: "Photometry", Columns: []columns.Column{
			&columns.Group{Key: "gaia", Label: "Gaia", Columns: []columns.Column{
				&columns.Leaf{Key: "mag_g", Label: "G"},
				&columns.Leaf{Key: "mag_bp", Label: "BP"},
			}},
			&columns.Leaf{Key: "mag_r", Label: "R"},
		}},
		&columns.Leaf{Key: "flag", Label: "Flag"},
	}
}

func headerColumns(group Group) []string {
	ids := make([]string, 0, len(group.Headers))
	for _, h := range group.Headers {
		ids = append(ids, h.Column.ID())
	}

	return ids
}

func placeholders(group Group) []bool {
	flags := make([]bool, 0, len(group.Headers))
	for _, h := range group.Headers {
		flags = append(flags, h.IsPlaceholder)
	}

	return flags
}

func colSpans(group Group) []int {
	spans := make([]int, 0, len(group.Headers))
	for _, h := range group.Headers {
		spans = append(spans, h.ColSpan())
	}

	return spans
}
