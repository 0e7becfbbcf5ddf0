package columns

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/fredbi/flathubviz/internal/pkg/fields"
	"github.com/fredbi/flathubviz/internal/pkg/flathub"
)

// ErrMissingIdentifier is returned when a column can't be given an identifier.
var ErrMissingIdentifier = errors.New("column has no identifier")

// Builder derives column trees from a field tree.
//
// A [Builder] holds no state across calls: the same inputs always yield the same columns.
type Builder struct {
	l *slog.Logger
}

// New column [Builder].
func New() *Builder {
	return &Builder{
		l: slog.Default().With(slog.String("module", "columns")),
	}
}

// Build the column tree for the requested leaf fields.
//
// An empty request yields an empty list of columns. The sample row is only checked for
// requested fields missing from the data.
//
// Columns follow the declaration order of the field tree. The synthetic root is never
// returned as a column: the result is the list of top-level columns. Requested names
// that match no leaf of the tree are ignored.
func (b *Builder) Build(tree *fields.Tree, requested []string, sample flathub.Row) ([]Column, error) {
	if tree == nil {
		return nil, fmt.Errorf("%w: nil field tree", fields.ErrInvalidTree)
	}

	want := b.requestedSet(tree, requested, sample)
	if len(want) == 0 {
		return []Column{}, nil
	}

	root := tree.Root()
	if root.IsLeaf() {
		// a catalog without fields
		return []Column{}, nil
	}

	col, err := b.build(root, want)
	if err != nil {
		return nil, err
	}

	group, ok := col.(*Group)
	if !ok {
		// no requested field matched
		return []Column{}, nil
	}

	return group.Columns, nil
}

func (b *Builder) build(node *fields.Node, want map[string]struct{}) (Column, error) {
	if node.IsLeaf() {
		if _, ok := want[node.Name()]; !ok {
			return nil, nil
		}

		return b.leaf(node)
	}

	var children []Column
	for _, child := range node.Children() {
		col, err := b.build(child, want)
		if err != nil {
			return nil, err
		}

		if col != nil {
			children = append(children, col)
		}
	}

	if len(children) == 0 {
		// no requested leaf below this group
		return nil, nil
	}

	id, err := columnID(node)
	if err != nil {
		return nil, err
	}

	return &Group{
		Key:     id,
		Label:   node.Title(),
		Columns: children,
	}, nil
}

func (b *Builder) leaf(node *fields.Node) (*Leaf, error) {
	id, err := columnID(node)
	if err != nil {
		return nil, err
	}

	kind, ok := node.Type()
	if !ok {
		b.l.Warn("could not determine field type: values displayed as is",
			slog.String("field", id),
			slog.String("path", fields.PathOf(node)),
		)
	}

	field := node.Field()

	return &Leaf{
		Key:   id,
		Label: node.Title(),
		Units: field.Units,
		Type:  kind,
		Enum:  slices.Clone(field.Enum),
	}, nil
}

func (b *Builder) requestedSet(tree *fields.Tree, requested []string, sample flathub.Row) map[string]struct{} {
	if len(requested) == 0 {
		return nil
	}

	leaves := make(map[string]struct{})
	for _, n := range tree.Leaves() {
		leaves[n.Name()] = struct{}{}
	}

	want := make(map[string]struct{}, len(requested))
	for _, name := range requested {
		if name == "" {
			continue
		}

		if _, ok := leaves[name]; !ok {
			b.l.Warn("requested field is not a leaf of the catalog: ignored", slog.String("field", name))

			continue
		}

		if _, ok := sample[name]; sample != nil && !ok {
			b.l.Debug("requested field is absent from the data", slog.String("field", name))
		}

		want[name] = struct{}{}
	}

	return want
}

func columnID(node *fields.Node) (string, error) {
	if node.IsRoot() {
		return RootID, nil
	}

	if name := node.Name(); name != "" {
		return name, nil
	}

	if title := node.Field().Title; title != "" {
		return title, nil
	}

	return "", fmt.Errorf("%w: %s", ErrMissingIdentifier, fields.PathOf(node))
}
