// Package fields builds an immutable tree from the hierarchical field metadata of a catalog.
//
// The tree is wrapped under a synthetic root node, which carries no attribute but its children.
// Every node knows its depth (root = 0) and height (leaf = 0).
package fields

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/fredbi/flathubviz/internal/pkg/flathub"
	"github.com/zeebo/xxh3"
)

var (
	// ErrInvalidTree is returned when the field metadata does not describe a tree.
	ErrInvalidTree = errors.New("invalid field tree")

	// ErrMissingIdentifier is returned when a field has neither a name nor a title.
	ErrMissingIdentifier = errors.New("field has neither name nor title")
)

// RootSegment is the path segment of the synthetic root node.
const RootSegment = "ROOT"

// Node is a node of a [Tree]. Nodes are immutable once the tree is built.
type Node struct {
	field    flathub.Field
	depth    int
	height   int
	hash     uint64
	parent   *Node
	children []*Node
}

// Field returns the metadata of this node. The child list is not part of the returned value.
func (n *Node) Field() flathub.Field {
	return n.field
}

// Name is the unique identifier of the field within the catalog. It is empty for the root.
func (n *Node) Name() string {
	return n.field.Name
}

// Title is the display label of the field, falling back to its name.
func (n *Node) Title() string {
	if n.field.Title != "" {
		return n.field.Title
	}

	return n.field.Name
}

// Depth of the node in the tree. The root has depth 0.
func (n *Node) Depth() int { return n.depth }

// Height of the node in the tree. Leaves have height 0.
func (n *Node) Height() int { return n.height }

// Hash is a cheap content hash of the node's own attributes.
//
// It allows to detect unchanged nodes across metadata fetches. It is not a cryptographic hash.
func (n *Node) Hash() uint64 { return n.hash }

// Parent node, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Children in declaration order.
func (n *Node) Children() []*Node { return slices.Clone(n.children) }

// IsRoot reports whether this node is the synthetic root.
func (n *Node) IsRoot() bool { return n.depth == 0 }

// IsLeaf reports whether this node has no children.
func (n *Node) IsLeaf() bool { return n.height == 0 }

// Descriptor returns the [StorageDescriptor] of the field.
func (n *Node) Descriptor() StorageDescriptor {
	return Descriptor(n.field)
}

// Type classifies the field. See [StorageDescriptor.Classify].
func (n *Node) Type() (FieldType, bool) {
	return n.Descriptor().Classify()
}

// Ancestors returns the chain of nodes from this node up to the root, both included.
func (n *Node) Ancestors() []*Node {
	ancestors := make([]*Node, 0, n.depth+1)
	for current := n; current != nil; current = current.parent {
		ancestors = append(ancestors, current)
	}

	return ancestors
}

// Leaves returns the leaf descendants of this node in depth-first order.
// A leaf returns itself.
func (n *Node) Leaves() []*Node {
	if n.IsLeaf() {
		return []*Node{n}
	}

	var leaves []*Node
	for _, child := range n.children {
		leaves = append(leaves, child.Leaves()...)
	}

	return leaves
}

// Titles returns the non-empty titles from the root down to this node.
func (n *Node) Titles() []string {
	ancestors := n.Ancestors()
	titles := make([]string, 0, len(ancestors))

	for _, node := range slices.Backward(ancestors) {
		if node.field.Title != "" {
			titles = append(titles, node.field.Title)
		}
	}

	return titles
}

// PathOf returns the slash-joined path of names from the root down to the node.
//
// The root is rendered as [RootSegment]. A node without a name is rendered with its title.
func PathOf(n *Node) string {
	ancestors := n.Ancestors()
	segments := make([]string, 0, len(ancestors))

	for _, node := range slices.Backward(ancestors) {
		if node.IsRoot() {
			segments = append(segments, RootSegment)

			continue
		}

		segments = append(segments, node.Title())
		if name := node.Name(); name != "" {
			segments[len(segments)-1] = name
		}
	}

	return strings.Join(segments, "/")
}

// Tree is the field hierarchy of a catalog.
type Tree struct {
	root       *Node
	depthFirst []*Node
	index      map[string]*Node
}

// New builds a [Tree] from a catalog response.
func New(catalog *flathub.Catalog) (*Tree, error) {
	if catalog == nil {
		return nil, fmt.Errorf("%w: nil catalog", ErrInvalidTree)
	}

	return Build(catalog.Fields)
}

// Build a [Tree] from a list of top-level fields.
//
// Fields are wrapped under a synthetic root. Construction fails if a field is listed
// as its own descendant, or if a field has neither a name nor a title.
func Build(list []*flathub.Field) (*Tree, error) {
	t := &Tree{
		index: make(map[string]*Node),
	}

	root := &flathub.Field{Sub: list}
	onPath := make(map[*flathub.Field]struct{})

	node, err := t.build(root, nil, 0, onPath)
	if err != nil {
		return nil, err
	}
	t.root = node

	// pre-order listing, root excluded
	t.walk(t.root, func(n *Node) {
		if n.IsRoot() {
			return
		}

		t.depthFirst = append(t.depthFirst, n)
		if name := n.Name(); name != "" {
			if _, seen := t.index[name]; !seen {
				t.index[name] = n
			}
		}
	})

	return t, nil
}

func (t *Tree) build(field *flathub.Field, parent *Node, depth int, onPath map[*flathub.Field]struct{}) (*Node, error) {
	if field == nil {
		return nil, fmt.Errorf("%w: nil field under %q", ErrInvalidTree, pathOrRoot(parent))
	}

	if _, cycle := onPath[field]; cycle {
		return nil, fmt.Errorf("%w: field %q is listed as its own descendant", ErrInvalidTree, field.Name)
	}

	if depth > 0 && field.Name == "" && field.Title == "" {
		return nil, fmt.Errorf("%w: under %q", ErrMissingIdentifier, pathOrRoot(parent))
	}

	onPath[field] = struct{}{}
	defer delete(onPath, field)

	node := &Node{
		field:  *field,
		depth:  depth,
		parent: parent,
	}
	node.field.Sub = nil

	hash, err := hashOf(node.field)
	if err != nil {
		return nil, err
	}
	node.hash = hash

	if len(field.Sub) > 0 {
		node.children = make([]*Node, 0, len(field.Sub))
	}

	for _, sub := range field.Sub {
		child, err := t.build(sub, node, depth+1, onPath)
		if err != nil {
			return nil, err
		}

		node.children = append(node.children, child)
		node.height = max(node.height, child.height+1)
	}

	return node, nil
}

func (t *Tree) walk(n *Node, fn func(*Node)) {
	fn(n)
	for _, child := range n.children {
		t.walk(child, fn)
	}
}

// Root returns the synthetic root node.
func (t *Tree) Root() *Node {
	return t.root
}

// DepthFirst returns all nodes but the root, in pre-order.
func (t *Tree) DepthFirst() []*Node {
	return slices.Clone(t.depthFirst)
}

// Find a node by field name.
//
// If several nodes share the same name, the first one in pre-order is returned.
func (t *Tree) Find(name string) (*Node, bool) {
	n, ok := t.index[name]

	return n, ok
}

// Leaves returns all leaf fields in pre-order.
func (t *Tree) Leaves() []*Node {
	if t.root.IsLeaf() {
		return nil
	}

	return t.root.Leaves()
}

func hashOf(field flathub.Field) (uint64, error) {
	content, err := json.Marshal(field)
	if err != nil {
		return 0, fmt.Errorf("hashing field %q: %w", field.Name, err)
	}

	return xxh3.Hash(content), nil
}

func pathOrRoot(n *Node) string {
	if n == nil {
		return RootSegment
	}

	return PathOf(n)
}
