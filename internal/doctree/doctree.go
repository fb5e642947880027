// Package doctree holds the document tree that test fragments are merged into.
//
// Nodes live in an arena owned by the Tree and are addressed by NodeID handles.
// Every node is keyed by a namespace such as `cart\Checkout` or `cart.Checkout`;
// the tree maps namespaces to nodes and creates missing ancestors on demand.
package doctree

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when no node carries the requested namespace.
	ErrNotFound = errors.New("doctree: node not found")
	// ErrDuplicateNamespace is returned when a namespace is already in the tree.
	ErrDuplicateNamespace = errors.New("doctree: duplicate namespace")
	// ErrEmptyNamespace is returned when a namespace has no segments.
	ErrEmptyNamespace = errors.New("doctree: empty namespace")
)

// DefaultSeparators are the characters that split a namespace into segments.
const DefaultSeparators = `\.`

// NodeID is a handle to a node inside a Tree. It is only meaningful for the
// tree that issued it.
type NodeID int

// NoNode is the zero handle returned alongside a failed lookup.
const NoNode NodeID = -1

type node struct {
	namespace string
	heading   string
	content   string
	parent    NodeID
	children  []NodeID          // insertion order
	index     map[string]NodeID // full child namespace -> child
}

// Tree is an ownership tree of document nodes.
// It is not safe for concurrent mutation.
type Tree struct {
	nodes      []node
	byNS       map[string]NodeID
	separators string
}

// Option configures a Tree.
type Option func(*Tree)

// WithSeparators sets the namespace separator characters.
func WithSeparators(chars string) Option {
	return func(t *Tree) {
		if chars != "" {
			t.separators = chars
		}
	}
}

// New creates a tree whose root carries title as its heading.
func New(title string, opts ...Option) *Tree {
	t := &Tree{
		byNS:       make(map[string]NodeID),
		separators: DefaultSeparators,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.nodes = append(t.nodes, node{heading: title, parent: NoNode})
	return t
}

// Root returns the handle of the document root.
func (t *Tree) Root() NodeID { return 0 }

// Title returns the root heading.
func (t *Tree) Title() string { return t.nodes[0].heading }

// Len returns the number of nodes, root included.
func (t *Tree) Len() int { return len(t.nodes) }

// Separators returns the namespace separator characters in use.
func (t *Tree) Separators() string { return t.separators }

func (t *Tree) at(id NodeID) *node {
	if id < 0 || int(id) >= len(t.nodes) {
		panic(fmt.Sprintf("doctree: invalid node handle %d", id))
	}
	return &t.nodes[id]
}

// Namespace returns the key of a node. The root's namespace is empty.
func (t *Tree) Namespace(id NodeID) string { return t.at(id).namespace }

// Heading returns the node heading, empty for intermediates.
func (t *Tree) Heading(id NodeID) string { return t.at(id).heading }

// SetHeading replaces the node heading.
func (t *Tree) SetHeading(id NodeID, heading string) { t.at(id).heading = heading }

// Content returns the accumulated body text of a node.
func (t *Tree) Content(id NodeID) string { return t.at(id).content }

// Parent returns the parent handle; ok is false for the root.
func (t *Tree) Parent(id NodeID) (NodeID, bool) {
	p := t.at(id).parent
	return p, p != NoNode
}

// Children returns a copy of the node's children in insertion order.
func (t *Tree) Children(id NodeID) []NodeID {
	n := t.at(id)
	out := make([]NodeID, len(n.children))
	copy(out, n.children)
	return out
}

// Child returns the direct child keyed by the full namespace ns.
func (t *Tree) Child(parent NodeID, ns string) (NodeID, bool) {
	id, ok := t.at(parent).index[ns]
	if !ok {
		return NoNode, false
	}
	return id, true
}

// CreateChild appends a new node under parent. The namespace must not exist
// anywhere in the tree; the check happens before the tree is touched.
func (t *Tree) CreateChild(parent NodeID, ns, heading string) (NodeID, error) {
	p := t.at(parent)
	if ns == "" {
		return NoNode, ErrEmptyNamespace
	}
	if _, ok := t.byNS[ns]; ok {
		return NoNode, fmt.Errorf("%w: %q", ErrDuplicateNamespace, ns)
	}

	id := NodeID(len(t.nodes))
	if p.index == nil {
		p.index = make(map[string]NodeID)
	}
	p.index[ns] = id
	p.children = append(p.children, id)
	t.byNS[ns] = id
	// p may be invalidated by the append below.
	t.nodes = append(t.nodes, node{namespace: ns, heading: heading, parent: parent})
	return id, nil
}

// AddContent appends text to the node body, separated by a blank line.
// Repeated calls keep appending.
func (t *Tree) AddContent(id NodeID, text string) {
	n := t.at(id)
	if n.content == "" {
		n.content = text
		return
	}
	n.content += "\n\n" + text
}

// FindHeading returns the first direct child of parent whose heading equals text.
func (t *Tree) FindHeading(parent NodeID, text string) (NodeID, bool) {
	for _, c := range t.at(parent).children {
		if t.nodes[c].heading == text {
			return c, true
		}
	}
	return NoNode, false
}

// Level is the heading depth of a node. The root is level 1 and only nodes
// with a heading add a level below their parent.
func (t *Tree) Level(id NodeID) int {
	n := t.at(id)
	if n.parent == NoNode {
		return 1
	}
	level := t.Level(n.parent)
	if strings.TrimSpace(n.heading) != "" {
		level++
	}
	return level
}

// RootOf walks parent links up to the top of the tree.
func (t *Tree) RootOf(id NodeID) NodeID {
	for {
		p := t.at(id).parent
		if p == NoNode {
			return id
		}
		id = p
	}
}

// Walk visits from and all of its descendants depth-first, pre-order, in
// child insertion order. Returning false from fn skips the node's children.
func (t *Tree) Walk(from NodeID, fn func(id NodeID, depth int) bool) {
	t.walk(from, 0, fn)
}

func (t *Tree) walk(id NodeID, depth int, fn func(NodeID, int) bool) {
	if !fn(id, depth) {
		return
	}
	for _, c := range t.at(id).children {
		t.walk(c, depth+1, fn)
	}
}
