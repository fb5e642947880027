// Package merge applies comment fragments to a document tree.
package merge

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/dgallion1/testdocgen/internal/doctree"
	"github.com/dgallion1/testdocgen/internal/images"
)

// ErrUnresolved is returned when a fragment's namespace cannot be turned into a node.
var ErrUnresolved = errors.New("merge: could not determine node")

// Fragment is one heading/description pair destined for a namespace.
type Fragment struct {
	Namespace   string
	Heading     string
	Description string
}

// ImageFinder lists the images that belong to a namespace.
type ImageFinder interface {
	Find(namespace string) iter.Seq[images.Image]
}

// Merger applies fragments to a tree in arrival order.
type Merger struct {
	tree   *doctree.Tree
	images ImageFinder
	log    *slog.Logger
}

// Option configures a Merger.
type Option func(*Merger)

// WithImages attaches image references found by f to every fragment.
func WithImages(f ImageFinder) Option {
	return func(m *Merger) { m.images = f }
}

// WithLogger sets the logger used for debug output.
func WithLogger(log *slog.Logger) Option {
	return func(m *Merger) { m.log = log }
}

// New returns a Merger writing into tree.
func New(tree *doctree.Tree, opts ...Option) *Merger {
	m := &Merger{
		tree: tree,
		log:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Tree returns the tree fragments are merged into.
func (m *Merger) Tree() *doctree.Tree { return m.tree }

// Apply merges f into the tree and returns the node that received it.
//
// The node for f.Namespace is created if needed. When a sibling already
// carries the same heading the fragment goes to that sibling instead. The
// first fragment to reach a headingless node names it, and a description
// already present in the node's content is not appended again. Images are
// only looked up for fragments that carry a description.
func (m *Merger) Apply(f Fragment) (doctree.NodeID, error) {
	id, err := m.tree.Fetch(m.tree.Root(), f.Namespace)
	if err != nil {
		return doctree.NoNode, fmt.Errorf("%w %q: %w", ErrUnresolved, f.Namespace, err)
	}

	target := Target(m.tree, id, f.Heading)
	if target != id {
		m.log.Debug("merged into sibling",
			"namespace", f.Namespace,
			"sibling", m.tree.Namespace(target),
			"heading", f.Heading,
		)
	}

	if m.tree.Heading(target) == "" {
		m.tree.SetHeading(target, f.Heading)
	}

	if f.Description == "" {
		return target, nil
	}
	m.appendOnce(target, strings.TrimSpace(f.Description))

	if m.images != nil {
		for img := range m.images.Find(f.Namespace) {
			m.appendOnce(target, img.Markdown())
		}
	}

	return target, nil
}

// appendOnce adds text unless the node's content already contains it.
func (m *Merger) appendOnce(id doctree.NodeID, text string) {
	if text == "" || strings.Contains(m.tree.Content(id), text) {
		return
	}
	m.tree.AddContent(id, text)
}

// Target decides which node a fragment with the given heading lands on.
// A non-root candidate is redirected to the first sibling (itself included)
// whose heading equals heading; only direct siblings are considered.
func Target(t *doctree.Tree, candidate doctree.NodeID, heading string) doctree.NodeID {
	parent, ok := t.Parent(candidate)
	if !ok || strings.TrimSpace(heading) == "" {
		return candidate
	}
	if sibling, found := t.FindHeading(parent, heading); found {
		return sibling
	}
	return candidate
}
