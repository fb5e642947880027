package doctree

import "strings"

// Normalize trims leading and trailing separators from ns.
func (t *Tree) Normalize(ns string) string {
	return strings.Trim(ns, t.separators)
}

// prefixes returns the cumulative prefixes of ns, one per non-empty segment.
// Prefixes are substrings of the normalised input so mixed separators survive:
// `pkg\Cart.Checkout` yields `pkg`, `pkg\Cart`, `pkg\Cart.Checkout`.
func (t *Tree) prefixes(ns string) []string {
	ns = t.Normalize(ns)
	if ns == "" {
		return nil
	}

	var out []string
	start := 0
	for i := 0; i < len(ns); i++ {
		if !strings.ContainsRune(t.separators, rune(ns[i])) {
			continue
		}
		if i > start {
			out = append(out, ns[:i])
		}
		start = i + 1
	}
	return append(out, ns)
}

// FindNearest walks ns segment by segment starting at from. It descends
// whenever the current node has a child keyed by the accumulated prefix and
// otherwise stays put, treating the rest as nested content of the current
// node. The deepest node reached is returned.
func (t *Tree) FindNearest(from NodeID, ns string) NodeID {
	current := from
	for _, prefix := range t.prefixes(ns) {
		if child, ok := t.Child(current, prefix); ok {
			current = child
		}
	}
	return current
}

// Find returns the node whose namespace is exactly ns, reached from from.
func (t *Tree) Find(from NodeID, ns string) (NodeID, error) {
	id := t.FindNearest(from, ns)
	if t.Namespace(id) != t.Normalize(ns) {
		return NoNode, ErrNotFound
	}
	return id, nil
}

// Fetch returns the node for ns, creating it and any missing ancestors below
// from. Calling it again with the same namespace returns the same handle.
//
// A prefix that already names a node elsewhere in the tree is stepped over
// rather than duplicated, so namespaces stay unique.
func (t *Tree) Fetch(from NodeID, ns string) (NodeID, error) {
	prefixes := t.prefixes(ns)
	if len(prefixes) == 0 {
		return NoNode, ErrEmptyNamespace
	}
	if id, ok := t.byNS[prefixes[len(prefixes)-1]]; ok {
		return id, nil
	}

	current := from
	for _, prefix := range prefixes {
		if child, ok := t.Child(current, prefix); ok {
			current = child
			continue
		}
		if _, elsewhere := t.byNS[prefix]; elsewhere {
			continue
		}
		child, err := t.CreateChild(current, prefix, "")
		if err != nil {
			return NoNode, err
		}
		current = child
	}
	return current, nil
}

// Lookup returns the node with namespace ns anywhere in the tree.
func (t *Tree) Lookup(ns string) (NodeID, bool) {
	id, ok := t.byNS[t.Normalize(ns)]
	return id, ok
}

// Prefix returns every node whose namespace equals ns or lies below it,
// in document order.
func (t *Tree) Prefix(ns string) []NodeID {
	ns = t.Normalize(ns)
	var out []NodeID
	t.Walk(t.Root(), func(id NodeID, _ int) bool {
		if id == t.Root() {
			return true
		}
		if t.underPrefix(t.Namespace(id), ns) {
			out = append(out, id)
		}
		return true
	})
	return out
}

func (t *Tree) underPrefix(candidate, prefix string) bool {
	if prefix == "" || candidate == prefix {
		return true
	}
	if !strings.HasPrefix(candidate, prefix) {
		return false
	}
	return strings.ContainsRune(t.separators, rune(candidate[len(prefix)]))
}
