package merge

import (
	"errors"
	"iter"
	"strings"
	"testing"

	"github.com/dgallion1/testdocgen/internal/doctree"
	"github.com/dgallion1/testdocgen/internal/images"
)

type stubImages map[string][]images.Image

func (s stubImages) Find(ns string) iter.Seq[images.Image] {
	return func(yield func(images.Image) bool) {
		for _, img := range s[ns] {
			if !yield(img) {
				return
			}
		}
	}
}

func mustApply(t *testing.T, m *Merger, f Fragment) doctree.NodeID {
	t.Helper()
	id, err := m.Apply(f)
	if err != nil {
		t.Fatalf("apply %q: unexpected error: %v", f.Namespace, err)
	}
	return id
}

func TestApply_CreatesNodeAndFillsHeading(t *testing.T) {
	tree := doctree.New("Documentation")
	m := New(tree)

	id := mustApply(t, m, Fragment{Namespace: "Foo.Bar", Heading: "Bar Case", Description: "  Does the bar thing.  "})

	if tree.Namespace(id) != "Foo.Bar" {
		t.Errorf("expected namespace %q, got %q", "Foo.Bar", tree.Namespace(id))
	}
	if tree.Heading(id) != "Bar Case" {
		t.Errorf("expected heading %q, got %q", "Bar Case", tree.Heading(id))
	}
	if tree.Content(id) != "Does the bar thing." {
		t.Errorf("expected trimmed content, got %q", tree.Content(id))
	}
	foo, _ := tree.Parent(id)
	if tree.Heading(foo) != "" {
		t.Errorf("expected intermediate to stay headingless, got %q", tree.Heading(foo))
	}
}

func TestApply_FirstWriterWins(t *testing.T) {
	tree := doctree.New("Documentation")
	m := New(tree)

	// Child first, so Foo starts life as an intermediate.
	mustApply(t, m, Fragment{Namespace: "Foo.Bar", Heading: "Bar Case"})
	foo := mustApply(t, m, Fragment{Namespace: "Foo", Heading: "Foo Suite"})
	mustApply(t, m, Fragment{Namespace: "Foo", Heading: "Renamed"})

	if tree.Heading(foo) != "Foo Suite" {
		t.Errorf("expected %q, got %q", "Foo Suite", tree.Heading(foo))
	}
}

func TestApply_HeadingDedupMergesSiblings(t *testing.T) {
	tree := doctree.New("Documentation")
	m := New(tree)

	first := mustApply(t, m, Fragment{Namespace: `Suite\one`, Heading: "Shared", Description: "first part"})
	second := mustApply(t, m, Fragment{Namespace: `Suite\two`, Heading: "Shared", Description: "second part"})

	if first != second {
		t.Fatalf("expected fragments merged into one node, got %q and %q",
			tree.Namespace(first), tree.Namespace(second))
	}
	if got := tree.Content(first); got != "first part\n\nsecond part" {
		t.Errorf("expected both parts in order, got %q", got)
	}

	// The namespace node for the second fragment still exists, headingless.
	two, err := tree.Find(tree.Root(), `Suite\two`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Heading(two) != "" || tree.Content(two) != "" {
		t.Errorf("expected redirected node to stay empty, got heading %q content %q",
			tree.Heading(two), tree.Content(two))
	}
}

func TestApply_HeadingDedupIgnoresCousins(t *testing.T) {
	tree := doctree.New("Documentation")
	m := New(tree)

	a := mustApply(t, m, Fragment{Namespace: "A.x", Heading: "Shared", Description: "a"})
	b := mustApply(t, m, Fragment{Namespace: "B.x", Heading: "Shared", Description: "b"})
	if a == b {
		t.Error("expected cousins with the same heading to stay separate")
	}
}

func TestApply_BlankHeadingNeverRedirects(t *testing.T) {
	tree := doctree.New("Documentation")
	m := New(tree)

	a := mustApply(t, m, Fragment{Namespace: "P.a", Heading: "  ", Description: "a"})
	b := mustApply(t, m, Fragment{Namespace: "P.b", Heading: "  ", Description: "b"})
	if a == b {
		t.Error("expected blank headings not to merge siblings")
	}
}

func TestApply_ContentDedup(t *testing.T) {
	tree := doctree.New("Documentation")
	m := New(tree)

	f := Fragment{Namespace: "ns", Heading: "Heading", Description: "Same words."}
	id := mustApply(t, m, f)
	mustApply(t, m, f)

	if got := strings.Count(tree.Content(id), "Same words."); got != 1 {
		t.Errorf("expected description once, found %d times in %q", got, tree.Content(id))
	}

	// Substring of existing content is also dropped.
	mustApply(t, m, Fragment{Namespace: "ns", Heading: "Heading", Description: "words"})
	if tree.Content(id) != "Same words." {
		t.Errorf("expected substring to be skipped, got %q", tree.Content(id))
	}
}

func TestApply_EmptyDescriptionStops(t *testing.T) {
	tree := doctree.New("Documentation")
	imgs := stubImages{"ns": {{Name: "shot", Path: "img/shot.png"}}}
	m := New(tree, WithImages(imgs))

	id := mustApply(t, m, Fragment{Namespace: "ns", Heading: "Heading"})
	if tree.Content(id) != "" {
		t.Errorf("expected no content, got %q", tree.Content(id))
	}
}

func TestApply_Images(t *testing.T) {
	tree := doctree.New("Documentation")
	imgs := stubImages{"ns": {
		{Name: "one", Path: "img/one.png"},
		{Name: "two", Path: "img/two.png"},
	}}
	m := New(tree, WithImages(imgs))

	f := Fragment{Namespace: "ns", Heading: "Heading", Description: "Body."}
	id := mustApply(t, m, f)
	mustApply(t, m, f)

	want := "Body.\n\n![one](img/one.png)\n\n![two](img/two.png)"
	if got := tree.Content(id); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestApply_Unresolved(t *testing.T) {
	tree := doctree.New("Documentation")
	m := New(tree)

	mustApply(t, m, Fragment{Namespace: "ok", Heading: "OK", Description: "kept"})
	before := tree.Len()

	_, err := m.Apply(Fragment{Namespace: `\\`, Heading: "Broken", Description: "lost"})
	if !errors.Is(err, ErrUnresolved) {
		t.Fatalf("expected ErrUnresolved, got %v", err)
	}
	if !errors.Is(err, doctree.ErrEmptyNamespace) {
		t.Errorf("expected wrapped ErrEmptyNamespace, got %v", err)
	}
	if tree.Len() != before {
		t.Errorf("expected tree untouched, grew from %d to %d", before, tree.Len())
	}
}

func TestTarget(t *testing.T) {
	tree := doctree.New("Documentation")
	shared, _ := tree.CreateChild(tree.Root(), "A", "Shared")
	other, _ := tree.CreateChild(tree.Root(), "B", "")

	tests := []struct {
		name      string
		candidate doctree.NodeID
		heading   string
		want      doctree.NodeID
	}{
		{"redirect to sibling", other, "Shared", shared},
		{"no match", other, "Unique", other},
		{"blank heading", other, " ", other},
		{"root never redirects", tree.Root(), "Shared", tree.Root()},
		{"self match", shared, "Shared", shared},
	}
	for _, tt := range tests {
		if got := Target(tree, tt.candidate, tt.heading); got != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.name, tt.want, got)
		}
	}
}
