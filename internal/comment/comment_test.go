package comment

import (
	"errors"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse_SummaryAndDescription(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		ident       string
		summary     string
		description string
	}{
		{
			name:        "first paragraph",
			text:        "Checkout totals\nthe cart\n\nIt applies discounts.\n\nAnd taxes.\n",
			summary:     "Checkout totals the cart",
			description: "It applies discounts.\n\nAnd taxes.",
		},
		{
			name:        "sentence ends summary",
			text:        "Totals the cart.\nDiscounts apply first.\n",
			summary:     "Totals the cart.",
			description: "Discounts apply first.",
		},
		{
			name:    "summary only",
			text:    "Totals the cart\n",
			summary: "Totals the cart",
		},
		{
			name:        "go doc convention",
			text:        "TestCheckout totals the cart.\n\nBody.\n",
			ident:       "TestCheckout",
			summary:     "Totals the cart.",
			description: "Body.",
		},
		{
			name:    "name not leading",
			text:    "Verifies TestCheckout.\n",
			ident:   "TestCheckout",
			summary: "Verifies TestCheckout.",
		},
		{
			name:        "code block keeps indentation",
			text:        "Runs the example.\n\n\tx := 1\n\ty := 2\n",
			summary:     "Runs the example.",
			description: "\tx := 1\n\ty := 2",
		},
		{
			name: "empty",
			text: "",
		},
	}
	for _, tt := range tests {
		c := Parse(tt.text, tt.ident)
		if c.Summary != tt.summary {
			t.Errorf("%s: expected summary %q, got %q", tt.name, tt.summary, c.Summary)
		}
		if c.Description != tt.description {
			t.Errorf("%s: expected description %q, got %q", tt.name, tt.description, c.Description)
		}
	}
}

func TestFromGroup_InternalDirective(t *testing.T) {
	src := `package cart_test

// TestSecret checks plumbing nobody should read about.
//
//testdocgen:internal
func TestSecret(t *testing.T) {}

// TestPublic is documented.
func TestPublic(t *testing.T) {}
`
	f, err := parser.ParseFile(token.NewFileSet(), "cart_test.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	got := map[string]Comment{}
	for _, decl := range f.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok {
			got[fn.Name.Name] = FromGroup(fn.Doc, fn.Name.Name)
		}
	}

	want := map[string]Comment{
		"TestSecret": {Summary: "Checks plumbing nobody should read about.", Internal: true},
		"TestPublic": {Summary: "Is documented."},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("comments mismatch (-want +got):\n%s", diff)
	}
}

func TestFromGroup_Nil(t *testing.T) {
	if c := FromGroup(nil, "TestX"); !c.Empty() {
		t.Errorf("expected empty comment, got %+v", c)
	}
}

func TestComment_Markdown(t *testing.T) {
	tests := []struct {
		c    Comment
		want string
	}{
		{Comment{Summary: "Totals the cart.", Description: "Body."}, "# Totals the cart.\n\nBody."},
		{Comment{Summary: "Totals the cart."}, "# Totals the cart."},
		{Comment{Description: "Body only."}, "Body only."},
	}
	for _, tt := range tests {
		if got := tt.c.Markdown(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}

func TestComment_HTML(t *testing.T) {
	c := Comment{Summary: "Totals the cart.", Description: "Applies *discounts*."}
	out, err := c.HTML()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "<h1>Totals the cart.</h1>") {
		t.Errorf("expected h1 in %q", out)
	}
	if !strings.Contains(out, "<em>discounts</em>") {
		t.Errorf("expected emphasis in %q", out)
	}
}

func TestComment_CodeBlocks(t *testing.T) {
	c := Parse("Shows usage.\n\nIndented:\n\n\tcart.Add(item)\n\nFenced:\n\n```go\nif a < b {\n}\n```\n", "")

	blocks, err := c.CodeBlocks()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"cart.Add(item)\n", "if a < b {\n}\n"}
	if diff := cmp.Diff(want, blocks); diff != "" {
		t.Errorf("code blocks mismatch (-want +got):\n%s", diff)
	}

	second, err := c.Code(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second != want[1] {
		t.Errorf("expected %q, got %q", want[1], second)
	}

	if _, err := c.Code(2); !errors.Is(err, ErrNoCode) {
		t.Errorf("expected ErrNoCode, got %v", err)
	}
	if _, err := (Comment{Summary: "No code."}).Code(0); !errors.Is(err, ErrNoCode) {
		t.Errorf("expected ErrNoCode for comment without code, got %v", err)
	}
}
