package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/testdocgen/internal/render"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func shopModule(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "go.mod"), "module example.com/shop\n\ngo 1.25\n")
	writeFile(t, filepath.Join(root, "cart", "cart_test.go"), `// Package cart keeps the items a customer is about to buy.
package cart

import "testing"

// TestCheckout totals the cart.
//
// Discounts apply before taxes.
func TestCheckout(t *testing.T) {}

// TestSecret checks plumbing.
//
//testdocgen:internal
func TestSecret(t *testing.T) {}
`)
	return root
}

func TestBuild(t *testing.T) {
	root := shopModule(t)
	writeFile(t, filepath.Join(root, "docs", "img", "shop", "cart", "Checkout.png"), "png")

	tree, stats, err := Build(context.Background(), strings.NewReader(cartRun), Options{
		SourceDir: root,
		ImagesDir: filepath.Join(root, "docs", "img"),
		OutputDir: filepath.Join(root, "docs"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "# Documentation\n\n" +
		"## Keeps the items a customer is about to buy.\n\n" +
		"### Totals the cart.\n\n" +
		"Discounts apply before taxes.\n\n" +
		"![Checkout](img/shop/cart/Checkout.png)\n"
	if got := render.Markdown(tree); got != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, got)
	}
	if stats.Applied != 1 || stats.Internal != 1 || stats.Undocumented != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestBuild_ImageURL(t *testing.T) {
	root := shopModule(t)
	writeFile(t, filepath.Join(root, "img", "shop", "cart", "Checkout.png"), "png")

	tree, _, err := Build(context.Background(), strings.NewReader(cartRun), Options{
		SourceDir: root,
		ImagesDir: filepath.Join(root, "img"),
		ImageURL:  "/images",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "![Checkout](/images/shop/cart/Checkout.png)"; !strings.Contains(render.Markdown(tree), want) {
		t.Errorf("expected %q in:\n%s", want, render.Markdown(tree))
	}
}

func TestBuild_Title(t *testing.T) {
	tree, _, err := Build(context.Background(), strings.NewReader(""), Options{
		Title:     "Shop",
		SourceDir: shopModule(t),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title() != "Shop" {
		t.Errorf("expected title %q, got %q", "Shop", tree.Title())
	}
}

func TestBuild_NoModule(t *testing.T) {
	if _, _, err := Build(context.Background(), strings.NewReader(cartRun), Options{SourceDir: t.TempDir()}); err == nil {
		t.Error("expected error for directory without go.mod")
	}
}
