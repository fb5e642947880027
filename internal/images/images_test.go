package images

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("img"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestFinder_DirectoryAndSibling(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "img", "cart", "Checkout", "b.png"))
	touch(t, filepath.Join(dir, "img", "cart", "Checkout", "a.jpg"))
	touch(t, filepath.Join(dir, "img", "cart", "Checkout", "notes.txt"))
	touch(t, filepath.Join(dir, "img", "cart", "Checkout.svg"))

	f := &Finder{Dir: filepath.Join(dir, "img"), RelativeTo: dir}
	got := slices.Collect(f.Find(`cart\Checkout`))

	want := []Image{
		{Name: "a", Path: "img/cart/Checkout/a.jpg"},
		{Name: "b", Path: "img/cart/Checkout/b.png"},
		{Name: "Checkout", Path: "img/cart/Checkout.svg"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("images mismatch (-want +got):\n%s", diff)
	}
}

func TestFinder_BaseURL(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "img", "cart", "Checkout.png"))

	f := &Finder{Dir: filepath.Join(dir, "img"), RelativeTo: "elsewhere", BaseURL: "/images"}
	got := slices.Collect(f.Find(`cart\Checkout`))

	want := []Image{{Name: "Checkout", Path: "/images/cart/Checkout.png"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("images mismatch (-want +got):\n%s", diff)
	}
}

func TestFinder_Restartable(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "A", "B", "one.png"))

	f := &Finder{Dir: dir}
	seq := f.Find("A.B")
	if n := len(slices.Collect(seq)); n != 1 {
		t.Fatalf("expected 1 image, got %d", n)
	}

	// Files added later show up on the next range.
	touch(t, filepath.Join(dir, "A", "B", "two.png"))
	if n := len(slices.Collect(seq)); n != 2 {
		t.Errorf("expected 2 images on second range, got %d", n)
	}
}

func TestFinder_EarlyStop(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "A", "one.png"))
	touch(t, filepath.Join(dir, "A", "two.png"))

	f := &Finder{Dir: dir}
	count := 0
	for range f.Find("A") {
		count++
		break
	}
	if count != 1 {
		t.Errorf("expected to stop after 1 image, got %d", count)
	}
}

func TestFinder_NoDirectory(t *testing.T) {
	f := &Finder{}
	if n := len(slices.Collect(f.Find("A"))); n != 0 {
		t.Errorf("expected no images without a directory, got %d", n)
	}

	f = &Finder{Dir: t.TempDir()}
	if n := len(slices.Collect(f.Find("Missing.Path"))); n != 0 {
		t.Errorf("expected no images for missing path, got %d", n)
	}
	if n := len(slices.Collect(f.Find(""))); n != 0 {
		t.Errorf("expected no images for empty namespace, got %d", n)
	}
}

func TestImage_Markdown(t *testing.T) {
	img := Image{Name: "flow", Path: "img/flow.png"}
	if got := img.Markdown(); got != "![flow](img/flow.png)" {
		t.Errorf("expected %q, got %q", "![flow](img/flow.png)", got)
	}
}
