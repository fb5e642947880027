// Package images finds auxiliary image files that belong to a namespace.
package images

import (
	"iter"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Extensions lists the file extensions treated as images.
var Extensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".svg":  true,
	".webp": true,
}

// Image is one file to embed in the document.
type Image struct {
	Name string // base name without extension
	Path string // slash-separated, relative to Finder.RelativeTo or under Finder.BaseURL
}

// Markdown returns the image reference as Markdown.
func (i Image) Markdown() string {
	return "![" + i.Name + "](" + i.Path + ")"
}

// Finder maps namespaces onto an image directory. The namespace `cart\Checkout`
// matches every image inside Dir/cart/Checkout/ and the file Dir/cart/Checkout.png
// (or any other image extension).
type Finder struct {
	Dir        string
	RelativeTo string // directory the rendered document lives in
	BaseURL    string // when set, paths are BaseURL plus the path inside Dir
	Separators string // namespace separators; defaults to `\.`
}

// Find returns the images for namespace. Nothing is read until the sequence
// is ranged over, and each range reads the directory afresh.
func (f *Finder) Find(namespace string) iter.Seq[Image] {
	return func(yield func(Image) bool) {
		if f.Dir == "" {
			return
		}
		base := f.pathFor(namespace)
		if base == "" {
			return
		}
		for _, p := range f.candidates(base) {
			if !yield(f.image(p)) {
				return
			}
		}
	}
}

func (f *Finder) pathFor(namespace string) string {
	seps := f.Separators
	if seps == "" {
		seps = `\.`
	}
	parts := strings.FieldsFunc(namespace, func(r rune) bool {
		return strings.ContainsRune(seps, r)
	})
	if len(parts) == 0 {
		return ""
	}
	return filepath.Join(append([]string{f.Dir}, parts...)...)
}

// candidates returns the sorted images in the namespace directory followed by
// the sibling files named after the namespace.
func (f *Finder) candidates(base string) []string {
	var out []string

	if entries, err := os.ReadDir(base); err == nil {
		for _, e := range entries {
			if e.IsDir() || !isImage(e.Name()) {
				continue
			}
			out = append(out, filepath.Join(base, e.Name()))
		}
	}

	var siblings []string
	for ext := range Extensions {
		p := base + ext
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			siblings = append(siblings, p)
		}
	}
	sort.Strings(siblings)

	return append(out, siblings...)
}

func (f *Finder) image(file string) Image {
	name := filepath.Base(file)
	img := Image{Name: strings.TrimSuffix(name, filepath.Ext(name))}

	if f.BaseURL != "" {
		if r, err := filepath.Rel(f.Dir, file); err == nil {
			img.Path = path.Join(f.BaseURL, filepath.ToSlash(r))
			return img
		}
	}

	rel := file
	if f.RelativeTo != "" {
		if r, err := filepath.Rel(f.RelativeTo, file); err == nil {
			rel = r
		}
	}
	img.Path = filepath.ToSlash(rel)
	return img
}

func isImage(name string) bool {
	return Extensions[strings.ToLower(filepath.Ext(name))]
}
