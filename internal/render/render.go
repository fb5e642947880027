// Package render turns a document tree into Markdown, HTML or DOCX.
package render

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/testdocgen/internal/doctree"
)

// ErrUnknownFormat is returned for output files whose extension has no renderer.
var ErrUnknownFormat = errors.New("unknown output format")

// Format names an output format.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
	FormatDOCX     Format = "docx"
)

// SupportedExtensions maps file extensions to formats.
var SupportedExtensions = map[string]Format{
	".md":       FormatMarkdown,
	".markdown": FormatMarkdown,
	".html":     FormatHTML,
	".htm":      FormatHTML,
	".docx":     FormatDOCX,
}

// FormatFor picks the output format from a filename's extension.
func FormatFor(filename string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	f, ok := SupportedExtensions[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, strings.TrimPrefix(ext, "."))
	}
	return f, nil
}

// Write renders t in format f to w.
func Write(w io.Writer, t *doctree.Tree, f Format) error {
	switch f {
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(t))
		return err
	case FormatHTML:
		page, err := HTML(t)
		if err != nil {
			return err
		}
		_, err = w.Write(page)
		return err
	case FormatDOCX:
		return DOCX(w, t)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}

// Section is one rendered heading with its body.
type Section struct {
	Node    doctree.NodeID
	Level   int    // 0 when the node has no heading
	Heading string // trimmed
	Content string // trimmed
}

// Sections flattens t into document order. Nodes with neither heading nor
// content are left out.
func Sections(t *doctree.Tree) []Section {
	var out []Section
	t.Walk(t.Root(), func(id doctree.NodeID, _ int) bool {
		s := Section{
			Node:    id,
			Heading: strings.TrimSpace(t.Heading(id)),
			Content: strings.TrimSpace(t.Content(id)),
		}
		if s.Heading != "" {
			s.Level = t.Level(id)
		}
		if s.Heading != "" || s.Content != "" {
			out = append(out, s)
		}
		return true
	})
	return out
}
