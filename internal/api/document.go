package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/dgallion1/testdocgen/internal/doctree"
	"github.com/dgallion1/testdocgen/internal/pipeline"
	"github.com/dgallion1/testdocgen/internal/render"
)

var contentTypes = map[render.Format]string{
	render.FormatMarkdown: "text/markdown; charset=utf-8",
	render.FormatHTML:     "text/html; charset=utf-8",
	render.FormatDOCX:     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// Document is a finished tree rendered once in every format. The tree is
// never modified after NewDocument.
type Document struct {
	tree     *doctree.Tree
	stats    pipeline.Stats
	rendered map[render.Format][]byte
}

// NewDocument renders tree in every supported format.
func NewDocument(tree *doctree.Tree, stats pipeline.Stats) (*Document, error) {
	d := &Document{
		tree:     tree,
		stats:    stats.Snapshot(),
		rendered: make(map[render.Format][]byte, len(contentTypes)),
	}
	for f := range contentTypes {
		b, err := renderBytes(tree, f)
		if err != nil {
			return nil, err
		}
		d.rendered[f] = b
	}
	return d, nil
}

// Tree returns the rendered tree.
func (d *Document) Tree() *doctree.Tree { return d.tree }

func renderBytes(tree *doctree.Tree, f render.Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := render.Write(&buf, tree, f); err != nil {
		return nil, fmt.Errorf("render %s: %w", f, err)
	}
	return buf.Bytes(), nil
}

func writeDocument(w http.ResponseWriter, f render.Format, body []byte) {
	w.Header().Set("Content-Type", contentTypes[f])
	if f == render.FormatDOCX {
		w.Header().Set("Content-Disposition", `attachment; filename="tests.docx"`)
	}
	w.Write(body)
}

func (s *Server) handleDocument(f render.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.doc == nil {
			jsonError(w, "no document loaded", http.StatusNotFound)
			return
		}
		writeDocument(w, f, s.doc.rendered[f])
	}
}
