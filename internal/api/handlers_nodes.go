package api

import (
	"net/http"

	"github.com/dgallion1/testdocgen/internal/doctree"
)

type nodeView struct {
	Namespace string   `json:"namespace"`
	Heading   string   `json:"heading"`
	Level     int      `json:"level"`
	Content   string   `json:"content"`
	Children  []string `json:"children"`
}

func viewOf(t *doctree.Tree, id doctree.NodeID) nodeView {
	children := t.Children(id)
	v := nodeView{
		Namespace: t.Namespace(id),
		Heading:   t.Heading(id),
		Level:     t.Level(id),
		Content:   t.Content(id),
		Children:  make([]string, 0, len(children)),
	}
	for _, c := range children {
		v.Children = append(v.Children, t.Namespace(c))
	}
	return v
}

// tree returns the startup document's tree, writing a 404 when there is none.
func (s *Server) tree(w http.ResponseWriter) (*doctree.Tree, bool) {
	if s.doc == nil {
		jsonError(w, "no document loaded", http.StatusNotFound)
		return nil, false
	}
	return s.doc.Tree(), true
}

// handleNode returns the node whose namespace is exactly ns.
func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	t, ok := s.tree(w)
	if !ok {
		return
	}
	id, err := t.Find(t.Root(), r.URL.Query().Get("ns"))
	if err != nil {
		jsonError(w, "namespace not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(t, id))
}

// handleNearest returns the deepest existing node along ns.
func (s *Server) handleNearest(w http.ResponseWriter, r *http.Request) {
	t, ok := s.tree(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(t, t.FindNearest(t.Root(), r.URL.Query().Get("ns"))))
}

// handlePrefix lists every node at or below ns.
func (s *Server) handlePrefix(w http.ResponseWriter, r *http.Request) {
	t, ok := s.tree(w)
	if !ok {
		return
	}
	ids := t.Prefix(r.URL.Query().Get("ns"))
	nodes := make([]nodeView, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, viewOf(t, id))
	}
	writeJSON(w, http.StatusOK, map[string]any{"nodes": nodes})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{}
	if s.doc != nil {
		out["document"] = s.doc.stats
	}
	if s.orchestrator != nil {
		out["queue_depth"] = s.orchestrator.QueueDepth()
		out["builds"] = s.orchestrator.BuildLatency()
	}
	writeJSON(w, http.StatusOK, out)
}
