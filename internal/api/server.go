// Package api serves generated test documentation over HTTP.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dgallion1/testdocgen/internal/config"
	"github.com/dgallion1/testdocgen/internal/pipeline"
	"github.com/dgallion1/testdocgen/internal/render"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ImagesPath is the URL prefix the images directory is served under.
const ImagesPath = "/images"

// Server is the HTTP preview server for testdocgen.
type Server struct {
	router       chi.Router
	doc          *Document
	orchestrator *pipeline.Orchestrator
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. doc is the document
// built at startup and may be nil; orch accepts further runs and may be nil.
func NewServer(doc *Document, orch *pipeline.Orchestrator, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		doc:          doc,
		orchestrator: orch,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints, when a key is configured.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		for _, f := range []render.Format{render.FormatMarkdown, render.FormatHTML, render.FormatDOCX} {
			r.Get("/doc."+string(f), s.handleDocument(f))
			r.Get("/api/runs/{runID}/doc."+string(f), s.handleRunDocument(f))
		}
		if s.cfg.ImagesDir != "" {
			fs := http.StripPrefix(ImagesPath+"/", http.FileServer(http.Dir(s.cfg.ImagesDir)))
			r.Handle(ImagesPath+"/*", fs)
		}
		r.Get("/api/nodes", s.handleNode)
		r.Get("/api/nodes/nearest", s.handleNearest)
		r.Get("/api/nodes/prefix", s.handlePrefix)
		r.Get("/api/stats", s.handleStats)

		r.Post("/api/runs", s.handleSubmitRun)
		r.Get("/api/runs/{runID}/status", s.handleRunStatus)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
