package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dgallion1/testdocgen/internal/pipeline"
	"github.com/dgallion1/testdocgen/internal/render"
	"github.com/go-chi/chi/v5"
)

// handleSubmitRun queues the `go test -json` stream in the request body.
func (s *Server) handleSubmitRun(w http.ResponseWriter, r *http.Request) {
	if s.orchestrator == nil {
		jsonError(w, "run submission is disabled", http.StatusServiceUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("run exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if len(data) == 0 {
		jsonError(w, "request body must hold go test -json output", http.StatusBadRequest)
		return
	}

	title := r.URL.Query().Get("title")
	if title == "" {
		title = s.cfg.Title
	}

	run := pipeline.NewRun(title, data)
	if err := s.orchestrator.Submit(run); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"run_id":   run.ID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/runs/%s/status", run.ID),
	})
}

func (s *Server) run(w http.ResponseWriter, r *http.Request) (*pipeline.Run, bool) {
	if s.orchestrator == nil {
		jsonError(w, "run not found", http.StatusNotFound)
		return nil, false
	}
	run := s.orchestrator.GetRun(chi.URLParam(r, "runID"))
	if run == nil {
		jsonError(w, "run not found", http.StatusNotFound)
		return nil, false
	}
	return run, true
}

func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	run, ok := s.run(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, run.Snapshot())
}

func (s *Server) handleRunDocument(f render.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, ok := s.run(w, r)
		if !ok {
			return
		}
		tree, _ := run.Result()
		if tree == nil {
			jsonError(w, fmt.Sprintf("run is %s", run.Snapshot().Status), http.StatusConflict)
			return
		}
		body, err := renderBytes(tree, f)
		if err != nil {
			s.log.Error("render run", "run_id", run.ID, "error", err)
			jsonError(w, "render failed", http.StatusInternalServerError)
			return
		}
		writeDocument(w, f, body)
	}
}
