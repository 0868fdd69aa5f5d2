package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/dgallion1/exampress/internal/layout"
	"github.com/dgallion1/exampress/internal/pipeline"
	"github.com/go-chi/chi/v5/middleware"
)

// handleLayout paginates a paper synchronously and returns the page
// geometry, for live previews while authoring.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	req, _, ok := s.readPaper(w, r)
	if !ok {
		return
	}

	opts := s.orchestrator.Options()
	opts.Log = s.log.With("request_id", middleware.GetReqID(r.Context()))
	doc, err := pipeline.Layout(r.Context(), req.Paper, opts)
	if err != nil {
		code := http.StatusUnprocessableEntity
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			code = http.StatusGatewayTimeout
		}
		var pe *layout.PipelineError
		if errors.As(err, &pe) {
			opts.Log.Warn("layout failed", "stage", pe.Stage, "question", pe.Path, "error", err)
		}
		jsonError(w, err.Error(), code)
		return
	}

	geometry, err := doc.Geometry()
	if err != nil {
		jsonError(w, "encode geometry: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(geometry)
}
