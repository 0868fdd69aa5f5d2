package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/dgallion1/exampress/internal/artifact"
	"github.com/dgallion1/exampress/internal/draw"
	"github.com/dgallion1/exampress/internal/export"
	"github.com/dgallion1/exampress/internal/pipeline"
	"github.com/dgallion1/exampress/internal/question"
	"github.com/go-chi/chi/v5"
)

type renderRequest struct {
	Paper   *question.Paper `json:"paper"`
	Formats []string        `json:"formats,omitempty"`
}

// readPaper reads a bounded request body and decodes and validates the
// paper in it. It writes the error response itself and returns ok=false
// on failure.
func (s *Server) readPaper(w http.ResponseWriter, r *http.Request) (req renderRequest, body []byte, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("body exceeds max size (%d bytes)", s.cfg.MaxBodyBytes), http.StatusRequestEntityTooLarge)
			return req, nil, false
		}
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return req, nil, false
	}
	if err := json.Unmarshal(body, &req); err != nil {
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return req, nil, false
	}
	if err := req.Paper.Validate(); err != nil {
		jsonError(w, "invalid paper: "+err.Error(), http.StatusBadRequest)
		return req, nil, false
	}
	return req, body, true
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	req, body, ok := s.readPaper(w, r)
	if !ok {
		return
	}

	formats := make([]artifact.Format, 0, len(req.Formats))
	for _, f := range req.Formats {
		format, err := artifact.ParseFormat(f)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		formats = append(formats, format)
	}

	job := pipeline.NewJob(req.Paper, formats, draw.ContentHashHex(body))
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"formats":  job.Formats,
		"poll_url": fmt.Sprintf("/api/render/%s/status", job.ID),
	})
}

func (s *Server) handleRenderStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

// completedArtifact loads a stored artifact for a finished job.
func (s *Server) completedArtifact(w http.ResponseWriter, r *http.Request, format artifact.Format) (*artifact.Artifact, bool) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return nil, false
	}
	switch snap := job.Snapshot(); snap.Status {
	case pipeline.StatusCompleted:
	case pipeline.StatusFailed:
		jsonError(w, "job failed", http.StatusConflict)
		return nil, false
	default:
		jsonError(w, "job not finished: "+string(snap.Status), http.StatusConflict)
		return nil, false
	}
	if !job.HasArtifact(format) {
		jsonError(w, fmt.Sprintf("format %s was not requested", format), http.StatusNotFound)
		return nil, false
	}

	a, err := s.orchestrator.Store().Get(r.Context(), jobID, format)
	if errors.Is(err, artifact.ErrNotFound) {
		jsonError(w, "artifact expired", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		s.log.Error("artifact load failed", "job_id", jobID, "format", format, "error", err)
		jsonError(w, "failed to load artifact", http.StatusBadGateway)
		return nil, false
	}
	return a, true
}

func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	format := artifact.FormatPDF
	if v := r.URL.Query().Get("format"); v != "" {
		f, err := artifact.ParseFormat(v)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		format = f
	}

	a, ok := s.completedArtifact(w, r, format)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(a.Data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, a.JobID, format))
	w.Write(a.Data)
}

func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	a, ok := s.completedArtifact(w, r, artifact.FormatPDF)
	if !ok {
		return
	}
	in, err := export.Inspect(a.Data)
	if err != nil {
		jsonError(w, "inspect failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(in)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
