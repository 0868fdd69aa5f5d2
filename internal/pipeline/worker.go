package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/exampress/internal/artifact"
	"github.com/dgallion1/exampress/internal/layout"
)

// Worker renders one job at a time.
type Worker struct {
	store artifact.Store
	stats *RenderStats
	opts  RenderOptions
	log   *slog.Logger
}

func NewWorker(store artifact.Store, stats *RenderStats, opts RenderOptions, log *slog.Logger) *Worker {
	return &Worker{
		store: store,
		stats: stats,
		opts:  opts,
		log:   log,
	}
}

// Process runs layout and export for a job and stores its artifacts.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID)
	defer job.release()
	start := time.Now()

	opts := w.opts
	opts.Log = log

	// Phase 1: Layout
	job.SetStatus(StatusLayout, "layout")
	paper := job.Paper()
	doc, err := Layout(ctx, paper, opts)
	if err != nil {
		w.fail(log, job, "layout", err)
		return
	}
	job.SetPages(len(doc.Pages))
	log.Info("layout complete", "pages", len(doc.Pages), "images", len(doc.Images))

	// Phase 2: Export and store
	job.SetStatus(StatusExporting, "exporting")
	for _, format := range job.Formats {
		data, err := Export(doc, paper, format, opts)
		if err != nil {
			w.fail(log, job, "exporting", err)
			return
		}
		a := &artifact.Artifact{JobID: job.ID, Format: format, Data: data, CreatedAt: time.Now()}
		if err := w.store.Put(ctx, a); err != nil {
			w.fail(log, job, "storing", fmt.Errorf("store %s: %w", format, err))
			return
		}
		job.AddArtifact(format)
		log.Debug("artifact stored", "format", format, "bytes", len(data))
	}

	elapsed := time.Since(start)
	w.stats.Record(elapsed.Milliseconds())
	job.SetStatus(StatusCompleted, "done")
	log.Info("render complete", "duration_ms", elapsed.Milliseconds(), "formats", len(job.Formats))
}

func (w *Worker) fail(log *slog.Logger, job *Job, phase string, err error) {
	attrs := []any{"phase", phase, "error", err}
	var pe *layout.PipelineError
	if errors.As(err, &pe) {
		attrs = append(attrs, "stage", pe.Stage, "question", pe.Path)
	}
	log.Error("render failed", attrs...)
	w.stats.RecordFailure()
	job.AddError(err.Error())
	job.ClearArtifacts()
	job.SetStatus(StatusFailed, phase)
}
