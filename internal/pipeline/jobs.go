package pipeline

import (
	"slices"
	"sync"
	"time"

	"github.com/dgallion1/exampress/internal/artifact"
	"github.com/dgallion1/exampress/internal/question"
)

// JobStatus represents the state of a render job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusLayout    JobStatus = "layout"
	StatusExporting JobStatus = "exporting"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Job tracks the state of a single paper render.
type Job struct {
	mu sync.Mutex

	ID      string            `json:"job_id"`
	Title   string            `json:"title"`
	Formats []artifact.Format `json:"formats"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	paper  *question.Paper
	errors []string
}

// Progress tracks render output.
type Progress struct {
	Pages     int               `json:"pages"`
	Artifacts []artifact.Format `json:"artifacts"`
	Errors    []string          `json:"errors"`
}

// NewJob returns a queued job for paper. PDF is always rendered and comes
// first; duplicate formats are dropped.
func NewJob(paper *question.Paper, formats []artifact.Format, contentHash string) *Job {
	fs := []artifact.Format{artifact.FormatPDF}
	for _, f := range formats {
		if !slices.Contains(fs, f) {
			fs = append(fs, f)
		}
	}
	now := time.Now()
	job := &Job{
		ID:          NewULID(),
		Formats:     fs,
		Status:      StatusQueued,
		Phase:       "queued",
		ContentHash: contentHash,
		CreatedAt:   now,
		UpdatedAt:   now,
		paper:       paper,
	}
	if paper != nil && paper.Header != nil {
		job.Title = paper.Header.Title
	}
	return job
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetPages records the page count of the laid-out document.
func (j *Job) SetPages(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Pages = n
	j.UpdatedAt = time.Now()
}

// AddArtifact records a stored output format.
func (j *Job) AddArtifact(f artifact.Format) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Artifacts = append(j.Progress.Artifacts, f)
	j.UpdatedAt = time.Now()
}

// ClearArtifacts forgets stored outputs; a failed job serves none.
func (j *Job) ClearArtifacts() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Artifacts = nil
	j.UpdatedAt = time.Now()
}

// HasArtifact reports whether format was stored for the job.
func (j *Job) HasArtifact(f artifact.Format) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return slices.Contains(j.Progress.Artifacts, f)
}

// Paper returns the paper to render.
func (j *Job) Paper() *question.Paper {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.paper
}

// release drops the paper once the job is finished.
func (j *Job) release() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.paper = nil
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string            `json:"job_id"`
	Title       string            `json:"title"`
	Formats     []artifact.Format `json:"formats"`
	Status      JobStatus         `json:"status"`
	Phase       string            `json:"phase"`
	Progress    Progress          `json:"progress"`
	ContentHash string            `json:"content_hash,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	arts := slices.Clone(j.Progress.Artifacts)
	if arts == nil {
		arts = []artifact.Format{}
	}
	return JobSnapshot{
		ID:      j.ID,
		Title:   j.Title,
		Formats: slices.Clone(j.Formats),
		Status:  j.Status,
		Phase:   j.Phase,
		Progress: Progress{
			Pages:     j.Progress.Pages,
			Artifacts: arts,
			Errors:    slices.Clone(errs),
		},
		ContentHash: j.ContentHash,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}
