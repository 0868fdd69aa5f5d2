package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/exampress/internal/artifact"
	"github.com/dgallion1/exampress/internal/config"
	"github.com/dgallion1/exampress/internal/export"
	"github.com/dgallion1/exampress/internal/pipeline"
)

const testKey = "test-key"

const paperJSON = `{
	"paper": {
		"header": {"title": "Weekly Quiz", "subject": "Maths", "total_marks": 10},
		"questions": [
			{"text": "What is 2+2?"},
			{"text": "Simplify:", "children": [{"text": "x + x"}, {"text": "<i>3y</i> - y"}]}
		]
	},
	"formats": ["docx"]
}`

func newTestServer(t *testing.T, mutate func(*config.Config)) *httptest.Server {
	t.Helper()
	cfg := config.Config{
		APIKey:         testKey,
		WorkerCount:    1,
		MaxQueueSize:   4,
		MaxBodyBytes:   1 << 20,
		JobTTL:         time.Hour,
		Layout:         config.DefaultLayout(),
		PreviewPxPerMM: 1,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := pipeline.NewOrchestrator(cfg, artifact.NewMemoryStore(cfg.JobTTL), log)
	orch.Start(context.Background())
	srv := httptest.NewServer(NewServer(orch, log, cfg))
	t.Cleanup(func() {
		srv.Close()
		orch.Stop()
	})
	return srv
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+testKey)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func submit(t *testing.T, srv *httptest.Server, body string) string {
	t.Helper()
	resp := do(t, http.MethodPost, srv.URL+"/api/render", body)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var accepted struct {
		JobID   string `json:"job_id"`
		PollURL string `json:"poll_url"`
	}
	decode(t, resp, &accepted)
	require.NotEmpty(t, accepted.JobID)
	assert.Equal(t, "/api/render/"+accepted.JobID+"/status", accepted.PollURL)
	return accepted.JobID
}

func poll(t *testing.T, srv *httptest.Server, jobID string) pipeline.JobSnapshot {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		resp := do(t, http.MethodGet, srv.URL+"/api/render/"+jobID+"/status", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var snap pipeline.JobSnapshot
		decode(t, resp, &snap)
		if snap.Status == pipeline.StatusCompleted || snap.Status == pipeline.StatusFailed {
			return snap
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", jobID)
	return pipeline.JobSnapshot{}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuth(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/api/stats/render")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/stats/render", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "invalid api key", body["error"])
}

func TestRenderFlow(t *testing.T) {
	srv := newTestServer(t, nil)
	jobID := submit(t, srv, paperJSON)

	snap := poll(t, srv, jobID)
	require.Equal(t, pipeline.StatusCompleted, snap.Status, "errors: %v", snap.Progress.Errors)
	assert.Equal(t, "Weekly Quiz", snap.Title)
	assert.Equal(t, 1, snap.Progress.Pages)
	assert.Equal(t, []artifact.Format{artifact.FormatPDF, artifact.FormatDOCX}, snap.Progress.Artifacts)
	assert.Len(t, snap.ContentHash, 64)

	resp := do(t, http.MethodGet, srv.URL+"/api/render/"+jobID+"/artifact", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	pdf, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))

	resp = do(t, http.MethodGet, srv.URL+"/api/render/"+jobID+"/artifact?format=docx", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), jobID+".docx")

	resp = do(t, http.MethodGet, srv.URL+"/api/render/"+jobID+"/artifact?format=png", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "png was not requested")

	resp = do(t, http.MethodGet, srv.URL+"/api/render/"+jobID+"/inspect", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var in export.Inspection
	decode(t, resp, &in)
	assert.Equal(t, 1, in.Pages)

	resp = do(t, http.MethodGet, srv.URL+"/api/stats/render", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats struct {
		Stats pipeline.StatsSnapshot `json:"stats"`
	}
	decode(t, resp, &stats)
	assert.Equal(t, 1, stats.Stats.Count)
}

func TestRenderRejectsBadRequests(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) { c.MaxBodyBytes = 600 })

	cases := map[string]struct {
		body string
		code int
	}{
		"not json":       {`{`, http.StatusBadRequest},
		"no paper":       {`{"formats":["pdf"]}`, http.StatusBadRequest},
		"empty paper":    {`{"paper":{"questions":[]}}`, http.StatusBadRequest},
		"unknown format": {`{"paper":{"questions":[{"text":"q"}]},"formats":["tiff"]}`, http.StatusBadRequest},
		"bad markup":     {`{"paper":{"questions":[{"text":"q","format":"latex"}]}}`, http.StatusBadRequest},
		"too large":      {`{"paper":{"questions":[{"text":"` + strings.Repeat("x", 700) + `"}]}}`, http.StatusRequestEntityTooLarge},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			resp := do(t, http.MethodPost, srv.URL+"/api/render", tc.body)
			assert.Equal(t, tc.code, resp.StatusCode)
			var body map[string]string
			decode(t, resp, &body)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestUnknownJob(t *testing.T) {
	srv := newTestServer(t, nil)
	for _, path := range []string{"/status", "/artifact", "/inspect"} {
		resp := do(t, http.MethodGet, srv.URL+"/api/render/nope"+path, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
	resp := do(t, http.MethodGet, srv.URL+"/api/render/nope/artifact?format=gif", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLayoutEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := do(t, http.MethodPost, srv.URL+"/api/layout", paperJSON)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var geometry struct {
		PageWidth float64 `json:"page_width"`
		Pages     []struct {
			Number int `json:"number"`
			Ops    []struct {
				Kind string `json:"kind"`
				Text string `json:"text"`
			} `json:"ops"`
		} `json:"pages"`
	}
	decode(t, resp, &geometry)
	assert.Equal(t, 210.0, geometry.PageWidth)
	require.Len(t, geometry.Pages, 1)

	var texts []string
	for _, op := range geometry.Pages[0].Ops {
		texts = append(texts, op.Text)
	}
	assert.Contains(t, texts, "What is 2+2?")
	assert.Contains(t, texts, "a) ")
}

func TestLayoutTooDeep(t *testing.T) {
	srv := newTestServer(t, nil)
	body := `{"paper":{"questions":[{"text":"1","children":[{"text":"a","children":[{"text":"i","children":[{"text":"A","children":[{"text":"x"}]}]}]}]}]}}`
	resp := do(t, http.MethodPost, srv.URL+"/api/layout", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
