package artifact

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RemoteStore keeps artifacts in an HTTP blob service at
// {base}/artifacts/{job_id}/{format}.
type RemoteStore struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewRemoteStore(baseURL, apiKey string) *RemoteStore {
	return &RemoteStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *RemoteStore) url(jobID string, format Format) string {
	return c.baseURL + "/artifacts/" + url.PathEscape(jobID) + "/" + string(format)
}

// Put uploads an artifact.
func (c *RemoteStore) Put(ctx context.Context, a *Artifact) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, c.url(a.JobID, a.Format), bytes.NewReader(a.Data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", a.Format.ContentType())
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("put artifact: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("put artifact %s/%s: status %d: %s", a.JobID, a.Format, resp.StatusCode, string(respBody))
	}
	return nil
}

// Get downloads an artifact. A 404 is reported as ErrNotFound.
func (c *RemoteStore) Get(ctx context.Context, jobID string, format Format) (*Artifact, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(jobID, format), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("get artifact: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("get artifact %s/%s: status %d: %s", jobID, format, resp.StatusCode, string(respBody))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return &Artifact{JobID: jobID, Format: format, Data: data}, nil
}

// Close releases idle connections.
func (c *RemoteStore) Close() {
	c.httpClient.CloseIdleConnections()
}
