package progress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the indexing-control API. It owns no state beyond the
// connection settings; every call is a plain request/response.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the API at baseURL, e.g. "http://localhost:8085"
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// StartResult is the response to starting an indexing run
type StartResult struct {
	JobID          string `json:"job_id"`
	TotalDocuments int    `json:"total_documents"`
}

// StartIndexing starts an indexing run over the given documents. An empty
// documentIDs slice indexes every unindexed document in the collection.
func (c *Client) StartIndexing(ctx context.Context, collectionID string, documentIDs []string) (*StartResult, error) {
	body, err := json.Marshal(map[string]interface{}{
		"collection_id": collectionID,
		"document_ids":  documentIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode start request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/jobs", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build start request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "startIndexing", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Op: "startIndexing", Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, readErrorMessage(resp.Body))}
	}

	var result StartResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &TransportError{Op: "startIndexing", Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return &result, nil
}

// GetIndexingStatus fetches the current snapshot of a job. The returned
// snapshot has no ReceivedAt assigned; the delivering channel sets it on
// arrival.
func (c *Client) GetIndexingStatus(ctx context.Context, collectionID, jobID string) (*JobSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/jobs/"+jobID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build status request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "getIndexingStatus", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Op: "getIndexingStatus", Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, readErrorMessage(resp.Body))}
	}

	var snapshot JobSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, &TransportError{Op: "getIndexingStatus", Err: fmt.Errorf("failed to decode snapshot: %w", err)}
	}
	if collectionID != "" && snapshot.CollectionID != collectionID {
		return nil, &TransportError{Op: "getIndexingStatus", Err: fmt.Errorf("job %s belongs to collection %s, not %s", jobID, snapshot.CollectionID, collectionID)}
	}
	return &snapshot, nil
}

// PauseJob asks the server to pause a job
func (c *Client) PauseJob(ctx context.Context, jobID string) error {
	return c.control(ctx, CommandPause, "/api/jobs/"+jobID+"/pause")
}

// ResumeJob asks the server to resume a paused job
func (c *Client) ResumeJob(ctx context.Context, jobID string) error {
	return c.control(ctx, CommandResume, "/api/jobs/"+jobID+"/resume")
}

// CancelJob asks the server to cancel a job
func (c *Client) CancelJob(ctx context.Context, jobID string) error {
	return c.control(ctx, CommandCancel, "/api/jobs/"+jobID+"/cancel")
}

// RetryDocument asks the server to requeue a failed document
func (c *Client) RetryDocument(ctx context.Context, jobID, documentID string) error {
	return c.control(ctx, CommandRetryDocument, "/api/jobs/"+jobID+"/documents/"+documentID+"/retry")
}

// control issues one POST command and maps refusals to CommandRejectedError
func (c *Client) control(ctx context.Context, kind CommandKind, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", kind, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: string(kind), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &CommandRejectedError{
			Command:    kind,
			StatusCode: resp.StatusCode,
			Message:    readErrorMessage(resp.Body),
		}
	}
	return nil
}

// readErrorMessage extracts the error field from a JSON error body, falling
// back to the raw body
func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return "no error detail"
	}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(data))
}
