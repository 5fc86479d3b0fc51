package models

import (
	"fmt"
	"time"
)

// JobStatus represents the state of an indexing job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusPaused     JobStatus = "paused"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// DocumentStatus represents the per-document state within an indexing job
type DocumentStatus string

const (
	DocStatusPending    DocumentStatus = "pending"
	DocStatusProcessing DocumentStatus = "processing"
	DocStatusIndexed    DocumentStatus = "indexed"
	DocStatusFailed     DocumentStatus = "failed"
)

// DocumentEntry tracks one document inside an indexing job.
// Entries are created in submission order and never removed for the lifetime
// of the job.
type DocumentEntry struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Status DocumentStatus `json:"status"`
	// Error is only populated when Status is "failed".
	// Format: "Category: Brief description" (e.g. "Extraction: unreadable page 3").
	Error string `json:"error,omitempty"`
}

// IndexJob represents one server-side run of indexing a set of documents into
// a collection. The JSON shape of this struct is the wire format returned by
// the status endpoint and pushed over the websocket.
type IndexJob struct {
	ID           string    `json:"id"`
	CollectionID string    `json:"collection_id"`
	Status       JobStatus `json:"status"`

	TotalDocuments     int `json:"total_documents"`
	ProcessedDocuments int `json:"processed_documents"`
	FailedDocuments    int `json:"failed_documents"`

	// CurrentDocument names the document actively being worked, only while
	// Status is "processing".
	CurrentDocument string          `json:"current_document,omitempty"`
	Documents       []DocumentEntry `json:"documents"`

	CreatedAt     time.Time  `json:"created_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	LastHeartbeat *time.Time `json:"last_heartbeat,omitempty"`

	// Error is a concise, user-facing description of why the job failed.
	Error string `json:"error,omitempty"`
}

// NewIndexJob creates a pending indexing job over the given documents,
// preserving submission order.
func NewIndexJob(id, collectionID string, docs []DocumentEntry) *IndexJob {
	entries := make([]DocumentEntry, len(docs))
	copy(entries, docs)
	for i := range entries {
		entries[i].Status = DocStatusPending
		entries[i].Error = ""
	}
	return &IndexJob{
		ID:             id,
		CollectionID:   collectionID,
		Status:         JobStatusPending,
		TotalDocuments: len(entries),
		Documents:      entries,
		CreatedAt:      time.Now(),
	}
}

// Validate validates the indexing job
func (j *IndexJob) Validate() error {
	if j.ID == "" {
		return fmt.Errorf("job ID is required")
	}
	if j.CollectionID == "" {
		return fmt.Errorf("job collection ID is required")
	}
	if j.ProcessedDocuments+j.FailedDocuments > j.TotalDocuments {
		return fmt.Errorf("processed (%d) + failed (%d) exceeds total (%d)",
			j.ProcessedDocuments, j.FailedDocuments, j.TotalDocuments)
	}
	return nil
}

// IsTerminal returns true if the job is in a terminal state
func (j *IndexJob) IsTerminal() bool {
	return j.Status == JobStatusCompleted ||
		j.Status == JobStatusFailed ||
		j.Status == JobStatusCancelled
}

// CanPause reports whether a pause command is legal in the current state
func (j *IndexJob) CanPause() bool {
	return j.Status == JobStatusProcessing
}

// CanResume reports whether a resume command is legal in the current state
func (j *IndexJob) CanResume() bool {
	return j.Status == JobStatusPaused
}

// CanCancel reports whether a cancel command is legal in the current state
func (j *IndexJob) CanCancel() bool {
	return j.Status == JobStatusPending ||
		j.Status == JobStatusProcessing ||
		j.Status == JobStatusPaused
}

// MarkStarted marks the job as processing
func (j *IndexJob) MarkStarted() {
	j.Status = JobStatusProcessing
	now := time.Now()
	j.StartedAt = &now
	j.LastHeartbeat = &now
}

// MarkPaused marks the job as paused and clears the active document
func (j *IndexJob) MarkPaused() {
	j.Status = JobStatusPaused
	j.CurrentDocument = ""
}

// MarkCompleted marks the job as completed
func (j *IndexJob) MarkCompleted() {
	j.Status = JobStatusCompleted
	j.CurrentDocument = ""
	now := time.Now()
	j.CompletedAt = &now
}

// MarkFailed marks the job as failed with an error message
func (j *IndexJob) MarkFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.CurrentDocument = ""
	j.Error = errorMsg
	now := time.Now()
	j.CompletedAt = &now
}

// MarkCancelled marks the job as cancelled
func (j *IndexJob) MarkCancelled() {
	j.Status = JobStatusCancelled
	j.CurrentDocument = ""
	now := time.Now()
	j.CompletedAt = &now
}

// UpdateHeartbeat updates the last heartbeat timestamp
func (j *IndexJob) UpdateHeartbeat() {
	now := time.Now()
	j.LastHeartbeat = &now
}

// Entry returns the document entry with the given id, or nil
func (j *IndexJob) Entry(documentID string) *DocumentEntry {
	for i := range j.Documents {
		if j.Documents[i].ID == documentID {
			return &j.Documents[i]
		}
	}
	return nil
}

// RecountProgress recomputes the processed/failed counters from the entries
func (j *IndexJob) RecountProgress() {
	processed, failed := 0, 0
	for i := range j.Documents {
		switch j.Documents[i].Status {
		case DocStatusIndexed:
			processed++
		case DocStatusFailed:
			failed++
		}
	}
	j.ProcessedDocuments = processed
	j.FailedDocuments = failed
}

// Clone creates a deep copy of the job, safe to hand to other goroutines
func (j *IndexJob) Clone() *IndexJob {
	clone := *j
	clone.Documents = make([]DocumentEntry, len(j.Documents))
	copy(clone.Documents, j.Documents)
	return &clone
}
