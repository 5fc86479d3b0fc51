// Package progress tracks a long-running document-indexing job from a client:
// it merges asynchronously-arriving job snapshots with locally-issued control
// commands (pause, resume, cancel, retry) into one consistent, monotonic view
// of job and per-document state.
package progress

import "sync/atomic"

// JobStatus is the job-level state of an indexing run
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobPaused     JobStatus = "paused"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
	JobCancelled  JobStatus = "cancelled"
)

// IsTerminal reports whether no further job-level transition is legal
func (s JobStatus) IsTerminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobCancelled
}

// DocumentStatus is the per-document state within a job
type DocumentStatus string

const (
	DocPending    DocumentStatus = "pending"
	DocProcessing DocumentStatus = "processing"
	DocIndexed    DocumentStatus = "indexed"
	DocFailed     DocumentStatus = "failed"
)

// DocumentEntry is one document inside a job. Entries keep submission order
// and are never removed for the lifetime of the job.
type DocumentEntry struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Status DocumentStatus `json:"status"`
	Error  string         `json:"error,omitempty"`
}

// JobSnapshot is one observation of a job and its documents at a point in
// time, normalized from whatever the transport delivered.
type JobSnapshot struct {
	JobID        string    `json:"id"`
	CollectionID string    `json:"collection_id"`
	Status       JobStatus `json:"status"`

	TotalDocuments     int `json:"total_documents"`
	ProcessedDocuments int `json:"processed_documents"`
	FailedDocuments    int `json:"failed_documents"`

	// CurrentDocument names the document actively being worked, only while
	// Status is "processing".
	CurrentDocument string          `json:"current_document,omitempty"`
	Documents       []DocumentEntry `json:"documents"`

	Error string `json:"error,omitempty"`

	// ReceivedAt is an arrival sequence number assigned client-side by the
	// delivering channel. Server timestamps are not trusted for ordering.
	ReceivedAt uint64 `json:"-"`
}

// Entry returns the document entry with the given id, or nil
func (s *JobSnapshot) Entry(documentID string) *DocumentEntry {
	for i := range s.Documents {
		if s.Documents[i].ID == documentID {
			return &s.Documents[i]
		}
	}
	return nil
}

// Clone creates a deep copy of the snapshot
func (s *JobSnapshot) Clone() *JobSnapshot {
	clone := *s
	clone.Documents = make([]DocumentEntry, len(s.Documents))
	copy(clone.Documents, s.Documents)
	return &clone
}

// recountProgress recomputes processed/failed counters from the entries
func (s *JobSnapshot) recountProgress() {
	processed, failed := 0, 0
	for i := range s.Documents {
		switch s.Documents[i].Status {
		case DocIndexed:
			processed++
		case DocFailed:
			failed++
		}
	}
	s.ProcessedDocuments = processed
	s.FailedDocuments = failed
}

// sequencer hands out the client-assigned arrival sequence for ReceivedAt.
// Shared by all channels feeding the same engine so ordering holds across a
// transport switch (push to polling fallback and back).
type sequencer struct {
	n atomic.Uint64
}

func (q *sequencer) next() uint64 {
	return q.n.Add(1)
}
