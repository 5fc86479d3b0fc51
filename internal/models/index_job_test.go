package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJob() *IndexJob {
	return NewIndexJob("job_1", "col_1", []DocumentEntry{
		{ID: "a", Name: "a.pdf"},
		{ID: "b", Name: "b.pdf"},
		{ID: "c", Name: "c.pdf"},
	})
}

func TestNewIndexJob(t *testing.T) {
	job := testJob()

	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, 3, job.TotalDocuments)
	assert.Zero(t, job.ProcessedDocuments)
	require.Len(t, job.Documents, 3)
	for _, entry := range job.Documents {
		assert.Equal(t, DocStatusPending, entry.Status)
	}
	// Submission order preserved
	assert.Equal(t, "a", job.Documents[0].ID)
	assert.Equal(t, "c", job.Documents[2].ID)
}

func TestIndexJob_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*IndexJob)
		wantErr bool
	}{
		{"valid", func(j *IndexJob) {}, false},
		{"missing id", func(j *IndexJob) { j.ID = "" }, true},
		{"missing collection", func(j *IndexJob) { j.CollectionID = "" }, true},
		{"counters exceed total", func(j *IndexJob) {
			j.ProcessedDocuments = 2
			j.FailedDocuments = 2
		}, true},
		{"counters at total", func(j *IndexJob) {
			j.ProcessedDocuments = 2
			j.FailedDocuments = 1
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := testJob()
			tt.mutate(job)
			err := job.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIndexJob_ControlPreconditions(t *testing.T) {
	tests := []struct {
		status    JobStatus
		canPause  bool
		canResume bool
		canCancel bool
		terminal  bool
	}{
		{JobStatusPending, false, false, true, false},
		{JobStatusProcessing, true, false, true, false},
		{JobStatusPaused, false, true, true, false},
		{JobStatusCompleted, false, false, false, true},
		{JobStatusFailed, false, false, false, true},
		{JobStatusCancelled, false, false, false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			job := testJob()
			job.Status = tt.status
			assert.Equal(t, tt.canPause, job.CanPause())
			assert.Equal(t, tt.canResume, job.CanResume())
			assert.Equal(t, tt.canCancel, job.CanCancel())
			assert.Equal(t, tt.terminal, job.IsTerminal())
		})
	}
}

func TestIndexJob_MarkTransitionsClearCurrentDocument(t *testing.T) {
	job := testJob()
	job.MarkStarted()
	job.CurrentDocument = "a.pdf"

	job.MarkPaused()
	assert.Equal(t, JobStatusPaused, job.Status)
	assert.Empty(t, job.CurrentDocument)

	job.Status = JobStatusProcessing
	job.CurrentDocument = "b.pdf"
	job.MarkCompleted()
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.Empty(t, job.CurrentDocument)
	assert.NotNil(t, job.CompletedAt)
}

func TestIndexJob_RecountProgress(t *testing.T) {
	job := testJob()
	job.Documents[0].Status = DocStatusIndexed
	job.Documents[1].Status = DocStatusFailed
	job.Documents[2].Status = DocStatusProcessing

	job.RecountProgress()

	assert.Equal(t, 1, job.ProcessedDocuments)
	assert.Equal(t, 1, job.FailedDocuments)
}

func TestIndexJob_CloneIsDeep(t *testing.T) {
	job := testJob()
	clone := job.Clone()

	clone.Documents[0].Status = DocStatusIndexed
	clone.Status = JobStatusProcessing

	assert.Equal(t, DocStatusPending, job.Documents[0].Status)
	assert.Equal(t, JobStatusPending, job.Status)
}
