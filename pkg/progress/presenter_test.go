package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize_ProgressArithmetic(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		processed int
		failed    int
		expected  float64
	}{
		// Failed documents do not advance the percentage
		{"seven of ten processed one failed", 10, 7, 1, 70},
		{"nothing processed", 3, 0, 0, 0},
		{"all processed", 3, 3, 0, 100},
		{"zero total guarded", 0, 0, 0, 0},
		{"overcount clamped", 4, 9, 0, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary := Summarize(&JobSnapshot{
				Status:             JobProcessing,
				TotalDocuments:     tt.total,
				ProcessedDocuments: tt.processed,
				FailedDocuments:    tt.failed,
			})
			assert.InDelta(t, tt.expected, summary.OverallProgress, 0.001)
		})
	}
}

func TestSummarize_CountsByStatus(t *testing.T) {
	summary := Summarize(&JobSnapshot{
		Status:         JobProcessing,
		TotalDocuments: 5,
		Documents: []DocumentEntry{
			doc("a", DocIndexed),
			doc("b", DocIndexed),
			doc("c", DocProcessing),
			doc("d", DocFailed),
			doc("e", DocPending),
		},
	})

	assert.Equal(t, 2, summary.Counts.Indexed)
	assert.Equal(t, 1, summary.Counts.Processing)
	assert.Equal(t, 1, summary.Counts.Failed)
	assert.Equal(t, 1, summary.Counts.Pending)
}

func TestSummarize_Labels(t *testing.T) {
	tests := []struct {
		status JobStatus
		label  string
	}{
		{JobPending, "Waiting to start"},
		{JobProcessing, "Indexing"},
		{JobPaused, "Paused"},
		{JobCompleted, "Completed"},
		{JobFailed, "Failed"},
		{JobCancelled, "Cancelled"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.label, Summarize(&JobSnapshot{Status: tt.status}).StatusLabel)
	}
}

func TestSummarize_NilSnapshot(t *testing.T) {
	summary := Summarize(nil)
	assert.Equal(t, JobPending, summary.Status)
	assert.Zero(t, summary.OverallProgress)
}

func TestSummarize_CurrentDocumentAndError(t *testing.T) {
	summary := Summarize(&JobSnapshot{
		Status:          JobProcessing,
		CurrentDocument: "protocol-v2.pdf",
	})
	assert.Equal(t, "protocol-v2.pdf", summary.CurrentDocument)

	summary = Summarize(&JobSnapshot{
		Status: JobFailed,
		Error:  "Timeout: no activity for 5m0s",
	})
	assert.Equal(t, "Timeout: no activity for 5m0s", summary.Error)
}
