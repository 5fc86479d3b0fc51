package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobTransitionLegal(t *testing.T) {
	tests := []struct {
		name  string
		from  JobStatus
		to    JobStatus
		legal bool
	}{
		{"pending to processing", JobPending, JobProcessing, true},
		{"pending to cancelled", JobPending, JobCancelled, true},
		{"processing to paused", JobProcessing, JobPaused, true},
		{"processing to completed", JobProcessing, JobCompleted, true},
		{"processing to failed", JobProcessing, JobFailed, true},
		{"processing to cancelled", JobProcessing, JobCancelled, true},
		{"paused to processing", JobPaused, JobProcessing, true},
		{"paused to cancelled", JobPaused, JobCancelled, true},
		{"pending to failed", JobPending, JobFailed, true},
		{"paused to failed", JobPaused, JobFailed, true},
		{"same state is a no-op", JobProcessing, JobProcessing, true},
		{"pending to paused", JobPending, JobPaused, false},
		{"pending to completed", JobPending, JobCompleted, false},
		{"paused to completed", JobPaused, JobCompleted, false},
		{"completed is terminal", JobCompleted, JobProcessing, false},
		{"failed is terminal", JobFailed, JobProcessing, false},
		{"cancelled is terminal", JobCancelled, JobPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.legal, JobTransitionLegal(tt.from, tt.to))
		})
	}
}

func TestDocTransitionLegal(t *testing.T) {
	tests := []struct {
		name             string
		from             DocumentStatus
		to               DocumentStatus
		retryOutstanding bool
		legal            bool
	}{
		{"pending to processing", DocPending, DocProcessing, false, true},
		{"pending to indexed", DocPending, DocIndexed, false, true},
		{"pending to failed", DocPending, DocFailed, false, true},
		{"processing to indexed", DocProcessing, DocIndexed, false, true},
		{"processing to failed", DocProcessing, DocFailed, false, true},
		{"processing to pending", DocProcessing, DocPending, false, false},
		{"indexed never regresses", DocIndexed, DocPending, false, false},
		{"indexed never regresses with retry", DocIndexed, DocPending, true, false},
		{"failed stays without retry", DocFailed, DocPending, false, false},
		{"failed to pending via retry", DocFailed, DocPending, true, true},
		{"failed to processing via retry", DocFailed, DocProcessing, true, true},
		{"failed to indexed via retry", DocFailed, DocIndexed, true, true},
		{"same state is a no-op", DocFailed, DocFailed, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.legal, DocTransitionLegal(tt.from, tt.to, tt.retryOutstanding))
		})
	}
}

func TestJobStatusIsTerminal(t *testing.T) {
	assert.True(t, JobCompleted.IsTerminal())
	assert.True(t, JobFailed.IsTerminal())
	assert.True(t, JobCancelled.IsTerminal())
	assert.False(t, JobPending.IsTerminal())
	assert.False(t, JobProcessing.IsTerminal())
	assert.False(t, JobPaused.IsTerminal())
}
