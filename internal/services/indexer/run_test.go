package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mishrapravin114/pharmadoc/internal/models"
)

func testRun() *jobRun {
	job := models.NewIndexJob("job_1", "col_1", []models.DocumentEntry{
		{ID: "a", Name: "a.pdf"},
		{ID: "b", Name: "b.pdf"},
		{ID: "c", Name: "c.pdf"},
	})
	return newJobRun(job)
}

func TestJobRun_QueueDrainsInSubmissionOrder(t *testing.T) {
	run := testRun()
	run.markStarted()

	var order []string
	for {
		docID, ok := run.nextDocument()
		if docID == "" {
			assert.False(t, ok)
			break
		}
		order = append(order, docID)
	}

	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestJobRun_PauseStopsDispatchAndResumeContinues(t *testing.T) {
	run := testRun()
	run.markStarted()

	docID, ok := run.nextDocument()
	assert.Equal(t, "a", docID)
	require.True(t, ok)

	require.NoError(t, run.requestPause())
	assert.Equal(t, models.JobStatusPaused, run.status())

	// Paused: no document handed out, but the run is not stopping
	docID, ok = run.nextDocument()
	assert.Empty(t, docID)
	assert.True(t, ok)

	require.NoError(t, run.requestResume())
	assert.Equal(t, models.JobStatusProcessing, run.status())

	docID, ok = run.nextDocument()
	assert.Equal(t, "b", docID)
	assert.True(t, ok)
}

func TestJobRun_PausePreconditions(t *testing.T) {
	run := testRun()

	// Still pending: pause illegal
	assert.Error(t, run.requestPause())

	run.markStarted()
	require.NoError(t, run.requestPause())

	// Already paused: second pause illegal, resume legal
	assert.Error(t, run.requestPause())
	assert.Error(t, run.requestRetry("a")) // nothing failed yet
	require.NoError(t, run.requestResume())
	assert.Error(t, run.requestResume())
}

func TestJobRun_CancelStopsDispatch(t *testing.T) {
	run := testRun()
	run.markStarted()

	require.NoError(t, run.requestCancel())

	docID, ok := run.nextDocument()
	assert.Empty(t, docID)
	assert.False(t, ok)
	assert.True(t, run.isCancelled())

	run.markCancelled()
	assert.Equal(t, models.JobStatusCancelled, run.status())
	// Terminal: no further control accepted
	assert.Error(t, run.requestCancel())
}

func TestJobRun_CancelUnblocksPausedRun(t *testing.T) {
	run := testRun()
	run.markStarted()
	require.NoError(t, run.requestPause())
	require.NoError(t, run.requestCancel())

	done := make(chan struct{})
	go func() {
		run.awaitResume()
		close(done)
	}()
	<-done // returns because cancel broadcasts

	_, ok := run.nextDocument()
	assert.False(t, ok)
}

func TestJobRun_RetryRequeuesFailedDocumentAtTail(t *testing.T) {
	run := testRun()
	run.markStarted()

	// Process a (fails), keep b and c queued
	docID, _ := run.nextDocument()
	require.Equal(t, "a", docID)
	run.markDocumentFailed("a", "Extraction: unreadable page 3")

	require.NoError(t, run.requestRetry("a"))

	snapshot := run.snapshot()
	entry := snapshot.Entry("a")
	require.NotNil(t, entry)
	assert.Equal(t, models.DocStatusPending, entry.Status)
	assert.Empty(t, entry.Error)
	assert.Zero(t, snapshot.FailedDocuments)

	// Remaining queue order: b, c, then the retried a
	var order []string
	for {
		docID, ok := run.nextDocument()
		if docID == "" {
			assert.False(t, ok)
			break
		}
		order = append(order, docID)
	}
	assert.Equal(t, []string{"b", "c", "a"}, order)
}

func TestJobRun_RetryRejections(t *testing.T) {
	run := testRun()
	run.markStarted()

	assert.Error(t, run.requestRetry("nope"), "unknown document")
	assert.Error(t, run.requestRetry("a"), "document not failed")

	run.markDocumentFailed("a", "Extraction: corrupt file")
	run.markCompleted()
	assert.Error(t, run.requestRetry("a"), "terminal job")
}

func TestJobRun_SnapshotIsDeepCopy(t *testing.T) {
	run := testRun()
	run.markStarted()

	snapshot := run.snapshot()
	snapshot.Documents[0].Status = models.DocStatusIndexed
	snapshot.Status = models.JobStatusCompleted

	assert.Equal(t, models.DocStatusPending, run.snapshot().Documents[0].Status)
	assert.Equal(t, models.JobStatusProcessing, run.status())
}

func TestJobRun_ProcessingMarksKeepCountersConsistent(t *testing.T) {
	run := testRun()
	run.markStarted()

	run.markDocumentProcessing("a", "a.pdf")
	snapshot := run.snapshot()
	assert.Equal(t, "a.pdf", snapshot.CurrentDocument)

	run.markDocumentIndexed("a")
	run.markDocumentProcessing("b", "b.pdf")
	run.markDocumentFailed("b", "Storage: write refused")

	snapshot = run.snapshot()
	assert.Equal(t, 1, snapshot.ProcessedDocuments)
	assert.Equal(t, 1, snapshot.FailedDocuments)
	assert.Empty(t, snapshot.CurrentDocument)
	assert.NoError(t, snapshot.Validate())
}
