package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snap(seq uint64, status JobStatus, docs ...DocumentEntry) *JobSnapshot {
	s := &JobSnapshot{
		JobID:          "job_1",
		CollectionID:   "col_1",
		Status:         status,
		TotalDocuments: len(docs),
		Documents:      docs,
		ReceivedAt:     seq,
	}
	s.recountProgress()
	return s
}

func doc(id string, status DocumentStatus) DocumentEntry {
	return DocumentEntry{ID: id, Name: id + ".pdf", Status: status}
}

func TestReconcile_FirstSnapshotAcceptedVerbatim(t *testing.T) {
	incoming := snap(1, JobPending, doc("a", DocPending), doc("b", DocPending))

	result := Reconcile(nil, incoming, nil)

	require.NotNil(t, result.Base)
	assert.False(t, result.Stale)
	assert.Equal(t, JobPending, result.State.Status)
	assert.Len(t, result.State.Documents, 2)
}

func TestReconcile_StaleSnapshotDiscarded(t *testing.T) {
	current := snap(5, JobProcessing, doc("a", DocIndexed))
	stale := snap(3, JobPending, doc("a", DocPending))

	result := Reconcile(current, stale, nil)

	assert.True(t, result.Stale)
	assert.Equal(t, JobProcessing, result.State.Status)
	assert.Equal(t, DocIndexed, result.State.Documents[0].Status)
}

func TestReconcile_IdempotentReplay(t *testing.T) {
	first := snap(1, JobProcessing, doc("a", DocIndexed), doc("b", DocProcessing))

	once := Reconcile(nil, first, nil)
	twice := Reconcile(once.Base, first, nil)

	assert.False(t, twice.Stale)
	assert.Equal(t, once.State, twice.State)
	assert.Equal(t, once.Base, twice.Base)
}

func TestReconcile_MonotonicDocuments(t *testing.T) {
	// Document statuses never regress from a terminal per-document state
	// across increasing arrivals, retry commands absent
	sequence := []*JobSnapshot{
		snap(1, JobProcessing, doc("a", DocProcessing), doc("b", DocPending)),
		snap(2, JobProcessing, doc("a", DocIndexed), doc("b", DocProcessing)),
		snap(3, JobProcessing, doc("a", DocPending), doc("b", DocFailed)), // server misbehaving
		snap(4, JobProcessing, doc("a", DocProcessing), doc("b", DocPending)),
	}

	var base *JobSnapshot
	for _, incoming := range sequence {
		result := Reconcile(base, incoming, nil)
		base = result.Base
	}

	assert.Equal(t, DocIndexed, base.Documents[0].Status)
	assert.Equal(t, DocFailed, base.Documents[1].Status)
}

func TestReconcile_IllegalJobTransitionReported(t *testing.T) {
	current := snap(1, JobCompleted, doc("a", DocIndexed))
	incoming := snap(2, JobProcessing, doc("a", DocIndexed))

	result := Reconcile(current, incoming, nil)

	assert.Equal(t, JobCompleted, result.Base.Status)
	require.Len(t, result.Anomalies, 1)
	assert.Equal(t, string(JobCompleted), result.Anomalies[0].From)
	assert.Equal(t, string(JobProcessing), result.Anomalies[0].To)
}

func TestReconcile_PartialSnapshotRetainsOmittedEntries(t *testing.T) {
	current := snap(1, JobProcessing, doc("a", DocIndexed), doc("b", DocProcessing), doc("c", DocPending))
	partial := snap(2, JobProcessing, doc("b", DocIndexed))
	partial.TotalDocuments = 3

	result := Reconcile(current, partial, nil)

	require.Len(t, result.Base.Documents, 3)
	assert.Equal(t, DocIndexed, result.Base.Documents[0].Status)
	assert.Equal(t, DocIndexed, result.Base.Documents[1].Status)
	assert.Equal(t, DocPending, result.Base.Documents[2].Status)
}

func TestReconcile_DocumentListOnlyGrows(t *testing.T) {
	current := snap(1, JobProcessing, doc("a", DocIndexed))
	incoming := snap(2, JobProcessing, doc("a", DocIndexed), doc("b", DocPending))

	result := Reconcile(current, incoming, nil)

	require.Len(t, result.Base.Documents, 2)
	assert.Equal(t, "b", result.Base.Documents[1].ID)
}

func TestReconcile_CompletedWithActiveDocumentsKeptProcessing(t *testing.T) {
	current := snap(1, JobProcessing, doc("a", DocIndexed), doc("b", DocProcessing))
	incoming := snap(2, JobCompleted, doc("a", DocIndexed), doc("b", DocProcessing))

	result := Reconcile(current, incoming, nil)

	assert.Equal(t, JobProcessing, result.Base.Status)
	require.Len(t, result.Anomalies, 1)
	assert.Contains(t, result.Anomalies[0].Message, "active documents")
}

func TestReconcile_FirstSnapshotCompletedWithActiveDocumentsKeptProcessing(t *testing.T) {
	// Document-level truth applies to the very first observation too
	incoming := snap(1, JobCompleted, doc("a", DocIndexed), doc("b", DocProcessing))

	result := Reconcile(nil, incoming, nil)

	assert.Equal(t, JobProcessing, result.State.Status)
	assert.Equal(t, JobProcessing, result.Base.Status)
	require.Len(t, result.Anomalies, 1)
	assert.Contains(t, result.Anomalies[0].Message, "active documents")
}

func TestReconcile_PartialSnapshotKeepsServerCounters(t *testing.T) {
	// The server paginates the document list: only 3 of 10 entries arrive.
	// Counters must come from the server verbatim, never recounted from the
	// incomplete list, so displayed progress cannot regress.
	first := snap(1, JobProcessing, doc("a", DocIndexed), doc("b", DocIndexed), doc("c", DocProcessing))
	first.TotalDocuments = 10
	first.ProcessedDocuments = 7
	first.FailedDocuments = 1

	result := Reconcile(nil, first, nil)
	assert.Equal(t, 7, result.Base.ProcessedDocuments)
	assert.Equal(t, 1, result.Base.FailedDocuments)

	second := snap(2, JobProcessing, doc("b", DocIndexed), doc("c", DocIndexed))
	second.TotalDocuments = 10
	second.ProcessedDocuments = 8
	second.FailedDocuments = 1

	result = Reconcile(result.Base, second, nil)
	assert.Equal(t, 8, result.Base.ProcessedDocuments)
	assert.Equal(t, 1, result.Base.FailedDocuments)
	assert.Equal(t, 10, result.Base.TotalDocuments)
}

func TestReconcile_OptimisticPauseOverridesLateRace(t *testing.T) {
	current := snap(1, JobProcessing, doc("a", DocProcessing))
	pending := []PendingCommand{{
		Kind:         CommandPause,
		IssuedAt:     time.Now(),
		TargetStatus: JobPaused,
	}}

	// Displayed state is paused immediately
	assert.Equal(t, JobPaused, Overlay(current, pending).Status)

	// A late snapshot still reporting processing does not undo the overlay
	late := snap(2, JobProcessing, doc("a", DocProcessing))
	result := Reconcile(current, late, pending)
	assert.Equal(t, JobPaused, result.State.Status)
	assert.Empty(t, result.Resolved)

	// The confirming snapshot resolves the command and leaves status paused
	confirm := snap(3, JobPaused, doc("a", DocProcessing))
	result = Reconcile(result.Base, confirm, pending)
	assert.Equal(t, JobPaused, result.State.Status)
	require.Len(t, result.Resolved, 1)
	assert.Equal(t, CommandPause, result.Resolved[0].Kind)
}

func TestReconcile_RetryCommandForcesPendingUntilServerMoves(t *testing.T) {
	current := snap(1, JobProcessing, doc("a", DocFailed), doc("b", DocIndexed))
	pending := []PendingCommand{{
		Kind:       CommandRetryDocument,
		DocumentID: "a",
		IssuedAt:   time.Now(),
	}}

	// Overlay shows the document as pending again
	state := Overlay(current, pending)
	assert.Equal(t, DocPending, state.Documents[0].Status)
	assert.Empty(t, state.Documents[0].Error)

	// A snapshot still reporting failed does not resolve the retry
	still := snap(2, JobProcessing, doc("a", DocFailed), doc("b", DocIndexed))
	result := Reconcile(current, still, pending)
	assert.Equal(t, DocPending, result.State.Documents[0].Status)
	assert.Empty(t, result.Resolved)

	// The server moving the document off failed resolves it
	moved := snap(3, JobProcessing, doc("a", DocProcessing), doc("b", DocIndexed))
	result = Reconcile(result.Base, moved, pending)
	assert.Equal(t, DocProcessing, result.Base.Documents[0].Status)
	require.Len(t, result.Resolved, 1)
	assert.Equal(t, "a", result.Resolved[0].DocumentID)
}

func TestReconcile_FailedDocumentNeverLeavesWithoutRetry(t *testing.T) {
	current := snap(1, JobProcessing, doc("a", DocFailed))
	incoming := snap(2, JobProcessing, doc("a", DocPending))

	result := Reconcile(current, incoming, nil)

	assert.Equal(t, DocFailed, result.Base.Documents[0].Status)
	require.Len(t, result.Anomalies, 1)
	assert.Equal(t, "a", result.Anomalies[0].DocumentID)
}

func TestReconcile_PureFunction(t *testing.T) {
	current := snap(1, JobProcessing, doc("a", DocFailed))
	incoming := snap(2, JobProcessing, doc("a", DocFailed))
	pending := []PendingCommand{{Kind: CommandRetryDocument, DocumentID: "a", IssuedAt: time.Unix(100, 0)}}

	first := Reconcile(current, incoming, pending)
	second := Reconcile(current, incoming, pending)

	assert.Equal(t, first, second)
	// Inputs untouched
	assert.Equal(t, DocFailed, current.Documents[0].Status)
	assert.Equal(t, DocFailed, incoming.Documents[0].Status)
}
