package indexer

import (
	"fmt"
	"sync"

	"github.com/mishrapravin114/pharmadoc/internal/models"
)

// jobRun holds the live state of one executing job. The run loop and the
// control methods both mutate the job under the run's lock; snapshots handed
// out are always deep copies.
type jobRun struct {
	mu   sync.Mutex
	cond *sync.Cond

	job *models.IndexJob
	// queue holds document IDs still to process, in submission order.
	// Retried documents are appended at the tail.
	queue []string

	pauseRequested  bool
	cancelRequested bool
}

func newJobRun(job *models.IndexJob) *jobRun {
	queue := make([]string, len(job.Documents))
	for i := range job.Documents {
		queue[i] = job.Documents[i].ID
	}
	run := &jobRun{
		job:   job.Clone(),
		queue: queue,
	}
	run.cond = sync.NewCond(&run.mu)
	return run
}

func (r *jobRun) jobID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.job.ID
}

func (r *jobRun) collectionID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.job.CollectionID
}

func (r *jobRun) status() models.JobStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.job.Status
}

// snapshot returns a deep copy of the current job state
func (r *jobRun) snapshot() *models.IndexJob {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.job.Clone()
}

// nextDocument hands the run loop its next unit of work.
// Returns ("", false) when the run should stop (queue drained or cancelled),
// and ("", true) when the run is paused and should wait.
func (r *jobRun) nextDocument() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancelRequested {
		return "", false
	}
	if r.pauseRequested {
		return "", true
	}
	if len(r.queue) == 0 {
		return "", false
	}

	docID := r.queue[0]
	r.queue = r.queue[1:]
	return docID, true
}

// awaitResume blocks while the run is paused, until resumed or cancelled
func (r *jobRun) awaitResume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.pauseRequested && !r.cancelRequested {
		r.cond.Wait()
	}
}

func (r *jobRun) isCancelled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelRequested
}

func (r *jobRun) requestPause() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.job.CanPause() {
		return fmt.Errorf("cannot pause job in status %s", r.job.Status)
	}
	r.pauseRequested = true
	r.job.MarkPaused()
	return nil
}

func (r *jobRun) requestResume() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.job.CanResume() {
		return fmt.Errorf("cannot resume job in status %s", r.job.Status)
	}
	r.pauseRequested = false
	r.job.Status = models.JobStatusProcessing
	r.job.UpdateHeartbeat()
	r.cond.Broadcast()
	return nil
}

func (r *jobRun) requestCancel() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.job.CanCancel() {
		return fmt.Errorf("cannot cancel job in status %s", r.job.Status)
	}
	r.cancelRequested = true
	r.cond.Broadcast()
	return nil
}

// requestRetry re-queues a failed document. The entry goes back to pending
// immediately; processing happens after whatever is already queued.
func (r *jobRun) requestRetry(documentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.job.IsTerminal() {
		return fmt.Errorf("cannot retry document on job in status %s", r.job.Status)
	}
	entry := r.job.Entry(documentID)
	if entry == nil {
		return fmt.Errorf("document not part of job: %s", documentID)
	}
	if entry.Status != models.DocStatusFailed {
		return fmt.Errorf("cannot retry document in status %s", entry.Status)
	}

	entry.Status = models.DocStatusPending
	entry.Error = ""
	r.job.RecountProgress()
	r.queue = append(r.queue, documentID)
	return nil
}

func (r *jobRun) markStarted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelRequested {
		return
	}
	r.job.MarkStarted()
}

func (r *jobRun) markCompleted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.job.MarkCompleted()
}

func (r *jobRun) markCancelled() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.job.MarkCancelled()
}

func (r *jobRun) markFailed(errorMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.job.MarkFailed(errorMsg)
}

func (r *jobRun) markDocumentProcessing(documentID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry := r.job.Entry(documentID); entry != nil {
		entry.Status = models.DocStatusProcessing
	}
	if r.job.Status == models.JobStatusProcessing {
		r.job.CurrentDocument = name
	}
	r.job.UpdateHeartbeat()
}

func (r *jobRun) markDocumentIndexed(documentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry := r.job.Entry(documentID); entry != nil {
		entry.Status = models.DocStatusIndexed
		entry.Error = ""
	}
	r.job.CurrentDocument = ""
	r.job.RecountProgress()
	r.job.UpdateHeartbeat()
}

func (r *jobRun) markDocumentFailed(documentID, errorMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry := r.job.Entry(documentID); entry != nil {
		entry.Status = models.DocStatusFailed
		entry.Error = errorMsg
	}
	r.job.CurrentDocument = ""
	r.job.RecountProgress()
	r.job.UpdateHeartbeat()
}
