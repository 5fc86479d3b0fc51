package indexer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/mishrapravin114/pharmadoc/internal/common"
	"github.com/mishrapravin114/pharmadoc/internal/interfaces"
	"github.com/mishrapravin114/pharmadoc/internal/models"
)

// Extractor performs the per-document indexing work: extracting the configured
// metadata fields from a document's content.
type Extractor interface {
	Extract(ctx context.Context, doc *models.Document, fields []*models.MetadataField) (map[string]string, error)
}

// Service implements IndexerService. It runs one goroutine per active job,
// processing the job's documents sequentially in submission order, and
// publishes an EventJobSnapshot after every state change.
type Service struct {
	storage   interfaces.StorageManager
	events    interfaces.EventService
	extractor Extractor
	logger    arbor.ILogger
	docDelay  time.Duration

	mu     sync.Mutex
	active map[string]*jobRun
	wg     sync.WaitGroup
}

// NewService creates a new indexer service
func NewService(storage interfaces.StorageManager, events interfaces.EventService, extractor Extractor, config *common.IndexerConfig, logger arbor.ILogger) *Service {
	var delay time.Duration
	if config != nil && config.DocumentDelay != "" {
		if d, err := time.ParseDuration(config.DocumentDelay); err == nil {
			delay = d
		} else {
			logger.Warn().Str("document_delay", config.DocumentDelay).Msg("Invalid indexer.document_delay, ignoring")
		}
	}

	return &Service{
		storage:   storage,
		events:    events,
		extractor: extractor,
		logger:    logger,
		docDelay:  delay,
		active:    make(map[string]*jobRun),
	}
}

// StartJob creates and starts an indexing job over the given documents.
// An empty documentIDs slice indexes the whole collection. Document order in
// the job follows upload order.
func (s *Service) StartJob(ctx context.Context, collectionID string, documentIDs []string) (*models.IndexJob, error) {
	if _, err := s.storage.CollectionStorage().GetCollection(ctx, collectionID); err != nil {
		return nil, err
	}

	docs, err := s.storage.DocumentStorage().ListDocuments(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	selected := docs
	if len(documentIDs) > 0 {
		wanted := make(map[string]bool, len(documentIDs))
		for _, id := range documentIDs {
			wanted[id] = true
		}
		selected = selected[:0:0]
		for _, d := range docs {
			if wanted[d.ID] {
				selected = append(selected, d)
			}
		}
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no documents to index in collection %s", collectionID)
	}

	entries := make([]models.DocumentEntry, len(selected))
	for i, d := range selected {
		entries[i] = models.DocumentEntry{ID: d.ID, Name: d.Name}
	}

	job := models.NewIndexJob(common.NewJobID(), collectionID, entries)
	if err := s.storage.JobStorage().SaveJob(ctx, job); err != nil {
		return nil, err
	}

	run := newJobRun(job)
	s.mu.Lock()
	s.active[job.ID] = run
	s.mu.Unlock()

	s.logger.Info().
		Str("job_id", job.ID).
		Str("collection_id", collectionID).
		Int("total_documents", job.TotalDocuments).
		Msg("Indexing job started")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(run)
	}()

	return job.Clone(), nil
}

// GetJob returns the current snapshot of a job, preferring the live in-memory
// state of an active run over the persisted copy.
func (s *Service) GetJob(ctx context.Context, jobID string) (*models.IndexJob, error) {
	s.mu.Lock()
	run, ok := s.active[jobID]
	s.mu.Unlock()

	if ok {
		return run.snapshot(), nil
	}
	return s.storage.JobStorage().GetJob(ctx, jobID)
}

// ListJobs lists jobs from storage
func (s *Service) ListJobs(ctx context.Context, opts *interfaces.JobListOptions) ([]*models.IndexJob, error) {
	return s.storage.JobStorage().ListJobs(ctx, opts)
}

// PauseJob requests a pause. Legal only while the job is processing.
func (s *Service) PauseJob(ctx context.Context, jobID string) error {
	run, err := s.activeRun(jobID)
	if err != nil {
		return err
	}
	if err := run.requestPause(); err != nil {
		return err
	}
	s.publish(run)
	s.persist(ctx, run)
	s.logger.Info().Str("job_id", jobID).Msg("Indexing job paused")
	return nil
}

// ResumeJob resumes a paused job
func (s *Service) ResumeJob(ctx context.Context, jobID string) error {
	run, err := s.activeRun(jobID)
	if err != nil {
		return err
	}
	if err := run.requestResume(); err != nil {
		return err
	}
	s.logger.Info().Str("job_id", jobID).Msg("Indexing job resumed")
	return nil
}

// CancelJob cancels a pending, processing or paused job
func (s *Service) CancelJob(ctx context.Context, jobID string) error {
	run, err := s.activeRun(jobID)
	if err != nil {
		return err
	}
	if err := run.requestCancel(); err != nil {
		return err
	}
	s.logger.Info().Str("job_id", jobID).Msg("Indexing job cancel requested")
	return nil
}

// RetryDocument re-queues a failed document for another indexing attempt.
// The entry transitions back to pending; the run loop picks it up after the
// remaining documents.
func (s *Service) RetryDocument(ctx context.Context, jobID, documentID string) error {
	run, err := s.activeRun(jobID)
	if err != nil {
		return err
	}
	if err := run.requestRetry(documentID); err != nil {
		return err
	}
	s.publish(run)
	s.persist(ctx, run)
	s.logger.Info().
		Str("job_id", jobID).
		Str("document_id", documentID).
		Msg("Document retry queued")
	return nil
}

// Stop cancels all active jobs and waits for their run loops to exit
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	runs := make([]*jobRun, 0, len(s.active))
	for _, run := range s.active {
		runs = append(runs, run)
	}
	s.mu.Unlock()

	for _, run := range runs {
		// Best effort, runs that already finished reject the command
		_ = run.requestCancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("indexer shutdown timed out: %w", ctx.Err())
	}
}

func (s *Service) activeRun(jobID string) (*jobRun, error) {
	s.mu.Lock()
	run, ok := s.active[jobID]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("job not active: %s", jobID)
	}
	return run, nil
}

// run is the job's processing loop. All mutation of the job happens here and
// in the control methods, serialized by the run's lock.
func (s *Service) run(run *jobRun) {
	ctx := context.Background()
	jobID := run.jobID()

	defer func() {
		s.mu.Lock()
		delete(s.active, jobID)
		s.mu.Unlock()
	}()

	fields, err := s.storage.CollectionStorage().ListMetadataFields(ctx, run.collectionID())
	if err != nil {
		run.markFailed(fmt.Sprintf("Storage: %v", err))
		s.publish(run)
		s.persist(ctx, run)
		return
	}

	run.markStarted()
	s.publish(run)
	s.persist(ctx, run)

	for {
		docID, proceed := run.nextDocument()
		if !proceed {
			break
		}
		if docID == "" {
			// Paused; wait until resumed or cancelled
			s.publish(run)
			s.persist(ctx, run)
			run.awaitResume()
			if !run.isCancelled() {
				s.publish(run)
			}
			continue
		}

		s.processDocument(ctx, run, docID, fields)
		s.publish(run)
		s.persist(ctx, run)

		if s.docDelay > 0 {
			time.Sleep(s.docDelay)
		}
	}

	if run.isCancelled() {
		run.markCancelled()
	} else {
		run.markCompleted()
	}
	s.publish(run)
	s.persist(ctx, run)

	s.logger.Info().
		Str("job_id", jobID).
		Str("status", string(run.status())).
		Msg("Indexing job finished")
}

func (s *Service) processDocument(ctx context.Context, run *jobRun, docID string, fields []*models.MetadataField) {
	doc, err := s.storage.DocumentStorage().GetDocument(ctx, docID)
	if err != nil {
		run.markDocumentFailed(docID, fmt.Sprintf("Storage: %v", err))
		return
	}

	run.markDocumentProcessing(docID, doc.Name)
	s.publish(run)

	metadata, err := s.extractor.Extract(ctx, doc, fields)
	if err != nil {
		run.markDocumentFailed(docID, fmt.Sprintf("Extraction: %v", err))
		return
	}

	now := time.Now()
	doc.Metadata = metadata
	doc.IndexedAt = &now
	if err := s.storage.DocumentStorage().SaveDocument(ctx, doc); err != nil {
		run.markDocumentFailed(docID, fmt.Sprintf("Storage: %v", err))
		return
	}

	run.markDocumentIndexed(docID)

	s.events.Publish(ctx, interfaces.Event{
		Type:    interfaces.EventDocumentIndexed,
		Payload: doc,
	})
}

// publish pushes the current job snapshot onto the event bus
func (s *Service) publish(run *jobRun) {
	s.events.Publish(context.Background(), interfaces.Event{
		Type:    interfaces.EventJobSnapshot,
		Payload: run.snapshot(),
	})
}

// persist writes the current job state to storage
func (s *Service) persist(ctx context.Context, run *jobRun) {
	if err := s.storage.JobStorage().SaveJob(ctx, run.snapshot()); err != nil {
		s.logger.Error().Err(err).Str("job_id", run.jobID()).Msg("Failed to persist job state")
	}
}
