package progress

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
)

// Controller issues control commands against one job. Each command is
// checked against the state machine locally, applied optimistically through
// the engine's pending-command set, then sent to the server; a refused or
// failed call removes the pending command again, restoring the prior
// confirmed state exactly.
type Controller struct {
	client *Client
	engine *Engine
	jobID  string
	logger arbor.ILogger

	mu           sync.Mutex
	bulkInFlight bool
}

// NewController creates a controller bound to one job and its engine
func NewController(client *Client, engine *Engine, jobID string, logger arbor.ILogger) *Controller {
	return &Controller{
		client: client,
		engine: engine,
		jobID:  jobID,
		logger: logger,
	}
}

// Pause pauses a processing job
func (c *Controller) Pause(ctx context.Context) error {
	return c.jobCommand(ctx, CommandPause, JobPaused, func(s JobStatus) bool {
		return s == JobProcessing
	}, c.client.PauseJob)
}

// Resume resumes a paused job
func (c *Controller) Resume(ctx context.Context) error {
	return c.jobCommand(ctx, CommandResume, JobProcessing, func(s JobStatus) bool {
		return s == JobPaused
	}, c.client.ResumeJob)
}

// Cancel cancels a job that has not finished
func (c *Controller) Cancel(ctx context.Context) error {
	return c.jobCommand(ctx, CommandCancel, JobCancelled, func(s JobStatus) bool {
		return s == JobPending || s == JobProcessing || s == JobPaused
	}, c.client.CancelJob)
}

// jobCommand runs the shared optimistic-command sequence: precondition,
// pending overlay, API call, rollback on failure
func (c *Controller) jobCommand(ctx context.Context, kind CommandKind, target JobStatus, legal func(JobStatus) bool, call func(context.Context, string) error) error {
	state := c.engine.State()
	if state == nil || !legal(state.Status) {
		from := JobStatus("unknown")
		if state != nil {
			from = state.Status
		}
		return &InvalidTransitionError{Command: kind, From: from}
	}

	cmd := PendingCommand{
		Kind:         kind,
		IssuedAt:     time.Now(),
		TargetStatus: target,
	}
	c.engine.AddCommand(cmd)
	c.logger.Debug().
		Str("job_id", c.jobID).
		Str("command", string(kind)).
		Msg("Command applied optimistically")

	if err := call(ctx, c.jobID); err != nil {
		c.engine.RemoveCommand(cmd)
		c.logger.Warn().
			Err(err).
			Str("job_id", c.jobID).
			Str("command", string(kind)).
			Msg("Command failed, optimistic state rolled back")
		return err
	}

	return nil
}

// RetryDocument requeues one failed document. Legal only while the job is
// not terminal and the document is currently failed.
func (c *Controller) RetryDocument(ctx context.Context, documentID string) error {
	state := c.engine.State()
	if state == nil || state.Status.IsTerminal() {
		from := JobStatus("unknown")
		if state != nil {
			from = state.Status
		}
		return &InvalidTransitionError{Command: CommandRetryDocument, From: from}
	}
	entry := state.Entry(documentID)
	if entry == nil || entry.Status != DocFailed {
		return &InvalidTransitionError{Command: CommandRetryDocument, From: state.Status}
	}

	cmd := PendingCommand{
		Kind:       CommandRetryDocument,
		DocumentID: documentID,
		IssuedAt:   time.Now(),
	}
	c.engine.AddCommand(cmd)

	if err := c.client.RetryDocument(ctx, c.jobID, documentID); err != nil {
		c.engine.RemoveCommand(cmd)
		c.logger.Warn().
			Err(err).
			Str("job_id", c.jobID).
			Str("document_id", documentID).
			Msg("Document retry failed, optimistic state rolled back")
		return err
	}

	return nil
}

// RetryAllFailed retries every currently-failed document, one at a time in
// submission order. The failed set is fixed at invocation; failures that
// arrive mid-operation are not picked up. Only one bulk retry may be in
// flight per job.
func (c *Controller) RetryAllFailed(ctx context.Context) error {
	c.mu.Lock()
	if c.bulkInFlight {
		c.mu.Unlock()
		return ErrBulkRetryInFlight
	}
	c.bulkInFlight = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.bulkInFlight = false
		c.mu.Unlock()
	}()

	state := c.engine.State()
	if state == nil || state.Status.IsTerminal() {
		from := JobStatus("unknown")
		if state != nil {
			from = state.Status
		}
		return &InvalidTransitionError{Command: CommandRetryAll, From: from}
	}

	var failed []string
	for i := range state.Documents {
		if state.Documents[i].Status == DocFailed {
			failed = append(failed, state.Documents[i].ID)
		}
	}

	c.logger.Debug().
		Str("job_id", c.jobID).
		Int("count", len(failed)).
		Msg("Retrying all failed documents")

	var errs []error
	for _, documentID := range failed {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if err := c.RetryDocument(ctx, documentID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
