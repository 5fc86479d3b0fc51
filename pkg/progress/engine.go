package progress

import (
	"sync"

	"github.com/ternarybob/arbor"
)

// Engine owns the reconciled view of one job: the confirmed base state plus
// the set of outstanding pending commands. All mutation goes through the
// pure Reconcile/Overlay functions; the engine only serializes access and
// resolves commands the incoming snapshots corroborate.
type Engine struct {
	mu      sync.Mutex
	base    *JobSnapshot
	pending []PendingCommand
	logger  arbor.ILogger

	staleDiscarded uint64
	anomalies      []Anomaly
}

// NewEngine creates an engine with no observed state yet
func NewEngine(logger arbor.ILogger) *Engine {
	return &Engine{logger: logger}
}

// Apply merges an incoming snapshot and returns the new displayed state.
// Commands the snapshot confirms are cleared from the pending set.
func (e *Engine) Apply(incoming *JobSnapshot) *JobSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	result := Reconcile(e.base, incoming, e.pending)

	if result.Stale {
		e.staleDiscarded++
		e.logger.Debug().
			Str("job_id", incoming.JobID).
			Int64("received_at", int64(incoming.ReceivedAt)).
			Int64("current", int64(e.base.ReceivedAt)).
			Msg("Discarded stale snapshot")
		return result.State
	}

	e.base = result.Base
	for _, cmd := range result.Resolved {
		e.removeLocked(cmd)
		e.logger.Debug().
			Str("job_id", incoming.JobID).
			Str("command", string(cmd.Kind)).
			Str("document_id", cmd.DocumentID).
			Msg("Pending command confirmed by snapshot")
	}
	for _, a := range result.Anomalies {
		e.anomalies = append(e.anomalies, a)
		e.logger.Warn().
			Str("job_id", a.JobID).
			Str("document_id", a.DocumentID).
			Str("from", a.From).
			Str("to", a.To).
			Msg(a.Message)
	}

	return Overlay(e.base, e.pending)
}

// AddCommand registers a pending command and returns the displayed state
// with the command's optimistic effect applied. Returns nil state if no
// snapshot has been observed yet.
func (e *Engine) AddCommand(cmd PendingCommand) *JobSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.pending = append(e.pending, cmd)
	if e.base == nil {
		return nil
	}
	return Overlay(e.base, e.pending)
}

// RemoveCommand rolls a pending command back and returns the displayed
// state, which is exactly the prior confirmed state where the command was
// the only overlay.
func (e *Engine) RemoveCommand(cmd PendingCommand) *JobSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.removeLocked(cmd)
	if e.base == nil {
		return nil
	}
	return Overlay(e.base, e.pending)
}

func (e *Engine) removeLocked(cmd PendingCommand) {
	for i := range e.pending {
		if e.pending[i].matches(cmd) {
			e.pending = append(e.pending[:i], e.pending[i+1:]...)
			return
		}
	}
}

// State returns the current displayed state, or nil before the first
// snapshot
func (e *Engine) State() *JobSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.base == nil {
		return nil
	}
	return Overlay(e.base, e.pending)
}

// Pending returns a copy of the outstanding command set
func (e *Engine) Pending() []PendingCommand {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]PendingCommand, len(e.pending))
	copy(out, e.pending)
	return out
}

// StaleDiscarded reports how many snapshots the stale-read guard dropped.
// Not user-visible; exists for diagnostics and tests.
func (e *Engine) StaleDiscarded() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.staleDiscarded
}

// Anomalies returns every illegal transition observed so far
func (e *Engine) Anomalies() []Anomaly {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Anomaly, len(e.anomalies))
	copy(out, e.anomalies)
	return out
}
