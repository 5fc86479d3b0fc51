package progress

import "time"

// CommandKind identifies one control operation against a job
type CommandKind string

const (
	CommandPause         CommandKind = "pause"
	CommandResume        CommandKind = "resume"
	CommandCancel        CommandKind = "cancel"
	CommandRetryDocument CommandKind = "retryDocument"
	CommandRetryAll      CommandKind = "retryAllFailed"
)

// isJobLevel reports whether the command asserts a job-level status
func (k CommandKind) isJobLevel() bool {
	return k == CommandPause || k == CommandResume || k == CommandCancel
}

// PendingCommand is a locally-issued control command that has not yet been
// confirmed by a snapshot. While outstanding, its asserted state overlays the
// server-confirmed state for optimistic feedback. It is removed either when a
// snapshot corroborates the asserted state or when the issuing call fails.
type PendingCommand struct {
	Kind CommandKind
	// DocumentID is set only for retryDocument commands
	DocumentID string
	IssuedAt   time.Time
	// TargetStatus is the job status the command optimistically asserts;
	// empty for document-level commands (those assert DocPending)
	TargetStatus JobStatus
}

// matches reports whether two commands refer to the same operation
func (c PendingCommand) matches(other PendingCommand) bool {
	return c.Kind == other.Kind && c.DocumentID == other.DocumentID && c.IssuedAt.Equal(other.IssuedAt)
}

// retryOutstanding reports whether a retry command for the document is in
// the pending set
func retryOutstanding(pending []PendingCommand, documentID string) bool {
	for _, cmd := range pending {
		if cmd.Kind == CommandRetryDocument && cmd.DocumentID == documentID {
			return true
		}
	}
	return false
}

// newestJobCommand returns the most recently issued job-level command, or nil
func newestJobCommand(pending []PendingCommand) *PendingCommand {
	var newest *PendingCommand
	for i := range pending {
		if !pending[i].Kind.isJobLevel() {
			continue
		}
		if newest == nil || pending[i].IssuedAt.After(newest.IssuedAt) {
			newest = &pending[i]
		}
	}
	return newest
}
