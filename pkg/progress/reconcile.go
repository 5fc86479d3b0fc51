package progress

// Result is the outcome of merging one incoming snapshot.
//
// Base is the server-confirmed state: the monotonic merge of everything the
// transport has delivered, with no local intent applied. State is what the
// consumer displays: Base with the outstanding pending commands overlaid.
// Keeping both is what makes rollback exact - removing a pending command and
// re-deriving the overlay restores the prior confirmed state bit for bit.
type Result struct {
	State    *JobSnapshot
	Base     *JobSnapshot
	Resolved []PendingCommand
	Anomalies []Anomaly
	Stale    bool
}

// Reconcile merges an incoming snapshot into the current confirmed state
// under the outstanding pending commands.
//
// The function is pure: identical (current, incoming, pending) triples yield
// identical results, and none of the inputs are mutated. Serialization of
// calls is the caller's job (see Engine).
func Reconcile(current, incoming *JobSnapshot, pending []PendingCommand) Result {
	// First observation: accept, subject to the same document-level-truth
	// guard as every later merge
	if current == nil {
		base := incoming.Clone()
		var anomalies []Anomaly
		if a := completedGuard(base, incoming.JobID); a != nil {
			anomalies = append(anomalies, *a)
		}
		if base.Status != JobProcessing {
			base.CurrentDocument = ""
		}
		return Result{
			State:     Overlay(base, pending),
			Base:      base,
			Resolved:  resolvedBy(base, incoming, pending),
			Anomalies: anomalies,
		}
	}

	// Stale-read guard: an older arrival never regresses state already shown.
	// Equal sequence numbers replay the same observation and fall through so
	// replay stays idempotent.
	if incoming.ReceivedAt < current.ReceivedAt {
		return Result{
			State: Overlay(current, pending),
			Base:  current,
			Stale: true,
		}
	}

	base := current.Clone()
	base.ReceivedAt = incoming.ReceivedAt
	var anomalies []Anomaly

	// Job-level status: legal transitions apply, illegal ones are kept out
	// and reported
	if JobTransitionLegal(current.Status, incoming.Status) {
		base.Status = incoming.Status
	} else {
		anomalies = append(anomalies, Anomaly{
			JobID:   incoming.JobID,
			From:    string(current.Status),
			To:      string(incoming.Status),
			Message: "illegal job status transition ignored",
		})
	}

	// Per-document merge. Entries incoming omits are retained from current;
	// entries current has never seen are appended. Order stays submission
	// order throughout.
	incomingByID := make(map[string]*DocumentEntry, len(incoming.Documents))
	for i := range incoming.Documents {
		incomingByID[incoming.Documents[i].ID] = &incoming.Documents[i]
	}
	for i := range base.Documents {
		in, ok := incomingByID[base.Documents[i].ID]
		if !ok {
			continue
		}
		from := base.Documents[i].Status
		retry := retryOutstanding(pending, base.Documents[i].ID)
		if DocTransitionLegal(from, in.Status, retry) {
			base.Documents[i].Status = in.Status
			base.Documents[i].Error = in.Error
			if in.Name != "" {
				base.Documents[i].Name = in.Name
			}
		} else {
			anomalies = append(anomalies, Anomaly{
				JobID:      incoming.JobID,
				DocumentID: base.Documents[i].ID,
				From:       string(from),
				To:         string(in.Status),
				Message:    "illegal document status transition ignored",
			})
		}
	}
	known := make(map[string]bool, len(base.Documents))
	for i := range base.Documents {
		known[base.Documents[i].ID] = true
	}
	for i := range incoming.Documents {
		if !known[incoming.Documents[i].ID] {
			base.Documents = append(base.Documents, incoming.Documents[i])
		}
	}

	// Counters come from the server except where the document list proves
	// them wrong. The list only proves anything when it is complete: a
	// partial delivery undercounts, and recounting off it would walk the
	// displayed progress backwards across strictly newer arrivals.
	base.TotalDocuments = incoming.TotalDocuments
	if len(base.Documents) > base.TotalDocuments {
		base.TotalDocuments = len(base.Documents)
	}
	base.ProcessedDocuments = incoming.ProcessedDocuments
	base.FailedDocuments = incoming.FailedDocuments
	if len(base.Documents) > 0 && len(base.Documents) >= base.TotalDocuments {
		base.recountProgress()
	}

	if a := completedGuard(base, incoming.JobID); a != nil {
		anomalies = append(anomalies, *a)
	}

	base.CurrentDocument = incoming.CurrentDocument
	if base.Status != JobProcessing {
		base.CurrentDocument = ""
	}
	base.Error = incoming.Error

	return Result{
		State:     Overlay(base, pending),
		Base:      base,
		Resolved:  resolvedBy(base, incoming, pending),
		Anomalies: anomalies,
	}
}

// Overlay applies the outstanding pending commands on top of a confirmed
// snapshot, producing the state to display. The input is not mutated.
func Overlay(base *JobSnapshot, pending []PendingCommand) *JobSnapshot {
	state := base.Clone()
	if len(pending) == 0 {
		return state
	}

	// The newest job-level command wins until confirmed or rolled back
	if cmd := newestJobCommand(pending); cmd != nil && !state.Status.IsTerminal() {
		if state.Status != cmd.TargetStatus {
			state.Status = cmd.TargetStatus
			if state.Status != JobProcessing {
				state.CurrentDocument = ""
			}
		}
	}

	// Outstanding per-document retries show as pending again
	changed := false
	for i := range state.Documents {
		if state.Documents[i].Status == DocFailed && retryOutstanding(pending, state.Documents[i].ID) {
			state.Documents[i].Status = DocPending
			state.Documents[i].Error = ""
			changed = true
		}
	}
	if changed {
		state.recountProgress()
	}

	return state
}

// resolvedBy returns the pending commands the merged state corroborates.
// A job-level command resolves once the confirmed status reaches its target
// (or the job went terminal, making the command moot). A retry resolves once
// the server reports the document as anything other than failed.
func resolvedBy(base, incoming *JobSnapshot, pending []PendingCommand) []PendingCommand {
	var resolved []PendingCommand
	for _, cmd := range pending {
		switch {
		case cmd.Kind.isJobLevel():
			if base.Status == cmd.TargetStatus || base.Status.IsTerminal() {
				resolved = append(resolved, cmd)
			}
		case cmd.Kind == CommandRetryDocument:
			if entry := incoming.Entry(cmd.DocumentID); entry != nil && entry.Status != DocFailed {
				resolved = append(resolved, cmd)
			}
		}
	}
	return resolved
}

// completedGuard enforces document-level truth: a job is never reported
// completed while any entry is still pending or processing. The contradiction
// is surfaced as an anomaly, not applied.
func completedGuard(base *JobSnapshot, jobID string) *Anomaly {
	if base.Status != JobCompleted || !hasActiveDocuments(base) {
		return nil
	}
	base.Status = JobProcessing
	return &Anomaly{
		JobID:   jobID,
		From:    string(JobProcessing),
		To:      string(JobCompleted),
		Message: "completed snapshot still has active documents",
	}
}

func hasActiveDocuments(s *JobSnapshot) bool {
	for i := range s.Documents {
		if s.Documents[i].Status == DocPending || s.Documents[i].Status == DocProcessing {
			return true
		}
	}
	return false
}
