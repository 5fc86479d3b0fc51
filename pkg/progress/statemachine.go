package progress

import "fmt"

// jobTransitions is the legal job-level state machine. A snapshot proposing
// a transition outside this table is ignored and reported as an anomaly.
// Failure is reachable from every non-terminal state: a run can fail before
// its first document (job still pending) and the stale-heartbeat sweep fails
// paused jobs whose run has died, so those snapshots must be accepted.
var jobTransitions = map[JobStatus]map[JobStatus]bool{
	JobPending: {
		JobProcessing: true,
		JobCancelled:  true,
		JobFailed:     true,
	},
	JobProcessing: {
		JobPaused:    true,
		JobCompleted: true,
		JobFailed:    true,
		JobCancelled: true,
	},
	JobPaused: {
		JobProcessing: true,
		JobCancelled:  true,
		JobFailed:     true,
	},
	// Terminal states have no outgoing transitions
	JobCompleted: {},
	JobFailed:    {},
	JobCancelled: {},
}

// JobTransitionLegal reports whether a job may move from one status to
// another. Staying put is always legal.
func JobTransitionLegal(from, to JobStatus) bool {
	if from == to {
		return true
	}
	return jobTransitions[from][to]
}

// DocTransitionLegal reports whether a document may move from one status to
// another. Leaving "failed" is only legal when a retry command for the
// document is outstanding; it never happens spontaneously.
func DocTransitionLegal(from, to DocumentStatus, retryOutstanding bool) bool {
	if from == to {
		return true
	}
	switch from {
	case DocPending:
		return to == DocProcessing || to == DocIndexed || to == DocFailed
	case DocProcessing:
		return to == DocIndexed || to == DocFailed
	case DocFailed:
		return retryOutstanding
	case DocIndexed:
		return false
	}
	return false
}

// Anomaly records a snapshot that proposed an illegal transition or an
// internally contradictory combination. Anomalies are reported, never
// silently applied.
type Anomaly struct {
	JobID      string
	DocumentID string // empty for job-level anomalies
	From       string
	To         string
	Message    string
}

func (a Anomaly) String() string {
	if a.DocumentID != "" {
		return fmt.Sprintf("job %s document %s: %s (%s -> %s)", a.JobID, a.DocumentID, a.Message, a.From, a.To)
	}
	return fmt.Sprintf("job %s: %s (%s -> %s)", a.JobID, a.Message, a.From, a.To)
}
