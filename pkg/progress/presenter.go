package progress

// StatusCounts is the number of documents in each per-document state
type StatusCounts struct {
	Pending    int
	Processing int
	Indexed    int
	Failed     int
}

// Summary is the display view of one reconciled snapshot. Derived from the
// snapshot alone on every call, so a consumer can be torn down and remounted
// without losing anything.
type Summary struct {
	Status      JobStatus
	StatusLabel string
	Counts      StatusCounts

	// OverallProgress is the completed percentage in [0, 100]. Only
	// successfully indexed documents count toward it; failed documents do
	// not advance the bar.
	OverallProgress float64

	CurrentDocument string
	Error           string
}

var statusLabels = map[JobStatus]string{
	JobPending:    "Waiting to start",
	JobProcessing: "Indexing",
	JobPaused:     "Paused",
	JobCompleted:  "Completed",
	JobFailed:     "Failed",
	JobCancelled:  "Cancelled",
}

// StatusLabel returns the human label for a job status
func StatusLabel(status JobStatus) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return string(status)
}

// Summarize derives the display aggregates for a snapshot. A nil snapshot
// (nothing observed yet) yields a zero summary with a waiting label.
func Summarize(s *JobSnapshot) Summary {
	if s == nil {
		return Summary{Status: JobPending, StatusLabel: StatusLabel(JobPending)}
	}

	var counts StatusCounts
	for i := range s.Documents {
		switch s.Documents[i].Status {
		case DocPending:
			counts.Pending++
		case DocProcessing:
			counts.Processing++
		case DocIndexed:
			counts.Indexed++
		case DocFailed:
			counts.Failed++
		}
	}

	total := s.TotalDocuments
	if total < 1 {
		total = 1
	}
	percent := float64(s.ProcessedDocuments) / float64(total) * 100
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	return Summary{
		Status:          s.Status,
		StatusLabel:     StatusLabel(s.Status),
		Counts:          counts,
		OverallProgress: percent,
		CurrentDocument: s.CurrentDocument,
		Error:           s.Error,
	}
}
