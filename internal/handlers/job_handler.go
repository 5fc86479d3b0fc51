package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/mishrapravin114/pharmadoc/internal/interfaces"
)

// JobHandler handles indexing job start, status and control requests
type JobHandler struct {
	indexer interfaces.IndexerService
	logger  arbor.ILogger
}

// NewJobHandler creates a new job handler
func NewJobHandler(indexer interfaces.IndexerService, logger arbor.ILogger) *JobHandler {
	return &JobHandler{
		indexer: indexer,
		logger:  logger,
	}
}

// StartJobRequest is the POST /api/jobs body
type StartJobRequest struct {
	CollectionID string   `json:"collection_id" validate:"required"`
	DocumentIDs  []string `json:"document_ids"`
}

// StartJobResponse mirrors the startIndexing collaborator contract
type StartJobResponse struct {
	JobID          string `json:"job_id"`
	TotalDocuments int    `json:"total_documents"`
}

// JobsHandler handles GET (list) and POST (start) on /api/jobs
func (h *JobHandler) JobsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		opts := &interfaces.JobListOptions{
			CollectionID: r.URL.Query().Get("collection_id"),
			Status:       r.URL.Query().Get("status"),
		}
		jobs, err := h.indexer.ListJobs(r.Context(), opts)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"jobs":  jobs,
			"count": len(jobs),
		})

	case http.MethodPost:
		var req StartJobRequest
		if err := DecodeJSON(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}
		if err := validate.Struct(&req); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}

		job, err := h.indexer.StartJob(r.Context(), req.CollectionID, req.DocumentIDs)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		WriteJSON(w, http.StatusCreated, StartJobResponse{
			JobID:          job.ID,
			TotalDocuments: job.TotalDocuments,
		})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// JobItemHandler routes /api/jobs/{id} and its control sub-paths:
//
//	GET    /api/jobs/{id}                          - current snapshot
//	POST   /api/jobs/{id}/pause
//	POST   /api/jobs/{id}/resume
//	POST   /api/jobs/{id}/cancel
//	POST   /api/jobs/{id}/documents/{docID}/retry
func (h *JobHandler) JobItemHandler(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	jobID := parts[0]

	switch {
	case len(parts) == 1:
		if !RequireMethod(w, r, http.MethodGet) {
			return
		}
		job, err := h.indexer.GetJob(r.Context(), jobID)
		if err != nil {
			WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, job)

	case len(parts) == 2 && parts[1] == "pause":
		h.control(w, r, jobID, "pause", h.indexer.PauseJob)

	case len(parts) == 2 && parts[1] == "resume":
		h.control(w, r, jobID, "resume", h.indexer.ResumeJob)

	case len(parts) == 2 && parts[1] == "cancel":
		h.control(w, r, jobID, "cancel", h.indexer.CancelJob)

	case len(parts) == 4 && parts[1] == "documents" && parts[3] == "retry":
		if !RequireMethod(w, r, http.MethodPost) {
			return
		}
		if err := h.indexer.RetryDocument(r.Context(), jobID, parts[2]); err != nil {
			WriteError(w, http.StatusConflict, err.Error())
			return
		}
		WriteSuccess(w, "document retry queued")

	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

// control runs one job-level control command with uniform error mapping.
// Illegal-state rejections surface as 409 so clients can distinguish them
// from transport failures.
func (h *JobHandler) control(w http.ResponseWriter, r *http.Request, jobID, name string, fn func(ctx context.Context, jobID string) error) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if err := fn(r.Context(), jobID); err != nil {
		h.logger.Warn().
			Err(err).
			Str("job_id", jobID).
			Str("command", name).
			Msg("Job control command rejected")
		WriteError(w, http.StatusConflict, err.Error())
		return
	}
	WriteSuccess(w, fmt.Sprintf("job %s accepted", name))
}
