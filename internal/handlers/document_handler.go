package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/mishrapravin114/pharmadoc/internal/interfaces"
	"github.com/mishrapravin114/pharmadoc/internal/models"
)

// maxUploadBytes caps a single source-file upload (50 MB)
const maxUploadBytes = 50 * 1024 * 1024

// DocumentHandler handles document ingestion, listing and metadata field config
type DocumentHandler struct {
	service interfaces.DocumentService
	logger  arbor.ILogger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(service interfaces.DocumentService, logger arbor.ILogger) *DocumentHandler {
	return &DocumentHandler{
		service: service,
		logger:  logger,
	}
}

// DocumentsHandler handles GET (list) and POST (multipart upload) on
// /api/collections/{id}/documents
func (h *DocumentHandler) DocumentsHandler(w http.ResponseWriter, r *http.Request, collectionID string) {
	switch r.Method {
	case http.MethodGet:
		docs, err := h.service.ListDocuments(r.Context(), collectionID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"documents": docs,
			"count":     len(docs),
		})

	case http.MethodPost:
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart request: %v", err))
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			WriteError(w, http.StatusBadRequest, "missing file field")
			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if len(data) > maxUploadBytes {
			WriteError(w, http.StatusRequestEntityTooLarge, "upload exceeds 50MB limit")
			return
		}

		doc, err := h.service.Ingest(r.Context(), collectionID, header.Filename,
			header.Header.Get("Content-Type"), data)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		WriteJSON(w, http.StatusCreated, doc)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// DocumentItemHandler handles GET/DELETE on /api/documents/{id}
func (h *DocumentHandler) DocumentItemHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/documents/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		doc, err := h.service.GetDocument(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, doc)

	case http.MethodDelete:
		if err := h.service.DeleteDocument(r.Context(), id); err != nil {
			WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		WriteSuccess(w, "document deleted")

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// MetadataFieldRequest is the POST body for a metadata field definition
type MetadataFieldRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Type     string `json:"type" validate:"required,oneof=text number date"`
	Prompt   string `json:"prompt" validate:"max=2000"`
	Required bool   `json:"required"`
}

// MetadataFieldsHandler handles GET (list) and POST (create) on
// /api/collections/{id}/fields
func (h *DocumentHandler) MetadataFieldsHandler(w http.ResponseWriter, r *http.Request, collectionID string) {
	switch r.Method {
	case http.MethodGet:
		fields, err := h.service.ListMetadataFields(r.Context(), collectionID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"fields": fields,
			"count":  len(fields),
		})

	case http.MethodPost:
		var req MetadataFieldRequest
		if err := DecodeJSON(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}
		if err := validate.Struct(&req); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}

		field := &models.MetadataField{
			CollectionID: collectionID,
			Name:         req.Name,
			Type:         models.MetadataFieldType(req.Type),
			Prompt:       req.Prompt,
			Required:     req.Required,
		}
		if err := h.service.SaveMetadataField(r.Context(), field); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		WriteJSON(w, http.StatusCreated, field)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
