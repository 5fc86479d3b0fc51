package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/mishrapravin114/pharmadoc/internal/interfaces"
)

var validate = validator.New()

// CollectionHandler handles collection CRUD requests
type CollectionHandler struct {
	service interfaces.CollectionService
	logger  arbor.ILogger
}

// NewCollectionHandler creates a new collection handler
func NewCollectionHandler(service interfaces.CollectionService, logger arbor.ILogger) *CollectionHandler {
	return &CollectionHandler{
		service: service,
		logger:  logger,
	}
}

// CreateCollectionRequest is the POST /api/collections body
type CreateCollectionRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// UpdateCollectionRequest is the PUT /api/collections/{id} body
type UpdateCollectionRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// CollectionsHandler handles GET (list) and POST (create) on /api/collections
func (h *CollectionHandler) CollectionsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		collections, err := h.service.ListCollections(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"collections": collections,
			"count":       len(collections),
		})

	case http.MethodPost:
		var req CreateCollectionRequest
		if err := DecodeJSON(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}
		if err := validate.Struct(&req); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}

		collection, err := h.service.CreateCollection(r.Context(), req.Name, req.Description)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteJSON(w, http.StatusCreated, collection)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// CollectionItemHandler handles GET/PUT/DELETE on /api/collections/{id}
func (h *CollectionHandler) CollectionItemHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/collections/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		collection, err := h.service.GetCollection(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, collection)

	case http.MethodPut:
		var req UpdateCollectionRequest
		if err := DecodeJSON(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}
		if err := validate.Struct(&req); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}

		collection, err := h.service.GetCollection(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		collection.Name = req.Name
		collection.Description = req.Description

		if err := h.service.UpdateCollection(r.Context(), collection); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, collection)

	case http.MethodDelete:
		if err := h.service.DeleteCollection(r.Context(), id); err != nil {
			WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		WriteSuccess(w, "collection deleted")

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
