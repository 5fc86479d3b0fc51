package handlers

import (
	"fmt"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/mishrapravin114/pharmadoc/internal/interfaces"
)

// ChatHandler handles RAG chat requests
type ChatHandler struct {
	service interfaces.ChatService // nil when no API key is configured
	logger  arbor.ILogger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(service interfaces.ChatService, logger arbor.ILogger) *ChatHandler {
	return &ChatHandler{
		service: service,
		logger:  logger,
	}
}

// ChatRequest is the POST /api/chat body
type ChatRequest struct {
	CollectionID string `json:"collection_id" validate:"required"`
	Question     string `json:"question" validate:"required,min=1,max=4000"`
}

// Handle handles POST /api/chat
func (h *ChatHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if h.service == nil {
		WriteError(w, http.StatusServiceUnavailable, "chat is not configured (missing API key)")
		return
	}

	var req ChatRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if err := validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	answer, err := h.service.Ask(r.Context(), req.CollectionID, req.Question)
	if err != nil {
		WriteError(w, http.StatusBadGateway, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"answer": answer,
	})
}
