package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Collections
	mux.HandleFunc("/api/collections", s.app.CollectionHandler.CollectionsHandler) // GET (list), POST (create)
	mux.HandleFunc("/api/collections/", s.handleCollectionRoutes)                  // /{id} and subpaths

	// API routes - Documents
	mux.HandleFunc("/api/documents/", s.app.DocumentHandler.DocumentItemHandler) // GET/DELETE /{id}

	// API routes - Index jobs
	mux.HandleFunc("/api/jobs", s.app.JobHandler.JobsHandler)     // GET (list), POST (start)
	mux.HandleFunc("/api/jobs/", s.app.JobHandler.JobItemHandler) // /{id}, /{id}/pause|resume|cancel, /{id}/documents/{docID}/retry

	// API routes - Chat
	mux.HandleFunc("/api/chat", s.app.ChatHandler.Handle)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleCollectionRoutes routes /api/collections/{id} and its subpaths
func (s *Server) handleCollectionRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/collections/")

	// POST/GET /api/collections/{id}/documents
	if strings.HasSuffix(path, "/documents") {
		collectionID := strings.TrimSuffix(path, "/documents")
		if collectionID == "" || strings.Contains(collectionID, "/") {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		s.app.DocumentHandler.DocumentsHandler(w, r, collectionID)
		return
	}

	// GET/POST/DELETE /api/collections/{id}/fields
	if strings.HasSuffix(path, "/fields") {
		collectionID := strings.TrimSuffix(path, "/fields")
		if collectionID == "" || strings.Contains(collectionID, "/") {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		s.app.DocumentHandler.MetadataFieldsHandler(w, r, collectionID)
		return
	}

	// GET/PUT/DELETE /api/collections/{id}
	s.app.CollectionHandler.CollectionItemHandler(w, r)
}
