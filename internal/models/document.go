package models

import (
	"fmt"
	"time"
)

// Document represents one ingested source file within a collection.
// Content holds the extracted text used for retrieval; the raw upload is not
// kept once ingestion succeeds.
type Document struct {
	ID           string `json:"id"`
	CollectionID string `json:"collection_id"`
	Name         string `json:"name"`
	ContentType  string `json:"content_type"`
	SizeBytes    int64  `json:"size_bytes"`
	// PageCount is populated for PDF uploads during ingestion validation.
	PageCount int    `json:"page_count,omitempty"`
	Content   string `json:"content,omitempty"`
	// Metadata holds values extracted during indexing, keyed by field name.
	Metadata   map[string]string `json:"metadata,omitempty"`
	UploadedAt time.Time         `json:"uploaded_at"`
	IndexedAt  *time.Time        `json:"indexed_at,omitempty"`
}

// Validate validates the document
func (d *Document) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("document ID is required")
	}
	if d.CollectionID == "" {
		return fmt.Errorf("document collection ID is required")
	}
	if d.Name == "" {
		return fmt.Errorf("document name is required")
	}
	return nil
}

// IsIndexed returns true once the document has been indexed at least once
func (d *Document) IsIndexed() bool {
	return d.IndexedAt != nil
}
