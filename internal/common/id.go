package common

import (
	"github.com/google/uuid"
)

// NewCollectionID generates a unique collection ID with the "col_" prefix
func NewCollectionID() string {
	return "col_" + uuid.New().String()
}

// NewDocumentID generates a unique document ID with the "doc_" prefix
func NewDocumentID() string {
	return "doc_" + uuid.New().String()
}

// NewJobID generates a unique indexing job ID with the "job_" prefix
func NewJobID() string {
	return "job_" + uuid.New().String()
}
