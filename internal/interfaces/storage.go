package interfaces

import (
	"context"

	"github.com/mishrapravin114/pharmadoc/internal/models"
)

// CollectionStorage - interface for collection persistence
type CollectionStorage interface {
	SaveCollection(ctx context.Context, collection *models.Collection) error
	GetCollection(ctx context.Context, id string) (*models.Collection, error)
	ListCollections(ctx context.Context) ([]*models.Collection, error)
	DeleteCollection(ctx context.Context, id string) error

	// Metadata extraction field definitions, scoped per collection
	SaveMetadataField(ctx context.Context, field *models.MetadataField) error
	ListMetadataFields(ctx context.Context, collectionID string) ([]*models.MetadataField, error)
	DeleteMetadataField(ctx context.Context, id string) error
}

// DocumentStorage - interface for document persistence
type DocumentStorage interface {
	SaveDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	ListDocuments(ctx context.Context, collectionID string) ([]*models.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	DeleteDocumentsByCollection(ctx context.Context, collectionID string) error
	CountDocuments(ctx context.Context, collectionID string) (int, error)
}

// JobListOptions filters and pages indexing job listings
type JobListOptions struct {
	CollectionID string
	Status       string
	Limit        int
	Offset       int
}

// IndexJobStorage - interface for indexing job persistence
type IndexJobStorage interface {
	SaveJob(ctx context.Context, job *models.IndexJob) error
	GetJob(ctx context.Context, jobID string) (*models.IndexJob, error)
	ListJobs(ctx context.Context, opts *JobListOptions) ([]*models.IndexJob, error)
	DeleteJob(ctx context.Context, jobID string) error
}

// StorageManager provides access to all storage interfaces
type StorageManager interface {
	CollectionStorage() CollectionStorage
	DocumentStorage() DocumentStorage
	JobStorage() IndexJobStorage
	Close() error
}
