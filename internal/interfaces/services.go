package interfaces

import (
	"context"

	"github.com/mishrapravin114/pharmadoc/internal/models"
)

// CollectionService manages collection CRUD
type CollectionService interface {
	CreateCollection(ctx context.Context, name, description string) (*models.Collection, error)
	GetCollection(ctx context.Context, id string) (*models.Collection, error)
	ListCollections(ctx context.Context) ([]*models.Collection, error)
	UpdateCollection(ctx context.Context, collection *models.Collection) error
	DeleteCollection(ctx context.Context, id string) error
}

// DocumentService manages source-file ingestion and metadata field configuration
type DocumentService interface {
	Ingest(ctx context.Context, collectionID, name, contentType string, data []byte) (*models.Document, error)
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	ListDocuments(ctx context.Context, collectionID string) ([]*models.Document, error)
	DeleteDocument(ctx context.Context, id string) error

	SaveMetadataField(ctx context.Context, field *models.MetadataField) error
	ListMetadataFields(ctx context.Context, collectionID string) ([]*models.MetadataField, error)
	DeleteMetadataField(ctx context.Context, id string) error
}

// IndexerService runs indexing jobs and accepts job control commands.
// Control methods reject commands that are illegal in the job's current state
// without side effects.
type IndexerService interface {
	StartJob(ctx context.Context, collectionID string, documentIDs []string) (*models.IndexJob, error)
	GetJob(ctx context.Context, jobID string) (*models.IndexJob, error)
	ListJobs(ctx context.Context, opts *JobListOptions) ([]*models.IndexJob, error)

	PauseJob(ctx context.Context, jobID string) error
	ResumeJob(ctx context.Context, jobID string) error
	CancelJob(ctx context.Context, jobID string) error
	RetryDocument(ctx context.Context, jobID, documentID string) error

	Stop(ctx context.Context) error
}

// ChatService answers questions grounded on a collection's indexed documents
type ChatService interface {
	Ask(ctx context.Context, collectionID, question string) (string, error)
}

// SchedulerService runs periodic maintenance (stale-job sweeps)
type SchedulerService interface {
	Start() error
	Stop() error
}
