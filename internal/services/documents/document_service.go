package documents

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/ternarybob/arbor"

	"github.com/mishrapravin114/pharmadoc/internal/common"
	"github.com/mishrapravin114/pharmadoc/internal/interfaces"
	"github.com/mishrapravin114/pharmadoc/internal/models"
)

// Service implements DocumentService: source-file ingestion plus metadata
// extraction field configuration.
type Service struct {
	storage     interfaces.DocumentStorage
	collections interfaces.CollectionStorage
	logger      arbor.ILogger
}

// NewService creates a new document service
func NewService(storage interfaces.DocumentStorage, collections interfaces.CollectionStorage, logger arbor.ILogger) *Service {
	return &Service{
		storage:     storage,
		collections: collections,
		logger:      logger,
	}
}

// Ingest validates and stores an uploaded source file. PDF uploads are
// validated with pdfcpu; a corrupt PDF is rejected before anything is stored.
func (s *Service) Ingest(ctx context.Context, collectionID, name, contentType string, data []byte) (*models.Document, error) {
	if _, err := s.collections.GetCollection(ctx, collectionID); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty upload: %s", name)
	}

	doc := &models.Document{
		ID:           common.NewDocumentID(),
		CollectionID: collectionID,
		Name:         name,
		ContentType:  contentType,
		SizeBytes:    int64(len(data)),
		UploadedAt:   time.Now(),
	}

	switch {
	case contentType == "application/pdf" || strings.HasSuffix(strings.ToLower(name), ".pdf"):
		pageCount, err := api.PageCount(bytes.NewReader(data), nil)
		if err != nil {
			return nil, fmt.Errorf("invalid PDF %s: %w", name, err)
		}
		if pageCount == 0 {
			return nil, fmt.Errorf("invalid PDF %s: no pages", name)
		}
		doc.ContentType = "application/pdf"
		doc.PageCount = pageCount
	default:
		// Plain text content is kept verbatim for retrieval
		doc.Content = string(data)
	}

	if err := s.storage.SaveDocument(ctx, doc); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("document_id", doc.ID).
		Str("collection_id", collectionID).
		Str("name", name).
		Int("page_count", doc.PageCount).
		Msg("Document ingested")

	return doc, nil
}

func (s *Service) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	return s.storage.GetDocument(ctx, id)
}

func (s *Service) ListDocuments(ctx context.Context, collectionID string) ([]*models.Document, error) {
	return s.storage.ListDocuments(ctx, collectionID)
}

func (s *Service) DeleteDocument(ctx context.Context, id string) error {
	return s.storage.DeleteDocument(ctx, id)
}

func (s *Service) SaveMetadataField(ctx context.Context, field *models.MetadataField) error {
	if field.ID == "" {
		field.ID = "fld_" + common.NewDocumentID()[4:]
	}
	if _, err := s.collections.GetCollection(ctx, field.CollectionID); err != nil {
		return err
	}
	return s.collections.SaveMetadataField(ctx, field)
}

func (s *Service) ListMetadataFields(ctx context.Context, collectionID string) ([]*models.MetadataField, error) {
	return s.collections.ListMetadataFields(ctx, collectionID)
}

func (s *Service) DeleteMetadataField(ctx context.Context, id string) error {
	return s.collections.DeleteMetadataField(ctx, id)
}
