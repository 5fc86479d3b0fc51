package collection

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/mishrapravin114/pharmadoc/internal/common"
	"github.com/mishrapravin114/pharmadoc/internal/interfaces"
	"github.com/mishrapravin114/pharmadoc/internal/models"
)

// Service implements CollectionService
type Service struct {
	storage      interfaces.CollectionStorage
	documents    interfaces.DocumentStorage
	eventService interfaces.EventService
	logger       arbor.ILogger
}

// NewService creates a new collection service
func NewService(storage interfaces.CollectionStorage, documents interfaces.DocumentStorage, eventService interfaces.EventService, logger arbor.ILogger) interfaces.CollectionService {
	return &Service{
		storage:      storage,
		documents:    documents,
		eventService: eventService,
		logger:       logger,
	}
}

func (s *Service) CreateCollection(ctx context.Context, name, description string) (*models.Collection, error) {
	if name == "" {
		return nil, fmt.Errorf("collection name is required")
	}

	now := time.Now()
	collection := &models.Collection{
		ID:          common.NewCollectionID(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.storage.SaveCollection(ctx, collection); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("collection_id", collection.ID).
		Str("name", name).
		Msg("Collection created")

	s.eventService.Publish(ctx, interfaces.Event{
		Type:    interfaces.EventCollectionChanged,
		Payload: collection,
	})

	return collection, nil
}

func (s *Service) GetCollection(ctx context.Context, id string) (*models.Collection, error) {
	return s.storage.GetCollection(ctx, id)
}

func (s *Service) ListCollections(ctx context.Context) ([]*models.Collection, error) {
	return s.storage.ListCollections(ctx)
}

func (s *Service) UpdateCollection(ctx context.Context, collection *models.Collection) error {
	existing, err := s.storage.GetCollection(ctx, collection.ID)
	if err != nil {
		return err
	}

	collection.CreatedAt = existing.CreatedAt
	collection.UpdatedAt = time.Now()

	if err := s.storage.SaveCollection(ctx, collection); err != nil {
		return err
	}

	s.eventService.Publish(ctx, interfaces.Event{
		Type:    interfaces.EventCollectionChanged,
		Payload: collection,
	})
	return nil
}

func (s *Service) DeleteCollection(ctx context.Context, id string) error {
	if err := s.storage.DeleteCollection(ctx, id); err != nil {
		return err
	}

	// Documents do not outlive their collection
	if err := s.documents.DeleteDocumentsByCollection(ctx, id); err != nil {
		s.logger.Warn().Err(err).Str("collection_id", id).Msg("Failed to delete documents for collection")
	}

	s.logger.Info().Str("collection_id", id).Msg("Collection deleted")
	return nil
}
