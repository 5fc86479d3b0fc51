package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/mishrapravin114/pharmadoc/internal/interfaces"
	"github.com/mishrapravin114/pharmadoc/internal/models"
)

// CollectionStorage implements the CollectionStorage interface for Badger
type CollectionStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCollectionStorage creates a new CollectionStorage instance
func NewCollectionStorage(db *BadgerDB, logger arbor.ILogger) interfaces.CollectionStorage {
	return &CollectionStorage{
		db:     db,
		logger: logger,
	}
}

func (s *CollectionStorage) SaveCollection(ctx context.Context, collection *models.Collection) error {
	if err := collection.Validate(); err != nil {
		return fmt.Errorf("invalid collection: %w", err)
	}
	if err := s.db.Store().Upsert(collection.ID, collection); err != nil {
		return fmt.Errorf("failed to save collection: %w", err)
	}
	return nil
}

func (s *CollectionStorage) GetCollection(ctx context.Context, id string) (*models.Collection, error) {
	var collection models.Collection
	if err := s.db.Store().Get(id, &collection); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("collection not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}
	return &collection, nil
}

func (s *CollectionStorage) ListCollections(ctx context.Context) ([]*models.Collection, error) {
	var collections []models.Collection
	query := badgerhold.Where("ID").Ne("").SortBy("CreatedAt").Reverse()
	if err := s.db.Store().Find(&collections, query); err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}

	result := make([]*models.Collection, len(collections))
	for i := range collections {
		result[i] = &collections[i]
	}
	return result, nil
}

func (s *CollectionStorage) DeleteCollection(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.Collection{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("collection not found: %s", id)
		}
		return fmt.Errorf("failed to delete collection: %w", err)
	}

	// Field definitions belong to the collection and go with it
	if err := s.db.Store().DeleteMatching(&models.MetadataField{},
		badgerhold.Where("CollectionID").Eq(id)); err != nil {
		s.logger.Warn().Err(err).Str("collection_id", id).Msg("Failed to delete metadata fields for collection")
	}
	return nil
}

func (s *CollectionStorage) SaveMetadataField(ctx context.Context, field *models.MetadataField) error {
	if err := field.Validate(); err != nil {
		return fmt.Errorf("invalid metadata field: %w", err)
	}
	if field.ID == "" {
		return fmt.Errorf("metadata field ID is required")
	}
	if err := s.db.Store().Upsert(field.ID, field); err != nil {
		return fmt.Errorf("failed to save metadata field: %w", err)
	}
	return nil
}

func (s *CollectionStorage) ListMetadataFields(ctx context.Context, collectionID string) ([]*models.MetadataField, error) {
	var fields []models.MetadataField
	query := badgerhold.Where("CollectionID").Eq(collectionID).SortBy("Name")
	if err := s.db.Store().Find(&fields, query); err != nil {
		return nil, fmt.Errorf("failed to list metadata fields: %w", err)
	}

	result := make([]*models.MetadataField, len(fields))
	for i := range fields {
		result[i] = &fields[i]
	}
	return result, nil
}

func (s *CollectionStorage) DeleteMetadataField(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.MetadataField{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("metadata field not found: %s", id)
		}
		return fmt.Errorf("failed to delete metadata field: %w", err)
	}
	return nil
}
