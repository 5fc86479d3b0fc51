package badger

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/mishrapravin114/pharmadoc/internal/common"
	"github.com/mishrapravin114/pharmadoc/internal/interfaces"
)

// Manager implements the StorageManager interface backed by a single BadgerDB
type Manager struct {
	db          *BadgerDB
	collections interfaces.CollectionStorage
	documents   interfaces.DocumentStorage
	jobs        interfaces.IndexJobStorage
	logger      arbor.ILogger
}

// NewManager opens the database and wires up all storage implementations
func NewManager(config *common.BadgerConfig, logger arbor.ILogger) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	return &Manager{
		db:          db,
		collections: NewCollectionStorage(db, logger),
		documents:   NewDocumentStorage(db, logger),
		jobs:        NewJobStorage(db, logger),
		logger:      logger,
	}, nil
}

func (m *Manager) CollectionStorage() interfaces.CollectionStorage {
	return m.collections
}

func (m *Manager) DocumentStorage() interfaces.DocumentStorage {
	return m.documents
}

func (m *Manager) JobStorage() interfaces.IndexJobStorage {
	return m.jobs
}

func (m *Manager) Close() error {
	m.logger.Debug().Msg("Closing storage manager")
	return m.db.Close()
}
