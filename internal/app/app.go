package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/mishrapravin114/pharmadoc/internal/common"
	"github.com/mishrapravin114/pharmadoc/internal/handlers"
	"github.com/mishrapravin114/pharmadoc/internal/interfaces"
	"github.com/mishrapravin114/pharmadoc/internal/services/chat"
	"github.com/mishrapravin114/pharmadoc/internal/services/collection"
	"github.com/mishrapravin114/pharmadoc/internal/services/documents"
	"github.com/mishrapravin114/pharmadoc/internal/services/events"
	"github.com/mishrapravin114/pharmadoc/internal/services/indexer"
	"github.com/mishrapravin114/pharmadoc/internal/services/metadata"
	"github.com/mishrapravin114/pharmadoc/internal/services/scheduler"
	"github.com/mishrapravin114/pharmadoc/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Event-driven services
	EventService     interfaces.EventService
	SchedulerService interfaces.SchedulerService

	// Domain services
	CollectionService interfaces.CollectionService
	DocumentService   interfaces.DocumentService
	IndexerService    interfaces.IndexerService
	ChatService       interfaces.ChatService

	// HTTP handlers
	APIHandler        *handlers.APIHandler
	WSHandler         *handlers.WebSocketHandler
	CollectionHandler *handlers.CollectionHandler
	DocumentHandler   *handlers.DocumentHandler
	JobHandler        *handlers.JobHandler
	ChatHandler       *handlers.ChatHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// EventService must exist before the WebSocket handler and the indexer,
	// both of which publish or consume job snapshot events
	app.EventService = events.NewService(app.Logger)
	app.WSHandler = handlers.NewWebSocketHandler(app.EventService, &app.Config.WebSocket, app.Logger)

	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := app.initHandlers(); err != nil {
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	logger.Info().
		Bool("chat_enabled", app.ChatService != nil).
		Bool("scheduler_enabled", cfg.Scheduler.Enabled).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	storageManager, err := badger.NewManager(&a.Config.Storage.Badger, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	// Load metadata field definitions from files. These seed collections with
	// their extraction fields and must be in place before any indexing run.
	if a.Config.Metadata.FieldsDir != "" {
		if err := documents.LoadFieldsFromFiles(context.Background(), storageManager.CollectionStorage(), a.Config.Metadata.FieldsDir, a.Logger); err != nil {
			// Log warning but don't fail startup (consistent with other loaders)
			a.Logger.Warn().Err(err).Msg("Failed to load metadata fields from files")
		}
	}

	return nil
}

// initServices initializes all business services in dependency order
func (a *App) initServices() error {
	a.CollectionService = collection.NewService(
		a.StorageManager.CollectionStorage(),
		a.StorageManager.DocumentStorage(),
		a.EventService,
		a.Logger,
	)
	a.Logger.Debug().Msg("Collection service initialized")

	a.DocumentService = documents.NewService(
		a.StorageManager.DocumentStorage(),
		a.StorageManager.CollectionStorage(),
		a.Logger,
	)
	a.Logger.Debug().Msg("Document service initialized")

	// Chat service requires an Anthropic API key; the rest of the app works
	// without it, so a missing key only disables /api/chat
	chatService, err := chat.NewService(&a.Config.Claude, a.StorageManager.DocumentStorage(), a.Logger)
	if err != nil {
		a.ChatService = nil
		a.Logger.Warn().Err(err).Msg("Chat service unavailable")
		a.Logger.Info().Msg("To enable chat, set ANTHROPIC_API_KEY or claude.api_key in config")
	} else {
		a.ChatService = chatService
		a.Logger.Debug().Msg("Chat service initialized")
	}

	extractor := metadata.NewFieldExtractor(a.Logger)
	a.IndexerService = indexer.NewService(
		a.StorageManager,
		a.EventService,
		extractor,
		&a.Config.Indexer,
		a.Logger,
	)
	a.Logger.Debug().Msg("Indexer service initialized")

	a.SchedulerService = scheduler.NewService(
		&a.Config.Scheduler,
		&a.Config.Indexer,
		a.StorageManager.JobStorage(),
		a.EventService,
		a.Logger,
	)
	if a.Config.Scheduler.Enabled {
		if err := a.SchedulerService.Start(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to start scheduler service")
		} else {
			a.Logger.Debug().Str("schedule", a.Config.Scheduler.Schedule).Msg("Scheduler service started")
		}
	}

	return nil
}

// initHandlers initializes all HTTP handlers
func (a *App) initHandlers() error {
	a.APIHandler = handlers.NewAPIHandler(a.Logger)
	// WSHandler already initialized in New() before the indexer so no snapshot
	// event is published without a subscriber in place

	a.CollectionHandler = handlers.NewCollectionHandler(a.CollectionService, a.Logger)
	a.DocumentHandler = handlers.NewDocumentHandler(a.DocumentService, a.Logger)
	a.JobHandler = handlers.NewJobHandler(a.IndexerService, a.Logger)
	a.ChatHandler = handlers.NewChatHandler(a.ChatService, a.Logger)

	return nil
}

// Close closes all application resources
func (a *App) Close() error {
	// Stop scheduler service
	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	// Stop in-flight indexing runs; give them a bounded window to persist state
	if a.IndexerService != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.IndexerService.Stop(ctx); err != nil {
			a.Logger.Warn().Err(err).Msg("Indexer service did not stop cleanly")
		} else {
			a.Logger.Info().Msg("Indexer service stopped")
		}
	}

	// Close event service
	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	// Close storage
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
